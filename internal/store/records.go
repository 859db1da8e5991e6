package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adsarch/greylit/internal/author"
)

// Identifier types in RESOURCE_DC_IDENTIFIER.
const (
	IdentifierProjectNumber = "Project Number"
	IdentifierSiteCode      = "Site Code"
)

// Location types in RESOURCE_DC_COV_LOC.
const (
	LocationCountry  = "Country"
	LocationParish   = "Parish"
	LocationDistrict = "District"
	LocationCounty   = "County"
	LocationSite     = "Site"
)

// Fixed column values written for every issue and series.
const (
	RelationURI           = "URI"
	RelationshipAuthor    = 4
	CoordinatePoint       = "POINT"
	WorkflowPublished     = "published"
	SeriesAccessReference = "reference"
	IssueAccessLinked     = "linked"
	IssueLicenseStandard  = "Standard"
	IssuePublicationType  = "GreyLitSeries"
)

// SourceSpec describes a SOURCE row.
type SourceSpec struct {
	Name        string
	Description string
	Link        string
}

// SeriesSpec describes a SERIES row and its SERIES_NAME.
type SeriesSpec struct {
	Name            string
	PublicationType string
	SourceID        int64
	CreatedAt       time.Time
}

// IssueSpec describes an ISSUE row. Year 0 is stored as NULL.
type IssueSpec struct {
	Title        string
	Abstract     string
	Year         int
	SeriesNameID int64
	SourceID     int64
}

// CoordinateSpec describes a RESOURCE_DC_COV_COORD row.
type CoordinateSpec struct {
	IssueID    int64
	VectorType string
	Easting    float64
	Northing   float64
	Lat        float64
	Long       float64
}

// ProjectNumbers returns the project numbers already recorded, mapped to
// their identifier ids.
func (c conn) ProjectNumbers(ctx context.Context) (map[string]int64, error) {
	rows, err := c.q.QueryContext(ctx,
		"SELECT RESOURCE_DC_IDENTIFIER_ID, DESCRIPTION FROM RESOURCE_DC_IDENTIFIER WHERE TYPE = :v_type",
		sql.Named("v_type", IdentifierProjectNumber))
	if err != nil {
		return nil, fmt.Errorf("fetching project numbers: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]int64)
	for rows.Next() {
		var id int64
		var desc sql.NullString
		if err := rows.Scan(&id, &desc); err != nil {
			return nil, fmt.Errorf("scanning project number: %w", err)
		}
		if _, ok := ids[desc.String]; !ok {
			ids[desc.String] = id
		}
	}
	return ids, rows.Err()
}

// FindSource returns the id of the source with the given name.
func (c conn) FindSource(ctx context.Context, name string) (int64, bool, error) {
	return c.lookupID(ctx, "SELECT SOURCE_ID FROM SOURCE WHERE NAME = :v_name", sql.Named("v_name", name))
}

// FindSeries returns the id of the series with the given name.
func (c conn) FindSeries(ctx context.Context, name string) (int64, bool, error) {
	return c.lookupID(ctx, "SELECT SERIES_ID FROM SERIES WHERE SERIES_NAME = :v_series_name", sql.Named("v_series_name", name))
}

// FindPerson returns the id of the person matching r exactly.
func (c conn) FindPerson(ctx context.Context, r author.Record) (int64, bool, error) {
	query := "SELECT PERSON_ID FROM PERSON WHERE " +
		nullEq("SURNAME") + " AND " + nullEq("FORENAME") + " AND " + nullEq("INITIALS") +
		" ORDER BY PERSON_ID"

	var args []any
	for _, kv := range []struct{ col, val string }{
		{"SURNAME", r.Surname}, {"FORENAME", r.Forename}, {"INITIALS", r.Initials},
	} {
		v := nullableStringValue(kv.val)
		b := bindName(kv.col)
		args = append(args, sql.Named(b, v), sql.Named(b+"_n", v))
	}

	return c.lookupID(ctx, query, args...)
}

// EnsureSource returns the id of the named source, inserting it with the
// next free SOURCE_ID if it doesn't exist.
func (t *Tx) EnsureSource(ctx context.Context, spec SourceSpec) (id int64, created bool, err error) {
	id, found, err := t.FindSource(ctx, spec.Name)
	if err != nil {
		return 0, false, fmt.Errorf("looking up source: %w", err)
	}
	if found {
		t.log.WithField("source_id", id).Info("source already exists")
		return id, false, nil
	}

	var maxID sql.NullInt64
	if err := t.q.QueryRowContext(ctx, "SELECT MAX(SOURCE_ID) FROM SOURCE").Scan(&maxID); err != nil {
		return 0, false, fmt.Errorf("fetching next SOURCE_ID: %w", err)
	}
	id = maxID.Int64 + 1

	_, err = t.insert(ctx, insert{
		table:   "SOURCE",
		columns: []string{"SOURCE_ID", "NAME", "DESCRIPTION", "LINK"},
		values:  []any{id, spec.Name, nullableStringValue(spec.Description), nullableStringValue(spec.Link)},
	})
	if err != nil {
		return 0, false, err
	}

	t.log.WithFields(logrus.Fields{"source_id": id, "name": spec.Name}).Info("inserted source")
	return id, true, nil
}

// EnsureSeries returns the ids of the named series and its series name,
// inserting both if the series doesn't exist.
func (t *Tx) EnsureSeries(ctx context.Context, spec SeriesSpec) (seriesID, seriesNameID int64, created bool, err error) {
	seriesID, found, err := t.FindSeries(ctx, spec.Name)
	if err != nil {
		return 0, 0, false, fmt.Errorf("looking up series: %w", err)
	}

	if found {
		seriesNameID, ok, err := t.lookupID(ctx,
			"SELECT SERIES_NAME_ID FROM SERIES_NAME WHERE SERIES_ID = :v_series_id ORDER BY SERIES_NAME_ID",
			sql.Named("v_series_id", seriesID))
		if err != nil {
			return 0, 0, false, fmt.Errorf("looking up series name: %w", err)
		}
		if !ok {
			return 0, 0, false, fmt.Errorf("%w: SERIES_ID %d", ErrSeriesNameMissing, seriesID)
		}
		t.log.WithFields(logrus.Fields{"series_id": seriesID, "series_name_id": seriesNameID}).Info("series already exists")
		return seriesID, seriesNameID, false, nil
	}

	createdAt := spec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	seriesID, err = t.insert(ctx, insert{
		table:    "SERIES",
		idColumn: "SERIES_ID",
		sequence: "series_seq",
		columns:  []string{"SERIES_NAME", "PUBLICATION_TYPE", "SOURCE_ID", "CREATED_AT", "WF_STAGE", "ACCESS_TYPE"},
		values:   []any{spec.Name, spec.PublicationType, spec.SourceID, createdAt, WorkflowPublished, SeriesAccessReference},
	})
	if err != nil {
		return 0, 0, false, err
	}

	seriesNameID, err = t.insert(ctx, insert{
		table:    "SERIES_NAME",
		idColumn: "SERIES_NAME_ID",
		sequence: "series_name_seq",
		columns:  []string{"SERIES_ID", "TITLE"},
		values:   []any{seriesID, spec.Name},
	})
	if err != nil {
		return 0, 0, false, err
	}

	t.log.WithFields(logrus.Fields{
		"series_id":      seriesID,
		"series_name_id": seriesNameID,
		"name":           spec.Name,
	}).Info("inserted series")
	return seriesID, seriesNameID, true, nil
}

// InsertProject records a project number that is not tied to an issue.
func (t *Tx) InsertProject(ctx context.Context, reference string) (int64, error) {
	id, err := t.insert(ctx, insert{
		table:    "RESOURCE_DC_IDENTIFIER",
		idColumn: "RESOURCE_DC_IDENTIFIER_ID",
		columns:  []string{"DESCRIPTION", "TYPE"},
		values:   []any{reference, IdentifierProjectNumber},
	})
	if err != nil {
		return 0, err
	}
	t.log.WithFields(logrus.Fields{"project": reference, "identifier_id": id}).Info("inserted project")
	return id, nil
}

// EnsurePerson returns the id of the person matching r, inserting one if
// none exists.
func (t *Tx) EnsurePerson(ctx context.Context, r author.Record) (id int64, created bool, err error) {
	id, found, err := t.FindPerson(ctx, r)
	if err != nil {
		return 0, false, fmt.Errorf("looking up person %q: %w", r.String(), err)
	}
	if found {
		t.log.WithFields(logrus.Fields{"person_id": id, "author": r.String()}).Debug("author already exists")
		return id, false, nil
	}

	id, err = t.insert(ctx, insert{
		table:    "PERSON",
		idColumn: "PERSON_ID",
		columns:  []string{"SURNAME", "FORENAME", "INITIALS"},
		values: []any{
			nullableStringValue(r.Surname),
			nullableStringValue(r.Forename),
			nullableStringValue(r.Initials),
		},
	})
	if err != nil {
		return 0, false, err
	}
	t.log.WithFields(logrus.Fields{"person_id": id, "author": r.String()}).Info("inserted author")
	return id, true, nil
}

// InsertIssue inserts an ISSUE row with the fixed grey-literature values.
func (t *Tx) InsertIssue(ctx context.Context, spec IssueSpec) (int64, error) {
	id, err := t.insert(ctx, insert{
		table:    "ISSUE",
		idColumn: "ISSUE_ID",
		sequence: "issue_seq",
		columns: []string{
			"TITLE", "ABSTRACT", "YEAR_OF_PUBLICATION", "ACCESS_TYPE", "LICENSE_TYPE",
			"PUBLICATION_TYPE", "PUBLICATION_TYPE2", "SERIES_NAME_ID", "SOURCE_ID",
			"IS_UNPUBLISHED", "WF_STAGE",
		},
		values: []any{
			nullableStringValue(spec.Title), nullableStringValue(spec.Abstract), nullableInt(spec.Year),
			IssueAccessLinked, IssueLicenseStandard,
			IssuePublicationType, IssuePublicationType, spec.SeriesNameID, spec.SourceID,
			1, WorkflowPublished,
		},
	})
	if err != nil {
		return 0, err
	}
	t.log.WithField("issue_id", id).Info("inserted issue")
	return id, nil
}

// LinkAuthors links each person to the issue as an author.
func (t *Tx) LinkAuthors(ctx context.Context, personIDs []int64, issueID int64) error {
	for _, pid := range personIDs {
		_, err := t.insert(ctx, insert{
			table:   "RESOURCE_PERSON",
			columns: []string{"PERSON_ID", "RELATIONSHIP_TYPE_ID", "ISSUE_ID"},
			values:  []any{pid, RelationshipAuthor, issueID},
		})
		if err != nil {
			return fmt.Errorf("linking person %d to issue %d: %w", pid, issueID, err)
		}
		t.log.WithFields(logrus.Fields{"person_id": pid, "issue_id": issueID}).Debug("linked author")
	}
	return nil
}

// InsertIdentifier records an identifier (site code, project number) for an issue.
func (t *Tx) InsertIdentifier(ctx context.Context, kind, description string, issueID int64) error {
	_, err := t.insert(ctx, insert{
		table:   "RESOURCE_DC_IDENTIFIER",
		columns: []string{"DESCRIPTION", "TYPE", "ISSUE_ID"},
		values:  []any{description, kind, issueID},
	})
	if err != nil {
		return err
	}
	t.log.WithFields(logrus.Fields{"type": kind, "description": description, "issue_id": issueID}).Debug("inserted identifier")
	return nil
}

// InsertRelation records a URI related to an issue.
func (t *Tx) InsertRelation(ctx context.Context, uri string, issueID int64) error {
	_, err := t.insert(ctx, insert{
		table:   "RESOURCE_DC_RELATION",
		columns: []string{"TYPE", "URI", "ISSUE_ID"},
		values:  []any{RelationURI, uri, issueID},
	})
	if err != nil {
		return err
	}
	t.log.WithFields(logrus.Fields{"uri": uri, "issue_id": issueID}).Debug("inserted bibliographic URL")
	return nil
}

// InsertLocation records a coverage location for an issue.
func (t *Tx) InsertLocation(ctx context.Context, kind, description string, issueID int64) error {
	_, err := t.insert(ctx, insert{
		table:   "RESOURCE_DC_COV_LOC",
		columns: []string{"TYPE", "DESCRIPTION", "ISSUE_ID"},
		values:  []any{kind, nullableStringValue(description), issueID},
	})
	if err != nil {
		return err
	}
	t.log.WithFields(logrus.Fields{"type": kind, "description": description, "issue_id": issueID}).Debug("inserted location")
	return nil
}

// InsertCoordinate records a point coordinate for an issue.
func (t *Tx) InsertCoordinate(ctx context.Context, spec CoordinateSpec) error {
	_, err := t.insert(ctx, insert{
		table:   "RESOURCE_DC_COV_COORD",
		columns: []string{"TYPE", "EASTING", "NORTHING", "ISSUE_ID", "COORDINATE_TYPE", "LAT_Y", "LONG_X"},
		values: []any{
			nullableStringValue(spec.VectorType), spec.Easting, spec.Northing, spec.IssueID,
			CoordinatePoint, spec.Lat, spec.Long,
		},
	})
	if err != nil {
		return err
	}
	t.log.WithField("issue_id", spec.IssueID).Debug("inserted coordinates")
	return nil
}
