package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsarch/greylit/internal/author"
	"github.com/adsarch/greylit/internal/config"
	"github.com/adsarch/greylit/internal/logging"
)

// openTestStore opens an in-memory SQLite store.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(),
		config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"},
		WithLogger(logging.Discard()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestInsertSQL(t *testing.T) {
	ins := insert{
		table:    "ISSUE",
		idColumn: "ISSUE_ID",
		sequence: "issue_seq",
		columns:  []string{"TITLE", "SOURCE_ID"},
	}

	assert.Equal(t,
		"INSERT INTO ISSUE (ISSUE_ID, TITLE, SOURCE_ID) VALUES (issue_seq.NEXTVAL, :v_title, :v_source_id) RETURNING ISSUE_ID INTO :ret_id",
		Oracle.insertSQL(ins))
	assert.Equal(t,
		"INSERT INTO ISSUE (TITLE, SOURCE_ID) VALUES (:v_title, :v_source_id) RETURNING ISSUE_ID",
		SQLite.insertSQL(ins))

	ins.idColumn = ""
	ins.sequence = ""
	assert.Equal(t,
		"INSERT INTO ISSUE (TITLE, SOURCE_ID) VALUES (:v_title, :v_source_id)",
		Oracle.insertSQL(ins))
}

func TestOracleDSN(t *testing.T) {
	dsn := OracleDSN(config.DatabaseConfig{
		Driver: config.DriverOracle, Username: "ingest", Password: "pw",
		Host: "db.example.org", Port: 1521, SID: "ORCL",
	})
	assert.True(t, strings.HasPrefix(dsn, "oracle://"), dsn)
	assert.Contains(t, dsn, "db.example.org:1521")
	assert.Contains(t, dsn, "SID=ORCL")

	dsn = OracleDSN(config.DatabaseConfig{
		Driver: config.DriverOracle, Username: "ingest", Password: "pw",
		Host: "db.example.org", Port: 1521, Service: "GREYLIT",
	})
	assert.Contains(t, dsn, "/GREYLIT")
}

func TestEnsureSource_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	spec := SourceSpec{Name: "Welsh Archaeological Trusts - Archwilio", Link: "https://archwilio.org.uk/wp/"}

	var first, second int64
	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		id, created, err := tx.EnsureSource(ctx, spec)
		assert.True(t, created)
		first = id
		return err
	}))
	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		id, created, err := tx.EnsureSource(ctx, spec)
		assert.False(t, created)
		second = id
		return err
	}))

	assert.Equal(t, int64(1), first)
	assert.Equal(t, first, second)

	// A second source gets MAX+1.
	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		id, _, err := tx.EnsureSource(ctx, SourceSpec{Name: "Other"})
		assert.Equal(t, int64(2), id)
		return err
	}))
}

func TestEnsureSeries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	spec := SeriesSpec{Name: "Welsh Archaeological Trusts reports", PublicationType: "GreyLit", SourceID: 1}

	var sid, snid int64
	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		var created bool
		var err error
		sid, snid, created, err = tx.EnsureSeries(ctx, spec)
		assert.True(t, created)
		return err
	}))
	assert.NotZero(t, sid)
	assert.NotZero(t, snid)

	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		sid2, snid2, created, err := tx.EnsureSeries(ctx, spec)
		assert.False(t, created)
		assert.Equal(t, sid, sid2)
		assert.Equal(t, snid, snid2)
		return err
	}))
}

func TestEnsureSeries_MissingSeriesName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, "INSERT INTO SERIES (SERIES_NAME) VALUES ('orphan')")
	require.NoError(t, err)

	err = s.InTx(ctx, func(tx *Tx) error {
		_, _, _, err := tx.EnsureSeries(ctx, SeriesSpec{Name: "orphan"})
		return err
	})
	assert.True(t, errors.Is(err, ErrSeriesNameMissing), "err = %v", err)
}

func TestEnsurePerson(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	records := []author.Record{
		{Surname: "Doe", Forename: "John", Initials: "A."},
		{Surname: "rober", Forename: "brew"},
		{Surname: "Smith"},
	}

	ids := make(map[author.Key]int64)
	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		for _, r := range records {
			id, created, err := tx.EnsurePerson(ctx, r)
			if err != nil {
				return err
			}
			assert.True(t, created, r.String())
			ids[r.Key()] = id
		}
		return nil
	}))

	// Same keys, including empty forename/initials, resolve to the same rows.
	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		for _, r := range records {
			id, created, err := tx.EnsurePerson(ctx, r)
			if err != nil {
				return err
			}
			assert.False(t, created, r.String())
			assert.Equal(t, ids[r.Key()], id, r.String())
		}
		return nil
	}))

	// Initials are part of the key.
	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		_, created, err := tx.EnsurePerson(ctx, author.Record{Surname: "Doe", Forename: "John", Initials: "B."})
		assert.True(t, created)
		return err
	}))

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, counts["PERSON"])
}

func TestInTx_RollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx *Tx) error {
		if _, err := tx.InsertProject(ctx, "PRJ001"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	numbers, err := s.ProjectNumbers(ctx)
	require.NoError(t, err)
	assert.Empty(t, numbers)
}

func TestIssueRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var issueID int64
	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		projectID, err := tx.InsertProject(ctx, "PRJ001")
		if err != nil {
			return err
		}
		assert.NotZero(t, projectID)

		issueID, err = tx.InsertIssue(ctx, IssueSpec{Title: "Report", Abstract: "Found a ditch.", Year: 2019, SeriesNameID: 1, SourceID: 1})
		if err != nil {
			return err
		}

		pid, _, err := tx.EnsurePerson(ctx, author.Record{Surname: "Doe", Forename: "John"})
		if err != nil {
			return err
		}
		if err := tx.LinkAuthors(ctx, []int64{pid}, issueID); err != nil {
			return err
		}
		if err := tx.InsertIdentifier(ctx, IdentifierSiteCode, "FC19", issueID); err != nil {
			return err
		}
		if err := tx.InsertIdentifier(ctx, IdentifierProjectNumber, "PRJ001", issueID); err != nil {
			return err
		}
		if err := tx.InsertRelation(ctx, "https://example.org/r.pdf", issueID); err != nil {
			return err
		}
		if err := tx.InsertLocation(ctx, LocationCountry, "Wales", issueID); err != nil {
			return err
		}
		return tx.InsertCoordinate(ctx, CoordinateSpec{
			IssueID: issueID, VectorType: "Point",
			Easting: 327890, Northing: 318540, Lat: 52.76, Long: -3.08,
		})
	}))

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["ISSUE"])
	assert.Equal(t, 1, counts["RESOURCE_PERSON"])
	assert.Equal(t, 3, counts["RESOURCE_DC_IDENTIFIER"])
	assert.Equal(t, 1, counts["RESOURCE_DC_RELATION"])
	assert.Equal(t, 1, counts["RESOURCE_DC_COV_LOC"])
	assert.Equal(t, 1, counts["RESOURCE_DC_COV_COORD"])

	numbers, err := s.ProjectNumbers(ctx)
	require.NoError(t, err)
	assert.Contains(t, numbers, "PRJ001")

	var year int
	var license string
	require.NoError(t, s.db.QueryRowContext(ctx,
		"SELECT YEAR_OF_PUBLICATION, LICENSE_TYPE FROM ISSUE WHERE ISSUE_ID = ?", issueID).Scan(&year, &license))
	assert.Equal(t, 2019, year)
	assert.Equal(t, IssueLicenseStandard, license)

	var lat, long float64
	require.NoError(t, s.db.QueryRowContext(ctx,
		"SELECT LAT_Y, LONG_X FROM RESOURCE_DC_COV_COORD WHERE ISSUE_ID = ?", issueID).Scan(&lat, &long))
	assert.Equal(t, 52.76, lat)
	assert.Equal(t, -3.08, long)
}
