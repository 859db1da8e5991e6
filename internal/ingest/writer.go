package ingest

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/adsarch/greylit/internal/author"
	"github.com/adsarch/greylit/internal/oasis"
	"github.com/adsarch/greylit/internal/store"
)

type writer struct {
	in     *Ingester
	report *Report
	log    *logrus.Entry
	// seen tracks persons counted during a dry run.
	seen map[author.Key]bool
}

func (w *writer) project(ctx context.Context, p oasis.Project) error {
	plan, err := planProject(p, w.in.mode)
	if err != nil {
		return err
	}
	log := w.log.WithField("project", plan.reference)
	for _, msg := range plan.warnings {
		w.report.warn(log, "%s", msg)
	}

	pr := ProjectReport{Reference: plan.reference}
	if w.in.dryRun {
		err = w.preview(ctx, plan, &pr)
	} else {
		err = w.in.store.InTx(ctx, func(tx *store.Tx) error {
			return w.apply(ctx, tx, plan, &pr)
		})
	}
	if err != nil {
		return err
	}

	w.report.Projects = append(w.report.Projects, pr)
	w.report.Issues += len(plan.issues)
	log.WithField("issues", len(plan.issues)).Info("project ingested")
	return nil
}

func (w *writer) apply(ctx context.Context, tx *store.Tx, plan *projectPlan, pr *ProjectReport) error {
	if _, err := tx.InsertProject(ctx, plan.reference); err != nil {
		return err
	}

	for _, ip := range plan.issues {
		issueID, err := tx.InsertIssue(ctx, store.IssueSpec{
			Title:        ip.title,
			Abstract:     plan.abstract,
			Year:         ip.year,
			SeriesNameID: w.report.SeriesNameID,
			SourceID:     w.report.SourceID,
		})
		if err != nil {
			return err
		}
		pr.IssueIDs = append(pr.IssueIDs, issueID)

		var personIDs []int64
		linked := make(map[int64]bool)
		for _, rec := range ip.authors {
			id, created, err := tx.EnsurePerson(ctx, rec)
			if err != nil {
				return err
			}
			w.countPerson(created)
			if linked[id] {
				continue
			}
			linked[id] = true
			personIDs = append(personIDs, id)
		}
		if err := tx.LinkAuthors(ctx, personIDs, issueID); err != nil {
			return err
		}
		pr.Authors += len(personIDs)
		pr.Unparsed = append(pr.Unparsed, ip.unparsed...)

		for _, code := range ip.siteCodes {
			if err := tx.InsertIdentifier(ctx, store.IdentifierSiteCode, code, issueID); err != nil {
				return err
			}
		}
		if err := tx.InsertIdentifier(ctx, store.IdentifierProjectNumber, plan.reference, issueID); err != nil {
			return err
		}
		if ip.url != "" {
			if err := tx.InsertRelation(ctx, ip.url, issueID); err != nil {
				return err
			}
		}
		for _, l := range ip.locations {
			if err := tx.InsertLocation(ctx, l.kind, l.description, issueID); err != nil {
				return err
			}
		}
		for _, c := range ip.coords {
			c.IssueID = issueID
			if err := tx.InsertCoordinate(ctx, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *writer) preview(ctx context.Context, plan *projectPlan, pr *ProjectReport) error {
	for _, ip := range plan.issues {
		keys := make(map[author.Key]bool)
		for _, rec := range ip.authors {
			k := rec.Key()
			if !w.seen[k] {
				w.seen[k] = true
				_, found, err := w.in.store.FindPerson(ctx, rec)
				if err != nil {
					return err
				}
				w.countPerson(!found)
			} else {
				w.countPerson(false)
			}
			keys[k] = true
		}
		pr.Authors += len(keys)
		pr.Unparsed = append(pr.Unparsed, ip.unparsed...)
	}
	return nil
}

func (w *writer) countPerson(created bool) {
	if created {
		w.report.PersonsNew++
	} else {
		w.report.PersonsExisting++
	}
}
