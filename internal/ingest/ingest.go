// Package ingest loads an OASIS feed into the grey-literature schema.
//
// A run has three confirmable steps: ensure the source and series rows,
// drop projects whose number is already recorded, then insert each
// remaining project in its own transaction.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/adsarch/greylit/internal/author"
	"github.com/adsarch/greylit/internal/logging"
	"github.com/adsarch/greylit/internal/oasis"
	"github.com/adsarch/greylit/internal/store"
)

// ErrAborted is returned when a step is declined.
var ErrAborted = errors.New("aborted by user")

// Step names passed to the Confirmer.
const (
	StepSourceSeries = "Insert source and series if not exists"
	StepExisting     = "Check for existing projects and remove them from the feed"
	StepInsert       = "Insert new projects, authors, issues, site codes, bibliographic URLs and location data"
)

// Steps lists the steps in run order.
var Steps = []string{StepSourceSeries, StepExisting, StepInsert}

// Confirmer is asked before each step.
type Confirmer interface {
	Confirm(step string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(step string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(step string) (bool, error) { return f(step) }

// AlwaysConfirm approves every step.
var AlwaysConfirm = ConfirmFunc(func(string) (bool, error) { return true, nil })

// Ingester writes feeds to a store.
type Ingester struct {
	store   *store.Store
	source  store.SourceSpec
	series  store.SeriesSpec
	mode    author.Mode
	dryRun  bool
	confirm Confirmer
	log     *logrus.Entry
	now     func() time.Time
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithSource sets the SOURCE row issues are attached to.
func WithSource(spec store.SourceSpec) Option {
	return func(in *Ingester) { in.source = spec }
}

// WithSeries sets the SERIES row issues are attached to.
func WithSeries(name, publicationType string) Option {
	return func(in *Ingester) {
		in.series.Name = name
		in.series.PublicationType = publicationType
	}
}

// WithAuthorMode sets how unparsable author segments are handled.
func WithAuthorMode(mode author.Mode) Option {
	return func(in *Ingester) { in.mode = mode }
}

// WithDryRun makes Run report what it would do without writing.
func WithDryRun(dryRun bool) Option {
	return func(in *Ingester) { in.dryRun = dryRun }
}

// WithConfirmer sets the step confirmer.
func WithConfirmer(c Confirmer) Option {
	return func(in *Ingester) { in.confirm = c }
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option {
	return func(in *Ingester) { in.log = l }
}

// WithClock sets the time source used for CREATED_AT.
func WithClock(now func() time.Time) Option {
	return func(in *Ingester) { in.now = now }
}

// New creates an Ingester writing to s.
func New(s *store.Store, opts ...Option) *Ingester {
	in := &Ingester{
		store:   s,
		mode:    author.Lenient,
		confirm: AlwaysConfirm,
		log:     logging.NewLogger("ingest"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Report summarizes a run.
type Report struct {
	RunID           string          `json:"run_id"`
	DryRun          bool            `json:"dry_run"`
	SourceID        int64           `json:"source_id,omitempty"`
	SeriesID        int64           `json:"series_id,omitempty"`
	SeriesNameID    int64           `json:"series_name_id,omitempty"`
	Skipped         []string        `json:"skipped"`
	Invalid         []string        `json:"invalid,omitempty"`
	Projects        []ProjectReport `json:"projects"`
	Issues          int             `json:"issues"`
	PersonsNew      int             `json:"persons_new"`
	PersonsExisting int             `json:"persons_existing"`
	Warnings        []string        `json:"warnings,omitempty"`
}

// ProjectReport summarizes one inserted project.
type ProjectReport struct {
	Reference string   `json:"reference"`
	IssueIDs  []int64  `json:"issue_ids,omitempty"`
	Authors   int      `json:"authors"`
	Unparsed  []string `json:"unparsed,omitempty"`
}

func (r *Report) warn(log *logrus.Entry, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	log.Warn(msg)
}

// Run ingests feed. The report is returned even when Run fails part way.
func (in *Ingester) Run(ctx context.Context, feed *oasis.Feed) (*Report, error) {
	report := &Report{
		RunID:    uuid.New().String(),
		DryRun:   in.dryRun,
		Skipped:  []string{},
		Projects: []ProjectReport{},
	}
	log := in.log.WithField("run_id", report.RunID)

	projects, errs := feed.Check()
	for _, err := range errs {
		report.Invalid = append(report.Invalid, err.Error())
		log.WithError(err).Warn("skipping invalid project")
	}

	if err := in.step(StepSourceSeries); err != nil {
		return report, err
	}
	if err := in.ensureSourceAndSeries(ctx, report); err != nil {
		return report, fmt.Errorf("inserting or locating source and series: %w", err)
	}

	if err := in.step(StepExisting); err != nil {
		return report, err
	}
	existing, err := in.store.ProjectNumbers(ctx)
	if err != nil {
		return report, err
	}
	var fresh []oasis.Project
	for _, p := range projects {
		ref := p.Reference.String()
		if _, ok := existing[ref]; ok {
			report.Skipped = append(report.Skipped, ref)
			continue
		}
		fresh = append(fresh, p)
	}
	log.WithFields(logrus.Fields{
		"matching": len(report.Skipped),
		"new":      len(fresh),
	}).Info("checked for existing projects")

	if err := in.step(StepInsert); err != nil {
		return report, err
	}

	w := &writer{in: in, report: report, log: log, seen: make(map[author.Key]bool)}
	for _, p := range fresh {
		if len(p.Biblios) == 0 {
			report.warn(log, "project %s has no bibliography entries; skipped", p.Reference)
			continue
		}
		if err := w.project(ctx, p); err != nil {
			return report, fmt.Errorf("project %s: %w", p.Reference, err)
		}
	}

	log.WithFields(logrus.Fields{
		"projects": len(report.Projects),
		"issues":   report.Issues,
		"dry_run":  in.dryRun,
	}).Info("process completed")
	return report, nil
}

func (in *Ingester) step(name string) error {
	ok, err := in.confirm.Confirm(name)
	if err != nil {
		return fmt.Errorf("confirming %q: %w", name, err)
	}
	if !ok {
		return fmt.Errorf("%w at step %q", ErrAborted, name)
	}
	return nil
}

func (in *Ingester) ensureSourceAndSeries(ctx context.Context, report *Report) error {
	if in.dryRun {
		var err error
		if report.SourceID, _, err = in.store.FindSource(ctx, in.source.Name); err != nil {
			return err
		}
		if report.SeriesID, _, err = in.store.FindSeries(ctx, in.series.Name); err != nil {
			return err
		}
		return nil
	}

	return in.store.InTx(ctx, func(tx *store.Tx) error {
		sourceID, _, err := tx.EnsureSource(ctx, in.source)
		if err != nil {
			return err
		}
		spec := in.series
		spec.SourceID = sourceID
		spec.CreatedAt = in.now()
		seriesID, seriesNameID, _, err := tx.EnsureSeries(ctx, spec)
		if err != nil {
			return err
		}
		report.SourceID, report.SeriesID, report.SeriesNameID = sourceID, seriesID, seriesNameID
		return nil
	})
}
