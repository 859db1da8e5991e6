package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsarch/greylit/internal/author"
	"github.com/adsarch/greylit/internal/config"
	"github.com/adsarch/greylit/internal/logging"
	"github.com/adsarch/greylit/internal/oasis"
	"github.com/adsarch/greylit/internal/store"
)

const samplePath = "../oasis/testdata/welsh_trusts_sample.json"

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(),
		config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"},
		store.WithLogger(logging.Discard()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func loadSample(t *testing.T) *oasis.Feed {
	t.Helper()
	feed, err := oasis.LoadFile(samplePath)
	require.NoError(t, err)
	return feed
}

func newTestIngester(s *store.Store, opts ...Option) *Ingester {
	cfg := config.Default()
	base := []Option{
		WithLogger(logging.Discard()),
		WithSource(store.SourceSpec{
			Name:        cfg.Source.Name,
			Description: cfg.Source.Description,
			Link:        cfg.Source.Link,
		}),
		WithSeries(cfg.Series.Name, cfg.Series.PublicationType),
	}
	return New(s, append(base, opts...)...)
}

func counts(t *testing.T, s *store.Store) map[string]int {
	t.Helper()
	c, err := s.Counts(context.Background())
	require.NoError(t, err)
	return c
}

func TestRun_Sample(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	report, err := newTestIngester(s).Run(ctx, loadSample(t))
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.DryRun)
	assert.NotZero(t, report.SourceID)
	assert.NotZero(t, report.SeriesID)
	assert.NotZero(t, report.SeriesNameID)
	assert.Empty(t, report.Skipped)
	require.Len(t, report.Projects, 2)
	assert.Equal(t, "PRJ001", report.Projects[0].Reference)
	assert.Equal(t, 4, report.Projects[0].Authors)
	assert.Equal(t, "2002", report.Projects[1].Reference)
	assert.Equal(t, 2, report.Projects[1].Authors)
	assert.Equal(t, 2, report.Issues)
	assert.Equal(t, 6, report.PersonsNew)
	assert.Equal(t, 0, report.PersonsExisting)

	c := counts(t, s)
	assert.Equal(t, 1, c["SOURCE"])
	assert.Equal(t, 1, c["SERIES"])
	assert.Equal(t, 1, c["SERIES_NAME"])
	assert.Equal(t, 2, c["ISSUE"])
	assert.Equal(t, 6, c["PERSON"])
	assert.Equal(t, 6, c["RESOURCE_PERSON"])
	// two project rows, two per-issue project numbers, one site code
	assert.Equal(t, 5, c["RESOURCE_DC_IDENTIFIER"])
	assert.Equal(t, 1, c["RESOURCE_DC_RELATION"])
	// PRJ001: country, parish, district, county, site. 2002: no site.
	assert.Equal(t, 9, c["RESOURCE_DC_COV_LOC"])
	assert.Equal(t, 1, c["RESOURCE_DC_COV_COORD"])

	numbers, err := s.ProjectNumbers(ctx)
	require.NoError(t, err)
	assert.Contains(t, numbers, "PRJ001")
	assert.Contains(t, numbers, "2002")
}

func TestRun_SecondRunSkipsEverything(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := newTestIngester(s).Run(ctx, loadSample(t))
	require.NoError(t, err)
	before := counts(t, s)

	report, err := newTestIngester(s).Run(ctx, loadSample(t))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"PRJ001", "2002"}, report.Skipped)
	assert.Empty(t, report.Projects)
	assert.Equal(t, 0, report.Issues)
	assert.Equal(t, before, counts(t, s))
}

func TestRun_ExistingPersonsReused(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := newTestIngester(s).Run(ctx, loadSample(t))
	require.NoError(t, err)

	feed, err := oasis.Parse([]byte(`{"oasisProjDetails": {
		"projReference": "PRJ003",
		"oasisProjBiblioList": [{
			"title": "Later work",
			"pubdate": "2022",
			"oasisProjBiblioAuthsList": {"name": "Doe, John A. & Green, Ann"}
		}]
	}}`))
	require.NoError(t, err)

	report, err := newTestIngester(s).Run(ctx, feed)
	require.NoError(t, err)
	assert.Equal(t, 1, report.PersonsNew)
	assert.Equal(t, 1, report.PersonsExisting)
	assert.Equal(t, 7, counts(t, s)["PERSON"])
}

func TestRun_StrictModeRollsBackProject(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	feed, err := oasis.Parse([]byte(`{"oasisProjDetails": [{
		"projReference": "BAD1",
		"oasisProjBiblioList": [{
			"title": "Report",
			"oasisProjBiblioAuthsList": {"name": "Doe, John & Smith, Jane, Extra"}
		}]
	}]}`))
	require.NoError(t, err)

	_, err = newTestIngester(s, WithAuthorMode(author.Strict)).Run(ctx, feed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, author.ErrUnparsedSegments))
	assert.Contains(t, err.Error(), "BAD1")

	numbers, err := s.ProjectNumbers(ctx)
	require.NoError(t, err)
	assert.NotContains(t, numbers, "BAD1")
	c := counts(t, s)
	assert.Equal(t, 0, c["ISSUE"])
	assert.Equal(t, 0, c["PERSON"])
}

func TestRun_LenientModeReportsUnparsed(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	feed, err := oasis.Parse([]byte(`{"oasisProjDetails": [{
		"projReference": "LEN1",
		"oasisProjBiblioList": [{
			"title": "Report",
			"oasisProjBiblioAuthsList": {"name": "Doe, John & Smith, Jane, Extra"}
		}]
	}]}`))
	require.NoError(t, err)

	report, err := newTestIngester(s).Run(ctx, feed)
	require.NoError(t, err)
	require.Len(t, report.Projects, 1)
	assert.Equal(t, 1, report.Projects[0].Authors)
	assert.Equal(t, []string{"Smith, Jane, Extra"}, report.Projects[0].Unparsed)
	assert.NotEmpty(t, report.Warnings)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	report, err := newTestIngester(s, WithDryRun(true)).Run(ctx, loadSample(t))
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Len(t, report.Projects, 2)
	assert.Equal(t, 2, report.Issues)
	assert.Equal(t, 6, report.PersonsNew)
	assert.Zero(t, report.SourceID)

	for table, n := range counts(t, s) {
		assert.Zero(t, n, table)
	}
}

func TestRun_Abort(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	var asked []string
	confirm := ConfirmFunc(func(step string) (bool, error) {
		asked = append(asked, step)
		return step != StepExisting, nil
	})

	_, err := newTestIngester(s, WithConfirmer(confirm)).Run(ctx, loadSample(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAborted))
	assert.Equal(t, []string{StepSourceSeries, StepExisting}, asked)

	c := counts(t, s)
	assert.Equal(t, 1, c["SOURCE"])
	assert.Equal(t, 0, c["ISSUE"])
}

func TestRun_ConfirmError(t *testing.T) {
	boom := errors.New("stdin closed")
	in := newTestIngester(openTestStore(t), WithConfirmer(ConfirmFunc(func(string) (bool, error) {
		return false, boom
	})))

	_, err := in.Run(context.Background(), loadSample(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.False(t, errors.Is(err, ErrAborted))
}

func TestRun_ProjectWithoutBiblios(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	feed, err := oasis.Parse([]byte(`{"oasisProjDetails": [
		{"projReference": "EMPTY1", "oasisProjBiblioList": []},
		{"projReference": "", "oasisProjBiblioList": []}
	]}`))
	require.NoError(t, err)

	report, err := newTestIngester(s).Run(ctx, feed)
	require.NoError(t, err)
	assert.Empty(t, report.Projects)
	assert.Len(t, report.Invalid, 1)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "EMPTY1")

	numbers, err := s.ProjectNumbers(ctx)
	require.NoError(t, err)
	assert.Empty(t, numbers)
}

func TestRun_EmptyListsEncodeAsArrays(t *testing.T) {
	feed, err := oasis.Parse([]byte(`{"oasisProjDetails": {}}`))
	require.NoError(t, err)

	report, err := newTestIngester(openTestStore(t)).Run(context.Background(), feed)
	require.NoError(t, err)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"skipped":[]`)
	assert.Contains(t, string(data), `"projects":[]`)
	assert.NotContains(t, string(data), "null")
}
