package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adsarch/greylit/internal/config"
	"github.com/adsarch/greylit/internal/ingest"
	"github.com/adsarch/greylit/internal/logging"
	"github.com/adsarch/greylit/internal/oasis"
	"github.com/adsarch/greylit/internal/store"
)

var (
	ingestLocal  bool
	ingestFile   string
	ingestYes    bool
	ingestDryRun bool
)

func init() {
	ingestCmd.Flags().BoolVar(&ingestLocal, "local", false, "Read the feed from api.local_path instead of the API")
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "Read the feed from this file (implies --local)")
	ingestCmd.Flags().BoolVarP(&ingestYes, "yes", "y", false, "Do not ask before each step")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "Show what would be inserted without writing")
	rootCmd.AddCommand(ingestCmd)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch OASIS projects and insert the new ones",
	Long: `Fetch OASIS projects and insert the new ones.

Runs three steps, asking before each unless --yes is given:
  1. Insert source and series if not exists
  2. Check for existing projects and remove them from the feed
  3. Insert new projects, authors, issues, site codes, URLs and locations

Usage:
  greylit ingest
  greylit ingest --local --yes
  greylit ingest --file export.json --dry-run`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(applyIngestFlags)
	ctx, cancel := signalContext()
	defer cancel()

	feed, err := loadFeed(ctx, cfg.API)
	if err != nil {
		exitWithErr(err, "loading feed")
	}

	s := mustOpenStore(ctx, cfg)
	defer s.Close()

	var confirmer ingest.Confirmer = ingest.AlwaysConfirm
	if !ingestYes {
		confirmer = promptConfirmer(os.Stdin, os.Stderr)
	}

	in := ingest.New(s,
		ingest.WithSource(store.SourceSpec{
			Name:        cfg.Source.Name,
			Description: cfg.Source.Description,
			Link:        cfg.Source.Link,
		}),
		ingest.WithSeries(cfg.Series.Name, cfg.Series.PublicationType),
		ingest.WithAuthorMode(cfg.AuthorMode()),
		ingest.WithDryRun(ingestDryRun),
		ingest.WithConfirmer(confirmer),
	)

	report, err := in.Run(ctx, feed)
	if err != nil {
		if report != nil && humanOutput {
			printReportHuman(report)
		}
		exitWithErr(err, "ingest")
	}

	if humanOutput {
		printReportHuman(report)
		return nil
	}
	return outputJSON(report)
}

// applyIngestFlags points the feed at a local file when --local or --file
// is set. It runs before validation so that api.url may be left unset.
func applyIngestFlags(cfg *config.Config) {
	if ingestFile != "" {
		cfg.API.UseLocal = true
		cfg.API.LocalPath = config.ExpandPath(ingestFile)
	} else if ingestLocal {
		cfg.API.UseLocal = true
	}
}

// loadFeed reads the feed from the local file or the API.
func loadFeed(ctx context.Context, api config.APIConfig) (*oasis.Feed, error) {
	if api.UseLocal {
		return oasis.LoadFile(api.LocalPath)
	}
	client := oasis.NewClient(
		oasis.WithAPIKey(api.APIKey),
		oasis.WithRateLimit(api.RateLimit),
		oasis.WithMaxRetries(api.MaxRetries),
		oasis.WithTimeout(api.Timeout),
		oasis.WithLogger(logging.NewLogger("oasis")),
	)
	return client.Fetch(ctx, api.URL)
}

// promptConfirmer asks on out and reads y/n answers from in.
func promptConfirmer(in io.Reader, out io.Writer) ingest.Confirmer {
	reader := bufio.NewReader(in)
	step := 0
	return ingest.ConfirmFunc(func(name string) (bool, error) {
		step++
		fmt.Fprintf(out, "Step %d/%d: %s. Proceed? [y/N] ", step, len(ingest.Steps), name)
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return false, fmt.Errorf("reading answer: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	})
}

func printReportHuman(r *ingest.Report) {
	if r.DryRun {
		outputHuman("Dry run %s (nothing written)\n", r.RunID)
	} else {
		outputHuman("Run %s\n", r.RunID)
	}
	outputHuman("  source %d, series %d\n", r.SourceID, r.SeriesID)
	outputHuman("  %d existing projects skipped, %d invalid\n", len(r.Skipped), len(r.Invalid))
	outputHuman("  %d projects, %d issues\n", len(r.Projects), r.Issues)
	outputHuman("  %d new persons, %d existing\n", r.PersonsNew, r.PersonsExisting)
	for _, p := range r.Projects {
		outputHuman("  %-12s %d issues, %d authors\n", p.Reference, len(p.IssueIDs), p.Authors)
	}
	if len(r.Warnings) > 0 {
		outputHuman("Warnings:\n")
		for _, w := range r.Warnings {
			outputHuman("  - %s\n", w)
		}
	}
}
