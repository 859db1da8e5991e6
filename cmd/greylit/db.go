package main

import (
	"github.com/spf13/cobra"

	"github.com/adsarch/greylit/internal/config"
	"github.com/adsarch/greylit/internal/store"
)

func init() {
	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbStatsCmd)
	rootCmd.AddCommand(dbCmd)
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the SQLite schema",
	Long: `Create the SQLite schema at database.path.

The Oracle schema is managed outside greylit; init refuses to touch it.`,
	Args: cobra.NoArgs,
	RunE: runDBInit,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show row counts for each table",
	Args:  cobra.NoArgs,
	RunE:  runDBStats,
}

func runDBInit(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if cfg.Database.Driver != config.DriverSQLite {
		exitWithError(ExitConfigError, "db init only creates SQLite databases (driver is %q)", cfg.Database.Driver)
	}
	ctx, cancel := signalContext()
	defer cancel()

	// Open creates the schema for SQLite.
	s := mustOpenStore(ctx, cfg)
	defer s.Close()

	if humanOutput {
		outputHuman("Initialized %s\n", cfg.Database.Path)
		return nil
	}
	return outputJSON(StatusResponse{Status: "initialized", Driver: cfg.Database.Driver, Path: cfg.Database.Path})
}

// StatsResult is the response for the db stats command.
type StatsResult struct {
	Driver string         `json:"driver"`
	Tables map[string]int `json:"tables"`
}

func runDBStats(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	ctx, cancel := signalContext()
	defer cancel()

	s := mustOpenStore(ctx, cfg)
	defer s.Close()

	counts, err := s.Counts(ctx)
	if err != nil {
		exitWithErr(err, "counting rows")
	}

	if humanOutput {
		for _, table := range store.Tables {
			outputHuman("%-24s %d\n", table, counts[table])
		}
		return nil
	}
	return outputJSON(StatsResult{Driver: s.Dialect().Name, Tables: counts})
}
