// Package main provides the greylit CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/adsarch/greylit/internal/config"
	"github.com/adsarch/greylit/internal/logging"
	"github.com/adsarch/greylit/internal/store"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	configPath  string
	logLevel    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors is set, so cobra usage errors are printed here.
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "greylit",
	Short: "Load OASIS project reports into the grey-literature catalogue",
	Long: `greylit fetches OASIS project records for the Welsh Archaeological
Trusts and loads their reports, authors, identifiers and locations into the
grey-literature database.

Configuration is read from --config, ./greylit.yml or the per-user config
file, with GREYLIT_* environment variables (and a .env file) taking
precedence. All commands output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	rootCmd.Version = Version
}

// signalContext returns a context cancelled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// loadConfig reads the config file at path, applies environment overrides
// and then the command's own overrides, and validates the result.
func loadConfig(path string, getenv func(string) string, overrides ...func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// mustLoadConfig locates and loads the configuration, applies overrides
// from command flags and sets up logging. Exits on error.
func mustLoadConfig(overrides ...func(*config.Config)) *config.Config {
	path := config.Locate(configPath)
	cfg, err := loadConfig(path, os.Getenv, overrides...)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		exitWithError(ExitConfigError, "configuring logging: %v", err)
	}
	logging.NewLogger("cli").WithField("config", path).Debug("configuration loaded")
	return cfg
}

// mustOpenStore opens the configured database, exits on error.
// The caller is responsible for calling Close() on the returned Store.
func mustOpenStore(ctx context.Context, cfg *config.Config) *store.Store {
	s, err := store.Open(ctx, cfg.Database)
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return s
}
