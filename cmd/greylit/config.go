package main

import (
	"github.com/spf13/cobra"

	"github.com/adsarch/greylit/internal/config"
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	Long: `Print the effective configuration: defaults, then the config file,
then GREYLIT_* environment variables. Passwords and API keys are masked.

The output is YAML in --human mode and JSON otherwise.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file that would be read",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig().Redacted()

	if humanOutput {
		data, err := cfg.Marshal()
		if err != nil {
			exitWithError(ExitError, "encoding config: %v", err)
		}
		outputHuman("%s", data)
		return nil
	}
	return outputJSON(cfg)
}

// ConfigPathResult is the response for the config path command.
type ConfigPathResult struct {
	Path   string `json:"path"`
	Global string `json:"global"`
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	res := ConfigPathResult{Path: config.Locate(configPath), Global: config.GlobalConfigPath()}
	if humanOutput {
		if res.Path == "" {
			outputHuman("no config file found (defaults in use); per-user file: %s\n", res.Global)
		} else {
			outputHuman("%s\n", res.Path)
		}
		return nil
	}
	return outputJSON(res)
}
