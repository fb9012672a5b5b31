// Package config implements configuration management subcommands.
package config

import (
	"github.com/marmos91/xptkit/pkg/config"
	"github.com/spf13/cobra"
)

// Cmd is the config subcommand.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Manage the xpt configuration file.

Use 'xpt init' to create a new configuration file.

Subcommands:
  validate  Validate configuration file
  show      Display current configuration
  schema    Generate JSON schema for IDE/validation`,
}

func init() {
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(schemaCmd)
}

// load reads --config, or the default file when present. Without a file
// the defaults and XPT_* variables are shown.
func load(cmd *cobra.Command) (*config.Config, string, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		cfg, err := config.MustLoad(configPath)
		return cfg, configPath, err
	}

	displayPath := config.GetDefaultConfigPath()
	if !config.DefaultConfigExists() {
		displayPath = "(none, using defaults)"
	}
	cfg, err := config.Load("")
	return cfg, displayPath, err
}
