package config

import (
	"github.com/marmos91/xptkit/internal/cli/output"
	"github.com/spf13/cobra"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective xpt configuration, after defaults and XPT_*
environment overrides are applied. Secrets are shown as written.

By default outputs YAML format. Use --output to change format.

Examples:
  # Show default config as YAML
  xpt config show

  # Show as JSON
  xpt config show --output json

  # Show specific config file
  xpt config show --config ./xpt.yaml`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := load(cmd)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	default:
		return output.PrintYAML(cmd.OutOrStdout(), cfg)
	}
}
