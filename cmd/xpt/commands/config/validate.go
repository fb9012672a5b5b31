package config

import (
	"fmt"

	"github.com/marmos91/xptkit/internal/cli/output"
	"github.com/marmos91/xptkit/pkg/config"
	"github.com/marmos91/xptkit/pkg/export/sqlsink"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the xpt configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  xpt config validate

  # Validate specific config file
  xpt config validate --config ./xpt.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, displayPath, err := load(cmd)
	if err != nil {
		return err
	}

	var warnings []string
	if cfg.Export.Database.Type == sqlsink.DatabaseTypePostgres && cfg.Export.Database.Postgres.Password == "" {
		warnings = append(warnings, "PostgreSQL password not set - it will be asked for on export")
	}
	if cfg.S3.Endpoint != "" && !cfg.S3.ForcePathStyle {
		warnings = append(warnings, "Custom S3 endpoint without force_path_style - most S3-compatible servers need it")
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.SampleRate == 0 {
		warnings = append(warnings, "Tracing enabled with sample_rate 0 - no spans will be exported")
	}

	out := cmd.OutOrStdout()
	p := output.PrinterFor(out, output.FormatTable)
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	p.Success("Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			p.Warning("  - " + w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Database type:   %s\n", cfg.Export.Database.Type)
	_, _ = fmt.Fprintf(out, "  Batch size:      %d\n", cfg.Export.BatchSize)
	_, _ = fmt.Fprintf(out, "  Buffer size:     %s\n", cfg.Decode.BufferSize)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)
	_, _ = fmt.Fprintf(out, "  Config dir:      %s\n", config.GetConfigDir())

	return nil
}
