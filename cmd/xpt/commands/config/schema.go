package config

import (
	"fmt"
	"io"
	"os"

	"github.com/marmos91/xptkit/internal/cli/output"
	"github.com/marmos91/xptkit/pkg/config"
	"github.com/spf13/cobra"
)

var schemaOutput string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the configuration file",
	Long: `Print a JSON schema (draft 2020-12) describing xpt.yaml. Editors such
as VS Code use it for completion and validation:

  # yaml-language-server: $schema=./xpt.schema.json

Sizes such as decode.buffer_size accept a byte count or a string like "64Ki".

Examples:
  xpt config schema
  xpt config schema --output xpt.schema.json`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "Write the schema to this file instead of stdout")
}

func runSchema(cmd *cobra.Command, args []string) error {
	if schemaOutput == "" {
		return writeSchema(cmd.OutOrStdout())
	}

	f, err := os.Create(schemaOutput)
	if err != nil {
		return fmt.Errorf("failed to create schema file: %w", err)
	}
	if err := writeSchema(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "JSON schema written to %s\n", schemaOutput)
	return nil
}

func writeSchema(w io.Writer) error {
	if err := output.PrintJSON(w, config.Schema()); err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}
	return nil
}
