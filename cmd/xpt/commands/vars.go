package commands

import (
	"strconv"

	"github.com/marmos91/xptkit/internal/cli/output"
	"github.com/marmos91/xptkit/pkg/xpt"
	"github.com/spf13/cobra"
)

var varsOutput string

var varsCmd = &cobra.Command{
	Use:   "vars FILE",
	Short: "List the variables of a dataset",
	Long: `List the variable descriptors of a transport file: name, type, length,
record offset, formats and label.

Examples:
  # Table output
  xpt vars dm.xpt

  # JSON output from S3
  xpt vars s3://submissions/study-01/dm.xpt -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runVars,
}

func init() {
	varsCmd.Flags().StringVarP(&varsOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// variableList renders descriptors as a table; JSON and YAML use the
// struct tags of xpt.Variable.
type variableList []xpt.Variable

func (l variableList) Headers() []string {
	return []string{"#", "Name", "Type", "Length", "Offset", "Format", "Informat", "Label"}
}

func (l variableList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, v := range l {
		rows = append(rows, []string{
			strconv.Itoa(v.Ordinal),
			v.Name,
			v.Kind.String(),
			strconv.Itoa(v.Length),
			strconv.Itoa(v.Offset),
			formatName(v.Format),
			formatName(v.Informat),
			v.Label,
		})
	}
	return rows
}

func (l variableList) Alignments() []output.Alignment {
	return []output.Alignment{output.AlignRight, output.AlignLeft, output.AlignLeft, output.AlignRight, output.AlignRight}
}

func (l variableList) VerbatimHeaders() bool { return false }

func formatName(f xpt.Format) string {
	if f.Name == "" && f.Width == 0 {
		return ""
	}
	return f.String()
}

func runVars(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(varsOutput)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.open(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	return output.NewPrinter(cmd.OutOrStdout(), format, false).Print(variableList(s.Variables()))
}
