package commands

import (
	"strings"

	"github.com/marmos91/xptkit/internal/cli/output"
	"github.com/marmos91/xptkit/pkg/xpt"
	"github.com/spf13/cobra"
)

var infoOutput string

var infoCmd = &cobra.Command{
	Use:   "info FILE",
	Short: "Show dataset layout and header metadata",
	Long: `Show the layout of a transport file: variable count, record length,
namestr record size and the text of the library and member header records.

Examples:
  xpt info dm.xpt
  xpt info s3://submissions/study-01/dm.xpt -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().StringVarP(&infoOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// datasetInfo is the output of "xpt info".
type datasetInfo struct {
	Source       string   `json:"source" yaml:"source"`
	Variables    int      `json:"variables" yaml:"variables"`
	RecordLength int      `json:"record_length" yaml:"record_length"`
	NamestrSize  int      `json:"namestr_size" yaml:"namestr_size"`
	DataOffset   int64    `json:"data_offset" yaml:"data_offset"`
	Library      []string `json:"library" yaml:"library"`
	Member       []string `json:"member" yaml:"member"`
}

func (d datasetInfo) Headers() []string {
	return []string{"Field", "Value"}
}

func (d datasetInfo) Rows() [][]string {
	rows := [][]string{
		{"Source", d.Source},
		{"Variables", itoa(d.Variables)},
		{"Record length", itoa(d.RecordLength)},
		{"Namestr size", itoa(d.NamestrSize)},
		{"Data offset", itoa(int(d.DataOffset))},
	}
	for i, r := range d.Library {
		rows = append(rows, []string{"Library " + itoa(i+1), r})
	}
	for i, r := range d.Member {
		rows = append(rows, []string{"Member " + itoa(i+1), r})
	}
	return rows
}

func newDatasetInfo(uri string, s *xpt.Session) datasetInfo {
	md := s.Metadata()
	return datasetInfo{
		Source:       uri,
		Variables:    s.VariableCount(),
		RecordLength: s.RecordLength(),
		NamestrSize:  md.NamestrSize,
		DataOffset:   s.Offset(),
		Library:      recordText(md.Library),
		Member:       recordText(md.Member),
	}
}

// recordText renders raw header records as printable text.
func recordText(records [][]byte) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		text := strings.Map(func(c rune) rune {
			if c < 0x20 || c > 0x7e {
				return ' '
			}
			return c
		}, string(r))
		out = append(out, strings.Join(strings.Fields(text), " "))
	}
	return out
}

func runInfo(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(infoOutput)
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

	return output.NewPrinter(cmd.OutOrStdout(), format, false).Print(newDatasetInfo(args[0], s))
}
