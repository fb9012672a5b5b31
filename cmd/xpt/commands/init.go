package commands

import (
	"fmt"

	"github.com/marmos91/xptkit/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample xpt configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/xpt/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  xpt init

  # Initialize with custom path
  xpt init --config ./xpt.yaml

  # Force overwrite existing config
  xpt init --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Set export.database and s3 to match your environment")
	_, _ = fmt.Fprintln(out, "  2. Check the file with: xpt config validate")
	_, _ = fmt.Fprintln(out, "  3. Export a dataset with: xpt export dm.xpt")
	return nil
}
