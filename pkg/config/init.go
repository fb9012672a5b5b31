package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const configHeader = `# xpt Configuration File
#
# Values can be overridden with XPT_* environment variables, e.g.
#   XPT_LOGGING_LEVEL=DEBUG
#   XPT_S3_REGION=eu-west-1
#   XPT_EXPORT_DATABASE_TYPE=postgres
#
# Sizes accept binary (Ki, Mi, Gi) and decimal (K, M, G) units.
# Generate a JSON schema for editor support with: xpt config schema

`

// InitConfig writes a default configuration to the default location and
// returns its path. An existing file is kept unless force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration to path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
	}

	data, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	buf.Write(data)

	return writeConfigFile(path, buf.Bytes())
}
