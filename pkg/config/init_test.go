package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestInitConfig_Success(t *testing.T) {
	tmpDir := isolate(t)

	configPath, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if configPath != filepath.Join(tmpDir, "config", "xpt", "config.yaml") {
		t.Errorf("Unexpected config path %q", configPath)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	contentStr := string(content)
	for _, section := range []string{
		"# xpt Configuration File",
		"logging:",
		"telemetry:",
		"metrics:",
		"decode:",
		"s3:",
		"export:",
	} {
		if !strings.Contains(contentStr, section) {
			t.Errorf("Config file missing section: %s", section)
		}
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(content, &parsed); err != nil {
		t.Fatalf("Generated config is not valid YAML: %v", err)
	}
}

func TestInitConfig_AlreadyExists(t *testing.T) {
	isolate(t)

	if _, err := InitConfig(false); err != nil {
		t.Fatalf("First InitConfig failed: %v", err)
	}

	_, err := InitConfig(false)
	if err == nil {
		t.Fatal("Expected error when config already exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestInitConfig_Force(t *testing.T) {
	isolate(t)

	configPath, err := InitConfig(false)
	if err != nil {
		t.Fatalf("First InitConfig failed: %v", err)
	}
	if err := os.WriteFile(configPath, []byte("# modified\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := InitConfig(true); err != nil {
		t.Fatalf("InitConfig with force failed: %v", err)
	}

	content, _ := os.ReadFile(configPath)
	if strings.Contains(string(content), "# modified") {
		t.Error("Config was not overwritten with force")
	}
}

func TestInitConfigToPath(t *testing.T) {
	tmpDir := isolate(t)
	path := filepath.Join(tmpDir, "custom", "xpt.yaml")

	if err := InitConfigToPath(path, false); err != nil {
		t.Fatalf("InitConfigToPath failed: %v", err)
	}
	if err := InitConfigToPath(path, false); err == nil {
		t.Fatal("Expected error when file exists")
	}
	if err := InitConfigToPath(path, true); err != nil {
		t.Fatalf("InitConfigToPath with force failed: %v", err)
	}
}

func TestGeneratedConfigIsLoadable(t *testing.T) {
	tmpDir := isolate(t)
	path := filepath.Join(tmpDir, "xpt.yaml")

	if err := InitConfigToPath(path, false); err != nil {
		t.Fatalf("InitConfigToPath failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Generated config does not load: %v", err)
	}
	if cfg.Decode.BufferSize != GetDefaultConfig().Decode.BufferSize {
		t.Errorf("Buffer size changed through init: %d", cfg.Decode.BufferSize)
	}
}

func TestSchema(t *testing.T) {
	schema := Schema()
	if schema.Title != "xpt Configuration" {
		t.Errorf("Unexpected title %q", schema.Title)
	}

	data, err := json.Marshal(schema)
	if err != nil {
		t.Fatalf("Failed to marshal schema: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"buffer_size"`, `"skip_trailing_padding"`, `"oneOf"`, `"batch_size"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Schema missing %s", want)
		}
	}
	if strings.Contains(out, `"SecretAccessKey"`) {
		t.Error("Schema should use yaml field names")
	}
}
