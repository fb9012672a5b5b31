package config

import (
	"strings"
	"testing"

	"github.com/marmos91/xptkit/pkg/export/sqlsink"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	isolate(t)
	return GetDefaultConfig()
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(validConfig(t)); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig(t)
	cfg.Logging.Level = "TRACE"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for invalid log level")
	}
	if !strings.Contains(err.Error(), "Level") {
		t.Errorf("Expected error to name the field, got %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := validConfig(t)
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for invalid log format")
	}
}

func TestValidate_MetricsPort(t *testing.T) {
	cfg := validConfig(t)
	cfg.Metrics.Port = 70000
	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for out of range port")
	}

	cfg = validConfig(t)
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for enabled metrics without port")
	}
}

func TestValidate_TelemetryEnabledWithoutEndpoint(t *testing.T) {
	cfg := validConfig(t)
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Endpoint = ""

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for enabled telemetry without endpoint")
	}
}

func TestValidate_TelemetrySampleRate(t *testing.T) {
	cfg := validConfig(t)
	cfg.Telemetry.SampleRate = 1.5

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for sample rate above 1")
	}
}

func TestValidate_ProfileTypes(t *testing.T) {
	cfg := validConfig(t)
	cfg.Telemetry.Profiling.ProfileTypes = []string{"cpu", "goroutines"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Expected valid profile types, got %v", err)
	}

	cfg.Telemetry.Profiling.ProfileTypes = []string{"heap"}
	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for unknown profile type")
	}
}

func TestValidate_BufferSize(t *testing.T) {
	cfg := validConfig(t)
	cfg.Decode.BufferSize = 79

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for buffer smaller than a block")
	}
}

func TestValidate_Postgres(t *testing.T) {
	cfg := validConfig(t)
	cfg.Export.Database = sqlsink.Config{Type: sqlsink.DatabaseTypePostgres}
	cfg.Export.Database.ApplyDefaults()

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "postgres host is required") {
		t.Fatalf("Expected missing host error, got %v", err)
	}

	cfg.Export.Database.Postgres.Host = "localhost"
	cfg.Export.Database.Postgres.Database = "xpt"
	cfg.Export.Database.Postgres.User = "xpt"
	if err := Validate(cfg); err != nil {
		t.Fatalf("Expected valid postgres config, got %v", err)
	}

	cfg.Export.Database.Postgres.SSLMode = "sometimes"
	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for invalid sslmode")
	}
}

func TestValidate_S3Credentials(t *testing.T) {
	cfg := validConfig(t)
	cfg.S3.AccessKeyID = "AKIA"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for access key without secret")
	}

	cfg.S3.SecretAccessKey = "secret"
	if err := Validate(cfg); err != nil {
		t.Fatalf("Expected valid credentials, got %v", err)
	}
}

func TestValidate_BadgerPath(t *testing.T) {
	cfg := validConfig(t)
	cfg.Export.Badger.Path = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for missing badger path")
	}

	cfg.Export.Badger.InMemory = true
	if err := Validate(cfg); err != nil {
		t.Fatalf("In-memory badger needs no path, got %v", err)
	}
}
