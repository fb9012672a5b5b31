package commands

import (
	"context"
	"fmt"

	"github.com/marmos91/xptkit/internal/logger"
	"github.com/marmos91/xptkit/internal/telemetry"
	"github.com/marmos91/xptkit/pkg/config"
	"github.com/marmos91/xptkit/pkg/metrics"
	"github.com/marmos91/xptkit/pkg/source"
	"github.com/marmos91/xptkit/pkg/xpt"
	"github.com/spf13/cobra"
)

// app holds what the data commands share: configuration, the input opener
// and the observability shutdown hooks.
type app struct {
	cfg    *config.Config
	opener *source.Opener
	stops  []func() error
}

// newApp loads configuration and starts logging, tracing and, when enabled,
// the metrics registry. The caller must call Close.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "DEBUG"
	}
	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg}

	shutdown, err := telemetry.Init(cmd.Context(), cfg.TracingConfig(Version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a.stops = append(a.stops, func() error { return shutdown(context.Background()) })

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		a.stops = append(a.stops, func() error {
			metrics.Reset()
			return nil
		})
	}

	a.opener = source.NewOpener(
		source.WithS3Config(cfg.S3),
		source.WithS3Metrics(metrics.NewS3Metrics()),
		source.WithStdin(cmd.InOrStdin()),
	)
	return a, nil
}

// loadConfig reads the --config file, which must exist when given, or the
// default file when present.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.MustLoad(cfgFile)
	}
	return config.Load("")
}

// open starts a decode session on uri and reads its headers.
func (a *app) open(ctx context.Context, uri string) (*xpt.Session, error) {
	opts := append(a.cfg.Decode.Options(), xpt.WithMetrics(metrics.NewDecodeMetrics()))

	s, err := a.opener.OpenSession(ctx, uri, opts...)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartDecodeSpan(ctx, telemetry.SpanReadHeaders, uri, telemetry.SessionID(s.ID()))
	defer span.End()
	if err := s.ReadHeaders(); err != nil {
		telemetry.RecordError(ctx, err)
		_ = s.Close()
		return nil, fmt.Errorf("%s: %w", uri, err)
	}
	telemetry.SetAttributes(ctx, telemetry.Variables(s.VariableCount()), telemetry.RecordLength(s.RecordLength()))
	return s, nil
}

// Close stops everything newApp started, in reverse order.
func (a *app) Close() {
	for i := len(a.stops) - 1; i >= 0; i-- {
		if err := a.stops[i](); err != nil {
			logger.Warn("Shutdown error", logger.Err(err))
		}
	}
}
