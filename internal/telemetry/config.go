package telemetry

const (
	defaultServiceName = "xpt"
	defaultEndpoint    = "localhost:4317"
)

// Config controls trace export over OTLP/gRPC.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is the collector address, host:port without a scheme.
	Endpoint string

	// Insecure dials the collector without TLS.
	Insecure bool

	// SampleRate is the fraction of exports traced, from 0 to 1.
	SampleRate float64
}

// DefaultConfig returns the configuration used when none is given.
// Tracing is off.
func DefaultConfig() Config {
	return Config{
		ServiceName:    defaultServiceName,
		ServiceVersion: "dev",
		Endpoint:       defaultEndpoint,
		Insecure:       true,
		SampleRate:     1.0,
	}
}

// normalize fills empty names and clamps SampleRate into [0, 1].
func (c Config) normalize() Config {
	if c.ServiceName == "" {
		c.ServiceName = defaultServiceName
	}
	if c.Endpoint == "" {
		c.Endpoint = defaultEndpoint
	}
	c.SampleRate = min(max(c.SampleRate, 0), 1)
	return c
}
