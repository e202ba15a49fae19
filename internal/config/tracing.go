package config

// TracingConfig holds OTLP trace export configuration.
//
// Traces are shipped to a local OpenTelemetry collector (or any OTLP HTTP
// receiver) on the configured endpoint. See internal/observability for the
// exporter setup.
type TracingConfig struct {
	// Enabled turns trace export on. Off by default.
	Enabled bool `mapstructure:"enabled" json:"enabled"`
	// Endpoint is the OTLP HTTP receiver (default: localhost:4318).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	// Environment is the deployment environment tag (default: dev).
	Environment string `mapstructure:"environment" json:"environment"`
	// ServiceName is the service name attached to spans (default: sdlc-kb).
	ServiceName string `mapstructure:"service_name" json:"service_name"`
}
