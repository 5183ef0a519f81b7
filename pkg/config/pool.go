package config

import (
	"fmt"
	"time"
)

// EnvPrefix is the prefix of environment overrides for PoolConfig,
// e.g. THREADPOOL_WORKERS or THREADPOOL_TRACING_EXPORTER.
const EnvPrefix = "THREADPOOL"

// Duration is a time.Duration written as "30s" in YAML, JSON and env vars.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// PoolConfig configures a process hosting a thread pool.
type PoolConfig struct {
	Workers         int           `yaml:"workers" json:"workers"`
	ShutdownTimeout Duration      `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	LogLevel        string        `yaml:"log_level" json:"log_level"`
	Metrics         MetricsConfig `yaml:"metrics" json:"metrics"`
	Tracing         TracingConfig `yaml:"tracing" json:"tracing"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
	Path    string `yaml:"path" json:"path"`
}

// TracingConfig selects the span exporter. Exporter is none, stdout or zipkin.
type TracingConfig struct {
	Exporter       string  `yaml:"exporter" json:"exporter"`
	ServiceName    string  `yaml:"service_name" json:"service_name"`
	ZipkinEndpoint string  `yaml:"zipkin_endpoint" json:"zipkin_endpoint"`
	SampleRate     float64 `yaml:"sample_rate" json:"sample_rate"`
}

// DefaultPoolConfig returns the configuration used when no file is given.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Workers:         4,
		ShutdownTimeout: Duration(30 * time.Second),
		LogLevel:        "info",
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			Exporter:       "none",
			ServiceName:    "threadpool",
			ZipkinEndpoint: "http://localhost:9411/api/v2/spans",
			SampleRate:     1.0,
		},
	}
}

// Validate checks ranges and enumerations.
func (c *PoolConfig) Validate() error {
	return Validate(c,
		RangeValidator("Workers", 1, 4096),
		OneOfValidator("LogLevel", "debug", "info", "warn", "error"),
		OneOfValidator("Tracing.Exporter", "none", "stdout", "zipkin"),
		RequiredFields("Tracing.ServiceName"),
		RangeValidator("Tracing.SampleRate", 0, 1),
		When(func(interface{}) bool { return c.Metrics.Enabled },
			RequiredFields("Metrics.Addr", "Metrics.Path")),
		When(func(interface{}) bool { return c.Tracing.Exporter == "zipkin" },
			RequiredFields("Tracing.ZipkinEndpoint")),
		ValidatorFunc(func(interface{}) error {
			if c.ShutdownTimeout < 0 {
				return fmt.Errorf("field ShutdownTimeout must not be negative")
			}
			return nil
		}),
	)
}

// LoadPoolConfig starts from DefaultPoolConfig, overlays the file at path
// (skipped when path is empty), then THREADPOOL_* environment variables,
// and validates the result.
func LoadPoolConfig(path string) (PoolConfig, error) {
	cfg := DefaultPoolConfig()

	if path != "" {
		if err := Load(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := ApplyEnvOverrides(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to apply env overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
