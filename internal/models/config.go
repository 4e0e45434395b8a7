// Package models - Service configuration and operational settings.
// Hierarchical configuration with logical grouping (server, storage,
// security, resilience, logging, metrics, observability), environment
// friendly defaults, and validation to catch misconfigurations early.
package models

import (
	"errors"
	"fmt"
	"time"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypePostgres = "postgres"
	StorageTypeSQLite   = "sqlite"
)

// Config is the root configuration structure containing all service settings.
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`
	Storage       StorageConfig       `yaml:"storage" json:"storage"`
	Security      SecurityConfig      `yaml:"security" json:"security"`
	Resilience    ResilienceConfig    `yaml:"resilience" json:"resilience"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile  string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile   string        `yaml:"tls_key_file" json:"tls_key_file"`
}

type StorageConfig struct {
	Type     string         `yaml:"type" json:"type"`
	Database DatabaseConfig `yaml:"database" json:"database"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn" json:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
}

type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled" json:"enabled"`
	RequestsPerWindow int           `yaml:"requests_per_window" json:"requests_per_window"`
	Window            time.Duration `yaml:"window" json:"window"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// ResilienceConfig controls the circuit breaker, retry, and timeout policy
// protecting the database.
type ResilienceConfig struct {
	FailureRateThreshold      float64       `yaml:"failure_rate_threshold" json:"failure_rate_threshold"`
	SlidingWindowSize         int           `yaml:"sliding_window_size" json:"sliding_window_size"`
	MinimumNumberOfCalls      int           `yaml:"minimum_number_of_calls" json:"minimum_number_of_calls"`
	WaitDurationInOpenState   time.Duration `yaml:"wait_duration_in_open_state" json:"wait_duration_in_open_state"`
	PermittedCallsInHalfOpen  int           `yaml:"permitted_calls_in_half_open" json:"permitted_calls_in_half_open"`
	SlowCallDurationThreshold time.Duration `yaml:"slow_call_duration_threshold" json:"slow_call_duration_threshold"`
	SlowCallRateThreshold     float64       `yaml:"slow_call_rate_threshold" json:"slow_call_rate_threshold"`
	MaxRetryAttempts          int           `yaml:"max_retry_attempts" json:"max_retry_attempts"`
	RetryBackoff              time.Duration `yaml:"retry_backoff" json:"retry_backoff"`
	OperationTimeout          time.Duration `yaml:"operation_timeout" json:"operation_timeout"`
	MaxConcurrentCalls        int           `yaml:"max_concurrent_calls" json:"max_concurrent_calls"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig creates a configuration with production-ready defaults.
// Rate limiting and metrics are on by default; sqlite storage keeps setup
// free of external dependencies.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			TLSEnabled:   false,
		},
		Storage: StorageConfig{
			Type: StorageTypeSQLite,
			Database: DatabaseConfig{
				DSN:             "./data/finance.db",
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
				ConnMaxIdleTime: 5 * time.Minute,
			},
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerWindow: 100,
				Window:            time.Minute,
				CleanupInterval:   5 * time.Minute,
			},
		},
		Resilience: ResilienceConfig{
			FailureRateThreshold:      50,
			SlidingWindowSize:         10,
			MinimumNumberOfCalls:      5,
			WaitDurationInOpenState:   60 * time.Second,
			PermittedCallsInHalfOpen:  3,
			SlowCallDurationThreshold: 2 * time.Second,
			SlowCallRateThreshold:     100,
			MaxRetryAttempts:          3,
			RetryBackoff:              100 * time.Millisecond,
			OperationTimeout:          5 * time.Second,
			MaxConcurrentCalls:        16,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "finance",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("invalid storage config: %w", err)
	}

	if err := c.Security.Validate(); err != nil {
		return fmt.Errorf("invalid security config: %w", err)
	}

	if err := c.Resilience.Validate(); err != nil {
		return fmt.Errorf("invalid resilience config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}

	if sc.ReadTimeout < 0 {
		return errors.New("read timeout cannot be negative")
	}

	if sc.WriteTimeout < 0 {
		return errors.New("write timeout cannot be negative")
	}

	if sc.IdleTimeout < 0 {
		return errors.New("idle timeout cannot be negative")
	}

	if sc.TLSEnabled {
		if sc.TLSCertFile == "" {
			return errors.New("TLS cert file is required when TLS is enabled")
		}
		if sc.TLSKeyFile == "" {
			return errors.New("TLS key file is required when TLS is enabled")
		}
	}

	return nil
}

func (stc *StorageConfig) Validate() error {
	switch stc.Type {
	case StorageTypeMemory:
		// Memory storage requires no additional configuration
		return nil
	case StorageTypePostgres, StorageTypeSQLite:
		if stc.Database.DSN == "" {
			return errors.New("database DSN is required for database storage")
		}
		return nil
	default:
		return fmt.Errorf("invalid storage type: %s", stc.Type)
	}
}

func (sec *SecurityConfig) Validate() error {
	if sec.RateLimit.Enabled {
		if sec.RateLimit.RequestsPerWindow < 0 {
			return errors.New("requests per window cannot be negative")
		}
		if sec.RateLimit.Window <= 0 {
			return errors.New("rate limit window must be positive")
		}
		if sec.RateLimit.CleanupInterval < 0 {
			return errors.New("cleanup interval cannot be negative")
		}
	}
	return nil
}

func (rc *ResilienceConfig) Validate() error {
	if rc.FailureRateThreshold <= 0 || rc.FailureRateThreshold > 100 {
		return errors.New("failure rate threshold must be in (0, 100]")
	}
	if rc.SlowCallRateThreshold <= 0 || rc.SlowCallRateThreshold > 100 {
		return errors.New("slow call rate threshold must be in (0, 100]")
	}
	if rc.SlidingWindowSize <= 0 {
		return errors.New("sliding window size must be positive")
	}
	if rc.MinimumNumberOfCalls <= 0 {
		return errors.New("minimum number of calls must be positive")
	}
	if rc.PermittedCallsInHalfOpen <= 0 {
		return errors.New("permitted calls in half-open must be positive")
	}
	if rc.WaitDurationInOpenState <= 0 {
		return errors.New("wait duration in open state must be positive")
	}
	if rc.MaxRetryAttempts <= 0 {
		return errors.New("max retry attempts must be positive")
	}
	if rc.OperationTimeout <= 0 {
		return errors.New("operation timeout must be positive")
	}
	if rc.MaxConcurrentCalls <= 0 {
		return errors.New("max concurrent calls must be positive")
	}
	return nil
}

func (lc *LoggingConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	found := false
	for _, vl := range validLevels {
		if lc.Level == vl {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	validFormats := []string{"json", "text"}
	found = false
	for _, vf := range validFormats {
		if lc.Format == vf {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	validOutputs := []string{"stdout", "stderr", "file"}
	found = false
	for _, vo := range validOutputs {
		if lc.Output == vo {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}

	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}

	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}

	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}

	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if !oc.Tracing.Enabled {
		return nil
	}

	switch oc.Tracing.Exporter {
	case "stdout":
	case "otlp":
		if oc.Tracing.OTLPEndpoint == "" {
			return errors.New("OTLP endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("invalid trace exporter: %s", oc.Tracing.Exporter)
	}

	if oc.Tracing.SampleRate < 0 || oc.Tracing.SampleRate > 1 {
		return errors.New("trace sample rate must be in [0, 1]")
	}

	return nil
}
