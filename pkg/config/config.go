// Package config provides configuration loading and validation for the
// avltree command line tools.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("invalid log format")
	ErrInvalidKeys        = errors.New("bench keys must be positive")
	ErrInvalidKeySpace    = errors.New("bench key space must not be smaller than keys")
	ErrInvalidRemoveRatio = errors.New("bench remove ratio must be within [0, 1]")
	ErrInvalidVerifyEvery = errors.New("bench verify_every must not be negative")
	ErrInvalidSampleRatio = errors.New("telemetry sample ratio must be within [0, 1]")
	ErrInvalidCodec       = errors.New("results codec must be json or gob")
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Default configuration values.
const (
	defaultLogLevel             = "info"
	defaultBenchKeys            = 100000
	defaultBenchKeySpace        = 1000000
	defaultBenchSeed            = 1
	defaultBenchRemoveRatio     = 0.5
	defaultBenchVerifyEvery     = 10000
	defaultHibernationThreshold = 0
	defaultShutdownTimeout      = "5s"
	defaultChartTitle           = "AVL tree height"
	defaultResultsCodec         = "json"
)

// envPrefix prefixes every environment override, e.g. AVLTREE_BENCH_KEYS.
const envPrefix = "AVLTREE"

// Config holds all configuration for avlctl.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Bench     BenchConfig     `mapstructure:"bench"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Report    ReportConfig    `mapstructure:"report"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BenchConfig holds the workload of the bench command.
type BenchConfig struct {
	// Keys is the number of insert operations.
	Keys int `mapstructure:"keys"`
	// KeySpace bounds the random keys; duplicates turn into overwrites.
	KeySpace int   `mapstructure:"key_space"`
	Seed     int64 `mapstructure:"seed"`
	// RemoveRatio is the share of inserted keys removed afterwards.
	RemoveRatio float64 `mapstructure:"remove_ratio"`
	// VerifyEvery runs a full invariant check after that many operations; 0 disables it.
	VerifyEvery          int  `mapstructure:"verify_every"`
	HibernationThreshold int  `mapstructure:"hibernation_threshold"`
	Hibernate            bool `mapstructure:"hibernate"`
	// ResultsDir receives the saved run; empty skips saving.
	ResultsDir   string `mapstructure:"results_dir"`
	ResultsCodec string `mapstructure:"results_codec"`
}

// TelemetryConfig holds OpenTelemetry and Prometheus settings.
type TelemetryConfig struct {
	OTLPEndpoint    string        `mapstructure:"otlp_endpoint"`
	OTLPHeaders     string        `mapstructure:"otlp_headers"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	Environment     string        `mapstructure:"environment"`
	SampleRatio     float64       `mapstructure:"sample_ratio"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	OTLPInsecure    bool          `mapstructure:"otlp_insecure"`
}

// ReportConfig holds the bench report output settings.
type ReportConfig struct {
	// ChartPath is where the height chart is written; empty skips it.
	ChartPath  string `mapstructure:"chart_path"`
	ChartTitle string `mapstructure:"chart_title"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	// Set defaults.
	setDefaults(viperCfg)

	// Read config file.
	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(".avltree")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME")
	}

	// Read environment variables.
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// Logging defaults.
	viperCfg.SetDefault("logging.level", defaultLogLevel)
	viperCfg.SetDefault("logging.format", FormatText)

	// Bench defaults.
	viperCfg.SetDefault("bench.keys", defaultBenchKeys)
	viperCfg.SetDefault("bench.key_space", defaultBenchKeySpace)
	viperCfg.SetDefault("bench.seed", defaultBenchSeed)
	viperCfg.SetDefault("bench.remove_ratio", defaultBenchRemoveRatio)
	viperCfg.SetDefault("bench.verify_every", defaultBenchVerifyEvery)
	viperCfg.SetDefault("bench.hibernation_threshold", defaultHibernationThreshold)
	viperCfg.SetDefault("bench.hibernate", false)
	viperCfg.SetDefault("bench.results_dir", "")
	viperCfg.SetDefault("bench.results_codec", defaultResultsCodec)

	// Telemetry defaults.
	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.metrics_addr", "")
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.sample_ratio", 0.0)
	viperCfg.SetDefault("telemetry.shutdown_timeout", defaultShutdownTimeout)

	// Report defaults.
	viperCfg.SetDefault("report.chart_path", "")
	viperCfg.SetDefault("report.chart_title", defaultChartTitle)
}

// Validate checks the configuration again, e.g. after command line flags
// overrode some of the loaded values.
func (config *Config) Validate() error {
	return validateConfig(config)
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	switch strings.ToLower(config.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	if config.Logging.Format != FormatText && config.Logging.Format != FormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	err := config.Bench.Validate()
	if err != nil {
		return err
	}

	if config.Telemetry.SampleRatio < 0 || config.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, config.Telemetry.SampleRatio)
	}

	return nil
}

// Validate checks the workload settings. An empty results codec is accepted
// so that library callers of bench.Run need not set one.
func (bench BenchConfig) Validate() error {
	if bench.Keys <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidKeys, bench.Keys)
	}

	if bench.KeySpace < bench.Keys {
		return fmt.Errorf("%w: %d < %d", ErrInvalidKeySpace, bench.KeySpace, bench.Keys)
	}

	if bench.RemoveRatio < 0 || bench.RemoveRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidRemoveRatio, bench.RemoveRatio)
	}

	if bench.VerifyEvery < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidVerifyEvery, bench.VerifyEvery)
	}

	switch bench.ResultsCodec {
	case "", "json", "gob":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCodec, bench.ResultsCodec)
	}

	return nil
}
