package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/harlowe/vigil/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Broker  BrokerConfig  `mapstructure:"broker"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// BrokerConfig selects the market data / trading provider pair.
type BrokerConfig struct {
	Provider string       `mapstructure:"provider"` // "mock", "alpaca"
	Alpaca   AlpacaConfig `mapstructure:"alpaca"`
}

// AlpacaConfig holds credentials for the Alpaca paper/live API.
type AlpacaConfig struct {
	APIKey    string `mapstructure:"api_key"`
	SecretKey string `mapstructure:"secret_key"`
	BaseURL   string `mapstructure:"base_url"`
	Paper     bool   `mapstructure:"paper"`
}

// MonitorConfig holds default monitoring parameters. All of them can be
// overridden per run from the CLI.
type MonitorConfig struct {
	Duration     time.Duration `mapstructure:"duration"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// Threshold is the alert threshold as a fraction (0.05 = 5%).
	Threshold float64 `mapstructure:"threshold"`
}

// ArchiveConfig selects where terminal monitoring results are archived.
type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // for localfs
	S3      S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds the prometheus listener configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Broker: BrokerConfig{
			Provider: "mock",
		},
		Monitor: MonitorConfig{
			Duration:     60 * time.Minute,
			PollInterval: 30 * time.Second,
			Threshold:    0.05,
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Type:    "localfs",
			Path:    "data/results",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9090",
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Broker.Provider == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("broker provider must be set"))
	}
	if c.Broker.Provider == "alpaca" && c.Broker.Alpaca.APIKey == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("alpaca api_key required when provider is alpaca"))
	}

	if c.Monitor.Duration <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("monitor duration must be positive, got %s", c.Monitor.Duration))
	}
	if c.Monitor.PollInterval <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("monitor poll_interval must be positive, got %s", c.Monitor.PollInterval))
	}
	if c.Monitor.Threshold < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("monitor threshold cannot be negative, got %f", c.Monitor.Threshold))
	}

	if c.Archive.Enabled {
		switch c.Archive.Type {
		case "localfs":
			if c.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive path required for localfs"))
			}
		case "s3":
			if c.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive s3 bucket required"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown archive type: %s", c.Archive.Type))
		}
	}

	return nil
}
