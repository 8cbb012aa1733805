package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/stockwatch/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Provider ProviderConfig `mapstructure:"provider"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Listing  ListingConfig  `mapstructure:"listing"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

// ProviderConfig holds Financial Modeling Prep settings.
type ProviderConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Exchange       string        `mapstructure:"exchange"`
	SearchLimit    int           `mapstructure:"search_limit"`
	HistoryDays    int           `mapstructure:"history_days"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type StorageConfig struct {
	Type string   `mapstructure:"type"` // "localfs", "s3" or "memory"
	Path string   `mapstructure:"path"` // For localfs
	Key  string   `mapstructure:"key"`  // Slot holding the watchlist
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// ListingConfig points at the known-symbols CSV. Empty disables the
// resolver fast path.
type ListingConfig struct {
	Path string `mapstructure:"path"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

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

// setDefaults mirrors Defaults so that partial files keep sane values.
func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("provider.base_url", d.Provider.BaseURL)
	v.SetDefault("provider.api_key", d.Provider.APIKey)
	v.SetDefault("provider.exchange", d.Provider.Exchange)
	v.SetDefault("provider.search_limit", d.Provider.SearchLimit)
	v.SetDefault("provider.history_days", d.Provider.HistoryDays)
	v.SetDefault("provider.request_timeout", d.Provider.RequestTimeout)
	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.key", d.Storage.Key)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// Defaults returns a config with sensible defaults. The provider api key
// falls back to FMP_API_KEY.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Provider: ProviderConfig{
			BaseURL:        "https://financialmodelingprep.com/api/v3",
			APIKey:         os.Getenv("FMP_API_KEY"),
			Exchange:       "NASDAQ",
			SearchLimit:    5,
			HistoryDays:    30,
			RequestTimeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Type: "localfs",
			Path: defaultDataDir(),
			Key:  "watched",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".stockwatch"
	}
	return dir + string(os.PathSeparator) + "stockwatch"
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	// Provider validation
	if c.Provider.BaseURL == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("provider base_url required"))
	}
	if c.Provider.SearchLimit < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("search_limit must be positive, got %d", c.Provider.SearchLimit))
	}
	if c.Provider.HistoryDays < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("history_days must be positive, got %d", c.Provider.HistoryDays))
	}
	if c.Provider.RequestTimeout < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("request_timeout cannot be negative, got %s", c.Provider.RequestTimeout))
	}

	// Storage validation - each backend needs its own settings
	if c.Storage.Key == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("storage key required"))
	}
	switch c.Storage.Type {
	case "localfs":
		if c.Storage.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage path required when type is localfs"))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when type is s3"))
		}
	case "memory":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}

	return nil
}
