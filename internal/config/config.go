package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/career-mapper/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig      `yaml:"server" mapstructure:"server"`
	Log        LogConfig         `yaml:"log" mapstructure:"log"`
	Map        MapConfig         `yaml:"map" mapstructure:"map"`
	Statistics []model.Statistic `yaml:"statistics" mapstructure:"statistics"`
	Fetch      FetchConfig       `yaml:"fetch" mapstructure:"fetch"`
	Cache      CacheConfig       `yaml:"cache" mapstructure:"cache"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MapsAPIKey     string   `yaml:"maps_api_key" mapstructure:"maps_api_key"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MapConfig configures boundary geometry and styling.
type MapConfig struct {
	GeometryURL  string    `yaml:"geometry_url" mapstructure:"geometry_url"`
	IDProperty   string    `yaml:"id_property" mapstructure:"id_property"`
	NameProperty string    `yaml:"name_property" mapstructure:"name_property"`
	LowColor     []float64 `yaml:"low_color" mapstructure:"low_color"`
	HighColor    []float64 `yaml:"high_color" mapstructure:"high_color"`
	StrokeColor  string    `yaml:"stroke_color" mapstructure:"stroke_color"`
	FillOpacity  float64   `yaml:"fill_opacity" mapstructure:"fill_opacity"`
	Locale       string    `yaml:"locale" mapstructure:"locale"`
}

// FetchConfig configures outbound requests for geometry and statistics.
type FetchConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst       int     `yaml:"burst" mapstructure:"burst"`
}

// CacheConfig configures the statistic fetch cache.
type CacheConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	MaxEntries    int    `yaml:"max_entries" mapstructure:"max_entries"`
	TTLMinutes    int    `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
}

const mapsDevsite = "https://storage.googleapis.com/mapsdevsite/json/"

// DefaultStatistics returns the census variables offered when none are configured.
func DefaultStatistics() []model.Statistic {
	return []model.Statistic{
		{ID: "DP02_0066PE", Label: "Percent of population over 25 that completed high school", URL: mapsDevsite + "DP02_0066PE.json"},
		{ID: "DP05_0017E", Label: "Median age", URL: mapsDevsite + "DP05_0017E.json"},
		{ID: "DP05_0001E", Label: "Total population", URL: mapsDevsite + "DP05_0001E.json"},
		{ID: "DP02_0016E", Label: "Average family size", URL: mapsDevsite + "DP02_0016E.json"},
		{ID: "DP03_0088E", Label: "Per-capita income", URL: mapsDevsite + "DP03_0088E.json"},
	}
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MAPPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.maps_api_key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("map.geometry_url", mapsDevsite+"states.js")
	v.SetDefault("map.id_property", "STATE")
	v.SetDefault("map.name_property", "NAME")
	v.SetDefault("map.low_color", []float64{5, 69, 54})
	v.SetDefault("map.high_color", []float64{151, 83, 34})
	v.SetDefault("map.stroke_color", "#fff")
	v.SetDefault("map.fill_opacity", 0.75)
	v.SetDefault("map.locale", "en-US")
	v.SetDefault("fetch.timeout_secs", 15)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.user_agent", "career-mapper/1.0")
	v.SetDefault("fetch.rate_limit", 10.0)
	v.SetDefault("fetch.burst", 10)
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.max_entries", 64)
	v.SetDefault("cache.ttl_minutes", 60)
	v.SetDefault("cache.redis_addr", "127.0.0.1:6379")
	v.SetDefault("cache.redis_db", 0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if len(cfg.Statistics) == 0 {
		cfg.Statistics = DefaultStatistics()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings that would otherwise fail deep inside a load.
func (c *Config) Validate() error {
	if len(c.Map.LowColor) != 3 || len(c.Map.HighColor) != 3 {
		return eris.New("config: map.low_color and map.high_color need three HSL channels")
	}
	seen := make(map[string]bool, len(c.Statistics))
	for _, s := range c.Statistics {
		if s.ID == "" || s.URL == "" {
			return eris.Errorf("config: statistic %q needs an id and a url", s.Label)
		}
		if seen[s.ID] {
			return eris.Errorf("config: duplicate statistic id %q", s.ID)
		}
		seen[s.ID] = true
	}
	if c.Fetch.MaxRetries < 0 || c.Fetch.Burst < 0 || c.Fetch.TimeoutSecs < 0 || c.Fetch.RateLimit < 0 {
		return eris.New("config: fetch.max_retries, fetch.burst, fetch.timeout_secs and fetch.rate_limit must not be negative")
	}
	switch c.Cache.Driver {
	case "memory", "redis", "none":
	default:
		return eris.Errorf("config: unknown cache driver %q", c.Cache.Driver)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
