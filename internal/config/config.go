package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/distancia360/agroanalytics/internal/refdata"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Similarity SimilarityConfig `yaml:"similarity" mapstructure:"similarity"`
	Crops      CropsConfig      `yaml:"crops" mapstructure:"crops"`
	Catalog    CatalogConfig    `yaml:"catalog" mapstructure:"catalog"`
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
}

// StoreConfig configures the reference store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	CORSOrigins        []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimitRPS       float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst     int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	RequestTimeoutSecs int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	CacheMaxEntries    int      `yaml:"cache_max_entries" mapstructure:"cache_max_entries"`
}

// SearchConfig configures corpus similarity search.
type SearchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	TopN        int `yaml:"top_n" mapstructure:"top_n"`
}

// SimilarityConfig configures attribute error handling and soil rendering.
type SimilarityConfig struct {
	Strict           bool   `yaml:"strict" mapstructure:"strict"`
	SoilMissingToken string `yaml:"soil_missing_token" mapstructure:"soil_missing_token"`
}

// CropsConfig sets default result sizes for crop queries.
type CropsConfig struct {
	RecommendTopN          int `yaml:"recommend_top_n" mapstructure:"recommend_top_n"`
	BestMunicipalitiesTopN int `yaml:"best_municipalities_top_n" mapstructure:"best_municipalities_top_n"`
}

// CatalogConfig configures municipality name resolution.
type CatalogConfig struct {
	MatchThreshold float64 `yaml:"match_threshold" mapstructure:"match_threshold"`
}

// DataConfig locates the source tables.
type DataConfig struct {
	Dir   string        `yaml:"dir" mapstructure:"dir"`
	Files refdata.Files `yaml:"files" mapstructure:"files"`
}

// FetchConfig configures archive downloads.
type FetchConfig struct {
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries   int     `yaml:"max_retries" mapstructure:"max_retries"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	TempDir      string  `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// MonitoringConfig configures the metrics refresher.
type MonitoringConfig struct {
	RefreshIntervalSecs int `yaml:"refresh_interval_secs" mapstructure:"refresh_interval_secs"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AGRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "agroanalytics.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit_rps", 20.0)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("server.request_timeout_secs", 30)
	v.SetDefault("server.cache_max_entries", 500000)
	v.SetDefault("search.concurrency", 8)
	v.SetDefault("search.top_n", 10)
	v.SetDefault("similarity.strict", true)
	v.SetDefault("similarity.soil_missing_token", "nan")
	v.SetDefault("crops.recommend_top_n", 5)
	v.SetDefault("crops.best_municipalities_top_n", 10)
	v.SetDefault("catalog.match_threshold", 0.6)
	v.SetDefault("data.dir", "data")
	files := refdata.DefaultFiles()
	v.SetDefault("data.files.municipalities", files.Municipalities)
	v.SetDefault("data.files.precipitation", files.Precipitation)
	v.SetDefault("data.files.temperature", files.Temperature)
	v.SetDefault("data.files.climate_units", files.ClimateUnits)
	v.SetDefault("data.files.soils", files.Soils)
	v.SetDefault("data.files.landforms", files.Landforms)
	v.SetDefault("data.files.aptitudes", files.Aptitudes)
	v.SetDefault("data.files.crops", files.Crops)
	v.SetDefault("data.files.closures", files.Closures)
	v.SetDefault("data.files.drought", files.Drought)
	v.SetDefault("fetch.user_agent", "agroanalytics/1.0")
	v.SetDefault("fetch.timeout_secs", 300)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_limit_rps", 5.0)
	v.SetDefault("fetch.temp_dir", "")
	v.SetDefault("monitoring.refresh_interval_secs", 60)

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

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "migrate", "import", "query" and "serve".
func (c *Config) Validate(mode string) error {
	var errs []string
	add := func(format string, args ...any) { errs = append(errs, fmt.Sprintf(format, args...)) }

	switch mode {
	case "migrate", "import", "query", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch strings.ToLower(c.Store.Driver) {
	case "sqlite", "postgres":
	default:
		add("store.driver must be sqlite or postgres, got %q", c.Store.Driver)
	}
	if c.Store.DatabaseURL == "" {
		add("store.database_url is required")
	}

	if mode == "import" && c.Data.Dir == "" {
		add("data.dir is required")
	}

	if mode == "query" || mode == "serve" {
		if c.Search.Concurrency < 1 || c.Search.Concurrency > 256 {
			add("search.concurrency must be between 1 and 256")
		}
		if c.Search.TopN < 1 {
			add("search.top_n must be > 0")
		}
		if c.Crops.RecommendTopN < 1 || c.Crops.BestMunicipalitiesTopN < 1 {
			add("crops top_n values must be > 0")
		}
		if c.Catalog.MatchThreshold <= 0 || c.Catalog.MatchThreshold > 1 {
			add("catalog.match_threshold must be in (0, 1]")
		}
	}

	if mode == "serve" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			add("server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimitRPS < 0 {
			add("server.rate_limit_rps must be >= 0")
		}
		if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
			add("server.rate_limit_burst must be >= 1 when rate limiting is enabled")
		}
		if c.Server.CacheMaxEntries < 0 {
			add("server.cache_max_entries must be >= 0")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
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
