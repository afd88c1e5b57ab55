package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Parser ParserConfig `yaml:"parser" mapstructure:"parser"`
	Venues VenuesConfig `yaml:"venues" mapstructure:"venues"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the result persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP parse server.
type ServerConfig struct {
	Port      int     `yaml:"port" mapstructure:"port"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// BatchConfig configures batch file processing.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ParserConfig configures the extraction pipeline.
type ParserConfig struct {
	MinConfidence float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	DateWeight    float64 `yaml:"date_weight" mapstructure:"date_weight"`
	TimeWeight    float64 `yaml:"time_weight" mapstructure:"time_weight"`
	PriceWeight   float64 `yaml:"price_weight" mapstructure:"price_weight"`
	VenueWeight   float64 `yaml:"venue_weight" mapstructure:"venue_weight"`
}

// VenuesConfig points at the optional known-venues YAML file.
type VenuesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EVENTPARSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "eventparse.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("batch.max_concurrent", 8)
	v.SetDefault("parser.min_confidence", 0.6)
	v.SetDefault("parser.date_weight", 0.30)
	v.SetDefault("parser.time_weight", 0.25)
	v.SetDefault("parser.price_weight", 0.20)
	v.SetDefault("parser.venue_weight", 0.25)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
