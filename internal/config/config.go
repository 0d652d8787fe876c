// Package config loads application configuration from config.yaml and
// MATCH_-prefixed environment variables, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bizmatch/match-cli/internal/matcher"
	"github.com/bizmatch/match-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Dedupe   DedupeConfig   `yaml:"dedupe" mapstructure:"dedupe"`
	Matcher  MatcherConfig  `yaml:"matcher" mapstructure:"matcher"`
	Classify ClassifyConfig `yaml:"classify" mapstructure:"classify"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`             // "sqlite" or "postgres"
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"` // postgres connection string
	Path        string           `yaml:"path" mapstructure:"path"`                 // sqlite file path
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// DedupeConfig configures duplicate detection runs.
type DedupeConfig struct {
	BusinessKeyTier     bool    `yaml:"business_key_tier" mapstructure:"business_key_tier"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	BatchLimit          int     `yaml:"batch_limit" mapstructure:"batch_limit"`
}

// MatcherConfig configures recommendation generation. A zero rubric falls
// back to the built-in weights.
type MatcherConfig struct {
	MinScore int            `yaml:"min_score" mapstructure:"min_score"`
	Limit    int            `yaml:"limit" mapstructure:"limit"`
	Rubric   matcher.Config `yaml:"rubric" mapstructure:"rubric"`
}

// ClassifyConfig configures industry classification.
type ClassifyConfig struct {
	PolicyPath string `yaml:"policy_path" mapstructure:"policy_path"` // optional YAML keyword policy
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port          int     `yaml:"port" mapstructure:"port"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst" mapstructure:"rate_burst"`
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
	v.SetEnvPrefix("MATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "match.db")
	v.SetDefault("dedupe.business_key_tier", true)
	v.SetDefault("dedupe.similarity_threshold", 0.90)
	v.SetDefault("dedupe.batch_limit", 10000)
	v.SetDefault("matcher.min_score", 40)
	v.SetDefault("matcher.limit", 50)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_second", 20)
	v.SetDefault("server.rate_burst", 40)
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

	// Nested rubric defaults are awkward to express as viper keys; an
	// unset rubric takes the built-in weights wholesale.
	if cfg.Matcher.Rubric.RawCeiling == 0 {
		cfg.Matcher.Rubric = matcher.DefaultConfig()
	}
	if err := matcher.ValidateConfig(cfg.Matcher.Rubric); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the configuration carries everything the given
// command needs. Errors name the missing keys so the fix is obvious.
func (c *Config) Validate(command string) error {
	var missing []string

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required for the postgres driver")
		}
	case "sqlite":
		if c.Store.Path == "" {
			missing = append(missing, "store.path is required for the sqlite driver")
		}
	default:
		missing = append(missing, "store.driver must be \"sqlite\" or \"postgres\"")
	}

	switch command {
	case "serve":
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			missing = append(missing, "server.port must be between 1 and 65535")
		}
	case "dedupe":
		if c.Dedupe.SimilarityThreshold <= 0 || c.Dedupe.SimilarityThreshold > 1 {
			missing = append(missing, "dedupe.similarity_threshold must be in (0, 1]")
		}
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
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
