// Package config loads application configuration and bootstraps logging.
package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ynm-safety/crm-import-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Importer ImporterConfig `yaml:"importer" mapstructure:"importer"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ImporterConfig configures the import pipeline. The similarity threshold and
// the alias/synonym tables are deliberately configuration, not constants, so
// deployments can retune matching without a rebuild.
type ImporterConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	// AliasesFile optionally overrides the built-in column-header alias table.
	AliasesFile string `yaml:"aliases_file" mapstructure:"aliases_file"`
	// SynonymsFile optionally supplies reference-name synonyms
	// (e.g. "J&K" -> "Jammu & Kashmir").
	SynonymsFile string `yaml:"synonyms_file" mapstructure:"synonyms_file"`
}

// FetchConfig configures remote source acquisition.
type FetchConfig struct {
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	FTPUser           string  `yaml:"ftp_user" mapstructure:"ftp_user"`
	FTPPassword       string  `yaml:"ftp_password" mapstructure:"ftp_password"`
}

// ServerConfig configures the import webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CRMIMPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("importer.similarity_threshold", 0.6)
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.requests_per_second", 2.0)

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

// LoadAliases reads a column-header alias table from a YAML file mapping
// logical field names to header variants.
func LoadAliases(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read aliases file %s", path)
	}
	var aliases map[string][]string
	if err := yaml.Unmarshal(data, &aliases); err != nil {
		return nil, eris.Wrapf(err, "config: parse aliases file %s", path)
	}
	return aliases, nil
}

// LoadSynonyms reads a reference-name synonym table from a YAML file mapping
// alternate spellings to canonical names.
func LoadSynonyms(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read synonyms file %s", path)
	}
	var synonyms map[string]string
	if err := yaml.Unmarshal(data, &synonyms); err != nil {
		return nil, eris.Wrapf(err, "config: parse synonyms file %s", path)
	}
	return synonyms, nil
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
