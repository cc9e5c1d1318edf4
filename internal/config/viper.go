// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SCI_DATABASE_DSN.
const EnvPrefix = "SCI"

// LogConfig controls the logrus backend.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DatabaseConfig selects the store. A postgres:// DSN selects Postgres,
// anything else is a SQLite file path.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// ImportConfig describes the bank export layout.
type ImportConfig struct {
	PreambleLines int    `mapstructure:"preamble_lines" yaml:"preamble_lines"`
	Delimiter     string `mapstructure:"delimiter" yaml:"delimiter"`
	DateFormat    string `mapstructure:"date_format" yaml:"date_format"`
}

// FilesConfig points at the YAML mapping files.
type FilesConfig struct {
	TenantsFile string `mapstructure:"tenants_file" yaml:"tenants_file"`
	RulesFile   string `mapstructure:"rules_file" yaml:"rules_file"`
}

// VentilationConfig controls subsidy detection and the ventilated entry text.
type VentilationConfig struct {
	Markers     []string `mapstructure:"markers" yaml:"markers"`
	Description string   `mapstructure:"description" yaml:"description"`
}

// BlobConfig configures invoice document storage and preview links.
type BlobConfig struct {
	Root       string        `mapstructure:"root" yaml:"root"`
	SigningKey string        `mapstructure:"signing_key" yaml:"-"`
	URLTTL     time.Duration `mapstructure:"url_ttl" yaml:"url_ttl"`
	BaseURL    string        `mapstructure:"base_url" yaml:"base_url"`
}

// AuthConfig configures session tokens.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" yaml:"-"`
	LocalUser string `mapstructure:"local_user" yaml:"local_user"`
}

// ServerConfig configures the preview HTTP server.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Config represents the complete application configuration
type Config struct {
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
	Database    DatabaseConfig    `mapstructure:"database" yaml:"database"`
	Import      ImportConfig      `mapstructure:"import" yaml:"import"`
	Files       FilesConfig       `mapstructure:"files" yaml:"files"`
	Ventilation VentilationConfig `mapstructure:"ventilation" yaml:"ventilation"`
	Blob        BlobConfig        `mapstructure:"blob" yaml:"blob"`
	Auth        AuthConfig        `mapstructure:"auth" yaml:"auth"`
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
}

// DelimiterRune returns the import delimiter as a rune.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Import.Delimiter)
	return r
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	return InitializeConfigFrom("")
}

// InitializeConfigFrom loads configuration like InitializeConfig, reading
// file instead of searching for config.yaml when file is not empty.
func InitializeConfigFrom(file string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.sci-ledger")
		v.AddConfigPath(".sci-ledger")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.dsn", "sci-ledger.db")

	v.SetDefault("import.preamble_lines", 5)
	v.SetDefault("import.delimiter", ";")
	v.SetDefault("import.date_format", "DD/MM/YYYY")

	v.SetDefault("files.tenants_file", "tenants.yaml")
	v.SetDefault("files.rules_file", "rules.yaml")

	v.SetDefault("ventilation.markers", []string{"caf"})
	v.SetDefault("ventilation.description", "Part CAF ventilée")

	v.SetDefault("blob.root", "documents")
	v.SetDefault("blob.signing_key", "")
	v.SetDefault("blob.url_ttl", 15*time.Minute)
	v.SetDefault("blob.base_url", "http://localhost:8080")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.local_user", "")

	v.SetDefault("server.addr", ":8080")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if strings.TrimSpace(config.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}

	if utf8.RuneCountInString(config.Import.Delimiter) != 1 {
		return fmt.Errorf("import delimiter must be a single character, got: %s", config.Import.Delimiter)
	}

	if config.Import.PreambleLines < 0 {
		return fmt.Errorf("import.preamble_lines must not be negative, got: %d", config.Import.PreambleLines)
	}

	if config.Blob.URLTTL <= 0 {
		return fmt.Errorf("blob.url_ttl must be positive, got: %s", config.Blob.URLTTL)
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return logger
}

// Default returns the configuration built from defaults alone, ignoring
// config files and the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	_ = v.Unmarshal(&config)
	return &config
}
