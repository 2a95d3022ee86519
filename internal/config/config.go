// Package config loads the ledger configuration from defaults, an optional
// YAML file, a .env file and GAGYEBU_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"gagyebu/internal/core"
	"gagyebu/internal/log"
)

const (
	EnvPrefix  = "GAGYEBU"
	ConfigName = "gagyebu"
)

type Config struct {
	Backend    string           `mapstructure:"backend"`
	SQLite     SQLiteConfig     `mapstructure:"sqlite"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Keys       KeysConfig       `mapstructure:"keys"`
	Server     ServerConfig     `mapstructure:"server"`
	AMQP       AMQPConfig       `mapstructure:"amqp"`
	Sheets     SheetsConfig     `mapstructure:"sheets"`
	Log        LogConfig        `mapstructure:"log"`
	Categories CategoriesConfig `mapstructure:"categories"`
	Summary    SummaryConfig    `mapstructure:"summary"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type KeysConfig struct {
	Records   string `mapstructure:"records"`
	Recurring string `mapstructure:"recurring"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AMQPConfig enables change notifications when URL is set.
type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
	Queue    string `mapstructure:"queue"`
}

// SheetsConfig enables the Google Sheets export when SpreadsheetID is set.
type SheetsConfig struct {
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	RecordsSheet    string `mapstructure:"records_sheet"`
	OverviewSheet   string `mapstructure:"overview_sheet"`
	CredentialsJSON string `mapstructure:"credentials_json"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CategoriesConfig struct {
	Revision  string          `mapstructure:"revision"`
	Revisions []core.Registry `mapstructure:"revisions"`
}

type SummaryConfig struct {
	TopCategories int `mapstructure:"top_categories"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", "sqlite")
	v.SetDefault("sqlite.path", "./data/gagyebu.db")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "gagyebu")
	v.SetDefault("redis.timeout", 5*time.Second)
	v.SetDefault("keys.records", "budgetRecords")
	v.SetDefault("keys.recurring", "recurringExpenses")
	v.SetDefault("server.port", "8081")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "gagyebu")
	v.SetDefault("amqp.queue", "ledger_changes")
	v.SetDefault("sheets.spreadsheet_id", "")
	v.SetDefault("sheets.records_sheet", "가계부")
	v.SetDefault("sheets.overview_sheet", "월별요약")
	v.SetDefault("sheets.credentials_json", "")
	v.SetDefault("sheets.credentials_file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("categories.revision", core.DefaultRevision)
	v.SetDefault("summary.top_categories", core.DefaultTopCategories)
}

// Load reads configuration. path may name a config file or a directory to
// search for gagyebu.yaml; an empty path searches the working directory.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "."
	}

	dir := path
	if isConfigFile(path) {
		dir = filepath.Dir(path)
	}
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	if isConfigFile(path) {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(path)
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func isConfigFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".toml":
		return true
	}
	return false
}

// Registry resolves the active category revision.
func (c *Config) Registry() (core.Registry, error) {
	return core.ResolveRegistry(c.Categories.Revision, c.Categories.Revisions)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	switch c.Backend {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(c.SQLite.Path) == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		}
	case "redis":
		if strings.TrimSpace(c.Redis.Addr) == "" {
			errs = append(errs, "Redis address cannot be empty when using redis backend")
		}
		if c.Redis.DB < 0 || c.Redis.DB > 15 {
			errs = append(errs, fmt.Sprintf("invalid redis db %d: must be between 0 and 15", c.Redis.DB))
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid backend '%s': must be one of [memory sqlite redis]", c.Backend))
	}

	if strings.TrimSpace(c.Keys.Records) == "" || strings.TrimSpace(c.Keys.Recurring) == "" {
		errs = append(errs, "storage keys cannot be empty")
	} else if c.Keys.Records == c.Keys.Recurring {
		errs = append(errs, fmt.Sprintf("storage keys must differ, both are '%s'", c.Keys.Records))
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Server.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.AMQP.URL != "" {
		if parsedURL, err := url.Parse(c.AMQP.URL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQP.URL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQP.Exchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQP.Queue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.Sheets.SpreadsheetID != "" {
		if c.Sheets.CredentialsJSON == "" && c.Sheets.CredentialsFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errs = append(errs, "sheets export needs credentials_json, credentials_file or GOOGLE_APPLICATION_CREDENTIALS")
		}
		if c.Sheets.CredentialsFile != "" {
			if _, err := os.Stat(c.Sheets.CredentialsFile); os.IsNotExist(err) {
				errs = append(errs, fmt.Sprintf("sheets credentials file does not exist: %s", c.Sheets.CredentialsFile))
			}
		}
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err.Error())
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.Log.Format))
	}

	if c.Summary.TopCategories < 1 || c.Summary.TopCategories > 50 {
		errs = append(errs, fmt.Sprintf("invalid top categories %d: must be between 1 and 50", c.Summary.TopCategories))
	}

	if _, err := c.Registry(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
