package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gagyebu/internal/core"
)

func validConfig() Config {
	return Config{
		Backend: "sqlite",
		SQLite:  SQLiteConfig{Path: "./test.db"},
		Keys:    KeysConfig{Records: "budgetRecords", Recurring: "recurringExpenses"},
		Server:  ServerConfig{Port: "8081"},
		Log:     LogConfig{Level: "info", Format: "text"},
		Categories: CategoriesConfig{
			Revision: "v2",
		},
		Summary: SummaryConfig{TopCategories: 5},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errorString string
	}{
		{name: "valid sqlite backend config", mutate: func(*Config) {}},
		{name: "valid memory backend", mutate: func(c *Config) { c.Backend = "memory"; c.SQLite.Path = "" }},
		{
			name:   "valid redis backend",
			mutate: func(c *Config) { c.Backend = "redis"; c.Redis.Addr = "localhost:6379" },
		},
		{
			name:        "invalid backend",
			mutate:      func(c *Config) { c.Backend = "postgres" },
			errorString: "invalid backend 'postgres'",
		},
		{
			name:        "missing sqlite path",
			mutate:      func(c *Config) { c.SQLite.Path = " " },
			errorString: "SQLite database path cannot be empty",
		},
		{
			name:        "missing redis address",
			mutate:      func(c *Config) { c.Backend = "redis" },
			errorString: "Redis address cannot be empty",
		},
		{
			name:        "redis db out of range",
			mutate:      func(c *Config) { c.Backend = "redis"; c.Redis.Addr = "x:1"; c.Redis.DB = 16 },
			errorString: "invalid redis db 16",
		},
		{
			name:        "same keys",
			mutate:      func(c *Config) { c.Keys.Recurring = c.Keys.Records },
			errorString: "storage keys must differ",
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Server.Port = "abc" },
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range",
			mutate:      func(c *Config) { c.Server.Port = "70000" },
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid AMQP scheme",
			mutate:      func(c *Config) { c.AMQP = AMQPConfig{URL: "http://localhost", Exchange: "e", Queue: "q"} },
			errorString: "invalid AMQP URL scheme 'http'",
		},
		{
			name:        "AMQP without queue",
			mutate:      func(c *Config) { c.AMQP = AMQPConfig{URL: "amqp://localhost", Exchange: "e"} },
			errorString: "AMQP queue name cannot be empty",
		},
		{
			name:        "sheets credentials file missing",
			mutate:      func(c *Config) { c.Sheets = SheetsConfig{SpreadsheetID: "id", CredentialsFile: "/nonexistent/creds.json"} },
			errorString: "sheets credentials file does not exist",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.Log.Level = "loud" },
			errorString: `unknown log level "loud"`,
		},
		{
			name:        "invalid log format",
			mutate:      func(c *Config) { c.Log.Format = "xml" },
			errorString: "invalid log format 'xml'",
		},
		{
			name:        "top categories out of range",
			mutate:      func(c *Config) { c.Summary.TopCategories = 0 },
			errorString: "invalid top categories 0",
		},
		{
			name:        "unknown category revision",
			mutate:      func(c *Config) { c.Categories.Revision = "v9" },
			errorString: `unknown category revision "v9"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errorString == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errorString) {
				t.Fatalf("expected error containing %q, got %v", tt.errorString, err)
			}
		})
	}
}

func TestConfig_ValidateAggregates(t *testing.T) {
	cfg := validConfig()
	cfg.Backend = "nope"
	cfg.Server.Port = "x"
	err := cfg.Validate()
	if err == nil || strings.Count(err.Error(), "\n- ") != 2 {
		t.Fatalf("expected two aggregated problems, got %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != "sqlite" || cfg.Keys.Records != "budgetRecords" || cfg.Keys.Recurring != "recurringExpenses" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Server.ShutdownTimeout != 15*time.Second || cfg.Summary.TopCategories != core.DefaultTopCategories {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
backend: redis
redis:
  addr: "cache:6379"
  db: 2
categories:
  revision: family
  revisions:
    - revision: family
      income: ["월급"]
      expense: ["장보기", "기타"]
`
	if err := os.WriteFile(filepath.Join(dir, "gagyebu.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GAGYEBU_SERVER_PORT", "9090")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != "redis" || cfg.Redis.Addr != "cache:6379" || cfg.Redis.DB != 2 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("env override not applied, port=%s", cfg.Server.Port)
	}
	reg, err := cfg.Registry()
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}
	if !reg.Allows(core.Expense, "장보기") || reg.Allows(core.Expense, "식비") {
		t.Fatalf("configured revision not used: %+v", reg)
	}
}

func TestLoad_ExplicitFileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "custom.yml")
	if err := os.WriteFile(file, []byte("log:\n  format: json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GAGYEBU_LOG_LEVEL=debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GAGYEBU_LOG_LEVEL", "")
	os.Unsetenv("GAGYEBU_LOG_LEVEL")

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log config %+v", cfg.Log)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "gagyebu.yaml"), []byte("backend: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for malformed config")
	}
}
