// Package config loads registry settings from a YAML file with environment
// overrides
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/chargedblocks/internal/confirm"
	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/token"
)

// Storage backends
const (
	StorageFlatFile = "flatfile"
	StorageSQL      = "sql"
	StorageMemory   = "memory"
)

// Confirmation trackers
const (
	ConfirmMemory = "memory"
	ConfirmRedis  = "redis"
)

// Config is the full registry configuration
type Config struct {
	DataDir string `yaml:"data_dir"`

	Storage StorageConfig `yaml:"storage"`
	Confirm ConfirmConfig `yaml:"confirm"`
	Codec   CodecConfig   `yaml:"codec"`
	Audit   AuditConfig   `yaml:"audit"`
	Catalog CatalogConfig `yaml:"catalog"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects and configures the registry backend
type StorageConfig struct {
	Type string    `yaml:"type"`
	SQL  SQLConfig `yaml:"sql"`
}

// SQLConfig configures the relational backend
type SQLConfig struct {
	Driver       string        `yaml:"driver"`
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// ConfirmConfig configures the double-click confirmation state
type ConfirmConfig struct {
	Type     string        `yaml:"type"`
	RedisURL string        `yaml:"redis_url"`
	Window   time.Duration `yaml:"window"`
}

// CodecConfig configures the token counter codec
type CodecConfig struct {
	DefaultMaxUses int32 `yaml:"default_max_uses"`
}

// AuditConfig configures the binding journal
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// CatalogConfig lists the kinds the UI may offer and their display names.
// An empty Kinds list allows every kind.
type CatalogConfig struct {
	Kinds []string          `yaml:"kinds"`
	Names map[string]string `yaml:"names"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LogConfig selects log level and handler
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		DataDir: "data",
		Storage: StorageConfig{
			Type: StorageFlatFile,
			SQL: SQLConfig{
				Driver:       "sqlite",
				MaxOpenConns: 10,
				QueryTimeout: 5 * time.Second,
			},
		},
		Confirm: ConfirmConfig{
			Type:   ConfirmMemory,
			Window: confirm.DefaultWindow,
		},
		Codec: CodecConfig{DefaultMaxUses: token.DefaultMaxUses},
		Audit: AuditConfig{Enabled: true},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads path over the defaults, then applies CHARGED_* environment
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	c.DataDir = getEnvOrDefault("CHARGED_DATA_DIR", c.DataDir)
	c.Storage.Type = getEnvOrDefault("CHARGED_STORAGE_TYPE", c.Storage.Type)
	c.Storage.SQL.Driver = getEnvOrDefault("CHARGED_SQL_DRIVER", c.Storage.SQL.Driver)
	c.Storage.SQL.DSN = getEnvOrDefault("CHARGED_SQL_DSN", c.Storage.SQL.DSN)
	c.Confirm.Type = getEnvOrDefault("CHARGED_CONFIRM_TYPE", c.Confirm.Type)
	c.Confirm.RedisURL = getEnvOrDefault("CHARGED_REDIS_URL", c.Confirm.RedisURL)
	c.Audit.Dir = getEnvOrDefault("CHARGED_AUDIT_DIR", c.Audit.Dir)
	c.Server.Host = getEnvOrDefault("CHARGED_HOST", c.Server.Host)
	c.Log.Level = getEnvOrDefault("CHARGED_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnvOrDefault("CHARGED_LOG_FORMAT", c.Log.Format)

	if v := os.Getenv("CHARGED_CONFIRM_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CHARGED_CONFIRM_WINDOW: %w", err)
		}
		c.Confirm.Window = d
	}
	if v := os.Getenv("CHARGED_DEFAULT_MAX_USES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("CHARGED_DEFAULT_MAX_USES: %w", err)
		}
		c.Codec.DefaultMaxUses = int32(n)
	}
	if v := os.Getenv("CHARGED_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHARGED_PORT: %w", err)
		}
		c.Server.Port = n
	}
	if v := os.Getenv("CHARGED_AUDIT_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CHARGED_AUDIT_ENABLED: %w", err)
		}
		c.Audit.Enabled = b
	}
	return nil
}

// Validate rejects settings the factory cannot act on
func (c Config) Validate() error {
	switch c.Storage.Type {
	case StorageFlatFile, StorageSQL, StorageMemory:
	default:
		return fmt.Errorf("storage.type %q: must be %s, %s or %s", c.Storage.Type, StorageFlatFile, StorageSQL, StorageMemory)
	}
	switch c.Confirm.Type {
	case ConfirmMemory, ConfirmRedis:
	default:
		return fmt.Errorf("confirm.type %q: must be %s or %s", c.Confirm.Type, ConfirmMemory, ConfirmRedis)
	}
	if c.Confirm.Type == ConfirmRedis && c.Confirm.RedisURL == "" {
		return fmt.Errorf("confirm.redis_url required when confirm.type is %s", ConfirmRedis)
	}
	if c.Confirm.Window <= 0 {
		return fmt.Errorf("confirm.window must be positive")
	}
	if c.Codec.DefaultMaxUses <= 0 || c.Codec.DefaultMaxUses > token.MaxFiniteUses {
		return fmt.Errorf("codec.default_max_uses %d: %w", c.Codec.DefaultMaxUses, model.ErrReservedUses)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}

// SQLDSN returns the configured DSN, defaulting sqlite to a file in the data
// directory
func (c Config) SQLDSN() string {
	if c.Storage.SQL.DSN != "" {
		return c.Storage.SQL.DSN
	}
	return filepath.Join(c.DataDir, "registry.db")
}

// AuditDir returns the journal directory, defaulting to audit/ in the data
// directory
func (c Config) AuditDir() string {
	if c.Audit.Dir != "" {
		return c.Audit.Dir
	}
	return filepath.Join(c.DataDir, "audit")
}

// CatalogKinds returns the configured allow-list, or nil for no filter
func (c Config) CatalogKinds() []model.Kind {
	if len(c.Catalog.Kinds) == 0 {
		return nil
	}
	kinds := make([]model.Kind, len(c.Catalog.Kinds))
	for i, k := range c.Catalog.Kinds {
		kinds[i] = model.Kind(strings.ToUpper(strings.TrimSpace(k)))
	}
	return kinds
}

// CatalogNames returns the display name overrides keyed by canonical kind
func (c Config) CatalogNames() map[model.Kind]string {
	names := make(map[model.Kind]string, len(c.Catalog.Names))
	for k, v := range c.Catalog.Names {
		names[model.Kind(strings.ToUpper(strings.TrimSpace(k)))] = v
	}
	return names
}

// ParseLevel converts a level name to slog.Level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger writing to w
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(c.Level)}
	if strings.EqualFold(c.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
