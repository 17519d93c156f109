package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/mcoot/chargedblocks/internal/config"
)

// Config holds CLI configuration
type Config struct {
	ConfigPath string
	DataDir    string
	Storage    string
	Output     string
	Verbose    bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ConfigPath: getEnvOrDefault("CHARGED_CONFIG", ""),
		Output:     "text",
		Verbose:    false,
	}
}

// Settings loads the registry configuration and applies the flag overrides
// on top of the file and environment
func (c *Config) Settings() (config.Config, error) {
	settings, err := config.Load(c.ConfigPath)
	if err != nil {
		return settings, err
	}
	if c.DataDir != "" {
		settings.DataDir = c.DataDir
	}
	if c.Storage != "" {
		settings.Storage.Type = c.Storage
	}
	return settings, settings.Validate()
}

// Logger returns the CLI logger. Only warnings reach stderr unless verbose.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if c.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
