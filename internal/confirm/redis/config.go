package redis

import (
	"time"

	"github.com/mcoot/chargedblocks/internal/confirm"
)

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// Window is the expiry of an armed click
	Window time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		Window:       confirm.DefaultWindow,
	}
}
