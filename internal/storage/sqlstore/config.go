package sqlstore

import "time"

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds relational backend connection settings
type Config struct {
	// Driver is "sqlite" or "postgres"
	Driver string
	// DSN is a file path for sqlite or a connection URL for postgres
	DSN string

	// Pool settings (postgres only, sqlite always uses a single connection)
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// QueryTimeout bounds every individual statement
	QueryTimeout time.Duration
}

// DefaultConfig returns sensible defaults for a local sqlite database
func DefaultConfig() Config {
	return Config{
		Driver:          DriverSQLite,
		DSN:             "data/registry.db",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
		QueryTimeout:    5 * time.Second,
	}
}
