package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func open(cfg Config) (*sql.DB, error) {
	switch cfg.Driver {
	case DriverSQLite:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("empty db path")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
			return nil, err
		}
		db, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		if err := initPragmas(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	case DriverPostgres:
		db, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bindings (
			player_uuid TEXT NOT NULL,
			player_name TEXT NOT NULL DEFAULT '',
			block_id TEXT NOT NULL,
			material TEXT NOT NULL,
			uses INTEGER NOT NULL,
			max_uses INTEGER NOT NULL,
			hidden BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (player_uuid, block_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_bindings_player ON bindings(player_uuid);`,
		`CREATE INDEX IF NOT EXISTS idx_bindings_block ON bindings(block_id);`,
		`CREATE TABLE IF NOT EXISTS favorites (
			player_uuid TEXT NOT NULL,
			material TEXT NOT NULL,
			created_at TEXT NOT NULL,
			UNIQUE (player_uuid, material)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders into $n for postgres
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
