package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/domain"
)

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	dsn := cfg.DSN()
	switch cfg.Driver {
	case "sqlite":
		db, err = sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, domain.IOError("open sqlite", err)
		}
		if cfg.SQLite.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.SQLite.MaxOpenConns)
		}
	case "postgres":
		if dsn == "" {
			return nil, domain.ConfigError("database.postgres.dsn is required", nil)
		}
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, domain.IOError("open postgres", err)
		}
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
	default:
		return nil, domain.ConfigError(fmt.Sprintf("unsupported database driver: %s", cfg.Driver), nil)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, domain.IOError(fmt.Sprintf("connect to %s", cfg.Driver), err)
	}
	return db, nil
}
