package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"log/slog"

	"github.com/m3rciful/santabot/core/logger"
)

// Connect opens the database, configures the pool and verifies connectivity.
func Connect(cfg Config) (*sqlx.DB, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case DriverSQLite:
		if err := ensureDirForSQLite(cfg.Path); err != nil {
			return nil, err
		}
	case DriverPostgres:
		if err := WaitForPostgres(cfg.DSN(), 30*time.Second); err != nil {
			logger.DB.Error("db not ready",
				slog.String("event", "db.connect"),
				slog.String("driver", cfg.Driver),
				slog.String("db", cfg.Target()),
				slog.String("err", err.Error()),
			)
			return nil, fmt.Errorf("database not ready: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN())
	took := time.Since(start)
	if err != nil {
		logger.DB.Error("db connect failed",
			slog.String("event", "db.connect"),
			slog.String("driver", cfg.Driver),
			slog.String("db", cfg.Target()),
			slog.Duration("duration", logger.RoundMS(took)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)

	logger.DB.Info("db connected",
		slog.String("event", "db.connect"),
		slog.String("driver", cfg.Driver),
		slog.String("db", cfg.Target()),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return db, nil
}

// WaitForPostgres pings the server with exponential backoff until it answers or timeout elapses.
func WaitForPostgres(dsn string, timeout time.Duration) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = timeout

	return backoff.Retry(func() error {
		db, err := sql.Open(DriverPostgres, dsn)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer db.Close()
		return db.Ping()
	}, policy)
}

// ensureDirForSQLite creates the parent directory of a database file.
func ensureDirForSQLite(path string) error {
	if strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(path, "file:")
	clean, _, _ = strings.Cut(clean, "?")
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
