package driver

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// Open connects to PostgreSQL and returns a session holding exactly one connection.
// Parse, dial and authentication failures are returned unwrapped so callers see
// the driver's own message.
func Open(ctx context.Context, target string, logger *slog.Logger) (*Session, error) {
	cfg, err := pgx.ParseConfig(target)
	if err != nil {
		return nil, err
	}

	db := stdlib.OpenDB(*cfg)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if logger != nil {
		logger.Debug("postgres session opened", slog.String("host", cfg.Host), slog.String("database", cfg.Database))
	}
	return NewSession(db, logger), nil
}

// NewOpener returns an Opener backed by Open.
func NewOpener(logger *slog.Logger) Opener {
	return func(ctx context.Context, target string) (*Session, error) {
		return Open(ctx, target, logger)
	}
}
