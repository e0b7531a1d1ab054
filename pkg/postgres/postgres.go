// Package postgres opens sqlx pools over the pgx driver and applies
// golang-migrate migrations.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	defaultConnMaxIdleTime = 5 * time.Minute
	defaultConnMaxLifetime = 30 * time.Minute
	defaultMaxIdleConns    = 5
	defaultMaxOpenConns    = 25
	defaultConnectTimeout  = 10 * time.Second
)

type Option func(*sqlx.DB)

// WithPool tunes the connection pool. Zero values keep the defaults.
func WithPool(maxIdleTime, maxLifetime time.Duration, maxIdle, maxOpen int) Option {
	return func(db *sqlx.DB) {
		if maxIdleTime > 0 {
			db.SetConnMaxIdleTime(maxIdleTime)
		}
		if maxLifetime > 0 {
			db.SetConnMaxLifetime(maxLifetime)
		}
		if maxIdle > 0 {
			db.SetMaxIdleConns(maxIdle)
		}
		if maxOpen > 0 {
			db.SetMaxOpenConns(maxOpen)
		}
	}
}

// New opens a pool and pings it, giving up after defaultConnectTimeout.
func New(ctx context.Context, dsn string, opts ...Option) (*sqlx.DB, error) {
	const op = "postgres.New"

	ctx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetMaxOpenConns(defaultMaxOpenConns)

	for _, opt := range opts {
		opt(db)
	}

	return db, nil
}
