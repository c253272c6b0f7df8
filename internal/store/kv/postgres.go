package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	selectSlotSQL = `SELECT value FROM kv_slots WHERE key = $1`
	upsertSlotSQL = `INSERT INTO kv_slots (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
)

// Querier is the subset of pgxpool.Pool the store needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres stores slots in the kv_slots table.
type Postgres struct {
	db    Querier
	close func()
}

// OpenPostgres creates a connection pool and pings the database.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Postgres{db: pool, close: pool.Close}, nil
}

// NewPostgres wraps an existing querier. Close is a no-op for it.
func NewPostgres(db Querier) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := p.db.QueryRow(ctx, selectSlotSQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select slot %s: %w", key, err)
	}
	return value, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	if _, err := p.db.Exec(ctx, upsertSlotSQL, key, value); err != nil {
		return fmt.Errorf("upsert slot %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Close() error {
	if p.close != nil {
		p.close()
	}
	return nil
}
