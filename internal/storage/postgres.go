package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/todo-app/internal/model"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS kv_store (
		store_key  TEXT PRIMARY KEY,
		value      BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

type PostgresGateway struct { // Хранение blob в Postgres через пул pgx
	pool *pgxpool.Pool
	key  string
	now  func() time.Time
}

// NewPostgresGateway создает шлюз поверх существующего пула и создает таблицу
func NewPostgresGateway(ctx context.Context, pool *pgxpool.Pool, key string) (*PostgresGateway, error) {
	if key == "" {
		key = DefaultKey
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, wrap("open", fmt.Errorf("create schema: %w", err))
	}
	return &PostgresGateway{pool: pool, key: key, now: time.Now}, nil
}

// ConnectPostgres открывает пул по URL и проверяет соединение
func ConnectPostgres(ctx context.Context, url, key string) (*PostgresGateway, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, wrap("open", fmt.Errorf("connect postgres: %w", err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrap("open", fmt.Errorf("ping postgres: %w", err))
	}
	g, err := NewPostgresGateway(ctx, pool, key)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return g, nil
}

func (g *PostgresGateway) Save(ctx context.Context, s model.State) error {
	data, err := Encode(s)
	if err != nil {
		return wrap("save", err)
	}
	_, err = g.pool.Exec(ctx, `
		INSERT INTO kv_store (store_key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (store_key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, g.key, data, g.now().UTC())
	return wrap("save", err)
}

func (g *PostgresGateway) Load(ctx context.Context) (model.State, error) {
	var data []byte
	err := g.pool.QueryRow(ctx, `
		SELECT value FROM kv_store WHERE store_key = $1
	`, g.key).Scan(&data)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.State{}, wrap("load", ErrAbsent)
	}
	if err != nil {
		return model.State{}, wrap("load", err)
	}
	s, err := Decode(data, g.now())
	return s, wrap("load", err)
}

func (g *PostgresGateway) Clear(ctx context.Context) error {
	_, err := g.pool.Exec(ctx, "DELETE FROM kv_store WHERE store_key = $1", g.key)
	return wrap("clear", err)
}

func (g *PostgresGateway) Close() error {
	g.pool.Close()
	return nil
}
