package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"formassist-backend/internal/logging"
	"formassist-backend/internal/store"
	"formassist-backend/internal/store/migrations"
)

// Compile-time check to ensure PostgresStore implements store.Store
var _ store.Store = (*PostgresStore)(nil)

type PostgresStore struct {
	db  *pgxpool.Pool
	log zerolog.Logger
}

func NewPostgresStore(db *pgxpool.Pool, log zerolog.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: logging.Component(log, "postgres_store")}
}

// Open connects to databaseURL, verifies the connection and applies migrations.
func Open(ctx context.Context, databaseURL string, log zerolog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	// goose works on database/sql; the bridge borrows connections from the pool.
	sqlDB := stdlib.OpenDBFromPool(pool)
	err = migrations.Up(ctx, sqlDB, goose.DialectPostgres)
	_ = sqlDB.Close()
	if err != nil {
		pool.Close()
		return nil, err
	}
	return NewPostgresStore(pool, log), nil
}

const getValue = `SELECT value FROM kv_store WHERE key = $1`

// Get returns store.ErrNotFound if the key does not exist.
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRow(ctx, getValue, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		s.log.Error().Err(err).Str("key", key).Msg("Failed to query value")
		return nil, fmt.Errorf("database error fetching key %q: %w", key, err)
	}
	return []byte(value), nil
}

const putValue = `
INSERT INTO kv_store (key, value, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

func (s *PostgresStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.Exec(ctx, putValue, key, string(value), time.Now().UnixMilli())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			s.log.Error().Str("key", key).Str("code", pgErr.Code).Str("detail", pgErr.Detail).Msg(pgErr.Message)
		} else {
			s.log.Error().Err(err).Str("key", key).Msg("Failed to write value")
		}
		return fmt.Errorf("database error writing key %q: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, key); err != nil {
		return fmt.Errorf("database error deleting key %q: %w", key, err)
	}
	return nil
}

const listKeys = `SELECT key FROM kv_store WHERE starts_with(key, $1) ORDER BY key`

func (s *PostgresStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.Query(ctx, listKeys, prefix)
	if err != nil {
		return nil, fmt.Errorf("database error listing keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan keys: %w", err)
	}
	return keys, nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
