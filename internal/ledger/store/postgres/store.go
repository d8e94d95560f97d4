// Package postgres stores ledger state in a PostgreSQL key-value table,
// wiring goose migrations for schema management.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"landlocked/internal/ledger/store"
	"landlocked/internal/ledger/store/postgres/migrations"
	"landlocked/pkg/platform/sentinel"
	txcontext "landlocked/pkg/platform/tx"
)

const (
	getQuery    = `SELECT value FROM ledger_kv WHERE key = $1`
	upsertQuery = `INSERT INTO ledger_kv (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	deleteQuery = `DELETE FROM ledger_kv WHERE key = $1`
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements store.KV on a single table.
type Store struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := s.execer(ctx).QueryRowContext(ctx, getQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return value, nil
}

func (s *Store) Apply(ctx context.Context, batch []store.Write) error {
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		exec := s.execer(ctx)
		for _, w := range batch {
			var err error
			if w.Delete {
				_, err = exec.ExecContext(ctx, deleteQuery, w.Key)
			} else {
				_, err = exec.ExecContext(ctx, upsertQuery, w.Key, w.Value)
			}
			if err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}
