package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"finanzas/internal/ledger"

	_ "modernc.org/sqlite"
)

// SQLiteRepository owns the database handle. Its embedded Store runs
// statements directly on the pool; Atomic runs them inside one transaction.
type SQLiteRepository struct {
	*Store
	db *sql.DB
}

// dsn builds the connection string. Write transactions start with
// BEGIN IMMEDIATE so concurrent ledger units queue on the write lock up front
// instead of failing on upgrade.
func dsn(dbPath string, immediate bool) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(1)")
	if immediate {
		q.Set("_txlock", "immediate")
	}
	return "file:" + dbPath + "?" + q.Encode()
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath, true))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		Store: &Store{q: New(db)},
		db:    db,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers; used by readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Atomic runs fn inside a single database transaction. A returned error or a
// panic rolls everything back.
func (r *SQLiteRepository) Atomic(ctx context.Context, fn func(ledger.Tx) error) error {
	return r.InTx(ctx, func(s *Store) error { return fn(s) })
}

// InTx is Atomic for callers that need the full Store surface.
func (r *SQLiteRepository) InTx(ctx context.Context, fn func(*Store) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{q: r.Store.q.WithTx(tx)}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
