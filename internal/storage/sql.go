package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/dmitrijs2005/encodex/internal/dbx"
	"github.com/dmitrijs2005/encodex/internal/storage/migrations"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLStore keeps key-value pairs in a single "kv" table.
type SQLStore struct {
	db      *sql.DB
	q       dbx.DBTX
	dialect dbx.Dialect
}

// NewSQLStore wraps an open database. The schema must already exist; see
// RunMigrations.
func NewSQLStore(db *sql.DB, dialect dbx.Dialect) *SQLStore {
	return &SQLStore{db: db, q: db, dialect: dialect}
}

// OpenSQLite opens (creating if needed) a SQLite database at dsn and applies
// migrations. A single connection is used so writers never see SQLITE_BUSY.
func OpenSQLite(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db, dbx.DialectSQLite); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLStore(db, dbx.DialectSQLite), nil
}

// OpenPostgres connects through the pgx stdlib driver and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := RunMigrations(ctx, db, dbx.DialectPostgres); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLStore(db, dbx.DialectPostgres), nil
}

// gooseUp is a seam for testing.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// RunMigrations applies the embedded migrations for dialect.
func RunMigrations(ctx context.Context, db *sql.DB, dialect dbx.Dialect) error {
	var (
		fsys         fs.FS
		gooseDialect string
		dir          string
	)
	switch dialect {
	case dbx.DialectSQLite:
		fsys, gooseDialect, dir = migrations.SQLite, "sqlite3", "sqlite"
	case dbx.DialectPostgres:
		fsys, gooseDialect, dir = migrations.Postgres, "postgres", "postgres"
	default:
		return fmt.Errorf("%w: unsupported sql dialect %q", common.ErrInvalidInput, dialect)
	}

	goose.SetBaseFS(fsys)
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := gooseUp(ctx, db, dir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *SQLStore) query(q string) string {
	return dbx.Rebind(s.dialect, q)
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.q.QueryRowContext(ctx, s.query(`SELECT value FROM kv WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	return value, nil
}

func (s *SQLStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.q.ExecContext(ctx, s.query(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`), key, value)
	if err != nil {
		return fmt.Errorf("failed to put kv[%s]: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	_, err := s.q.ExecContext(ctx, s.query(`DELETE FROM kv WHERE key = ?`), key)
	if err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.q.QueryContext(ctx,
		s.query(`SELECT key FROM kv WHERE key LIKE ? ESCAPE '\' ORDER BY key`), likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list kv: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan kv row: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate kv rows: %w", err)
	}
	// Collation order differs between databases.
	sort.Strings(keys)
	return keys, nil
}

// Atomic runs fn inside a database transaction.
func (s *SQLStore) Atomic(ctx context.Context, fn func(ctx context.Context, kv KV) error) error {
	if s.db == nil {
		// Already inside a transaction.
		return fn(ctx, s)
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &SQLStore{q: tx, dialect: s.dialect})
	})
}

func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
