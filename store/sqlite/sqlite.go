/*
Package sqlite provides a single-file SQLite ledger.Store.

PURPOSE:
  File-backed alternative to Redis for single-node deployments and for
  tests that want durable state without an external service. One table,
  key TEXT PRIMARY KEY -> value BLOB; the ledger layers everything else
  on top.

WAL MODE:
  Opened with WAL (Write-Ahead Logging): readers don't block, single
  writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/ledger.db")   // or ":memory:"
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/credit-ledger/ledger"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);
`

type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, &ledger.StorageError{Op: "open", Key: path, Err: err}
	}
	// A kv table has one writer path; extra connections just contend.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &ledger.StorageError{Op: "migrate", Key: path, Err: err}
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &ledger.StorageError{Op: "get", Key: key, Err: err}
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return &ledger.StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return &ledger.StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv WHERE key LIKE ? ORDER BY key`, prefix+"%")
	if err != nil {
		return nil, &ledger.StorageError{Op: "keys", Key: prefix, Err: err}
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, &ledger.StorageError{Op: "keys", Key: prefix, Err: err}
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, &ledger.StorageError{Op: "keys", Key: prefix, Err: err}
	}
	return keys, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
