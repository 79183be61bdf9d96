package storage

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"
)

// sqliteBackend keeps the blob in a one-row kv table inside a local sqlite
// file. Pure-Go driver, so it works anywhere the file backend does.
type sqliteBackend struct {
	db  *sql.DB
	key string
}

func openSQLite(ctx context.Context, path, key string) (*sqliteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &sqliteBackend{db: db, key: key}, nil
}

func (s *sqliteBackend) Load(ctx context.Context) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, s.key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *sqliteBackend) Save(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.key, data)
	return err
}

func (s *sqliteBackend) Close() error {
	return s.db.Close()
}
