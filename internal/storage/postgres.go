package storage

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
)

// postgresBackend keeps the blob in a one-row kv table, for deployments that
// already run postgres and want the task list to survive the host.
type postgresBackend struct {
	db  *sql.DB
	key string
}

func openPostgres(ctx context.Context, dsn, key string) (*postgresBackend, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	_, err = db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &postgresBackend{db: db, key: key}, nil
}

func (p *postgresBackend) Load(ctx context.Context) ([]byte, bool, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = $1`, p.key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (p *postgresBackend) Save(ctx context.Context, data []byte) error {
	_, err := p.db.ExecContext(ctx, `
	INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, now())
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		p.key, data)
	return err
}

func (p *postgresBackend) Close() error {
	return p.db.Close()
}
