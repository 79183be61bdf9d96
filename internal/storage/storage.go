package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrSave marks a failed durable write. Callers that applied an in-memory
// mutation before persisting can detect it with errors.Is and keep going.
var ErrSave = errors.New("storage save failed")

// Backend stores the serialized task collection as one opaque blob under one
// key. Load reports found=false when nothing has been saved yet.
type Backend interface {
	Load(ctx context.Context) (data []byte, found bool, err error)
	Save(ctx context.Context, data []byte) error
	Close() error
}

// Open selects a backend from the DSN: postgres:// and redis:// URLs go to
// their drivers, sqlite: prefixed paths and *.db files go to sqlite, and
// anything else is treated as a plain file path.
func Open(ctx context.Context, dsn, key string) (Backend, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return openPostgres(ctx, dsn, key)
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return openRedis(ctx, dsn, key)
	case strings.HasPrefix(dsn, "sqlite:"):
		return openSQLite(ctx, strings.TrimPrefix(dsn, "sqlite:"), key)
	case strings.HasSuffix(dsn, ".db"):
		return openSQLite(ctx, dsn, key)
	default:
		return openFile(dsn)
	}
}
