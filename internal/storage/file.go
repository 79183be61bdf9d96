package storage

import (
	"context"
	"os"
	"path/filepath"
)

// fileBackend keeps the blob in a single JSON file. Writes go through a temp
// file and rename so a crash mid-write never leaves a truncated document.
type fileBackend struct {
	path string
}

func openFile(path string) (*fileBackend, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &fileBackend{path: path}, nil
}

func (f *fileBackend) Load(ctx context.Context) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (f *fileBackend) Save(ctx context.Context, data []byte) error {
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *fileBackend) Close() error {
	return nil
}
