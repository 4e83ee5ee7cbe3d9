package pattern

import (
	"context"
	"path/filepath"
	"strings"
)

// Backend persists the full pattern set. Save always rewrites everything.
type Backend interface {
	Load(ctx context.Context) ([]Pattern, error)
	Save(ctx context.Context, patterns []Pattern) error
	Close() error
}

// OpenBackend picks SQLite for .db and .sqlite paths and a JSON file otherwise.
func OpenBackend(path string) (Backend, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteBackend(path)
	default:
		return NewFileBackend(path), nil
	}
}
