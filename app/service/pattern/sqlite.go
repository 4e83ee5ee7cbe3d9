package pattern

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const createPatternsTable = `
CREATE TABLE IF NOT EXISTS patterns (
	"trigger" TEXT NOT NULL,
	response TEXT NOT NULL,
	author TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	UNIQUE("trigger", response)
)`

type SQLiteBackend struct {
	db *sql.DB
}

func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create patterns dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(createPatternsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create patterns table: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Load(ctx context.Context) ([]Pattern, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT "trigger", response, author, created_at FROM patterns ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	var result []Pattern
	for rows.Next() {
		var (
			p         Pattern
			createdAt string
		)
		if err = rows.Scan(&p.Trigger, &p.Response, &p.Author, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}

		p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse pattern timestamp: %w", err)
		}

		result = append(result, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read patterns: %w", err)
	}

	return result, nil
}

// Save replaces the table contents in one transaction.
func (b *SQLiteBackend) Save(ctx context.Context, patterns []Pattern) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM patterns`); err != nil {
		return fmt.Errorf("failed to clear patterns: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO patterns ("trigger", response, author, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range patterns {
		if _, err = stmt.ExecContext(ctx, p.Trigger, p.Response, p.Author,
			p.CreatedAt.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("failed to insert pattern: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit patterns: %w", err)
	}

	return nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
