package pattern

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

type FileBackend struct {
	path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (b *FileBackend) Load(_ context.Context) ([]Pattern, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read patterns file: %w", err)
	}

	var contents fileContents
	if err = json.Unmarshal(data, &contents); err != nil {
		return nil, fmt.Errorf("failed to parse patterns file: %w", err)
	}

	return contents.Patterns, nil
}

// Save writes to a temp file and renames it over the old one.
func (b *FileBackend) Save(_ context.Context, patterns []Pattern) error {
	if patterns == nil {
		patterns = []Pattern{}
	}

	data, err := json.MarshalIndent(fileContents{
		Patterns:    patterns,
		LastUpdated: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal patterns: %w", err)
	}

	if dir := filepath.Dir(b.path); dir != "" {
		if err = os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create patterns dir: %w", err)
		}
	}

	tmpPath := b.path + ".tmp"
	if err = os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write patterns file: %w", err)
	}
	if err = os.Rename(tmpPath, b.path); err != nil {
		return fmt.Errorf("failed to replace patterns file: %w", err)
	}

	return nil
}

func (b *FileBackend) Close() error {
	return nil
}
