package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/mehradnfi/shadwbot/core/ledger"
	"github.com/mehradnfi/shadwbot/core/logger"
	"log/slog"
)

// FileEngine persists the ledger as one human-readable JSON file.
// Commit writes a fresh temp file next to the target, syncs it, and renames
// it over the old version, so a crash mid-write can never leave a truncated
// document behind.
type FileEngine struct {
	path string
}

// NewFileEngine creates the parent directory if needed and returns an engine
// bound to path.
func NewFileEngine(path string) (*FileEngine, error) {
	if path == "" {
		return nil, fmt.Errorf("storage: empty ledger path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create ledger dir: %w", err)
		}
	}
	return &FileEngine{path: path}, nil
}

// Load reads the last committed document. A missing file yields an empty
// document; leftover temp files from interrupted commits are ignored.
func (e *FileEngine) Load() (*ledger.Document, error) {
	start := time.Now()
	data, err := os.ReadFile(e.path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info(logger.Background(), "storage", "load.empty",
			slog.String("status", "ok"),
			slog.String("path", e.path),
		)
		return ledger.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read ledger: %w", err)
	}

	doc := ledger.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("storage: decode ledger: %w", err)
	}
	doc.Normalize()
	logger.Info(logger.Background(), "storage", "load",
		slog.String("status", "ok"),
		slog.String("path", e.path),
		slog.Int("users", len(doc.Users)),
		slog.Duration("duration", logger.Took(start)),
	)
	return doc, nil
}

// Commit atomically replaces the stored document with doc.
func (e *FileEngine) Commit(doc *ledger.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode ledger: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(e.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(e.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// Best-effort cleanup when the rename never happened.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("storage: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("storage: chmod temp: %w", err)
	}
	if err := os.Rename(tmpName, e.path); err != nil {
		return fmt.Errorf("storage: finalize commit: %w", err)
	}
	return nil
}

// Close is a no-op for the file engine.
func (e *FileEngine) Close() error { return nil }
