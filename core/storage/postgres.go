package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mehradnfi/shadwbot/core/ledger"
	"github.com/mehradnfi/shadwbot/core/logger"
	"log/slog"
)

const documentRowID = 1

// PostgresEngine stores the ledger document as a single jsonb row and
// replaces it transactionally on every commit. Unlike the file engine it can
// be shared between processes because the database supplies the concurrency
// control.
type PostgresEngine struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPostgresEngine wraps an open connection pool. The ledger_document table
// must exist; migrations create it.
func NewPostgresEngine(db *sqlx.DB) *PostgresEngine {
	return &PostgresEngine{db: db, timeout: 5 * time.Second}
}

// Load reads the current document row, or returns an empty document when the
// table has no committed version yet.
func (e *PostgresEngine) Load() (*ledger.Document, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	start := time.Now()
	var raw []byte
	err := e.db.GetContext(ctx, &raw,
		`SELECT doc FROM ledger_document WHERE id = $1`, documentRowID)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: select ledger document: %w", err)
	}

	doc := ledger.NewDocument()
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("storage: decode ledger document: %w", err)
	}
	doc.Normalize()
	logger.DB.Info("ledger document loaded",
		slog.String("event", "storage.load"),
		slog.Int("users", len(doc.Users)),
		slog.Duration("duration", logger.Took(start)),
	)
	return doc, nil
}

// Commit upserts the document row inside one transaction.
func (e *PostgresEngine) Commit(doc *ledger.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("storage: encode ledger document: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin commit: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO ledger_document (id, doc, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		documentRowID, data)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("storage: replace ledger document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: finalize commit: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (e *PostgresEngine) Close() error { return e.db.Close() }
