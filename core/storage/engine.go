// Package storage provides persistence engines for the ledger document.
// Every engine commits the whole document atomically: readers only ever see
// a fully committed version, never a partial write.
package storage

import "github.com/mehradnfi/shadwbot/core/ledger"

// Engine loads and durably commits the ledger document.
type Engine interface {
	// Load returns the last fully committed document, or an empty one when
	// nothing has been committed yet.
	Load() (*ledger.Document, error)
	// Commit replaces the stored document in one indivisible step.
	Commit(doc *ledger.Document) error
	// Close releases resources held by the engine.
	Close() error
}
