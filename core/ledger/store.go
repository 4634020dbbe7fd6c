package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mehradnfi/shadwbot/core/logger"
	"log/slog"
)

// Engine is the durable commit port of the store. Implementations replace
// the whole document atomically; readers never observe a torn version.
type Engine interface {
	Commit(doc *Document) error
}

// Store owns the ledger document. All mutations funnel through one lock and
// are durably committed before they become visible; a commit failure rolls
// the mutation back entirely.
type Store struct {
	mu     sync.RWMutex
	doc    *Document
	engine Engine
}

// NewStore wraps a previously loaded document. A nil document starts empty.
func NewStore(engine Engine, doc *Document) *Store {
	if doc == nil {
		doc = NewDocument()
	}
	doc.Normalize()
	return &Store{doc: doc, engine: engine}
}

// commit applies the already-mutated clone as the new current document.
// Called with the write lock held.
func (s *Store) commit(ctx context.Context, op string, next *Document) error {
	start := time.Now()
	if s.engine != nil {
		if err := s.engine.Commit(next); err != nil {
			perr := &PersistenceError{Op: op, Err: err}
			logger.Error(ctx, "ledger", "commit.fail",
				slog.String("status", "fail"),
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return perr
		}
	}
	s.doc = next
	logger.Debug(ctx, "ledger", "commit",
		slog.String("status", "ok"),
		slog.String("op", op),
		slog.Int("users", len(next.Users)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// EnsureExists creates a default record for the user id if absent.
// Idempotent: a second call is a no-op and commits nothing.
func (s *Store) EnsureExists(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doc.Users[userID]; ok {
		return nil
	}
	next := s.doc.Clone()
	next.Users[userID] = NewUserRecord()
	if err := s.commit(ctx, "ensure_exists", next); err != nil {
		return err
	}
	logger.Info(ctx, "ledger", "user.created",
		slog.String("status", "ok"),
		slog.String("ledger_user", userID),
	)
	return nil
}

// Get returns a copy of the current record for the user id.
func (s *Store) Get(userID string) (UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.doc.Users[userID]
	if !ok {
		return UserRecord{}, ErrNotFound
	}
	return *rec.Clone(), nil
}

// Update applies mutate to the user's record and commits the result as one
// atomic unit. The mutation runs against a clone, so an error from mutate or
// from the durable commit leaves the store untouched.
func (s *Store) Update(ctx context.Context, userID string, mutate func(*UserRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(ctx, "update", userID, mutate)
}

func (s *Store) updateLocked(ctx context.Context, op, userID string, mutate func(*UserRecord) error) error {
	if _, ok := s.doc.Users[userID]; !ok {
		return ErrNotFound
	}
	next := s.doc.Clone()
	if err := mutate(next.Users[userID]); err != nil {
		return err
	}
	return s.commit(ctx, op, next)
}

// RegisterPhone sets the user's phone if it is currently empty.
// Returns ErrAlreadySet otherwise; the first value always stays.
func (s *Store) RegisterPhone(ctx context.Context, userID, phone string) error {
	return s.Update(ctx, userID, func(u *UserRecord) error {
		if u.Phone != "" {
			return ErrAlreadySet
		}
		u.Phone = phone
		return nil
	})
}

// CreditBalance adds delta to the user's balance. Negative resulting
// balances are rejected with ErrInvalidState.
func (s *Store) CreditBalance(ctx context.Context, userID string, delta int64) error {
	return s.Update(ctx, userID, func(u *UserRecord) error {
		if u.Balance+delta < 0 {
			return ErrInvalidState
		}
		u.Balance += delta
		return nil
	})
}

// RecordReferral links newUserID to inviterID with first-touch semantics:
// the inviter must exist, self-referral is rejected, and a user that already
// has an inviter keeps it.
func (s *Store) RecordReferral(ctx context.Context, inviterID, newUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inviterID == newUserID {
		return ErrSelfReferral
	}
	if _, ok := s.doc.Users[inviterID]; !ok {
		return ErrNotFound
	}
	invitee, ok := s.doc.Users[newUserID]
	if !ok {
		return ErrNotFound
	}
	if invitee.Inviter != "" {
		return ErrAlreadyAttributed
	}

	next := s.doc.Clone()
	next.Users[inviterID].Invited = append(next.Users[inviterID].Invited, newUserID)
	next.Users[newUserID].Inviter = inviterID
	if err := s.commit(ctx, "record_referral", next); err != nil {
		return err
	}
	logger.Info(ctx, "ledger", "referral.recorded",
		slog.String("status", "ok"),
		slog.String("inviter", inviterID),
		slog.String("invitee", newUserID),
	)
	return nil
}

// RecordPurchase debits the package price from the user's balance and
// appends the purchase to both the user's history and the global sequence.
func (s *Store) RecordPurchase(ctx context.Context, userID, packageID string, amount int64) (PurchaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.doc.Users[userID]
	if !ok {
		return PurchaseRecord{}, ErrNotFound
	}
	if user.Balance < amount {
		return PurchaseRecord{}, ErrInvalidState
	}

	next := s.doc.Clone()
	purchase := PurchaseRecord{
		ID:        fmt.Sprintf("p%06d", len(next.Purchases)+1),
		UserID:    userID,
		PackageID: packageID,
		Timestamp: time.Now().UTC(),
		Amount:    amount,
	}
	rec := next.Users[userID]
	rec.Balance -= amount
	rec.Purchased = append(rec.Purchased, purchase.ID)
	rec.Active = append(rec.Active, packageID)
	next.Purchases = append(next.Purchases, purchase)
	if err := s.commit(ctx, "record_purchase", next); err != nil {
		return PurchaseRecord{}, err
	}
	logger.Info(ctx, "ledger", "purchase.recorded",
		slog.String("status", "ok"),
		slog.String("ledger_user", userID),
		slog.String("package", packageID),
		slog.Int64("amount", amount),
	)
	return purchase, nil
}

// UserIDs returns a sorted snapshot of all known user ids. The snapshot is
// taken under the store lock, so it is never torn by a concurrent mutation.
func (s *Store) UserIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.doc.Users))
	for id := range s.doc.Users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports the number of known users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.doc.Users)
}
