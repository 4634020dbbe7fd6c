package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeEngine struct {
	mu      sync.Mutex
	commits int
	failAll bool
	last    *Document
}

func (e *fakeEngine) Commit(doc *Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failAll {
		return errors.New("disk full")
	}
	e.commits++
	e.last = doc.Clone()
	return nil
}

func (e *fakeEngine) commitCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commits
}

func newTestStore(t *testing.T) (*Store, *fakeEngine) {
	t.Helper()
	engine := &fakeEngine{}
	return NewStore(engine, NewDocument()), engine
}

func TestEnsureExistsIdempotent(t *testing.T) {
	store, engine := newTestStore(t)
	ctx := context.Background()

	if err := store.EnsureExists(ctx, "100"); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if err := store.EnsureExists(ctx, "100"); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if got := engine.commitCount(); got != 1 {
		t.Fatalf("commits = %d, want 1 (repeat must not commit)", got)
	}
	rec, err := store.Get("100")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Balance != 0 || rec.Phone != "" || rec.Inviter != "" {
		t.Fatalf("fresh record not default: %+v", rec)
	}
	if rec.Active == nil || rec.Purchased == nil || rec.Invited == nil {
		t.Fatal("fresh record slices must be non-nil")
	}
}

func TestRegisterPhoneWriteOnce(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	if err := store.EnsureExists(ctx, "100"); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	if err := store.RegisterPhone(ctx, "100", "+15550001"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := store.RegisterPhone(ctx, "100", "+15559999")
	if !errors.Is(err, ErrAlreadySet) {
		t.Fatalf("second register err = %v, want ErrAlreadySet", err)
	}
	rec, _ := store.Get("100")
	if rec.Phone != "+15550001" {
		t.Fatalf("phone = %q, first value must stay", rec.Phone)
	}
}

func TestCreditBalanceRejectsNegative(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	_ = store.EnsureExists(ctx, "100")

	if err := store.CreditBalance(ctx, "100", 50); err != nil {
		t.Fatalf("credit: %v", err)
	}
	err := store.CreditBalance(ctx, "100", -60)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("overdraw err = %v, want ErrInvalidState", err)
	}
	rec, _ := store.Get("100")
	if rec.Balance != 50 {
		t.Fatalf("balance = %d, want 50 after rejected overdraw", rec.Balance)
	}
}

func TestCreditBalanceConcurrent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	_ = store.EnsureExists(ctx, "100")

	const workers = 16
	const perWorker = 25
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if err := store.CreditBalance(ctx, "100", 1); err != nil {
					t.Errorf("credit: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	rec, _ := store.Get("100")
	if rec.Balance != workers*perWorker {
		t.Fatalf("balance = %d, want %d (no lost updates)", rec.Balance, workers*perWorker)
	}
}

func TestCommitFailureRollsBack(t *testing.T) {
	store, engine := newTestStore(t)
	ctx := context.Background()
	_ = store.EnsureExists(ctx, "100")
	_ = store.CreditBalance(ctx, "100", 10)

	engine.failAll = true
	err := store.CreditBalance(ctx, "100", 5)
	if err == nil {
		t.Fatal("expected commit failure")
	}
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %T, want *PersistenceError", err)
	}
	if perr.Code() != "PERSISTENCE" {
		t.Fatalf("code = %q, want PERSISTENCE", perr.Code())
	}
	engine.failAll = false

	rec, _ := store.Get("100")
	if rec.Balance != 10 {
		t.Fatalf("balance = %d, want 10 (failed commit must not apply)", rec.Balance)
	}
}

func TestRecordReferralFirstTouch(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	_ = store.EnsureExists(ctx, "100")
	_ = store.EnsureExists(ctx, "200")
	_ = store.EnsureExists(ctx, "300")

	if err := store.RecordReferral(ctx, "100", "200"); err != nil {
		t.Fatalf("first referral: %v", err)
	}
	err := store.RecordReferral(ctx, "300", "200")
	if !errors.Is(err, ErrAlreadyAttributed) {
		t.Fatalf("second referral err = %v, want ErrAlreadyAttributed", err)
	}

	invitee, _ := store.Get("200")
	if invitee.Inviter != "100" {
		t.Fatalf("inviter = %q, first attribution must stick", invitee.Inviter)
	}
	inviter, _ := store.Get("100")
	if len(inviter.Invited) != 1 || inviter.Invited[0] != "200" {
		t.Fatalf("invited = %v, want [200]", inviter.Invited)
	}
	bystander, _ := store.Get("300")
	if len(bystander.Invited) != 0 {
		t.Fatalf("rejected referral must not touch inviter list: %v", bystander.Invited)
	}
}

func TestRecordReferralGuards(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	_ = store.EnsureExists(ctx, "100")

	if err := store.RecordReferral(ctx, "100", "100"); !errors.Is(err, ErrSelfReferral) {
		t.Fatalf("self referral err = %v, want ErrSelfReferral", err)
	}
	if err := store.RecordReferral(ctx, "404", "100"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown inviter err = %v, want ErrNotFound", err)
	}
}

func TestRecordPurchase(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	_ = store.EnsureExists(ctx, "100")
	_ = store.CreditBalance(ctx, "100", 100)

	if _, err := store.RecordPurchase(ctx, "100", "vpn-30d", 500); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("unaffordable purchase err = %v, want ErrInvalidState", err)
	}

	purchase, err := store.RecordPurchase(ctx, "100", "vpn-30d", 60)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if purchase.ID != "p000001" {
		t.Fatalf("purchase id = %q, want p000001", purchase.ID)
	}
	rec, _ := store.Get("100")
	if rec.Balance != 40 {
		t.Fatalf("balance = %d, want 40", rec.Balance)
	}
	if len(rec.Active) != 1 || rec.Active[0] != "vpn-30d" {
		t.Fatalf("active = %v, want [vpn-30d]", rec.Active)
	}
	if len(rec.Purchased) != 1 || rec.Purchased[0] != purchase.ID {
		t.Fatalf("purchased = %v, want [%s]", rec.Purchased, purchase.ID)
	}
}

func TestUserIDsSortedSnapshot(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"300", "100", "200"} {
		_ = store.EnsureExists(ctx, id)
	}
	ids := store.UserIDs()
	want := []string{"100", "200", "300"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestGetReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	_ = store.EnsureExists(ctx, "100")

	rec, _ := store.Get("100")
	rec.Balance = 999
	rec.Active = append(rec.Active, "tampered")

	fresh, _ := store.Get("100")
	if fresh.Balance != 0 || len(fresh.Active) != 0 {
		t.Fatalf("mutating a returned record leaked into the store: %+v", fresh)
	}
}
