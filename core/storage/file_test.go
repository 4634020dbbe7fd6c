package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mehradnfi/shadwbot/core/ledger"
)

func TestFileEngineRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "ledger.json")
	engine, err := NewFileEngine(path)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	doc := ledger.NewDocument()
	doc.Users["100"] = ledger.NewUserRecord()
	doc.Users["100"].Phone = "+15550001"
	doc.Users["100"].Balance = 42
	if err := engine.Commit(doc); err != nil {
		t.Fatalf("commit: %v", err)
	}

	reloaded, err := engine.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rec, ok := reloaded.Users["100"]
	if !ok {
		t.Fatal("user 100 missing after reload")
	}
	if rec.Phone != "+15550001" || rec.Balance != 42 {
		t.Fatalf("reloaded record mismatch: %+v", rec)
	}
}

func TestFileEngineMissingFileYieldsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	engine, err := NewFileEngine(path)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	doc, err := engine.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(doc.Users) != 0 || len(doc.Purchases) != 0 {
		t.Fatalf("expected empty document, got %d users", len(doc.Users))
	}
}

func TestFileEngineIgnoresStrayTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.json")
	engine, err := NewFileEngine(path)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	doc := ledger.NewDocument()
	doc.Users["100"] = ledger.NewUserRecord()
	if err := engine.Commit(doc); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// Simulate a crash between temp write and rename.
	stray := filepath.Join(dir, "ledger.json.tmp-crashed")
	if err := os.WriteFile(stray, []byte("{garbage"), 0o644); err != nil {
		t.Fatalf("write stray temp: %v", err)
	}

	reloaded, err := engine.Load()
	if err != nil {
		t.Fatalf("load with stray temp: %v", err)
	}
	if _, ok := reloaded.Users["100"]; !ok {
		t.Fatal("last committed version lost")
	}
}

func TestFileEngineCommitReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	engine, err := NewFileEngine(path)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	first := ledger.NewDocument()
	first.Users["100"] = ledger.NewUserRecord()
	if err := engine.Commit(first); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	second := first.Clone()
	second.Users["200"] = ledger.NewUserRecord()
	if err := engine.Commit(second); err != nil {
		t.Fatalf("second commit: %v", err)
	}

	reloaded, err := engine.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(reloaded.Users) != 2 {
		t.Fatalf("users = %d, want 2", len(reloaded.Users))
	}
}
