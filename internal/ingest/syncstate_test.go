package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSyncStateFirstRun(t *testing.T) {
	state, err := NewSyncState(filepath.Join(t.TempDir(), "sync.json"))
	if err != nil {
		t.Fatalf("NewSyncState() error: %v", err)
	}

	ts, err := state.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if ts != 0 {
		t.Errorf("Load() = %d, want 0 on first run", ts)
	}
}

func TestSyncStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.json")
	state, err := NewSyncState(path)
	if err != nil {
		t.Fatalf("NewSyncState() error: %v", err)
	}

	if err := state.Save(1700000000000000); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	ts, err := state.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if ts != 1700000000000000 {
		t.Errorf("Load() = %d, want 1700000000000000", ts)
	}
}

func TestSyncStateToleratesCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	state, err := NewSyncState(path)
	if err != nil {
		t.Fatalf("NewSyncState() error: %v", err)
	}

	ts, err := state.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if ts != 0 {
		t.Errorf("Load() = %d, want 0 for a corrupt state file", ts)
	}
}

func TestSyncStateCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "sync.json")
	state, err := NewSyncState(path)
	if err != nil {
		t.Fatalf("NewSyncState() error: %v", err)
	}
	if err := state.Save(42); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
}
