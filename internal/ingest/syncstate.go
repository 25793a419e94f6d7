package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// SyncState persists the last bookmark sync timestamp to a JSON file.
// An advisory file lock serializes the read/modify/write cycle across
// concurrent processes (CLI and API server sharing one state file).
type SyncState struct {
	path string
	lock *flock.Flock
}

type syncStateFile struct {
	LastSyncTimestamp int64 `json:"last_sync_timestamp"`
}

// NewSyncState creates a sync state backed by the JSON file at path.
// The parent directory is created if missing.
func NewSyncState(path string) (*SyncState, error) {
	if path == "" {
		return nil, fmt.Errorf("sync state path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating sync state directory: %w", err)
	}
	return &SyncState{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// Load returns the last sync timestamp in microseconds since epoch.
// A missing or malformed state file means no previous sync and returns 0.
func (s *SyncState) Load() (int64, error) {
	if err := s.lock.Lock(); err != nil {
		return 0, fmt.Errorf("acquiring sync state lock: %w", err)
	}
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading sync state: %w", err)
	}

	var state syncStateFile
	if err := json.Unmarshal(data, &state); err != nil {
		// Treat corruption as a first run; the next save rewrites the file.
		return 0, nil
	}
	return state.LastSyncTimestamp, nil
}

// Save atomically writes the sync timestamp (temp file + rename).
func (s *SyncState) Save(timestamp int64) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("acquiring sync state lock: %w", err)
	}
	defer s.lock.Unlock()

	data, err := json.MarshalIndent(syncStateFile{LastSyncTimestamp: timestamp}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding sync state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".sync-state-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing sync state: %w", err)
	}
	return nil
}
