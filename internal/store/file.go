package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
	"github.com/wonny/fpl-squad/backend/internal/external/fpl"
)

// FileStore keeps a snapshot as a JSON file for offline runs.
// Fixture map keys are re-keyed onto the players' team names on load,
// so snapshots assembled from other fixture feeds still line up.
type FileStore struct {
	path string

	mu       sync.Mutex
	snapshot *Snapshot
}

// NewFileStore creates a file store at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

var (
	_ Sink                      = (*FileStore)(nil)
	_ contracts.PlayerSource    = (*FileStore)(nil)
	_ contracts.FixtureProvider = (*FileStore)(nil)
)

// Path returns the snapshot file path
func (f *FileStore) Path() string {
	return f.path
}

// SaveSnapshot writes the snapshot atomically (temp file + rename)
func (f *FileStore) SaveSnapshot(_ context.Context, s *Snapshot) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}

	f.mu.Lock()
	f.snapshot = nil
	f.mu.Unlock()
	return nil
}

// Load reads and normalises the snapshot, caching it in memory
func (f *FileStore) Load() (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.snapshot != nil {
		return f.snapshot, nil
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", f.path, err)
	}
	if len(s.Players) == 0 {
		return nil, ErrNoSnapshot
	}

	names := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		names = append(names, p.TeamName)
	}
	s.Fixtures, _ = fpl.NewMatcher(names).Rekey(s.Fixtures)
	s.PlayerCount = len(s.Players)

	f.snapshot = &s
	return f.snapshot, nil
}

// Players returns the snapshot's player pool
func (f *FileStore) Players(_ context.Context) ([]contracts.Player, error) {
	s, err := f.Load()
	if err != nil {
		return nil, err
	}
	return append([]contracts.Player{}, s.Players...), nil
}

// FixtureMap returns the snapshot's fixtures, at most horizon per team
func (f *FileStore) FixtureMap(_ context.Context, horizon int) (contracts.FixtureMap, error) {
	s, err := f.Load()
	if err != nil {
		return nil, err
	}
	return truncate(s.Fixtures, horizon), nil
}
