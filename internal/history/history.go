package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// MaxEntries bounds the history list, most-recent-first.
const MaxEntries = 10

// Store persists the list of searched ZIPs as a JSON array in a single
// file, most-recent-first. The file is the only authoritative copy:
// every List re-reads it, so concurrent processes sharing the file see
// each other's writes with last-write-wins semantics.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a history store backed by the given file path. The
// file does not need to exist yet.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Record moves zip to the front of the list, dropping any previous
// occurrence, truncates to MaxEntries, and persists.
func (s *Store) Record(zip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.read()

	next := make([]string, 0, len(entries)+1)
	next = append(next, zip)
	for _, z := range entries {
		if z != zip {
			next = append(next, z)
		}
	}
	if len(next) > MaxEntries {
		next = next[:MaxEntries]
	}

	return s.write(next)
}

// List returns the persisted history, most-recent-first. A missing or
// corrupt file reads as an empty history, never an error.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Clear erases the persisted history entirely.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *Store) read() []string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return []string{}
	}

	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return []string{}
	}
	return entries
}

func (s *Store) write(entries []string) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
