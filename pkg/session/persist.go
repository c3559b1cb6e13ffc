package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Persister keeps a snapshot of session state so it survives a restart of
// the same client instance. Implementations must not share snapshots
// between instances; each one owns its own scope.
type Persister interface {
	Save(state State) error
	Load() (State, bool, error)
	Clear() error
}

// FilePersister writes the snapshot as JSON under its own directory,
// one file per instance scope.
type FilePersister struct {
	path string
}

// NewFilePersister creates (or re-opens) the snapshot scope at dir/name.
func NewFilePersister(dir, name string) (*FilePersister, error) {
	if name == "" {
		return nil, errors.New("session: persister name required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session: mkdir snapshot dir: %w", err)
	}
	return &FilePersister{path: filepath.Join(dir, name+".json")}, nil
}

// Save atomically replaces the snapshot.
func (p *FilePersister) Save(state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session: encode snapshot: %w", err)
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("session: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("session: replace snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot if one exists.
func (p *FilePersister) Load() (State, bool, error) {
	payload, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("session: read snapshot: %w", err)
	}
	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return State{}, false, fmt.Errorf("session: decode snapshot: %w", err)
	}
	return state, true, nil
}

// Clear removes the snapshot.
func (p *FilePersister) Clear() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session: clear snapshot: %w", err)
	}
	return nil
}

var _ Persister = (*FilePersister)(nil)
