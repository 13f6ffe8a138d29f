// Package file stores the whole application state as one JSON document, the
// local fallback layout: {"family": ..., "currentMode": ..., "selectedKidId": ...}.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"wealthwarriors/internal/core"
)

type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &Store{path: path}, nil
}

func (s *Store) LoadState(ctx context.Context) (core.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

func (s *Store) read(ctx context.Context) (core.State, error) {
	if err := ctx.Err(); err != nil {
		return core.State{}, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.InitialState(), nil
	}
	if err != nil {
		return core.State{}, fmt.Errorf("read state file: %w", err)
	}
	st := core.InitialState()
	if err := json.Unmarshal(data, &st); err != nil {
		return core.State{}, fmt.Errorf("decode state file %s: %w", s.path, err)
	}
	return st, nil
}

// SaveState writes to a temporary file and renames it over the old one.
func (s *Store) SaveState(ctx context.Context, st core.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, st)
}

func (s *Store) write(ctx context.Context, st core.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (s *Store) LoadFamily(ctx context.Context) (*core.Family, error) {
	st, err := s.LoadState(ctx)
	if err != nil {
		return nil, err
	}
	return st.Family, nil
}

// SaveFamily replaces the family and keeps the stored mode and selection.
func (s *Store) SaveFamily(ctx context.Context, f core.Family) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.read(ctx)
	if err != nil {
		return err
	}
	st.Family = &f
	return s.write(ctx, st)
}
