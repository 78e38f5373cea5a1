// Package file keeps session snapshots on the local filesystem.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lalith-99/auraloom/internal/models"
	"github.com/lalith-99/auraloom/internal/repository"
)

// StateStore writes one JSON envelope per key. With a single configured
// path the key only matters for Delete and for keeping several namespaces
// apart: it is appended to the base name unless it equals defaultKey.
type StateStore struct {
	mu         sync.Mutex
	path       string
	defaultKey string
	nowFn      func() time.Time
}

var _ repository.StateRepository = (*StateStore)(nil)

// NewStateStore stores the snapshot for defaultKey at path. Other keys go
// next to it as <path>.<key>.
func NewStateStore(path, defaultKey string) *StateStore {
	return &StateStore{path: path, defaultKey: defaultKey, nowFn: time.Now}
}

func (s *StateStore) pathFor(key string) string {
	if key == s.defaultKey {
		return s.path
	}
	return s.path + "." + key
}

func (s *StateStore) Load(_ context.Context, key string) (*models.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := os.ReadFile(s.pathFor(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	state, err := repository.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("decode state %q: %w", key, err)
	}
	return state, nil
}

// Save writes to a temp file in the same directory and renames it over the
// target, so readers never see a half-written snapshot.
func (s *StateStore) Save(ctx context.Context, key string, state models.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := repository.Encode(state, s.nowFn())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.pathFor(key)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("rename state file: %w", err)
	}
	return nil
}

func (s *StateStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.pathFor(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}
