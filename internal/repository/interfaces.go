package repository

import (
	"context"

	"github.com/lalith-99/auraloom/internal/models"
)

// StateRepository persists the whole session snapshot as one record under a
// namespace key.
//
// Every method takes a context because the backends touch the network or
// the disk; a cancelled request cancels the write.
type StateRepository interface {
	// Load returns the stored state for key. Returns nil, nil if nothing has
	// been saved under the key yet.
	Load(ctx context.Context, key string) (*models.State, error)

	// Save overwrites the record under key with state.
	Save(ctx context.Context, key string, state models.State) error

	// Delete removes the record. No-op if it does not exist.
	Delete(ctx context.Context, key string) error
}

// Nop is the repository used by the in-memory backend: nothing is written
// and nothing is ever found.
type Nop struct{}

func (Nop) Load(context.Context, string) (*models.State, error) { return nil, nil }
func (Nop) Save(context.Context, string, models.State) error    { return nil }
func (Nop) Delete(context.Context, string) error                { return nil }
