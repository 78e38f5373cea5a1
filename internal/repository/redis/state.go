// Package redis stores session snapshots as plain Redis string values.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lalith-99/auraloom/internal/models"
	"github.com/lalith-99/auraloom/internal/repository"
	goredis "github.com/redis/go-redis/v9"
)

type StateStore struct {
	client *goredis.Client
	nowFn  func() time.Time
}

var _ repository.StateRepository = (*StateStore)(nil)

func NewStateStore(client *goredis.Client) *StateStore {
	return &StateStore{client: client, nowFn: time.Now}
}

func (s *StateStore) Load(ctx context.Context, key string) (*models.State, error) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get state: %w", err)
	}
	state, err := repository.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("decode state %q: %w", key, err)
	}
	return state, nil
}

// Save overwrites the value under key. No TTL: the snapshot lives until it
// is deleted.
func (s *StateStore) Save(ctx context.Context, key string, state models.State) error {
	payload, err := repository.Encode(state, s.nowFn())
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

func (s *StateStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}
