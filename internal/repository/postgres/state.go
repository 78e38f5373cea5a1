package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lalith-99/auraloom/internal/models"
	"github.com/lalith-99/auraloom/internal/repository"
)

// querier is the subset of *pgxpool.Pool the state store uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StateStore keeps snapshots in the app_state table, one row per key.
type StateStore struct {
	pool  querier
	nowFn func() time.Time
}

var _ repository.StateRepository = (*StateStore)(nil)

func NewStateStore(pool querier) *StateStore {
	return &StateStore{pool: pool, nowFn: time.Now}
}

func (s *StateStore) Load(ctx context.Context, key string) (*models.State, error) {
	query := `
		SELECT payload
		FROM app_state
		WHERE key = $1`

	var payload []byte
	err := s.pool.QueryRow(ctx, query, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select state: %w", err)
	}

	state, err := repository.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("decode state %q: %w", key, err)
	}
	return state, nil
}

// Save upserts the row for key.
//
// Why a single row per key instead of normalized tables?
//   - The store commits the whole snapshot at once. One upsert keeps the
//     durable copy atomic without a multi-table transaction.
func (s *StateStore) Save(ctx context.Context, key string, state models.State) error {
	savedAt := s.nowFn().UTC()
	payload, err := repository.Encode(state, savedAt)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO app_state (key, payload, version, saved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET payload = EXCLUDED.payload,
		    version = EXCLUDED.version,
		    saved_at = EXCLUDED.saved_at`

	if _, err := s.pool.Exec(ctx, query, key, payload, repository.SchemaVersion, savedAt); err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}
	return nil
}

func (s *StateStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM app_state WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}
