// Package store holds the canonical session state of the marketplace and the
// closed set of operations that change it.
//
// A Store is created once by the composition root and handed to every
// collaborator. Each operation runs under a single write lock: it works on a
// clone of the current state, and only when it succeeds is the clone
// published, persisted and delivered to listeners. A rejected operation
// leaves everything untouched.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/auraloom/internal/models"
	"github.com/lalith-99/auraloom/internal/observ"
	"github.com/lalith-99/auraloom/internal/repository"
	"go.uber.org/zap"
)

// DefaultKey is the namespace the snapshot is persisted under.
const DefaultKey = "auraloom-storage"

// Listener is called after every committed mutation with the new state and
// its version. Listeners run while the store's write lock is held, so they
// must return quickly and must not call mutating Store methods.
type Listener func(version uint64, state models.State)

// Store is the application state store.
type Store struct {
	mu      sync.RWMutex
	state   models.State
	version uint64

	listeners    map[uint64]Listener
	nextListener uint64

	repo    repository.StateRepository
	backend string
	key     string
	logger  *zap.Logger
	nowFn   func() time.Time
	idFn    func() string
}

// Option customises a Store at construction.
type Option func(*Store)

// WithRepository sets where snapshots are persisted. backend names the
// implementation in logs and metrics.
func WithRepository(repo repository.StateRepository, backend, key string) Option {
	return func(s *Store) {
		s.repo = repo
		s.backend = backend
		if key != "" {
			s.key = key
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.nowFn = now }
}

// WithIDGenerator replaces the uuid based generator for store-issued IDs.
func WithIDGenerator(next func() string) Option {
	return func(s *Store) { s.idFn = next }
}

// WithState seeds the store with an initial state instead of the default
// guest session.
func WithState(state models.State) Option {
	return func(s *Store) { s.state = normalize(state.Clone()) }
}

// WithSessionUser overrides the ID of the default session user.
func WithSessionUser(userID string) Option {
	return func(s *Store) {
		if userID != "" {
			s.state.User.ID = userID
		}
	}
}

// DefaultState is the state of a fresh session: a guest on the free tier
// and empty collections.
func DefaultState() models.State {
	return normalize(models.State{
		User: models.User{
			ID:         "user1",
			Name:       "Demo User",
			Email:      "demo@auraloom.com",
			Mode:       models.ModeGuest,
			Membership: models.TierFree,
		},
	})
}

// New creates a store holding DefaultState unless WithState is given.
func New(opts ...Option) *Store {
	s := &Store{
		state:     DefaultState(),
		listeners: make(map[uint64]Listener),
		repo:      repository.Nop{},
		backend:   "memory",
		key:       DefaultKey,
		logger:    zap.NewNop(),
		nowFn:     func() time.Time { return time.Now().UTC() },
		idFn:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load rehydrates the store from its repository. When nothing has been
// saved yet the current state is kept. A successful load is published to
// listeners like any other change.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.repo.Load(ctx, s.key)
	if err != nil {
		return err
	}
	if loaded == nil {
		s.logger.Info("no persisted state found, starting fresh",
			zap.String("backend", s.backend),
			zap.String("key", s.key),
		)
		return nil
	}

	s.state = normalize(*loaded)
	s.version++
	s.logger.Info("state rehydrated",
		zap.String("backend", s.backend),
		zap.String("key", s.key),
		zap.Int("products", len(s.state.Products)),
		zap.Int("broadcasts", len(s.state.Broadcasts)),
	)
	s.notify()
	return nil
}

// Snapshot returns a deep copy of the current state together with its
// version. The version increases by one on every committed change.
func (s *Store) Snapshot() (models.State, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone(), s.version
}

// Subscribe registers l for change notifications and returns a function
// that removes it. Calling the returned function more than once is safe.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// errUnchanged is returned by an operation body that accepted its input but
// had nothing to do. mutate reports success without publishing anything.
var errUnchanged = errors.New("state unchanged")

// txn is the working copy an operation mutates.
type txn struct {
	op    string
	state models.State
	now   time.Time
	newID func() string
}

// mutate runs fn against a clone of the state and publishes the clone if fn
// succeeds.
func (s *Store) mutate(ctx context.Context, op string, fn func(tx *txn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txn{
		op:    op,
		state: s.state.Clone(),
		now:   s.nowFn(),
		newID: s.idFn,
	}
	if err := fn(tx); err != nil {
		if errors.Is(err, errUnchanged) {
			observ.StoreOperations.WithLabelValues(op, "noop").Inc()
			return nil
		}
		result := string(KindOf(err))
		if result == "" {
			result = "rejected"
		}
		observ.StoreOperations.WithLabelValues(op, result).Inc()
		s.logger.Debug("store operation rejected", zap.String("op", op), zap.Error(err))
		return err
	}

	s.state = tx.state
	s.version++
	observ.StoreOperations.WithLabelValues(op, "ok").Inc()

	s.persist(ctx, op)
	s.notify()
	return nil
}

// persistTimeout bounds one snapshot write. It runs under the write lock.
const persistTimeout = 5 * time.Second

// persist writes the committed state. Failures are logged and counted but
// never undo the operation.
//
// Why detach from the caller's context? The change is already committed in
// memory. If the client hangs up right after, a cancelled save would leave
// the durable record behind memory until the next mutation.
func (s *Store) persist(ctx context.Context, op string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.repo.Save(ctx, s.key, s.state); err != nil {
		observ.StorePersistErrors.WithLabelValues(s.backend).Inc()
		s.logger.Warn("failed to persist state",
			zap.String("op", op),
			zap.String("backend", s.backend),
			zap.Error(err),
		)
	}
}

func (s *Store) notify() {
	if len(s.listeners) == 0 {
		return
	}
	for _, l := range s.listeners {
		l(s.version, s.state.Clone())
	}
}

// normalize makes every collection non-nil so encoded snapshots always carry
// arrays.
func normalize(st models.State) models.State {
	if st.Products == nil {
		st.Products = []models.Product{}
	}
	if st.Sellers == nil {
		st.Sellers = []models.Seller{}
	}
	if st.BroadcastChannels == nil {
		st.BroadcastChannels = []models.BroadcastChannel{}
	}
	for i := range st.BroadcastChannels {
		if st.BroadcastChannels[i].Subscribers == nil {
			st.BroadcastChannels[i].Subscribers = []string{}
		}
	}
	if st.Broadcasts == nil {
		st.Broadcasts = []models.Broadcast{}
	}
	for i := range st.Broadcasts {
		if st.Broadcasts[i].Views == nil {
			st.Broadcasts[i].Views = []string{}
		}
		if st.Broadcasts[i].Reactions == nil {
			st.Broadcasts[i].Reactions = []models.Reaction{}
		}
	}
	if st.Messages == nil {
		st.Messages = []models.Message{}
	}
	if st.Cart == nil {
		st.Cart = []models.CartItem{}
	}
	if st.Notifications == nil {
		st.Notifications = []models.Notification{}
	}
	if st.FollowedSellers == nil {
		st.FollowedSellers = []string{}
	}
	return st
}
