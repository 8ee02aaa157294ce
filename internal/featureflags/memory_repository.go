package featureflags

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
)

// InMemoryRepository keeps flags in process memory. Values are lost on restart.
type InMemoryRepository struct {
	mu    sync.RWMutex
	clock clockwork.Clock
	flags map[string]*Flag
}

// NewInMemoryRepository creates a repository seeded with DefaultFlags.
func NewInMemoryRepository() *InMemoryRepository {
	clock := clockwork.NewRealClock()
	return &InMemoryRepository{
		clock: clock,
		flags: DefaultFlags(clock.Now()),
	}
}

// NewInMemoryRepositoryWithFlags creates a repository holding copies of flags.
func NewInMemoryRepositoryWithFlags(flags map[string]*Flag) *InMemoryRepository {
	repo := &InMemoryRepository{
		clock: clockwork.NewRealClock(),
		flags: make(map[string]*Flag, len(flags)),
	}
	for k, v := range flags {
		repo.flags[k] = v.clone()
	}
	return repo
}

// GetFlag retrieves a single feature flag by key.
func (r *InMemoryRepository) GetFlag(_ context.Context, key string) (*Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	flag, ok := r.flags[key]
	if !ok {
		return nil, ErrFlagNotFound
	}
	return flag.clone(), nil
}

// GetAllFlags retrieves all feature flags.
func (r *InMemoryRepository) GetAllFlags(_ context.Context) (map[string]*Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*Flag, len(r.flags))
	for k, v := range r.flags {
		result[k] = v.clone()
	}
	return result, nil
}

// SetFlag creates or updates a feature flag.
func (r *InMemoryRepository) SetFlag(_ context.Context, flag *Flag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := flag.clone()
	stored.UpdatedAt = r.clock.Now()
	r.flags[flag.Key] = stored
	return nil
}

// SetFlags creates or updates multiple feature flags atomically.
func (r *InMemoryRepository) SetFlags(_ context.Context, flags []*Flag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	for _, flag := range flags {
		stored := flag.clone()
		stored.UpdatedAt = now
		r.flags[flag.Key] = stored
	}
	return nil
}

// DeleteFlag removes a feature flag by key.
func (r *InMemoryRepository) DeleteFlag(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.flags[key]; !ok {
		return ErrFlagNotFound
	}
	delete(r.flags, key)
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
