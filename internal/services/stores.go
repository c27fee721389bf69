package services

import (
	"context"
	"errors"
	"sync"

	"github.com/studyup/studyup/internal/logger"
	"github.com/studyup/studyup/internal/repository"
	"github.com/studyup/studyup/internal/store"
)

// ErrSetDeleted is returned by Open for a set that is being or has been deleted.
var ErrSetDeleted = errors.New("stores: set deleted")

// Flusher is implemented by persisters that write behind.
type Flusher interface {
	Flush(ctx context.Context) error
}

// StoreRegistry keeps one open FlashcardStore per set so that every request
// for a set mutates the same in-memory sequence.
type StoreRegistry struct {
	cards     repository.FlashcardRepository
	persister store.Persister

	mu     sync.Mutex
	stores map[string]*store.Store
	// Set IDs are never reused, so a tombstone never needs clearing once the
	// delete has gone through.
	deleted map[string]struct{}
}

// NewStoreRegistry creates a registry that loads cards from cards and hands
// change sets to persister.
func NewStoreRegistry(cards repository.FlashcardRepository, persister store.Persister) *StoreRegistry {
	return &StoreRegistry{
		cards:     cards,
		persister: persister,
		stores:    make(map[string]*store.Store),
		deleted:   make(map[string]struct{}),
	}
}

// Open returns the store for setID, loading and repairing it on first use.
// The caller checks that the set exists; a set retired since then yields
// ErrSetDeleted.
func (r *StoreRegistry) Open(ctx context.Context, setID string) (*store.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, gone := r.deleted[setID]; gone {
		return nil, ErrSetDeleted
	}
	if s, ok := r.stores[setID]; ok {
		return s, nil
	}

	log := logger.FromContext(ctx).WithPrefix("stores")
	cards, err := r.cards.ListBySet(ctx, setID)
	if err != nil {
		log.Error("failed to load cards for set %s: %v", setID, err)
		return nil, err
	}
	s := store.Load(ctx, setID, cards, r.persister)
	r.stores[setID] = s
	log.Debug("opened set %s with %d cards", setID, s.Len())
	return s, nil
}

// Cached returns the open store for setID, if any.
func (r *StoreRegistry) Cached(setID string) (*store.Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[setID]
	return s, ok
}

// Register adds a store for a set that was just created.
func (r *StoreRegistry) Register(s *store.Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[s.SetID()] = s
}

// Persister returns the persister shared by every store in the registry.
func (r *StoreRegistry) Persister() store.Persister {
	return r.persister
}

// Retire drops the open store for setID, refuses to open it again and waits
// for its pending writes. Call Restore if the set turns out not to be deleted.
func (r *StoreRegistry) Retire(ctx context.Context, setID string) error {
	r.mu.Lock()
	delete(r.stores, setID)
	r.deleted[setID] = struct{}{}
	r.mu.Unlock()
	return r.Flush(ctx)
}

// Restore lifts the tombstone Retire left for setID.
func (r *StoreRegistry) Restore(setID string) {
	r.mu.Lock()
	delete(r.deleted, setID)
	r.mu.Unlock()
}

// Flush waits for pending writes when the persister writes behind.
func (r *StoreRegistry) Flush(ctx context.Context) error {
	if f, ok := r.persister.(Flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}
