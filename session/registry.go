package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jrsteele09/go-journal-auth/storage"
	"github.com/jrsteele09/go-journal-auth/users"
)

const (
	DefaultMaxClients = 10000
	DefaultStoreTTL   = 30 * time.Minute
)

// Registry hands out one hydrated Store per client id, each over its own storage namespace.
// At most maxClients stores are cached and each is dropped after its TTL; a dropped
// client re-hydrates from storage on its next Get.
type Registry struct {
	backend      storage.Storage
	directory    users.Directory
	storeOptions []Option
	maxClients   int
	ttl          time.Duration

	stores *expirable.LRU[string, *Store]
	lock   sync.Mutex
}

// RegistryOption modifies a Registry at construction
type RegistryOption func(*Registry)

// WithStoreOptions sets the options applied to every Store the registry creates
func WithStoreOptions(options ...Option) RegistryOption {
	return func(r *Registry) {
		r.storeOptions = append(r.storeOptions, options...)
	}
}

// WithMaxClients bounds the number of cached stores
func WithMaxClients(n int) RegistryOption {
	return func(r *Registry) {
		r.maxClients = n
	}
}

// WithStoreTTL sets how long a cached store lives before it is re-hydrated
func WithStoreTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		r.ttl = ttl
	}
}

// NewRegistry creates a registry sharing backend and directory between clients
func NewRegistry(backend storage.Storage, directory users.Directory, options ...RegistryOption) (*Registry, error) {
	if backend == nil {
		return nil, fmt.Errorf("[NewRegistry] storage backend is required")
	}
	if directory == nil {
		return nil, fmt.Errorf("[NewRegistry] directory is required")
	}

	r := &Registry{
		backend:    backend,
		directory:  directory,
		maxClients: DefaultMaxClients,
		ttl:        DefaultStoreTTL,
	}
	for _, opt := range options {
		opt(r)
	}
	if r.maxClients <= 0 {
		return nil, fmt.Errorf("[NewRegistry] max clients must be positive")
	}
	if r.ttl <= 0 {
		return nil, fmt.Errorf("[NewRegistry] store TTL must be positive")
	}

	r.stores = expirable.NewLRU[string, *Store](r.maxClients, nil, r.ttl)
	return r, nil
}

// Get returns the store for clientID, creating and hydrating it on first use.
// A store whose hydration failed is retried on the next Get.
func (r *Registry) Get(ctx context.Context, clientID string) (*Store, error) {
	if clientID == "" {
		return nil, ErrNoActiveSession
	}

	store, err := r.lookup(clientID)
	if err != nil {
		return nil, err
	}

	if err := store.Hydrate(ctx); err != nil {
		return nil, fmt.Errorf("[Registry.Get] hydrate %s: %w", clientID, err)
	}
	return store, nil
}

func (r *Registry) lookup(clientID string) (*Store, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if store, ok := r.stores.Get(clientID); ok {
		return store, nil
	}

	ns, err := storage.Namespace(r.backend, clientID)
	if err != nil {
		return nil, err
	}
	store, err := New(ns, r.directory, r.storeOptions...)
	if err != nil {
		return nil, err
	}
	r.stores.Add(clientID, store)
	return store, nil
}

// Len returns the number of cached client stores
func (r *Registry) Len() int {
	return r.stores.Len()
}
