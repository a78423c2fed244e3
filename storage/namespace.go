package storage

import (
	"context"
	"fmt"
)

const namespaceSeparator = ":"

type namespaced struct {
	backend Storage
	prefix  string
}

// Namespace scopes every key of backend under ns, so one backend can hold the
// persisted state of many clients without collisions.
func Namespace(backend Storage, ns string) (Storage, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if ns == "" {
		return nil, fmt.Errorf("namespace is required")
	}
	return &namespaced{backend: backend, prefix: ns + namespaceSeparator}, nil
}

func (n *namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.backend.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.backend.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Remove(ctx context.Context, key string) error {
	return n.backend.Remove(ctx, n.prefix+key)
}
