package session

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying store
func NewContext(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, store)
}

// FromContext returns the store installed by NewContext, or ErrNoActiveSession.
func FromContext(ctx context.Context) (*Store, error) {
	store, ok := ctx.Value(contextKey{}).(*Store)
	if !ok || store == nil {
		return nil, ErrNoActiveSession
	}
	return store, nil
}
