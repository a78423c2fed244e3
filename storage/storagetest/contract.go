// Package storagetest holds the behaviour every storage.Storage backend must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-journal-auth/storage"
)

// RunContract exercises get/set/remove semantics against a fresh store from newStore.
func RunContract(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		s := newStore(t)
		value, ok, err := s.Get(ctx, storage.KeyUserInfo)
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, value)
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, storage.KeyIsAuthenticated, "true"))

		value, ok, err := s.Get(ctx, storage.KeyIsAuthenticated)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "true", value)
	})

	t.Run("set overwrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, storage.KeyToken, "first"))
		require.NoError(t, s.Set(ctx, storage.KeyToken, "second"))

		value, ok, err := s.Get(ctx, storage.KeyToken)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "second", value)
	})

	t.Run("empty value is present", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, storage.KeyRedirectPath, ""))

		_, ok, err := s.Get(ctx, storage.KeyRedirectPath)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("remove", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, storage.KeyToken, "abc"))
		require.NoError(t, s.Remove(ctx, storage.KeyToken))

		_, ok, err := s.Get(ctx, storage.KeyToken)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("remove absent key", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Remove(ctx, storage.KeyToken))
		require.NoError(t, s.Remove(ctx, storage.KeyToken))
	})

	t.Run("json values round trip", func(t *testing.T) {
		s := newStore(t)
		blob := `{"phone":"13800138000","name":"Test User","token":"t"}`
		require.NoError(t, s.Set(ctx, storage.KeyUserInfo, blob))

		value, ok, err := s.Get(ctx, storage.KeyUserInfo)
		require.NoError(t, err)
		require.True(t, ok)
		require.JSONEq(t, blob, value)
	})
}
