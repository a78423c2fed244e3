package redisstore_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	autherrors "github.com/jrsteele09/go-journal-auth/internal/errors"
	"github.com/jrsteele09/go-journal-auth/storage"
	"github.com/jrsteele09/go-journal-auth/storage/redisstore"
	"github.com/jrsteele09/go-journal-auth/storage/storagetest"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func TestStore_Contract(t *testing.T) {
	storagetest.RunContract(t, func(t *testing.T) storage.Storage {
		_, rdb := newTestRedis(t)
		return redisstore.New(rdb, "journal")
	})
}

func TestStore_UsesPrefix(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	s := redisstore.New(rdb, "journal")

	require.NoError(t, s.Set(ctx, storage.KeyToken, "abc"))

	value, err := mr.Get("journal:" + storage.KeyToken)
	require.NoError(t, err)
	require.Equal(t, "abc", value)
}

func TestStore_Ping(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	s := redisstore.New(rdb, "")

	require.NoError(t, s.Ping(context.Background()))

	mr.Close()
	err = s.Ping(context.Background())
	require.ErrorIs(t, err, redisstore.ErrRedisUnavailable)
}

func TestStore_UnavailableOnGet(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	s := redisstore.New(rdb, "")
	mr.Close()

	_, _, err = s.Get(context.Background(), storage.KeyIsAuthenticated)
	require.ErrorIs(t, err, redisstore.ErrRedisUnavailable)
	require.ErrorIs(t, err, autherrors.ErrStorageUnavailable)

	err = s.Set(context.Background(), storage.KeyToken, "abc")
	require.ErrorIs(t, err, autherrors.ErrStorageUnavailable)
}
