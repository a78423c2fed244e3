package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-journal-auth/internal/config"
	"github.com/jrsteele09/go-journal-auth/storage"
	"github.com/jrsteele09/go-journal-auth/storage/filestore"
	"github.com/jrsteele09/go-journal-auth/storage/redisstore"
	"github.com/jrsteele09/go-journal-auth/storage/sqlstore"
	"github.com/jrsteele09/go-journal-auth/users"
	"github.com/jrsteele09/go-journal-auth/users/localdir"
	"github.com/jrsteele09/go-journal-auth/users/oidcdir"
)

// System is the storage backend and identity provider the server runs on
type System struct {
	Storage     storage.Storage
	Directory   users.Directory
	HealthCheck func(ctx context.Context) error

	closers []func() error
}

// InitialiseSystem builds the configured storage backend and identity provider.
// Call Close on the result when the server stops.
func InitialiseSystem(ctx context.Context, cfg config.Config) (*System, error) {
	sys := &System{}

	if err := sys.initialiseStorage(ctx, cfg); err != nil {
		sys.Close()
		return nil, fmt.Errorf("[Server InitialiseSystem] failed to initialise storage: %w", err)
	}

	directory, err := initialiseDirectory(ctx, cfg)
	if err != nil {
		sys.Close()
		return nil, fmt.Errorf("[Server InitialiseSystem] failed to initialise identity provider: %w", err)
	}
	sys.Directory = directory

	return sys, nil
}

// Close releases backend connections
func (sys *System) Close() error {
	var firstErr error
	for i := len(sys.closers) - 1; i >= 0; i-- {
		if err := sys.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	sys.closers = nil
	return firstErr
}

func (sys *System) initialiseStorage(ctx context.Context, cfg config.Config) error {
	backend := cfg.GetStorageBackend()

	switch backend {
	case "", config.StorageMemory:
		sys.Storage = storage.NewMemory()

	case config.StorageFile:
		store, err := filestore.New(cfg.GetStorageFile())
		if err != nil {
			return err
		}
		sys.Storage = store

	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.GetRedisPassword(),
			DB:       cfg.GetRedisDB(),
		})
		sys.closers = append(sys.closers, client.Close)

		store := redisstore.New(client, cfg.GetRedisPrefix())
		if err := store.Ping(ctx); err != nil {
			return err
		}
		sys.Storage = store
		sys.HealthCheck = store.Ping

	case config.StorageSQLite:
		path := cfg.GetSQLitePath()
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return fmt.Errorf("create folder for %s: %w", path, err)
		}
		db, err := sqlstore.Open(path)
		if err != nil {
			return err
		}
		store, err := sqlstore.New(db)
		if err != nil {
			return err
		}
		sys.closers = append(sys.closers, store.Close)
		sys.Storage = store

	default:
		return fmt.Errorf("unknown storage backend %q", backend)
	}

	log.Info().Str("backend", string(backend)).Msg("Storage initialised")
	return nil
}

func initialiseDirectory(ctx context.Context, cfg config.Config) (users.Directory, error) {
	switch mode := cfg.GetIdentityMode(); mode {
	case "", config.IdentityLocal:
		issuer, err := localdir.NewTokenIssuer([]byte(cfg.GetTokenSecret()), cfg.GetTokenIssuer(), cfg.GetTokenExpiry())
		if err != nil {
			return nil, err
		}
		if cfg.GetTokenSecret() == "" {
			log.Warn().Msg("TOKEN_SECRET not set, tokens will not survive a restart")
		}
		dir, err := localdir.New(issuer)
		if err != nil {
			return nil, err
		}
		if cfg.GetDemoAccount() {
			if err := dir.Seed(localdir.DemoPhone, localdir.DemoSecret, localdir.DemoDisplayName); err != nil {
				return nil, err
			}
			log.Printf("👤 Demo account: %s / %s", localdir.DemoPhone, localdir.DemoSecret)
		}
		return dir, nil

	case config.IdentityOIDC:
		dir, err := oidcdir.New(ctx, cfg.GetOIDCIssuer(), cfg.GetOIDCClientID(), cfg.GetOIDCClientSecret())
		if err != nil {
			return nil, err
		}
		log.Info().Str("issuer", cfg.GetOIDCIssuer()).Msg("Using OIDC identity provider")
		return dir, nil

	default:
		return nil, fmt.Errorf("unknown identity mode %q", mode)
	}
}
