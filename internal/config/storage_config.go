package config

import (
	"path/filepath"
	"time"
)

// StorageBackend selects where per-client session keys are persisted.
type StorageBackend string

const (
	StorageMemory StorageBackend = "memory"
	StorageFile   StorageBackend = "file"
	StorageRedis  StorageBackend = "redis"
	StorageSQLite StorageBackend = "sqlite"
)

type StorageConfig interface {
	GetStorageBackend() StorageBackend
	GetStorageFile() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
	GetSQLitePath() string
	GetSessionCacheSize() int
	GetSessionCacheTTL() time.Duration
}

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetStorageBackend() StorageBackend {
	return StorageBackend(GetEnv("STORAGE_BACKEND", string(StorageMemory)))
}

func (Storage) GetStorageFile() string {
	return GetEnv("STORAGE_FILE", filepath.Join(EnvVars{}.GetDataFolder(), "storage.json"))
}

func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "127.0.0.1:6379")
}

func (Storage) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Storage) GetRedisDB() int {
	return GetEnvInt("REDIS_DB", 0)
}

func (Storage) GetRedisPrefix() string {
	return GetEnv("REDIS_PREFIX", "journal")
}

func (Storage) GetSQLitePath() string {
	return GetEnv("SQLITE_PATH", filepath.Join(EnvVars{}.GetDataFolder(), "storage.db"))
}

// GetSessionCacheSize bounds the client sessions held in memory. Evicted clients re-hydrate from storage.
func (Storage) GetSessionCacheSize() int {
	return GetEnvInt("SESSION_CACHE_SIZE", 10000)
}

func (Storage) GetSessionCacheTTL() time.Duration {
	return GetEnvDuration("SESSION_CACHE_TTL", 30*time.Minute)
}
