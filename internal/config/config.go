package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	CorsConfig
	StorageConfig
	IdentityConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetBaseURL() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Storage
	Identity
	Security
}

func New() Config {
	return mainConfig{}
}

// LoadEnvFile loads .env.local from the working directory or its parent.
// A missing file is not an error; variables already set in the environment win.
func LoadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}
