package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	portEnvVar   = "PORT"
	appNameVar   = "APP_NAME"
	folderEnvVar = "FOLDER"
	baseURLVar   = "BASE_URL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Mood Journal")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetBaseURL returns the externally visible base URL (e.g., "https://journal.example.com")
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:8080")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt returns the integer value of envVar, or defaultValue when unset or malformed.
func GetEnvInt(envVar string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetEnvBool returns the boolean value of envVar, or defaultValue when unset or malformed.
func GetEnvBool(envVar string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetEnvDuration returns the duration value of envVar, or defaultValue when unset or malformed.
func GetEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}
