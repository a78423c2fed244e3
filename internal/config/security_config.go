package config

import "time"

type SecurityConfig interface {
	GetCSRFKey() string
	GetClientCookieAge() time.Duration
	GetSecureCookies() bool
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetCSRFKey returns the 32 byte gorilla/csrf auth key. Empty disables CSRF on form routes.
func (Security) GetCSRFKey() string {
	return GetEnv("CSRF_KEY", "")
}

func (Security) GetClientCookieAge() time.Duration {
	return 365 * 24 * time.Hour
}

func (Security) GetSecureCookies() bool {
	return EnvVars{}.GetEnv() == "PROD"
}
