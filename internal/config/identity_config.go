package config

import "time"

// IdentityMode selects the identity provider that verifies login secrets.
type IdentityMode string

const (
	IdentityLocal IdentityMode = "local"
	IdentityOIDC  IdentityMode = "oidc"
)

type IdentityConfig interface {
	GetIdentityMode() IdentityMode
	GetTokenSecret() string
	GetTokenIssuer() string
	GetTokenExpiry() time.Duration
	GetOIDCIssuer() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
	GetDemoAccount() bool
}

type Identity struct{}

var _ IdentityConfig = Identity{}

func (Identity) GetIdentityMode() IdentityMode {
	return IdentityMode(GetEnv("IDP_MODE", string(IdentityLocal)))
}

// GetTokenSecret returns the HMAC key for locally issued tokens. Empty means a random key per process.
func (Identity) GetTokenSecret() string {
	return GetEnv("TOKEN_SECRET", "")
}

func (Identity) GetTokenIssuer() string {
	return GetEnv("TOKEN_ISSUER", EnvVars{}.GetBaseURL())
}

func (Identity) GetTokenExpiry() time.Duration {
	return GetEnvDuration("TOKEN_EXPIRY", 24*time.Hour)
}

func (Identity) GetOIDCIssuer() string {
	return GetEnv("OIDC_ISSUER", "")
}

func (Identity) GetOIDCClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "")
}

func (Identity) GetOIDCClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

func (Identity) GetDemoAccount() bool {
	return GetEnvBool("DEMO_ACCOUNT", false)
}
