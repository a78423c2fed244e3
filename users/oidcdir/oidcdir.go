// Package oidcdir verifies login secrets against an external OpenID Connect provider
// using the resource owner password grant, then checks the returned ID token.
package oidcdir

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	autherrors "github.com/jrsteele09/go-journal-auth/internal/errors"
	"github.com/jrsteele09/go-journal-auth/users"
)

var _ users.Directory = (*Directory)(nil)

// Directory delegates every Verify call to the provider token endpoint.
type Directory struct {
	oauth2     *oauth2.Config
	verifier   *oidc.IDTokenVerifier
	httpClient *http.Client
}

// Option modifies a Directory at construction
type Option func(*Directory)

// WithHTTPClient sets the client used for token requests
func WithHTTPClient(client *http.Client) Option {
	return func(d *Directory) {
		d.httpClient = client
	}
}

// New discovers the provider at issuerURL and builds a directory for clientID.
func New(ctx context.Context, issuerURL, clientID, clientSecret string, options ...Option) (*Directory, error) {
	if issuerURL == "" || clientID == "" {
		return nil, fmt.Errorf("[oidcdir.New] issuer and client id are required")
	}

	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("[oidcdir.New] failed to create OIDC provider: %w", err)
	}

	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "phone"},
	}
	return NewWithVerifier(cfg, provider.Verifier(&oidc.Config{ClientID: clientID}), options...), nil
}

// NewWithVerifier builds a directory from an explicit OAuth2 config and ID token verifier.
func NewWithVerifier(cfg *oauth2.Config, verifier *oidc.IDTokenVerifier, options ...Option) *Directory {
	d := &Directory{
		oauth2:   cfg,
		verifier: verifier,
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

type identityClaims struct {
	Phone string `json:"phone_number"`
	Name  string `json:"name"`
}

func (d *Directory) Verify(ctx context.Context, identifier, secret string) (*users.User, error) {
	if identifier == "" || secret == "" {
		return nil, autherrors.ErrInvalidCredentials
	}
	if d.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, d.httpClient)
	}

	token, err := d.oauth2.PasswordCredentialsToken(ctx, identifier, secret)
	if err != nil {
		if isRejectedGrant(err) {
			return nil, autherrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("[oidcdir.Verify] token request: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("[oidcdir.Verify] provider returned no id_token")
	}

	idToken, err := d.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, autherrors.Wrapf(autherrors.ErrInvalidToken, "[oidcdir.Verify] %v", err)
	}

	var claims identityClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("[oidcdir.Verify] decode claims: %w", err)
	}

	phone := claims.Phone
	if phone == "" {
		phone = identifier
	}
	name := claims.Name
	if name == "" {
		name = users.DefaultDisplayName(phone)
	}

	return &users.User{
		Phone:       phone,
		DisplayName: name,
		Token:       token.AccessToken,
	}, nil
}

// Enroll is not offered: accounts are managed by the provider.
func (d *Directory) Enroll(context.Context, string, string) error {
	return autherrors.ErrUnsupported
}

func isRejectedGrant(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return false
	}
	if retrieveErr.ErrorCode == "invalid_grant" {
		return true
	}
	if retrieveErr.Response != nil {
		switch retrieveErr.Response.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized:
			return true
		}
	}
	return false
}
