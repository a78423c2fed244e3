package localdir

import (
	"crypto/rand"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	autherrors "github.com/jrsteele09/go-journal-auth/internal/errors"
	"github.com/jrsteele09/go-journal-auth/users"
)

const secretLength = 32

// TokenIssuer signs the opaque tokens handed out on a successful Verify.
type TokenIssuer struct {
	secret  []byte
	issuer  string
	expiry  time.Duration
	nowTime func() time.Time
}

// NewTokenIssuer creates an HS256 issuer. An empty secret generates a random one,
// so tokens from a previous process are no longer accepted by Parse.
func NewTokenIssuer(secret []byte, issuer string, expiry time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		secret = make([]byte, secretLength)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("[NewTokenIssuer] generate secret: %w", err)
		}
	}
	if expiry <= 0 {
		return nil, fmt.Errorf("[NewTokenIssuer] expiry must be positive")
	}
	return &TokenIssuer{
		secret:  secret,
		issuer:  issuer,
		expiry:  expiry,
		nowTime: time.Now,
	}, nil
}

// Issue creates a signed token for user
func (ti *TokenIssuer) Issue(user *users.User) (string, error) {
	now := ti.nowTime()
	claims := jwtlib.MapClaims{
		"iss":  ti.issuer,
		"sub":  user.Phone,
		"name": user.DisplayName,
		"iat":  now.Unix(),
		"exp":  now.Add(ti.expiry).Unix(),
		"jti":  uuid.New().String(),
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("[TokenIssuer.Issue] sign: %w", err)
	}
	return signed, nil
}

// Parse validates a token issued by this issuer and returns its claims.
// It is an inspection helper for operators and tests. Session state never
// consults it: authentication follows the persisted flag alone, and the
// stored token is opaque to the session layer.
func (ti *TokenIssuer) Parse(token string) (jwtlib.MapClaims, error) {
	claims := jwtlib.MapClaims{}
	_, err := jwtlib.ParseWithClaims(token, claims, func(t *jwtlib.Token) (interface{}, error) {
		return ti.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(ti.issuer),
		jwtlib.WithTimeFunc(ti.nowTime),
	)
	if err != nil {
		return nil, autherrors.Wrapf(autherrors.ErrInvalidToken, "[TokenIssuer.Parse] %v", err)
	}
	return claims, nil
}
