// Package localdir is an in-process identity provider: accounts live in memory with
// bcrypt hashed secrets and every successful verification returns a signed token.
package localdir

import (
	"context"
	"sync"
	"time"

	autherrors "github.com/jrsteele09/go-journal-auth/internal/errors"
	"github.com/jrsteele09/go-journal-auth/users"
	"github.com/pkg/errors"
)

// Demo account seeded when DEMO_ACCOUNT is enabled
const (
	DemoPhone       = "13800138000"
	DemoSecret      = "123456"
	DemoDisplayName = "Test User"
)

var _ users.Directory = (*Directory)(nil)

type account struct {
	Phone        string
	DisplayName  string
	PasswordHash string
	EnrolledAt   time.Time
	LastLogin    time.Time
}

// Directory holds enrolled accounts keyed by phone
type Directory struct {
	accounts map[string]*account
	tokens   *TokenIssuer
	nowTime  func() time.Time
	lock     sync.RWMutex
}

// Option modifies a Directory at construction
type Option func(*Directory)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(d *Directory) {
		d.nowTime = nowFunc
		d.tokens.nowTime = nowFunc
	}
}

// New creates an empty directory that signs tokens with issuer
func New(issuer *TokenIssuer, options ...Option) (*Directory, error) {
	if issuer == nil {
		return nil, errors.New("[localdir.New] token issuer is required")
	}
	d := &Directory{
		accounts: make(map[string]*account),
		tokens:   issuer,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(d)
	}
	return d, nil
}

// Seed enrolls an account with an explicit display name. Existing accounts are left untouched.
func (d *Directory) Seed(identifier, secret, displayName string) error {
	if err := users.ValidateRegistration(identifier, secret); err != nil {
		return errors.Wrap(err, "[Seed] invalid account")
	}
	hash, err := users.HashPassword(secret)
	if err != nil {
		return errors.Wrap(err, "[Seed] hash secret")
	}

	d.lock.Lock()
	defer d.lock.Unlock()
	if _, ok := d.accounts[identifier]; ok {
		return nil
	}
	d.accounts[identifier] = &account{
		Phone:        identifier,
		DisplayName:  displayName,
		PasswordHash: hash,
		EnrolledAt:   d.nowTime(),
	}
	return nil
}

func (d *Directory) Enroll(_ context.Context, identifier, secret string) error {
	if err := users.ValidateRegistration(identifier, secret); err != nil {
		return errors.Wrap(autherrors.ErrInvalidIdentifier, err.Error())
	}

	hash, err := users.HashPassword(secret)
	if err != nil {
		return errors.Wrap(err, "[Enroll] hash secret")
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	if _, ok := d.accounts[identifier]; ok {
		return autherrors.ErrUserExists
	}
	d.accounts[identifier] = &account{
		Phone:        identifier,
		DisplayName:  users.DefaultDisplayName(identifier),
		PasswordHash: hash,
		EnrolledAt:   d.nowTime(),
	}
	return nil
}

func (d *Directory) Verify(_ context.Context, identifier, secret string) (*users.User, error) {
	if identifier == "" || secret == "" {
		return nil, autherrors.ErrInvalidCredentials
	}

	d.lock.RLock()
	acc, ok := d.accounts[identifier]
	var hash, name string
	if ok {
		hash, name = acc.PasswordHash, acc.DisplayName
	}
	d.lock.RUnlock()

	if !ok || !users.CheckPasswordHash(secret, hash) {
		return nil, autherrors.ErrInvalidCredentials
	}

	user := &users.User{Phone: identifier, DisplayName: name}
	token, err := d.tokens.Issue(user)
	if err != nil {
		return nil, errors.Wrap(err, "[Verify] issue token")
	}
	user.Token = token

	d.lock.Lock()
	acc.LastLogin = d.nowTime()
	d.lock.Unlock()

	return user, nil
}

// Count returns the number of enrolled accounts
func (d *Directory) Count() int {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return len(d.accounts)
}
