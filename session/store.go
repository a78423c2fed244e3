package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	autherrors "github.com/jrsteele09/go-journal-auth/internal/errors"
	"github.com/jrsteele09/go-journal-auth/storage"
	"github.com/jrsteele09/go-journal-auth/users"
)

const authenticatedFlag = "true"

// State is a snapshot of a Store
type State struct {
	Authenticated bool        `json:"isAuthenticated"`
	User          *users.User `json:"user"`
	Loading       bool        `json:"loading"`
	AuthLoading   bool        `json:"authLoading"`
}

// RegisterResult reports the outcome of Register
type RegisterResult struct {
	Success bool `json:"success"`
}

// Store holds the session state of one client
type Store struct {
	storage   storage.Storage
	directory users.Directory
	logger    zerolog.Logger

	mu            sync.Mutex
	authenticated bool
	user          *users.User
	loading       bool
	authLoading   bool
	generation    uint64 // Bumped by Logout; a login that began earlier must not persist
}

// Option modifies a Store at construction
type Option func(*Store)

// WithLogger sets the logger used for recovered failures
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a store in the loading state. Call Hydrate before any other operation.
func New(store storage.Storage, directory users.Directory, options ...Option) (*Store, error) {
	if store == nil {
		return nil, errors.New("[session.New] storage is required")
	}
	if directory == nil {
		return nil, errors.New("[session.New] directory is required")
	}

	s := &Store{
		storage:   store,
		directory: directory,
		logger:    log.With().Str("component", "session").Logger(),
		loading:   true,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Hydrate restores state from storage. It runs once; later calls return nil without reading.
// A malformed user record is logged and leaves the user absent while the flag stays authoritative.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loading {
		return nil
	}

	flag, _, err := s.storage.Get(ctx, storage.KeyIsAuthenticated)
	if err != nil {
		return errors.Wrap(err, "[Hydrate] read authentication flag")
	}
	authenticated := flag == authenticatedFlag

	var user *users.User
	if authenticated {
		blob, ok, err := s.storage.Get(ctx, storage.KeyUserInfo)
		if err != nil {
			return errors.Wrap(err, "[Hydrate] read user info")
		}
		if ok && blob != "" {
			var u users.User
			if err := json.Unmarshal([]byte(blob), &u); err != nil {
				s.logger.Error().Err(fmt.Errorf("%w: %v", ErrHydrationParse, err)).Msg("Failed to parse stored user info")
			} else {
				user = &u
			}
		}
		if user == nil {
			s.logger.Warn().Msg("Authentication flag set without a usable user record")
		}
	}

	s.authenticated = authenticated
	s.user = user
	s.loading = false
	return nil
}

// Login verifies the secret with the directory and persists the resulting session.
func (s *Store) Login(ctx context.Context, identifier, secret string) (*users.User, error) {
	generation, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer s.end()

	user, err := s.directory.Verify(ctx, identifier, secret)
	if err != nil {
		if errors.Is(err, autherrors.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Msg("Login error")
		return nil, unexpected("Login", err)
	}
	if user == nil {
		return nil, unexpected("Login", autherrors.ErrInternal)
	}

	if err := s.persist(ctx, user, generation); err != nil {
		s.logger.Error().Err(err).Msg("Login error")
		return nil, unexpected("Login", err)
	}

	u := *user
	return &u, nil
}

// Register enrolls a new identity with the directory. It never creates a session.
func (s *Store) Register(ctx context.Context, identifier, secret string) (RegisterResult, error) {
	if _, err := s.begin(); err != nil {
		return RegisterResult{}, err
	}
	defer s.end()

	if err := users.ValidateRegistration(identifier, secret); err != nil {
		return RegisterResult{}, fmt.Errorf("%w: %v", ErrInvalidRegistrationData, err)
	}

	if err := s.directory.Enroll(ctx, identifier, secret); err != nil {
		switch {
		case errors.Is(err, autherrors.ErrUserExists):
			return RegisterResult{}, fmt.Errorf("%w: %w", ErrInvalidRegistrationData, autherrors.ErrUserExists)
		case errors.Is(err, autherrors.ErrInvalidIdentifier):
			return RegisterResult{}, fmt.Errorf("%w: %v", ErrInvalidRegistrationData, err)
		}
		s.logger.Error().Err(err).Msg("Registration error")
		return RegisterResult{}, unexpected("Register", err)
	}

	return RegisterResult{Success: true}, nil
}

// Logout clears persisted and in-memory session state. It always succeeds;
// storage failures are logged. A login still in flight is cancelled and will not persist.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.clearStorage(ctx)
	s.authenticated = false
	s.user = nil
}

// SaveRedirect records the view a guarded navigation was heading to.
func (s *Store) SaveRedirect(ctx context.Context, path string) error {
	return s.storage.Set(ctx, storage.KeyRedirectPath, path)
}

// PendingRedirect returns the saved pre-login destination, or "" when none is stored.
func (s *Store) PendingRedirect(ctx context.Context) (string, error) {
	path, _, err := s.storage.Get(ctx, storage.KeyRedirectPath)
	return path, err
}

// State returns a snapshot safe to hand to other goroutines
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		Authenticated: s.authenticated,
		Loading:       s.loading,
		AuthLoading:   s.authLoading,
	}
	if s.user != nil {
		u := *s.user
		state.User = &u
	}
	return state
}

// begin claims the in-flight slot for a login or registration and returns
// the logout generation it started in.
func (s *Store) begin() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading {
		return 0, ErrNotHydrated
	}
	if s.authLoading {
		return 0, ErrOperationInProgress
	}
	s.authLoading = true
	return s.generation, nil
}

func (s *Store) end() {
	s.mu.Lock()
	s.authLoading = false
	s.mu.Unlock()
}

// persist writes the session keys, removing all of them if any write fails.
// Nothing is written when a Logout happened after generation was taken.
func (s *Store) persist(ctx context.Context, user *users.User, generation uint64) error {
	blob, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "[persist] encode user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation {
		return errLoggedOutDuringLogin
	}

	writes := []struct{ key, value string }{
		{storage.KeyIsAuthenticated, authenticatedFlag},
		{storage.KeyUserInfo, string(blob)},
		{storage.KeyToken, user.Token},
	}
	for _, w := range writes {
		if err := s.storage.Set(ctx, w.key, w.value); err != nil {
			s.clearStorage(ctx)
			return errors.Wrapf(err, "[persist] write %s", w.key)
		}
	}

	if err := s.storage.Remove(ctx, storage.KeyRedirectPath); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear redirect path")
	}

	u := *user
	s.authenticated = true
	s.user = &u
	return nil
}

// clearStorage removes every session key. Callers hold s.mu.
func (s *Store) clearStorage(ctx context.Context) {
	for _, key := range storage.SessionKeys {
		if err := s.storage.Remove(ctx, key); err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("Failed to remove session key")
		}
	}
}

func unexpected(op string, err error) error {
	return fmt.Errorf("[%s] %w: %w", op, ErrUnexpectedOperation, err)
}
