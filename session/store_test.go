package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	autherrors "github.com/jrsteele09/go-journal-auth/internal/errors"
	"github.com/jrsteele09/go-journal-auth/session"
	"github.com/jrsteele09/go-journal-auth/storage"
	"github.com/jrsteele09/go-journal-auth/users"
	"github.com/jrsteele09/go-journal-auth/users/localdir"
)

const (
	testPhone  = "13912345678"
	testSecret = "123456"
)

// testFixture holds all test dependencies
type testFixture struct {
	storage   *storage.Memory
	directory *localdir.Directory
	store     *session.Store
}

// setupTestFixture creates a hydrated store over empty memory storage with one enrolled user
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	issuer, err := localdir.NewTokenIssuer([]byte("0123456789abcdef0123456789abcdef"), "test", time.Hour)
	require.NoError(t, err)
	dir, err := localdir.New(issuer)
	require.NoError(t, err)
	require.NoError(t, dir.Enroll(context.Background(), testPhone, testSecret))

	f := &testFixture{storage: storage.NewMemory(), directory: dir}
	f.store = f.newStore(t, f.storage)
	require.NoError(t, f.store.Hydrate(context.Background()))
	return f
}

func (f *testFixture) newStore(t *testing.T, s storage.Storage) *session.Store {
	t.Helper()
	store, err := session.New(s, f.directory)
	require.NoError(t, err)
	return store
}

func (f *testFixture) get(t *testing.T, key string) (string, bool) {
	t.Helper()
	value, ok, err := f.storage.Get(context.Background(), key)
	require.NoError(t, err)
	return value, ok
}

// blockingDirectory holds Verify/Enroll until release is closed
type blockingDirectory struct {
	entered chan struct{}
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func newBlockingDirectory() *blockingDirectory {
	return &blockingDirectory{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (d *blockingDirectory) Verify(_ context.Context, identifier, _ string) (*users.User, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	d.entered <- struct{}{}
	<-d.release
	return &users.User{Phone: identifier, DisplayName: "Blocked", Token: "token-" + identifier}, nil
}

func (d *blockingDirectory) Enroll(context.Context, string, string) error {
	d.entered <- struct{}{}
	<-d.release
	return nil
}

// errorDirectory fails every call with err
type errorDirectory struct{ err error }

func (d errorDirectory) Verify(context.Context, string, string) (*users.User, error) {
	return nil, d.err
}

func (d errorDirectory) Enroll(context.Context, string, string) error {
	return d.err
}

// failingStorage fails Set for one key
type failingStorage struct {
	*storage.Memory
	failKey string
}

func (s *failingStorage) Set(ctx context.Context, key, value string) error {
	if key == s.failKey {
		return errors.New("disk full")
	}
	return s.Memory.Set(ctx, key, value)
}

// brokenStorage fails every Get
type brokenStorage struct{ *storage.Memory }

func (brokenStorage) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage offline")
}

func TestNew_Validation(t *testing.T) {
	_, err := session.New(nil, errorDirectory{})
	require.Error(t, err)

	_, err = session.New(storage.NewMemory(), nil)
	require.Error(t, err)
}

func TestNew_StartsLoading(t *testing.T) {
	store, err := session.New(storage.NewMemory(), errorDirectory{})
	require.NoError(t, err)

	state := store.State()
	require.True(t, state.Loading)
	require.False(t, state.Authenticated)
	require.Nil(t, state.User)
}

func TestHydrate_Empty(t *testing.T) {
	f := setupTestFixture(t)

	state := f.store.State()
	require.False(t, state.Loading)
	require.False(t, state.Authenticated)
	require.Nil(t, state.User)
}

func TestHydrate_Authenticated(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.storage.Set(ctx, storage.KeyIsAuthenticated, "true"))
	require.NoError(t, f.storage.Set(ctx, storage.KeyUserInfo, `{"phone":"13800138000","name":"Test User","token":"abc"}`))

	store := f.newStore(t, f.storage)
	require.NoError(t, store.Hydrate(ctx))

	state := store.State()
	require.True(t, state.Authenticated)
	require.Equal(t, &users.User{Phone: "13800138000", DisplayName: "Test User", Token: "abc"}, state.User)
	require.False(t, state.Loading)
}

func TestHydrate_FlagOtherThanTrue(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.storage.Set(ctx, storage.KeyIsAuthenticated, "yes"))
	require.NoError(t, f.storage.Set(ctx, storage.KeyUserInfo, `{"phone":"13800138000","name":"Test User"}`))

	store := f.newStore(t, f.storage)
	require.NoError(t, store.Hydrate(ctx))

	state := store.State()
	require.False(t, state.Authenticated)
	require.Nil(t, state.User, "user is only read when the flag is set")
}

func TestHydrate_MalformedUserInfo(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.storage.Set(ctx, storage.KeyIsAuthenticated, "true"))
	require.NoError(t, f.storage.Set(ctx, storage.KeyUserInfo, `{not json`))

	store := f.newStore(t, f.storage)
	require.NoError(t, store.Hydrate(ctx))

	state := store.State()
	require.True(t, state.Authenticated, "flag stays authoritative")
	require.Nil(t, state.User)
	require.False(t, state.Loading)
}

func TestHydrate_RunsOnce(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.storage.Set(ctx, storage.KeyIsAuthenticated, "true"))
	require.NoError(t, f.store.Hydrate(ctx))

	require.False(t, f.store.State().Authenticated, "second hydrate must not re-read storage")
}

func TestHydrate_StorageError(t *testing.T) {
	store, err := session.New(brokenStorage{storage.NewMemory()}, errorDirectory{})
	require.NoError(t, err)

	require.Error(t, store.Hydrate(context.Background()))
	require.True(t, store.State().Loading)

	_, err = store.Login(context.Background(), testPhone, testSecret)
	require.ErrorIs(t, err, session.ErrNotHydrated)
}

func TestLogin_BeforeHydrate(t *testing.T) {
	f := setupTestFixture(t)
	store := f.newStore(t, storage.NewMemory())

	_, err := store.Login(context.Background(), testPhone, testSecret)
	require.ErrorIs(t, err, session.ErrNotHydrated)

	_, err = store.Register(context.Background(), testPhone, testSecret)
	require.ErrorIs(t, err, session.ErrNotHydrated)
}

func TestLogin_Success(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SaveRedirect(ctx, "/journal/today"))

	user, err := f.store.Login(ctx, testPhone, testSecret)
	require.NoError(t, err)
	require.Equal(t, testPhone, user.Phone)
	require.Equal(t, "User 5678", user.DisplayName)
	require.NotEmpty(t, user.Token)

	state := f.store.State()
	require.True(t, state.Authenticated)
	require.Equal(t, user, state.User)
	require.False(t, state.AuthLoading)

	flag, ok := f.get(t, storage.KeyIsAuthenticated)
	require.True(t, ok)
	require.Equal(t, "true", flag)

	token, ok := f.get(t, storage.KeyToken)
	require.True(t, ok)
	require.Equal(t, user.Token, token)

	blob, ok := f.get(t, storage.KeyUserInfo)
	require.True(t, ok)
	var stored users.User
	require.NoError(t, json.Unmarshal([]byte(blob), &stored))
	require.Equal(t, *user, stored)

	_, ok = f.get(t, storage.KeyRedirectPath)
	require.False(t, ok, "login clears the pending redirect")
}

func TestLogin_RoundTripThroughReload(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	user, err := f.store.Login(ctx, testPhone, testSecret)
	require.NoError(t, err)

	reloaded := f.newStore(t, f.storage)
	require.NoError(t, reloaded.Hydrate(ctx))

	state := reloaded.State()
	require.True(t, state.Authenticated)
	require.Equal(t, user, state.User)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.store.Login(ctx, testPhone, "wrong-secret")
	require.ErrorIs(t, err, session.ErrInvalidCredentials)

	state := f.store.State()
	require.False(t, state.Authenticated)
	require.False(t, state.AuthLoading, "loading indicator resets on failure")
	require.Equal(t, 0, f.storage.Len())
}

func TestLogin_UnexpectedDirectoryError(t *testing.T) {
	cause := errors.New("provider exploded")
	store, err := session.New(storage.NewMemory(), errorDirectory{err: cause})
	require.NoError(t, err)
	require.NoError(t, store.Hydrate(context.Background()))

	_, err = store.Login(context.Background(), testPhone, testSecret)
	require.ErrorIs(t, err, session.ErrUnexpectedOperation)
	require.ErrorIs(t, err, cause)
	require.False(t, store.State().AuthLoading)

	// The store is usable again after the failure
	_, err = store.Login(context.Background(), testPhone, testSecret)
	require.ErrorIs(t, err, session.ErrUnexpectedOperation)
}

func TestLogin_PartialWriteLeavesNoSession(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	backend := &failingStorage{Memory: storage.NewMemory(), failKey: storage.KeyToken}
	store := f.newStore(t, backend)
	require.NoError(t, store.Hydrate(ctx))

	_, err := store.Login(ctx, testPhone, testSecret)
	require.ErrorIs(t, err, session.ErrUnexpectedOperation)

	require.Equal(t, 0, backend.Len(), "no partial session state may persist")
	state := store.State()
	require.False(t, state.Authenticated)
	require.Nil(t, state.User)
	require.False(t, state.AuthLoading)
}

func TestLogin_ConcurrentCallRejected(t *testing.T) {
	dir := newBlockingDirectory()
	backend := storage.NewMemory()
	store, err := session.New(backend, dir)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Hydrate(ctx))

	type result struct {
		user *users.User
		err  error
	}
	done := make(chan result, 1)
	go func() {
		u, err := store.Login(ctx, testPhone, testSecret)
		done <- result{u, err}
	}()

	<-dir.entered
	require.True(t, store.State().AuthLoading)

	_, err = store.Login(ctx, "13000000000", "other-secret")
	require.ErrorIs(t, err, session.ErrOperationInProgress)

	_, err = store.Register(ctx, "13000000000", "other-secret")
	require.ErrorIs(t, err, session.ErrOperationInProgress)

	close(dir.release)
	first := <-done
	require.NoError(t, first.err)
	require.Equal(t, testPhone, first.user.Phone)

	dir.mu.Lock()
	require.Equal(t, 1, dir.calls, "rejected call never reaches the directory")
	dir.mu.Unlock()

	blob, ok, err := backend.Get(ctx, storage.KeyUserInfo)
	require.NoError(t, err)
	require.True(t, ok)
	var stored users.User
	require.NoError(t, json.Unmarshal([]byte(blob), &stored))
	require.Equal(t, testPhone, stored.Phone, "persisted state belongs to the first call only")
	require.False(t, store.State().AuthLoading)
}

func TestLogin_LogoutWhileInFlightWins(t *testing.T) {
	dir := newBlockingDirectory()
	backend := storage.NewMemory()
	store, err := session.New(backend, dir)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Hydrate(ctx))

	done := make(chan error, 1)
	go func() {
		_, err := store.Login(ctx, testPhone, testSecret)
		done <- err
	}()

	<-dir.entered
	store.Logout(ctx)
	close(dir.release)

	require.ErrorIs(t, <-done, session.ErrUnexpectedOperation)

	state := store.State()
	require.False(t, state.Authenticated, "logout must not be undone by the pending login")
	require.Nil(t, state.User)
	require.False(t, state.AuthLoading)

	_, ok, err := backend.Get(ctx, storage.KeyIsAuthenticated)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, backend.Len())

	// A login started after the logout persists normally
	_, err = store.Login(ctx, testPhone, testSecret)
	require.NoError(t, err)
	require.True(t, store.State().Authenticated)
}

func TestLogout_Idempotent(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.store.Login(ctx, testPhone, testSecret)
	require.NoError(t, err)

	f.store.Logout(ctx)
	first := f.store.State()
	firstLen := f.storage.Len()

	f.store.Logout(ctx)
	second := f.store.State()

	assert.Equal(t, first, second)
	assert.False(t, second.Authenticated)
	assert.Nil(t, second.User)
	assert.Equal(t, 0, firstLen)
	assert.Equal(t, 0, f.storage.Len())
}

func TestLogout_KeepsRedirectPath(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.SaveRedirect(ctx, "/consent-form"))
	f.store.Logout(ctx)

	path, err := f.store.PendingRedirect(ctx)
	require.NoError(t, err)
	require.Equal(t, "/consent-form", path)
}

func TestLogout_ReloadIsUnauthenticated(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.store.Login(ctx, testPhone, testSecret)
	require.NoError(t, err)
	f.store.Logout(ctx)

	reloaded := f.newStore(t, f.storage)
	require.NoError(t, reloaded.Hydrate(ctx))
	require.False(t, reloaded.State().Authenticated)
}

func TestRegister_Boundary(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.store.Register(ctx, "1234567890", "12345")
	require.ErrorIs(t, err, session.ErrInvalidRegistrationData)

	result, err := f.store.Register(ctx, "1234567890", "123456")
	require.NoError(t, err)
	require.True(t, result.Success)
}

func TestRegister_MissingFields(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.store.Register(ctx, "", "123456")
	require.ErrorIs(t, err, session.ErrInvalidRegistrationData)

	_, err = f.store.Register(ctx, "1234567890", "")
	require.ErrorIs(t, err, session.ErrInvalidRegistrationData)
	require.False(t, f.store.State().AuthLoading)
}

func TestRegister_DoesNotCreateSession(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.store.Register(ctx, "13700000000", "abcdef")
	require.NoError(t, err)

	require.False(t, f.store.State().Authenticated)
	require.Equal(t, 0, f.storage.Len())

	// The enrolled identity can now log in
	user, err := f.store.Login(ctx, "13700000000", "abcdef")
	require.NoError(t, err)
	require.Equal(t, "13700000000", user.Phone)
}

func TestRegister_Duplicate(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.store.Register(context.Background(), testPhone, testSecret)
	require.ErrorIs(t, err, session.ErrInvalidRegistrationData)
}

func TestRegister_UnsupportedDirectory(t *testing.T) {
	store, err := session.New(storage.NewMemory(), errorDirectory{err: autherrors.ErrUnsupported})
	require.NoError(t, err)
	require.NoError(t, store.Hydrate(context.Background()))

	_, err = store.Register(context.Background(), testPhone, testSecret)
	require.ErrorIs(t, err, session.ErrUnexpectedOperation)
	require.ErrorIs(t, err, autherrors.ErrUnsupported)
}

func TestState_ReturnsCopy(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.store.Login(context.Background(), testPhone, testSecret)
	require.NoError(t, err)

	state := f.store.State()
	state.User.DisplayName = "mutated"

	require.Equal(t, "User 5678", f.store.State().User.DisplayName)
}

func TestPendingRedirect_Empty(t *testing.T) {
	f := setupTestFixture(t)

	path, err := f.store.PendingRedirect(context.Background())
	require.NoError(t, err)
	require.Empty(t, path)
}
