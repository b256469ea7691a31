package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribemarket/api/internal/models"
	"scribemarket/api/internal/provider"
)

type fakeProvider struct {
	mu sync.Mutex

	signInSession *provider.Session
	signInErr     error
	signUpErr     error
	signOutErr    error
	getSession    *provider.Session
	getSessionErr error

	signOutCalls int
	resetEmails  []string
	resetTargets []string

	emitter *provider.EventEmitter
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{emitter: provider.NewEventEmitter()}
}

func (f *fakeProvider) GetSession(ctx context.Context, token provider.Token) (*provider.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getSessionErr != nil {
		return nil, f.getSessionErr
	}
	if f.getSession == nil {
		return nil, provider.ErrSessionNotFound
	}
	return f.getSession, nil
}

func (f *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) (*provider.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.signInSession, nil
}

func (f *fakeProvider) SignUp(ctx context.Context, input provider.SignUpInput) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &models.Identity{ID: "acc-1", Email: input.Email, Role: input.Role, FullName: input.FullName}, nil
}

func (f *fakeProvider) SignOut(ctx context.Context, token provider.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls++
	return f.signOutErr
}

func (f *fakeProvider) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetEmails = append(f.resetEmails, email)
	f.resetTargets = append(f.resetTargets, redirectTo)
	return nil
}

func (f *fakeProvider) Events() <-chan provider.StateChange { return f.emitter.Events() }
func (f *fakeProvider) Close() error                        { f.emitter.Close(); return nil }

func (f *fakeProvider) signOuts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signOutCalls
}

func (f *fakeProvider) setSignOutErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutErr = err
}

type memTokens struct {
	mu     sync.Mutex
	tokens map[string]provider.Token
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: make(map[string]provider.Token)}
}

func (m *memTokens) Load(ctx context.Context, key string) (provider.Token, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[key]
	return token, ok, nil
}

func (m *memTokens) Save(ctx context.Context, key string, token provider.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key] = token
	return nil
}

func (m *memTokens) Clear(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, key)
	return nil
}

func grantFor(role models.Role) *provider.Session {
	return &provider.Session{
		Token: provider.Token{AccessToken: "access-" + string(role), RefreshToken: "refresh"},
		User: models.Identity{
			ID:       "user-" + string(role),
			Email:    string(role) + "@example.com",
			Role:     role,
			FullName: "Test " + string(role),
		},
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func startStore(t *testing.T, cfg Config, fake *fakeProvider) (*Store, *memTokens, *MemoryNotifier) {
	t.Helper()
	tokens := newMemTokens()
	notify := &MemoryNotifier{}
	store := NewStore(cfg, fake, tokens, notify, zerolog.Nop())
	store.Start(context.Background())
	t.Cleanup(store.Close)
	return store, tokens, notify
}

func TestSignInSuccess(t *testing.T) {
	fake := newFakeProvider()
	fake.signInSession = grantFor(models.RoleClient)
	store, tokens, notify := startStore(t, UserConfig(), fake)

	err := store.SignIn(context.Background(), "client@example.com", "whatever")
	require.NoError(t, err)

	identity := store.Identity()
	require.NotNil(t, identity)
	assert.Equal(t, models.RoleClient, identity.Role)

	_, persisted, _ := tokens.Load(context.Background(), UserStorageKey)
	assert.True(t, persisted)

	success, _ := notify.Last()
	assert.Equal(t, "Successfully signed in!", success)
	assert.Empty(t, notify.Errors)
}

func TestSignInAdminAtUserStoreRejected(t *testing.T) {
	fake := newFakeProvider()
	fake.signInSession = grantFor(models.RoleAdmin)
	store, tokens, notify := startStore(t, UserConfig(), fake)

	err := store.SignIn(context.Background(), "admin@example.com", "AdminPass1!")

	var roleErr *UnauthorizedRoleError
	require.ErrorAs(t, err, &roleErr)
	assert.Nil(t, store.Identity())
	assert.Equal(t, 1, fake.signOuts(), "store must sign the foreign grant out immediately")

	_, persisted, _ := tokens.Load(context.Background(), UserStorageKey)
	assert.False(t, persisted)

	_, failure := notify.Last()
	assert.Equal(t, "Invalid user role. Please use the correct login page.", failure)
}

func TestSignInNonAdminAtAdminStoreRejected(t *testing.T) {
	fake := newFakeProvider()
	fake.signInSession = grantFor(models.RoleWriter)
	store, _, _ := startStore(t, AdminConfig(), fake)

	err := store.SignIn(context.Background(), "writer@example.com", "WriterPass1!")

	var roleErr *UnauthorizedRoleError
	require.ErrorAs(t, err, &roleErr)
	assert.Nil(t, store.Identity())
}

func TestSignInInvalidCredentials(t *testing.T) {
	fake := newFakeProvider()
	fake.signInErr = provider.ErrInvalidCredentials
	store, _, notify := startStore(t, UserConfig(), fake)

	err := store.SignIn(context.Background(), "a@b.com", "wrong")

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid email or password. Please try again.", authErr.Message)
	assert.Nil(t, store.Identity())

	_, failure := notify.Last()
	assert.Equal(t, authErr.Message, failure)
}

func TestSignInValidation(t *testing.T) {
	fake := newFakeProvider()
	store, _, _ := startStore(t, UserConfig(), fake)

	var valErr *ValidationError
	err := store.SignIn(context.Background(), "not-an-email", "pass")
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "Please enter a valid email address", valErr.Message)

	err = store.SignIn(context.Background(), "a@b.com", "")
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "Password is required", valErr.Message)
}

func TestSignUpSuccessLeavesIdentityNil(t *testing.T) {
	fake := newFakeProvider()
	store, _, notify := startStore(t, UserConfig(), fake)

	err := store.SignUp(context.Background(), SignUpParams{
		Email:    "a@b.com",
		Password: "Abcdef1!",
		Role:     models.RoleClient,
		FullName: "Ada Lovelace",
	})
	require.NoError(t, err)
	assert.Nil(t, store.Identity(), "registration must not establish a session")

	success, _ := notify.Last()
	assert.Equal(t, "Account created successfully! Please check your email to verify your account.", success)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	fake := newFakeProvider()
	fake.signUpErr = provider.ErrDuplicateEmail
	store, _, _ := startStore(t, UserConfig(), fake)

	err := store.SignUp(context.Background(), SignUpParams{
		Email:    "a@b.com",
		Password: "Abcdef1!",
		Role:     models.RoleWriter,
		FullName: "Ada Lovelace",
	})

	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "This email is already registered. Please sign in.", regErr.Message)
}

func TestSignUpRejectsForeignRole(t *testing.T) {
	fake := newFakeProvider()
	store, _, _ := startStore(t, UserConfig(), fake)

	err := store.SignUp(context.Background(), SignUpParams{
		Email:    "a@b.com",
		Password: "Abcdef1!",
		Role:     models.RoleAdmin,
		FullName: "Ada Lovelace",
	})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "Invalid user role", valErr.Message)
}

func TestSignUpAdminStoreImpliesAdminRole(t *testing.T) {
	fake := newFakeProvider()
	store, _, _ := startStore(t, AdminConfig(), fake)

	// Role field is ignored; the admin namespace registers admins only.
	err := store.SignUp(context.Background(), SignUpParams{
		Email:    "boss@b.com",
		Password: "Abcdef1!",
		FullName: "The Boss",
	})
	require.NoError(t, err)
}

func TestSignOutClearsIdentityEvenOnProviderFailure(t *testing.T) {
	fake := newFakeProvider()
	fake.signInSession = grantFor(models.RoleWriter)
	store, tokens, _ := startStore(t, UserConfig(), fake)

	require.NoError(t, store.SignIn(context.Background(), "writer@example.com", "WriterPass1!"))
	require.NotNil(t, store.Identity())

	fake.setSignOutErr(errors.New("provider unavailable"))
	err := store.SignOut(context.Background())

	var outErr *SignOutError
	require.ErrorAs(t, err, &outErr)
	assert.Nil(t, store.Identity(), "local state must clear regardless of provider outcome")

	_, persisted, _ := tokens.Load(context.Background(), UserStorageKey)
	assert.False(t, persisted)
}

func TestRestoreSilentOnSuccess(t *testing.T) {
	fake := newFakeProvider()
	fake.getSession = grantFor(models.RoleClient)

	tokens := newMemTokens()
	require.NoError(t, tokens.Save(context.Background(), UserStorageKey, provider.Token{AccessToken: "persisted"}))

	notify := &MemoryNotifier{}
	store := NewStore(UserConfig(), fake, tokens, notify, zerolog.Nop())
	assert.True(t, store.Loading())

	store.Start(context.Background())
	defer store.Close()

	assert.False(t, store.Loading())
	require.NotNil(t, store.Identity())
	assert.Empty(t, notify.Successes)
	assert.Empty(t, notify.Errors)
}

func TestRestoreIgnoresForeignNamespaceGrant(t *testing.T) {
	fake := newFakeProvider()
	fake.getSession = grantFor(models.RoleAdmin)

	tokens := newMemTokens()
	require.NoError(t, tokens.Save(context.Background(), UserStorageKey, provider.Token{AccessToken: "persisted"}))

	store := NewStore(UserConfig(), fake, tokens, &MemoryNotifier{}, zerolog.Nop())
	store.Start(context.Background())
	defer store.Close()

	assert.False(t, store.Loading())
	assert.Nil(t, store.Identity())
}

func TestRestoreExpiredSessionTreatedAsLoggedOut(t *testing.T) {
	fake := newFakeProvider()
	fake.getSessionErr = provider.ErrSessionNotFound

	tokens := newMemTokens()
	require.NoError(t, tokens.Save(context.Background(), UserStorageKey, provider.Token{AccessToken: "stale"}))

	store := NewStore(UserConfig(), fake, tokens, &MemoryNotifier{}, zerolog.Nop())
	store.Start(context.Background())
	defer store.Close()

	assert.False(t, store.Loading())
	assert.Nil(t, store.Identity())

	_, persisted, _ := tokens.Load(context.Background(), UserStorageKey)
	assert.False(t, persisted, "stale token must be cleared")
}

func TestAuthStateChangesApplied(t *testing.T) {
	fake := newFakeProvider()
	store, _, _ := startStore(t, UserConfig(), fake)

	fake.emitter.Emit(provider.EventSignedIn, grantFor(models.RoleClient))
	require.Eventually(t, func() bool {
		return store.Identity() != nil
	}, time.Second, 5*time.Millisecond)

	fake.emitter.Emit(provider.EventSignedOut, nil)
	require.Eventually(t, func() bool {
		return store.Identity() == nil
	}, time.Second, 5*time.Millisecond)
}

func TestResetPasswordRedirectScopedToNamespace(t *testing.T) {
	adminFake := newFakeProvider()
	adminStore, _, _ := startStore(t, AdminConfig(), adminFake)
	require.NoError(t, adminStore.ResetPassword(context.Background(), "boss@b.com"))
	assert.Equal(t, []string{"/admin/reset-password"}, adminFake.resetTargets)

	userFake := newFakeProvider()
	userStore, _, notify := startStore(t, UserConfig(), userFake)
	require.NoError(t, userStore.ResetPassword(context.Background(), "a@b.com"))
	assert.Equal(t, []string{"/reset-password"}, userFake.resetTargets)

	success, _ := notify.Last()
	assert.Equal(t, "Password reset instructions have been sent to your email.", success)
}

func TestRedisTokenStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisTokenStore(client)
	ctx := context.Background()

	_, found, err := store.Load(ctx, AdminStorageKey)
	require.NoError(t, err)
	assert.False(t, found)

	token := provider.Token{AccessToken: "access", RefreshToken: "refresh"}
	require.NoError(t, store.Save(ctx, AdminStorageKey, token))

	loaded, found, err := store.Load(ctx, AdminStorageKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, token, loaded)

	// Namespaces use distinct keys and never overwrite one another.
	_, found, err = store.Load(ctx, UserStorageKey)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Clear(ctx, AdminStorageKey))
	_, found, err = store.Load(ctx, AdminStorageKey)
	require.NoError(t, err)
	assert.False(t, found)
}
