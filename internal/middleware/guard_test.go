package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribemarket/api/internal/guard"
	"scribemarket/api/internal/models"
	"scribemarket/api/internal/provider"
	"scribemarket/api/internal/session"
)

// stubProvider holds one canned sign-in result; enough to drive a store
// through the states the guard cares about.
type stubProvider struct {
	grant   *provider.Session
	emitter *provider.EventEmitter
}

func newStubProvider(grant *provider.Session) *stubProvider {
	return &stubProvider{grant: grant, emitter: provider.NewEventEmitter()}
}

func (p *stubProvider) GetSession(ctx context.Context, token provider.Token) (*provider.Session, error) {
	if p.grant == nil {
		return nil, provider.ErrSessionNotFound
	}
	return p.grant, nil
}

func (p *stubProvider) SignInWithPassword(ctx context.Context, email, password string) (*provider.Session, error) {
	if p.grant == nil {
		return nil, provider.ErrInvalidCredentials
	}
	return p.grant, nil
}

func (p *stubProvider) SignUp(ctx context.Context, input provider.SignUpInput) (*models.Identity, error) {
	return nil, provider.ErrDuplicateEmail
}

func (p *stubProvider) SignOut(ctx context.Context, token provider.Token) error { return nil }

func (p *stubProvider) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	return nil
}

func (p *stubProvider) Events() <-chan provider.StateChange { return p.emitter.Events() }
func (p *stubProvider) Close() error                        { p.emitter.Close(); return nil }

type nopTokens struct{}

func (nopTokens) Load(ctx context.Context, key string) (provider.Token, bool, error) {
	return provider.Token{}, false, nil
}
func (nopTokens) Save(ctx context.Context, key string, token provider.Token) error { return nil }
func (nopTokens) Clear(ctx context.Context, key string) error                      { return nil }

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

func startedStore(t *testing.T, cfg session.Config, grant *provider.Session) *session.Store {
	t.Helper()
	store := session.NewStore(cfg, newStubProvider(grant), nopTokens{}, nopNotifier{}, zerolog.Nop())
	store.Start(context.Background())
	t.Cleanup(store.Close)
	return store
}

func grantFor(role models.Role) *provider.Session {
	return &provider.Session{
		Token: provider.Token{AccessToken: "t"},
		User:  models.Identity{ID: "u1", Email: "u@example.com", Role: role},
	}
}

func serveGuarded(t *testing.T, g guard.Guard, path string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET(path, Guard(g), func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"view": "page", "role": identity.Role})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(rec, req)
	return rec
}

func TestGuardLoadingRendersPlaceholder(t *testing.T) {
	// A store that was never started keeps loading=true.
	store := session.NewStore(session.UserConfig(), newStubProvider(nil), nopTokens{}, nopNotifier{}, zerolog.Nop())

	rec := serveGuarded(t, guard.User(store), "/dashboard")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "loading")
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestGuardRedirectsUnauthenticatedWithReturnPath(t *testing.T) {
	store := startedStore(t, session.UserConfig(), nil)

	rec := serveGuarded(t, guard.User(store), "/dashboard/orders")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?from=%2Fdashboard%2Forders", rec.Header().Get("Location"))
}

func TestGuardAdminNamespaceLoginPath(t *testing.T) {
	store := startedStore(t, session.AdminConfig(), nil)

	rec := serveGuarded(t, guard.Admin(store), "/admin/reports")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/login?from=%2Fadmin%2Freports", rec.Header().Get("Location"))
}

func TestGuardWrongRoleRedirectsUnauthorized(t *testing.T) {
	store := startedStore(t, session.UserConfig(), grantFor(models.RoleClient))
	require.NoError(t, store.SignIn(context.Background(), "u@example.com", "Pass1234!"))

	rec := serveGuarded(t, guard.Writer(store), "/writer/bids")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, UnauthorizedPath, rec.Header().Get("Location"))
}

func TestGuardAuthorizedRendersView(t *testing.T) {
	store := startedStore(t, session.UserConfig(), grantFor(models.RoleWriter))
	require.NoError(t, store.SignIn(context.Background(), "u@example.com", "Pass1234!"))

	rec := serveGuarded(t, guard.Writer(store), "/writer")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "writer")
}
