// Package session implements the per-namespace session stores. One generic
// Store is instantiated twice, once for the admin portal and once for the
// client/writer portal, each with its own provider client, allowed-role set
// and persisted-storage key. The two instances share no mutable state.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"scribemarket/api/internal/models"
	"scribemarket/api/internal/provider"
	"scribemarket/api/internal/validate"
)

// Storage keys carried over from the original deployment so existing
// persisted grants keep working.
const (
	AdminStorageKey = "academic_writing_admin_auth"
	UserStorageKey  = "academic_writing_user_auth"
)

// Config fixes a store to one role namespace.
type Config struct {
	Namespace     string
	Allowed       []models.Role
	StorageKey    string
	LoginPath     string
	ResetRedirect string
}

func AdminConfig() Config {
	return Config{
		Namespace:     "admin",
		Allowed:       []models.Role{models.RoleAdmin},
		StorageKey:    AdminStorageKey,
		LoginPath:     "/admin/login",
		ResetRedirect: "/admin/reset-password",
	}
}

func UserConfig() Config {
	return Config{
		Namespace:     "user",
		Allowed:       []models.Role{models.RoleClient, models.RoleWriter},
		StorageKey:    UserStorageKey,
		LoginPath:     "/login",
		ResetRedirect: "/reset-password",
	}
}

// Store owns at most one authenticated identity for its namespace.
type Store struct {
	cfg      Config
	provider provider.Client
	tokens   TokenStore
	notify   Notifier
	log      zerolog.Logger

	mu       sync.RWMutex
	identity *models.Identity
	token    provider.Token
	loading  bool

	stop chan struct{}
	done chan struct{}
}

func NewStore(cfg Config, client provider.Client, tokens TokenStore, notify Notifier, log zerolog.Logger) *Store {
	return &Store{
		cfg:      cfg,
		provider: client,
		tokens:   tokens,
		notify:   notify,
		log:      log.With().Str("namespace", cfg.Namespace).Logger(),
		loading:  true,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Store) Config() Config { return s.cfg }

// Identity returns the current authenticated principal, or nil.
func (s *Store) Identity() *models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	copied := *s.identity
	return &copied
}

// Loading reports whether the startup restore is still in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Start restores any persisted session and then consumes the provider's
// auth-state stream until Close. Restore errors leave the store logged out;
// they are notified but not returned.
func (s *Store) Start(ctx context.Context) {
	if err := s.restore(ctx); err != nil {
		s.log.Warn().Err(err).Msg("session restore failed")
	}
	go s.consumeEvents()
}

// Close stops event consumption. The provider client is closed by its owner.
func (s *Store) Close() {
	close(s.stop)
	<-s.done
}

type SignUpParams struct {
	Email    string
	Password string
	Role     models.Role
	FullName string
}

// SignUp registers a new account in this namespace. No session is
// established: the account must be verified by email first, so Identity
// stays untouched on success.
func (s *Store) SignUp(ctx context.Context, params SignUpParams) error {
	// The admin portal registers admins only; the role field is implied.
	if len(s.cfg.Allowed) == 1 {
		params.Role = s.cfg.Allowed[0]
	}

	if result := validate.Email(params.Email); !result.OK {
		return s.fail(&ValidationError{Message: result.Message})
	}
	if result := validate.Password(params.Password); !result.OK {
		return s.fail(&ValidationError{Message: result.Message})
	}
	if params.FullName == "" {
		return s.fail(&ValidationError{Message: "Full name is required"})
	}
	if !s.roleAllowed(params.Role) {
		return s.fail(&ValidationError{Message: "Invalid user role"})
	}

	_, err := s.provider.SignUp(ctx, provider.SignUpInput{
		Email:    params.Email,
		Password: params.Password,
		Role:     params.Role,
		FullName: params.FullName,
	})
	if err != nil {
		if errors.Is(err, provider.ErrDuplicateEmail) {
			return s.fail(&RegistrationError{
				Message: "This email is already registered. Please sign in.",
				Cause:   err,
			})
		}
		return s.fail(&RegistrationError{
			Message: "Registration failed. Please try again.",
			Cause:   err,
		})
	}

	s.notify.Success("Account created successfully! Please check your email to verify your account.")
	return nil
}

// SignIn authenticates against the provider and, when the resolved role
// belongs to this namespace, establishes the store's Identity. A sign-in
// that resolves to a foreign role is immediately signed out again.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	if result := validate.Email(email); !result.OK {
		return s.fail(&ValidationError{Message: result.Message})
	}
	if password == "" {
		return s.fail(&ValidationError{Message: "Password is required"})
	}

	grant, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, provider.ErrInvalidCredentials):
			return s.fail(&AuthenticationError{
				Message: "Invalid email or password. Please try again.",
				Cause:   err,
			})
		case errors.Is(err, provider.ErrEmailNotConfirmed):
			return s.fail(&AuthenticationError{
				Message: "Please verify your email address before signing in.",
				Cause:   err,
			})
		default:
			return s.fail(&AuthenticationError{Message: err.Error(), Cause: err})
		}
	}

	if !s.roleAllowed(grant.User.Role) {
		if err := s.provider.SignOut(ctx, grant.Token); err != nil {
			s.log.Warn().Err(err).Msg("sign-out after role mismatch failed")
		}
		return s.fail(&UnauthorizedRoleError{
			Message: "Invalid user role. Please use the correct login page.",
		})
	}

	s.setSession(grant)
	if err := s.tokens.Save(ctx, s.cfg.StorageKey, grant.Token); err != nil {
		s.log.Warn().Err(err).Msg("persist session token failed")
	}

	s.notify.Success("Successfully signed in!")
	return nil
}

// SignOut clears the store's Identity regardless of the provider outcome so
// the caller is never stuck looking authenticated.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	providerErr := s.provider.SignOut(ctx, token)

	s.clearSession()
	if err := s.tokens.Clear(ctx, s.cfg.StorageKey); err != nil {
		s.log.Warn().Err(err).Msg("clear persisted token failed")
	}

	if providerErr != nil {
		return s.fail(&SignOutError{
			Message: "Sign out did not complete cleanly.",
			Cause:   providerErr,
		})
	}

	s.notify.Success("Successfully signed out!")
	return nil
}

// ResetPassword requests a reset email with a redirect into this namespace.
func (s *Store) ResetPassword(ctx context.Context, email string) error {
	if result := validate.Email(email); !result.OK {
		return s.fail(&ValidationError{Message: result.Message})
	}

	if err := s.provider.ResetPasswordForEmail(ctx, email, s.cfg.ResetRedirect); err != nil {
		s.notify.Error(err.Error())
		return err
	}

	s.notify.Success("Password reset instructions have been sent to your email.")
	return nil
}

// restore replays a persisted token into the provider. Success is silent;
// failures notify and leave the store logged out. Loading flips to false
// either way.
func (s *Store) restore(ctx context.Context) error {
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	token, found, err := s.tokens.Load(ctx, s.cfg.StorageKey)
	if err != nil {
		restoreErr := &SessionRestoreError{Message: "Could not restore your session.", Cause: err}
		s.notify.Error(restoreErr.Message)
		return restoreErr
	}
	if !found {
		return nil
	}

	grant, err := s.provider.GetSession(ctx, token)
	if err != nil {
		_ = s.tokens.Clear(ctx, s.cfg.StorageKey)
		if errors.Is(err, provider.ErrSessionNotFound) {
			return nil
		}
		restoreErr := &SessionRestoreError{Message: "Your session has expired. Please sign in again.", Cause: err}
		s.notify.Error(restoreErr.Message)
		return restoreErr
	}

	// A persisted grant from the wrong namespace is ignored, not adopted.
	if !s.roleAllowed(grant.User.Role) {
		return nil
	}

	s.setSession(grant)
	if grant.Token != token {
		if err := s.tokens.Save(ctx, s.cfg.StorageKey, grant.Token); err != nil {
			s.log.Warn().Err(err).Msg("persist refreshed token failed")
		}
	}
	return nil
}

// consumeEvents applies provider auth-state changes in delivery order for
// the lifetime of the store.
func (s *Store) consumeEvents() {
	defer close(s.done)
	events := s.provider.Events()
	for {
		select {
		case <-s.stop:
			return
		case change, ok := <-events:
			if !ok {
				return
			}
			s.applyChange(change)
		}
	}
}

func (s *Store) applyChange(change provider.StateChange) {
	if change.Session != nil && s.roleAllowed(change.Session.User.Role) {
		if change.Event == provider.EventTokenRefreshed {
			s.log.Debug().Msg("token refreshed")
		}
		s.setSession(change.Session)
		if err := s.tokens.Save(context.Background(), s.cfg.StorageKey, change.Session.Token); err != nil {
			s.log.Warn().Err(err).Msg("persist refreshed token failed")
		}
		return
	}
	s.clearSession()
}

func (s *Store) roleAllowed(role models.Role) bool {
	return slices.Contains(s.cfg.Allowed, role)
}

func (s *Store) setSession(grant *provider.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity := grant.User
	s.identity = &identity
	s.token = grant.Token
}

func (s *Store) clearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
	s.token = provider.Token{}
}

// fail notifies the user-safe message and returns the typed error to the
// caller for inline form feedback.
func (s *Store) fail(err error) error {
	s.notify.Error(err.Error())
	return err
}
