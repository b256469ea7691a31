package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"scribemarket/api/internal/config"
	"scribemarket/api/internal/ids"
	"scribemarket/api/internal/models"
	"scribemarket/api/internal/provider"
	"scribemarket/api/internal/repository"
	"scribemarket/api/internal/security"
)

const resetTokenTTL = 30 * time.Minute

// AuthService is the local implementation of provider.Client, serving
// identities from this deployment's own Postgres instead of a hosted auth
// backend. Accounts start pending and must be verified before sign-in.
type AuthService struct {
	accounts *repository.AccountRepository
	sessions *repository.AuthSessionRepository
	cache    *redis.Client
	cfg      *config.AppConfig
	log      zerolog.Logger
	events   *provider.EventEmitter
}

func NewAuthService(
	accounts *repository.AccountRepository,
	sessions *repository.AuthSessionRepository,
	cache *redis.Client,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		accounts: accounts,
		sessions: sessions,
		cache:    cache,
		cfg:      cfg,
		log:      log,
		events:   provider.NewEventEmitter(),
	}
}

func (s *AuthService) SignUp(ctx context.Context, input provider.SignUpInput) (*models.Identity, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || input.Password == "" {
		return nil, fmt.Errorf("email and password required")
	}

	if _, err := s.accounts.FindByEmail(ctx, email); err == nil {
		return nil, provider.ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	account := models.Account{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     input.FullName,
		Role:         input.Role,
		Status:       models.AccountStatusPending,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.log.Info().Str("account_id", account.ID).Str("role", string(account.Role)).Msg("account registered")

	identity := account.Identity()
	return &identity, nil
}

func (s *AuthService) SignInWithPassword(ctx context.Context, email, password string) (*provider.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, provider.ErrInvalidCredentials
		}
		return nil, err
	}

	if account.Status == models.AccountStatusPending {
		return nil, provider.ErrEmailNotConfirmed
	}
	if account.Status != models.AccountStatusActive {
		return nil, provider.ErrInvalidCredentials
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil || !ok {
		return nil, provider.ErrInvalidCredentials
	}

	session, err := s.createSession(ctx, account)
	if err != nil {
		return nil, err
	}

	s.events.Emit(provider.EventSignedIn, session)
	return session, nil
}

func (s *AuthService) GetSession(ctx context.Context, token provider.Token) (*provider.Session, error) {
	claims, err := security.ParseAccessToken(token.AccessToken, s.cfg.Security.JWTAccessSecret)
	if err == nil {
		return s.sessionFromClaims(ctx, token, claims)
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		return nil, provider.ErrSessionNotFound
	}
	if token.RefreshToken == "" {
		return nil, provider.ErrSessionNotFound
	}

	session, err := s.refresh(ctx, token.RefreshToken)
	if err != nil {
		return nil, err
	}

	s.events.Emit(provider.EventTokenRefreshed, session)
	return session, nil
}

func (s *AuthService) SignOut(ctx context.Context, token provider.Token) error {
	defer s.events.Emit(provider.EventSignedOut, nil)

	claims, err := security.ParseAccessToken(token.AccessToken, s.cfg.Security.JWTAccessSecret)
	if err != nil {
		// Token already invalid; there is no grant left to revoke.
		return nil
	}

	if err := s.sessions.DeleteByID(ctx, claims.SessionID); err != nil {
		if errors.Is(err, repository.ErrAuthSessionNotFound) {
			return nil
		}
		return err
	}
	return nil
}

func (s *AuthService) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			// Do not reveal whether the address exists.
			return nil
		}
		return err
	}

	resetToken, resetHash, err := security.GenerateRefreshToken(32)
	if err != nil {
		return err
	}

	key := "pwreset:" + base64.RawURLEncoding.EncodeToString(resetHash)
	if err := s.cache.Set(ctx, key, account.ID, resetTokenTTL).Err(); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	// Mail delivery is handled out of process; the stream entry carries the
	// link the message should embed.
	_, err = s.cache.XAdd(ctx, &redis.XAddArgs{
		Stream: "mail:outbound",
		Values: map[string]any{
			"type":  "password_reset",
			"email": account.Email,
			"link":  redirectTo + "?token=" + resetToken,
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("enqueue reset mail: %w", err)
	}

	s.log.Info().
		Str("account_id", account.ID).
		Str("redirect_to", redirectTo).
		Msg("password reset requested")

	return nil
}

func (s *AuthService) Events() <-chan provider.StateChange {
	return s.events.Events()
}

func (s *AuthService) Close() error {
	s.events.Close()
	return nil
}

func (s *AuthService) sessionFromClaims(ctx context.Context, token provider.Token, claims *security.AccessClaims) (*provider.Session, error) {
	account, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		return nil, provider.ErrSessionNotFound
	}
	if account.Status != models.AccountStatusActive {
		return nil, provider.ErrSessionNotFound
	}

	if _, err := s.sessions.GetByID(ctx, claims.SessionID); err != nil {
		return nil, provider.ErrSessionNotFound
	}
	_ = s.sessions.Touch(ctx, claims.SessionID)

	return &provider.Session{
		Token:     token,
		User:      account.Identity(),
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (*provider.Session, error) {
	refreshHash := security.HashRefreshToken(refreshToken)
	session, err := s.sessions.FindByRefreshHash(ctx, refreshHash)
	if err != nil {
		return nil, provider.ErrSessionNotFound
	}
	if session.ExpiresAt.Before(time.Now()) {
		_ = s.sessions.DeleteByID(ctx, session.ID)
		return nil, provider.ErrSessionNotFound
	}

	account, err := s.accounts.GetByID(ctx, session.AccountID)
	if err != nil {
		return nil, provider.ErrSessionNotFound
	}
	if account.Status != models.AccountStatusActive {
		return nil, provider.ErrSessionNotFound
	}

	newToken, newHash, err := security.GenerateRefreshToken(64)
	if err != nil {
		return nil, err
	}

	session.RefreshTokenHash = newHash
	session.ExpiresAt = time.Now().Add(s.cfg.Security.JWTRefreshTTL)
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	return s.grant(account, session.ID, newToken)
}

func (s *AuthService) createSession(ctx context.Context, account models.Account) (*provider.Session, error) {
	refreshToken, refreshHash, err := security.GenerateRefreshToken(64)
	if err != nil {
		return nil, err
	}

	session := models.AuthSession{
		ID:               ids.New(),
		AccountID:        account.ID,
		RefreshTokenHash: refreshHash,
		ExpiresAt:        time.Now().Add(s.cfg.Security.JWTRefreshTTL),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	return s.grant(account, session.ID, refreshToken)
}

func (s *AuthService) grant(account models.Account, sessionID, refreshToken string) (*provider.Session, error) {
	accessToken, err := security.GenerateAccessToken(
		s.cfg.Security.JWTAccessSecret,
		account.ID,
		sessionID,
		string(account.Role),
		s.cfg.Security.JWTAccessTTL,
	)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &provider.Session{
		Token: provider.Token{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		},
		User:      account.Identity(),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.Security.JWTAccessTTL),
	}, nil
}
