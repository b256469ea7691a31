package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"scribemarket/api/internal/models"
)

// REST talks to a hosted GoTrue-compatible auth endpoint. All persistence and
// token issuance happen on the backend; this client only shuttles requests
// and translates error bodies into the provider error set.
type REST struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger
	events  *EventEmitter
}

func NewREST(baseURL, apiKey string, log zerolog.Logger) *REST {
	return &REST{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
		events:  NewEventEmitter(),
	}
}

type restUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Metadata  struct {
		Role     string `json:"role"`
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

func (u restUser) identity() models.Identity {
	return models.Identity{
		ID:        u.ID,
		Email:     u.Email,
		Role:      models.Role(u.Metadata.Role),
		FullName:  u.Metadata.FullName,
		CreatedAt: u.CreatedAt,
	}
}

type restGrant struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int      `json:"expires_in"`
	User         restUser `json:"user"`
}

func (g restGrant) session() *Session {
	now := time.Now()
	return &Session{
		Token: Token{
			AccessToken:  g.AccessToken,
			RefreshToken: g.RefreshToken,
		},
		User:      g.User.identity(),
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Duration(g.ExpiresIn) * time.Second),
	}
}

type restError struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
	Msg         string `json:"msg"`
}

func (e restError) message() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Description != "":
		return e.Description
	default:
		return e.Error
	}
}

func (c *REST) GetSession(ctx context.Context, token Token) (*Session, error) {
	var user restUser
	err := c.do(ctx, http.MethodGet, "/auth/v1/user", token.AccessToken, nil, &user)
	if err == nil {
		return &Session{Token: token, User: user.identity(), IssuedAt: time.Now()}, nil
	}

	if token.RefreshToken == "" {
		return nil, err
	}

	// Access token rejected; trade the refresh token for a fresh grant.
	var grant restGrant
	body := map[string]string{"refresh_token": token.RefreshToken}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", body, &grant); err != nil {
		// A dead refresh token means the grant is simply gone.
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	session := grant.session()
	c.events.Emit(EventTokenRefreshed, session)
	return session, nil
}

func (c *REST) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	var grant restGrant
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &grant); err != nil {
		return nil, err
	}

	session := grant.session()
	c.events.Emit(EventSignedIn, session)
	return session, nil
}

func (c *REST) SignUp(ctx context.Context, input SignUpInput) (*models.Identity, error) {
	body := map[string]any{
		"email":    input.Email,
		"password": input.Password,
		"data": map[string]string{
			"role":      string(input.Role),
			"full_name": input.FullName,
		},
	}
	var user restUser
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, &user); err != nil {
		return nil, err
	}

	identity := user.identity()
	identity.Role = input.Role
	identity.FullName = input.FullName
	return &identity, nil
}

func (c *REST) SignOut(ctx context.Context, token Token) error {
	err := c.do(ctx, http.MethodPost, "/auth/v1/logout", token.AccessToken, nil, nil)
	c.events.Emit(EventSignedOut, nil)
	return err
}

func (c *REST) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	path := "/auth/v1/recover?redirect_to=" + url.QueryEscape(redirectTo)
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, path, "", body, nil)
}

func (c *REST) Events() <-chan StateChange {
	return c.events.Events()
}

func (c *REST) Close() error {
	c.events.Close()
	return nil
}

func (c *REST) do(ctx context.Context, method, path, bearer string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("auth provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var restErr restError
		_ = json.NewDecoder(resp.Body).Decode(&restErr)
		return c.translate(resp.StatusCode, restErr.message())
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *REST) translate(status int, message string) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "invalid login credentials"), strings.Contains(lower, "invalid_grant"):
		return ErrInvalidCredentials
	case strings.Contains(lower, "not confirmed"):
		return ErrEmailNotConfirmed
	case strings.Contains(lower, "already registered"), strings.Contains(lower, "already been registered"):
		return ErrDuplicateEmail
	}

	c.log.Debug().Int("status", status).Str("message", message).Msg("auth provider error")
	if message == "" {
		message = http.StatusText(status)
	}
	return fmt.Errorf("auth provider: %s", message)
}
