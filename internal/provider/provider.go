// Package provider defines the auth backend contract consumed by the session
// stores. Two independently configured clients exist per process, one per
// session namespace, so an admin grant and a user grant never share state.
package provider

import (
	"context"
	"errors"
	"sync"
	"time"

	"scribemarket/api/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrSessionNotFound    = errors.New("session not found")
)

// Token is the persisted form of a grant, stored under the namespace's
// storage key and replayed into GetSession on startup.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Session is a live authentication grant tied to an Identity.
type Session struct {
	Token     Token
	User      models.Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type SignUpInput struct {
	Email    string
	Password string
	Role     models.Role
	FullName string
}

type Event string

const (
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// StateChange is delivered on the client's event stream whenever the grant
// held by this client changes. Session is nil for EventSignedOut.
type StateChange struct {
	Event   Event
	Session *Session
}

// Client is the auth backend surface. Implementations: REST (hosted endpoint)
// and service.AuthService (local Postgres-backed identities).
type Client interface {
	// GetSession validates a persisted token, refreshing it through the
	// backend when the access half has expired.
	GetSession(ctx context.Context, token Token) (*Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	// SignUp registers a new identity. No session is established; the
	// account stays pending until email verification.
	SignUp(ctx context.Context, input SignUpInput) (*models.Identity, error)
	SignOut(ctx context.Context, token Token) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	// Events yields auth state changes in delivery order for the lifetime
	// of the client.
	Events() <-chan StateChange
	Close() error
}

// EventEmitter fans auth state changes into a client's event stream without
// blocking the operation that caused them. Both client implementations embed
// one.
type EventEmitter struct {
	mu     sync.Mutex
	ch     chan StateChange
	closed bool
}

func NewEventEmitter() *EventEmitter {
	return &EventEmitter{ch: make(chan StateChange, 32)}
}

func (e *EventEmitter) Emit(event Event, session *Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case e.ch <- StateChange{Event: event, Session: session}:
	default:
		// Stream consumer has fallen far behind; drop rather than stall
		// the auth operation.
	}
}

func (e *EventEmitter) Events() <-chan StateChange {
	return e.ch
}

func (e *EventEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}
