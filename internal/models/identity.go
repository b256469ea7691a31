package models

import "time"

type Role string

const (
	RoleClient Role = "client"
	RoleWriter Role = "writer"
	RoleAdmin  Role = "admin"
)

// Roles is the closed set of marketplace roles. Navigation tables and guard
// predicates are keyed off this list rather than ad hoc string checks.
var Roles = []Role{RoleClient, RoleWriter, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleWriter, RoleAdmin:
		return true
	}
	return false
}

// Identity is the authenticated principal a session store holds. The role is
// fixed at registration and never changes afterwards.
type Identity struct {
	ID        string
	Email     string
	Role      Role
	FullName  string
	CreatedAt time.Time
}

type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusPending   AccountStatus = "pending"
)

// Account is the provider-side identity record, including credentials. Only
// the local provider sees this shape; the session layer works with Identity.
type Account struct {
	ID           string
	Email        string
	PasswordHash []byte
	FullName     string
	Role         Role
	Status       AccountStatus
	AvatarURL    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a Account) Identity() Identity {
	return Identity{
		ID:        a.ID,
		Email:     a.Email,
		Role:      a.Role,
		FullName:  a.FullName,
		CreatedAt: a.CreatedAt,
	}
}

// AuthSession is a refresh-token grant held by the local provider.
type AuthSession struct {
	ID               string
	AccountID        string
	RefreshTokenHash []byte
	CreatedAt        time.Time
	LastSeenAt       time.Time
	ExpiresAt        time.Time
}
