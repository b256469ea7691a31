// Package guard gates views by required role set. Evaluation is a pure
// function of the owning store's loading flag and current identity, re-run
// on every request.
package guard

import (
	"slices"

	"scribemarket/api/internal/models"
	"scribemarket/api/internal/session"
)

type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateWrongRole
	StateAuthorized
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateWrongRole:
		return "wrong_role"
	case StateAuthorized:
		return "authorized"
	}
	return "unknown"
}

// Evaluate classifies a visitor. Loading wins over everything so a restore
// in flight never causes a spurious redirect.
func Evaluate(loading bool, identity *models.Identity, allowed []models.Role) State {
	if loading {
		return StateLoading
	}
	if identity == nil {
		return StateUnauthenticated
	}
	if !slices.Contains(allowed, identity.Role) {
		return StateWrongRole
	}
	return StateAuthorized
}

// Guard binds an allowed-role set to the session store that owns the
// namespace being protected.
type Guard struct {
	Store   *session.Store
	Allowed []models.Role
}

func Admin(store *session.Store) Guard {
	return Guard{Store: store, Allowed: []models.Role{models.RoleAdmin}}
}

func User(store *session.Store) Guard {
	return Guard{Store: store, Allowed: []models.Role{models.RoleClient, models.RoleWriter}}
}

func Writer(store *session.Store) Guard {
	return Guard{Store: store, Allowed: []models.Role{models.RoleWriter}}
}

// ForRoles builds a guard for an arbitrary allowed set, used when driving
// guards from the route table.
func ForRoles(store *session.Store, roles []models.Role) Guard {
	return Guard{Store: store, Allowed: roles}
}

func (g Guard) Evaluate() (State, *models.Identity) {
	identity := g.Store.Identity()
	return Evaluate(g.Store.Loading(), identity, g.Allowed), identity
}

// LoginPath is where unauthenticated visitors of this namespace are sent.
func (g Guard) LoginPath() string {
	return g.Store.Config().LoginPath
}
