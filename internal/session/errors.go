package session

// The error types below are the store's boundary taxonomy. Every operation
// translates provider and validation failures into exactly one of these, with
// a user-safe Message, before notifying and returning it to the caller.

// ValidationError is a local, pre-network rejection of user input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// AuthenticationError is a provider-rejected credential failure.
type AuthenticationError struct {
	Message string
	Cause   error
}

func (e *AuthenticationError) Error() string { return e.Message }
func (e *AuthenticationError) Unwrap() error { return e.Cause }

// UnauthorizedRoleError means the credentials were correct but the resolved
// role does not belong to this store's portal.
type UnauthorizedRoleError struct {
	Message string
}

func (e *UnauthorizedRoleError) Error() string { return e.Message }

// RegistrationError is a provider rejection of a sign-up, most commonly a
// duplicate email.
type RegistrationError struct {
	Message string
	Cause   error
}

func (e *RegistrationError) Error() string { return e.Message }
func (e *RegistrationError) Unwrap() error { return e.Cause }

// SignOutError reports a failed provider sign-out call. Local state is
// cleared regardless, so the caller can treat it as non-blocking.
type SignOutError struct {
	Message string
	Cause   error
}

func (e *SignOutError) Error() string { return e.Message }
func (e *SignOutError) Unwrap() error { return e.Cause }

// SessionRestoreError reports a failed startup session fetch. The store
// continues logged out; the error is advisory.
type SessionRestoreError struct {
	Message string
	Cause   error
}

func (e *SessionRestoreError) Error() string { return e.Message }
func (e *SessionRestoreError) Unwrap() error { return e.Cause }
