package session

import "errors"

var (
	// ErrNotLoggedIn is returned by operations that need an authorized
	// session.
	ErrNotLoggedIn = errors.New("session: not logged in")

	// ErrAlreadyLoggedIn is returned by Login when a session is active.
	ErrAlreadyLoggedIn = errors.New("session: already logged in")

	// ErrLoginFailed is returned when the backend authorized an identity
	// that does not match the requested account list.
	ErrLoginFailed = errors.New("session: login failed")

	// ErrMissingCredential marks a switch target without a usable token.
	// The controller falls back to the first token-bearing account before
	// surfacing this.
	ErrMissingCredential = errors.New("session: account has no credential")

	// ErrNoSwitchableAccount is returned when no registered account has a
	// token; the session is logged out as the recovery action.
	ErrNoSwitchableAccount = errors.New("session: no switchable account")

	// ErrSessionEnded is returned when an in-flight operation resolved
	// after a logout invalidated it.
	ErrSessionEnded = errors.New("session: session ended")
)
