package auth

import "errors"

// Authentication and authorization failures. Handlers map these to HTTP
// statuses; everything else surfacing from the service is an internal error.
var (
	// ErrInvalidCredentials covers both unknown usernames and password
	// mismatches so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrInvalidToken means the presented token is absent from the store.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrSessionExpired means the token was found but is past its expiry.
	ErrSessionExpired = errors.New("auth: session expired")

	// ErrUserNotFound means a live session points at a since-deleted user.
	ErrUserNotFound = errors.New("auth: user not found")

	// ErrAccountDisabled means the account is inactive or banned.
	ErrAccountDisabled = errors.New("auth: account disabled")

	// ErrForbidden means the identity is authenticated but lacks the
	// required role.
	ErrForbidden = errors.New("auth: forbidden")
)

// Unauthenticated reports whether err is one of the authentication failures
// that map to HTTP 401. ErrForbidden is deliberately excluded: a failed role
// check is 403 and must never be conflated with a failed login.
func Unauthenticated(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrAccountDisabled)
}
