package domain

import "time"

// Session maps an opaque bearer token to an account. A token is valid iff the
// row exists and the current time is before ExpiresAt.
type Session struct {
	ID        int64
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has passed its expiry at the given time.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// LoginAttempt is an append-only audit record of a login or logout event.
// UserID is nil when the attempt named an unknown username.
type LoginAttempt struct {
	ID            int64
	UserID        *int64
	IPAddress     string
	Success       bool
	FailureReason string
	CreatedAt     time.Time
}
