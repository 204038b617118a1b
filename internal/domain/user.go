package domain

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// Valid reports whether the role is a known member of the enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGuest:
		return true
	}
	return false
}

// AccountStatus is the closed set of account states.
type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusInactive AccountStatus = "inactive"
	StatusBanned   AccountStatus = "banned"
)

// Valid reports whether the status is a known member of the enumeration.
func (s AccountStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusBanned:
		return true
	}
	return false
}

// User is a dashboard account. PasswordHash never leaves the persistence and
// credential-verification layers.
type User struct {
	ID           int64
	Username     string
	FullName     string
	Email        string
	PasswordHash string
	Role         Role
	Status       AccountStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLogin    *time.Time
}

// UserAccountSummary is a user row enriched with login-attempt aggregates for
// the admin user list.
type UserAccountSummary struct {
	UserID           int64
	Username         string
	Email            string
	FullName         string
	Role             Role
	Status           AccountStatus
	CreatedAt        time.Time
	LastLogin        *time.Time
	TotalLogins      int
	SuccessfulLogins int
	FailedLogins     int
	LastLoginAttempt *time.Time
	RecentLoginFlag  bool
}
