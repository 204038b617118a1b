package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/config"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/crypto"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/domain"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/repository"
)

const tokenBytes = 32

// Service orchestrates login, token resolution and logout over the session
// store and credential verifier.
type Service struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	attempts repository.LoginLogRepository
	logger   *slog.Logger
	cfg      config.Config
	now      func() time.Time
}

// New constructs a Service.
func New(users repository.UserRepository, sessions repository.SessionRepository, attempts repository.LoginLogRepository, logger *slog.Logger, cfg config.Config) Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 4 * time.Hour
	}
	if cfg.RememberMeTTL <= 0 {
		cfg.RememberMeTTL = 7 * 24 * time.Hour
	}
	return Service{
		users:    users,
		sessions: sessions,
		attempts: attempts,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// LoginResult is returned to the client after a successful login.
type LoginResult struct {
	Token     string
	UserID    int64
	Username  string
	ExpiresAt time.Time
	ExpiresIn int // seconds until expiry
}

// Identity is a resolved, authenticated user.
type Identity struct {
	UserID   int64
	Username string
	Email    string
	FullName string
	Role     domain.Role
}

// Login verifies credentials and issues a session. Unknown usernames and
// password mismatches both collapse to ErrInvalidCredentials.
func (s Service) Login(ctx context.Context, username, password string, rememberMe bool, remoteIP string) (*LoginResult, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("login failed", "username", username, "reason", "unknown username")
			s.recordAttempt(ctx, nil, remoteIP, false, "unknown username")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	match, err := crypto.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		// A hash that cannot be parsed is stored-data corruption, not a
		// bad password. Surface it so it reaches the 500 path and the log.
		return nil, fmt.Errorf("verify password for user %d: %w", user.ID, err)
	}
	if !match {
		s.logger.Warn("login failed", "user_id", user.ID, "reason", "password mismatch")
		s.recordAttempt(ctx, &user.ID, remoteIP, false, "password mismatch")
		return nil, ErrInvalidCredentials
	}

	// The status gate runs only after the password checks out, and the
	// sentinel is collapsed to the generic 401 body at the HTTP layer, so
	// account state is never disclosed to unauthenticated callers.
	if user.Status != domain.StatusActive {
		s.logger.Warn("login refused", "user_id", user.ID, "status", user.Status)
		s.recordAttempt(ctx, &user.ID, remoteIP, false, "account "+string(user.Status))
		return nil, ErrAccountDisabled
	}

	token, err := newSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	ttl := s.cfg.SessionTTL
	if rememberMe {
		ttl = s.cfg.RememberMeTTL
	}
	now := s.now().UTC()
	session := &domain.Session{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", "user_id", user.ID, "error", err)
	}
	s.recordAttempt(ctx, &user.ID, remoteIP, true, "")
	s.logger.Info("user logged in", "user_id", user.ID, "username", user.Username, "remember_me", rememberMe)

	return &LoginResult{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		ExpiresAt: session.ExpiresAt,
		ExpiresIn: int(session.ExpiresAt.Sub(now) / time.Second),
	}, nil
}

// Resolve maps a bearer token to an identity. Expired sessions are purged as
// a side effect of detection.
func (s Service) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	session, err := s.sessions.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("look up session: %w", err)
	}
	if session.Expired(s.now().UTC()) {
		if _, err := s.sessions.DeleteSessionByToken(ctx, token); err != nil {
			s.logger.Warn("failed to purge expired session", "session_id", session.ID, "error", err)
		}
		return nil, ErrSessionExpired
	}
	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// The user was deleted after the session was issued.
			s.logger.Warn("session references missing user", "user_id", session.UserID)
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}
	return &Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
	}, nil
}

// Logout invalidates the session. It never fails for an absent token, so a
// double logout is a harmless no-op.
func (s Service) Logout(ctx context.Context, token string) {
	deleted, err := s.sessions.DeleteSessionByToken(ctx, token)
	if err != nil {
		s.logger.Error("failed to delete session on logout", "error", err)
		return
	}
	if !deleted {
		s.logger.Warn("logout for unknown or already-expired token")
		return
	}
	s.logger.Info("user logged out")
}

// RequireRole passes an identity through when it holds the required role and
// returns ErrForbidden otherwise. Callers must have authenticated first;
// authentication failures short-circuit before this gate is evaluated.
func RequireRole(identity *Identity, role domain.Role) error {
	if identity == nil {
		return ErrInvalidToken
	}
	if identity.Role != role {
		return ErrForbidden
	}
	return nil
}

// recordAttempt appends an audit row. Auditing is best effort and never fails
// the caller.
func (s Service) recordAttempt(ctx context.Context, userID *int64, remoteIP string, success bool, reason string) {
	if s.attempts == nil {
		return
	}
	attempt := &domain.LoginAttempt{
		UserID:        userID,
		IPAddress:     remoteIP,
		Success:       success,
		FailureReason: reason,
	}
	if err := s.attempts.RecordLoginAttempt(ctx, attempt); err != nil {
		s.logger.Warn("failed to record login attempt", "error", err)
	}
}

// newSessionToken draws 32 bytes of cryptographic randomness, hex encoded to
// a 64-character opaque token.
func newSessionToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
