package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/domain"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/repository"
)

// CreateSession persists a freshly issued session token.
func (r *Repository) CreateSession(ctx context.Context, session *domain.Session) error {
	if session == nil || strings.TrimSpace(session.Token) == "" {
		return repository.ErrInvalidArgument
	}
	const query = `INSERT INTO sessions (session_token, user_id, created_at, expires_at)
		VALUES ($1, $2, NOW(), $3)
		RETURNING id, created_at`
	row := r.pool.QueryRow(ctx, query, session.Token, session.UserID, session.ExpiresAt.UTC())
	if err := row.Scan(&session.ID, &session.CreatedAt); err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

// GetSessionByToken performs a point lookup by exact token. With the unique
// constraint on session_token at most one row matches; should the constraint
// ever be relaxed, the most recently created row wins.
func (r *Repository) GetSessionByToken(ctx context.Context, token string) (*domain.Session, error) {
	const query = `SELECT id, session_token, user_id, created_at, expires_at
		FROM sessions
		WHERE session_token = $1
		ORDER BY id DESC
		LIMIT 1`
	var s domain.Session
	row := r.pool.QueryRow(ctx, query, token)
	if err := row.Scan(&s.ID, &s.Token, &s.UserID, &s.CreatedAt, &s.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// DeleteSessionByToken removes a session and reports whether a row was
// deleted. Deleting an absent token is not an error, which makes logout and
// lazy expiry purges idempotent under concurrent calls.
func (r *Repository) DeleteSessionByToken(ctx context.Context, token string) (bool, error) {
	const query = `DELETE FROM sessions WHERE session_token = $1`
	tag, err := r.pool.Exec(ctx, query, token)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountActiveSessions counts sessions that have not yet expired. Expired rows
// awaiting lazy eviction are excluded.
func (r *Repository) CountActiveSessions(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(1) FROM sessions WHERE expires_at > NOW()`
	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// RecordLoginAttempt appends an audit row for a login or logout event.
func (r *Repository) RecordLoginAttempt(ctx context.Context, attempt *domain.LoginAttempt) error {
	if attempt == nil {
		return repository.ErrInvalidArgument
	}
	const query = `INSERT INTO user_login_logs (user_id, ip_address, login_success, failure_reason, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`
	var userID sql.NullInt64
	if attempt.UserID != nil {
		userID = sql.NullInt64{Int64: *attempt.UserID, Valid: true}
	}
	row := r.pool.QueryRow(ctx, query, userID, nullString(attempt.IPAddress), attempt.Success, nullString(attempt.FailureReason))
	return row.Scan(&attempt.ID, &attempt.CreatedAt)
}
