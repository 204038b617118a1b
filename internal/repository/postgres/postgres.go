package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/domain"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository      = (*Repository)(nil)
	_ repository.SessionRepository   = (*Repository)(nil)
	_ repository.LoginLogRepository  = (*Repository)(nil)
	_ repository.ContainerRepository = (*Repository)(nil)
	_ repository.NodeRepository      = (*Repository)(nil)
	_ repository.AlertRepository     = (*Repository)(nil)
	_ repository.EventRepository     = (*Repository)(nil)
	_ repository.LogRepository       = (*Repository)(nil)
	_ repository.MetricRepository    = (*Repository)(nil)
)

const userColumns = `id, username, full_name, email, password_hash, role, status, created_at, updated_at, last_login`

// CreateUser inserts a user.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (username, full_name, email, password_hash, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at`
	row := r.pool.QueryRow(ctx, query, user.Username, nullString(user.FullName), user.Email, user.PasswordHash, string(user.Role), string(user.Status))
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

// GetUserByUsername fetches a user by username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.pool.QueryRow(ctx, query, username))
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// UpdateUser rewrites the mutable profile fields of a user.
func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	const query = `UPDATE users
		SET username = $2, full_name = $3, email = $4, role = $5, status = $6, updated_at = NOW()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, user.ID, user.Username, nullString(user.FullName), user.Email, string(user.Role), string(user.Status))
	if err != nil {
		return translateUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteUser removes a user. Sessions are removed by the cascading foreign key.
func (r *Repository) DeleteUser(ctx context.Context, id int64) (bool, error) {
	const query = `DELETE FROM users WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateLastLogin stamps the most recent successful login.
func (r *Repository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	const query = `UPDATE users SET last_login = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, at.UTC())
	return err
}

const summaryColumns = `user_id, username, email, full_name, role, status, created_at, last_login,
		total_logins, successful_logins, failed_logins, last_login_attempt, recent_login_flag`

// ListUserSummaries pages through the admin user view, optionally filtered by a
// username/email search term.
func (r *Repository) ListUserSummaries(ctx context.Context, search string, limit, offset int) ([]domain.UserAccountSummary, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	where := ""
	args := []any{limit, offset}
	if s := strings.TrimSpace(search); s != "" {
		where = ` WHERE username ILIKE $3 OR email ILIKE $3`
		args = append(args, "%"+s+"%")
	}
	rows, err := r.pool.Query(ctx, `SELECT `+summaryColumns+` FROM admin_user_view`+where+`
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var summaries []domain.UserAccountSummary
	for rows.Next() {
		summary, err := scanUserSummary(rows)
		if err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, *summary)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery := `SELECT COUNT(1) FROM admin_user_view`
	countArgs := []any{}
	if len(args) == 3 {
		countQuery += ` WHERE username ILIKE $1 OR email ILIKE $1`
		countArgs = append(countArgs, args[2])
	}
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

// GetUserSummary returns a single admin view row.
func (r *Repository) GetUserSummary(ctx context.Context, id int64) (*domain.UserAccountSummary, error) {
	const query = `SELECT ` + summaryColumns + ` FROM admin_user_view WHERE user_id = $1`
	return scanUserSummary(r.pool.QueryRow(ctx, query, id))
}

// AdminStats aggregates account counts for the admin dashboard. The active
// session count is filled in by the caller.
func (r *Repository) AdminStats(ctx context.Context) (domain.AdminStats, error) {
	const query = `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE role = 'admin'),
			COUNT(*) FILTER (WHERE last_login > NOW() - INTERVAL '7 days'),
			COUNT(*) FILTER (WHERE created_at::date = CURRENT_DATE)
		FROM users`
	var stats domain.AdminStats
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.TotalUsers,
		&stats.ActiveUsers,
		&stats.AdminUsers,
		&stats.RecentLogins,
		&stats.NewUsersToday,
	)
	return stats, err
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u         domain.User
		fullName  sql.NullString
		lastLogin sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Username, &fullName, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt, &lastLogin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.FullName = fullName.String
	if lastLogin.Valid {
		value := lastLogin.Time.UTC()
		u.LastLogin = &value
	}
	return &u, nil
}

func scanUserSummary(row pgx.Row) (*domain.UserAccountSummary, error) {
	var (
		s           domain.UserAccountSummary
		fullName    sql.NullString
		lastLogin   sql.NullTime
		lastAttempt sql.NullTime
	)
	if err := row.Scan(&s.UserID, &s.Username, &s.Email, &fullName, &s.Role, &s.Status, &s.CreatedAt, &lastLogin,
		&s.TotalLogins, &s.SuccessfulLogins, &s.FailedLogins, &lastAttempt, &s.RecentLoginFlag); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	s.FullName = fullName.String
	if lastLogin.Valid {
		value := lastLogin.Time.UTC()
		s.LastLogin = &value
	}
	if lastAttempt.Valid {
		value := lastAttempt.Time.UTC()
		s.LastLoginAttempt = &value
	}
	return &s, nil
}

func nullString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repository.ErrConflict
	}
	return err
}
