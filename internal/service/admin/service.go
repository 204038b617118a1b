package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/crypto"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/domain"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/repository"
)

// Administration failures surfaced to handlers.
var (
	ErrUsernameTaken   = errors.New("admin: username or email already in use")
	ErrUserNotFound    = errors.New("admin: user not found")
	ErrProtectedUser   = errors.New("admin: admin accounts cannot be deleted")
	ErrInvalidRole     = errors.New("admin: invalid role")
	ErrInvalidStatus   = errors.New("admin: invalid status")
	ErrMissingRequired = errors.New("admin: username, email and password are required")
)

// Service implements the admin user-management surface.
type Service struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	logger   *slog.Logger
}

// New constructs a Service.
func New(users repository.UserRepository, sessions repository.SessionRepository, logger *slog.Logger) Service {
	return Service{users: users, sessions: sessions, logger: logger}
}

// Stats aggregates account and session counts for the admin dashboard.
func (s Service) Stats(ctx context.Context) (domain.AdminStats, error) {
	stats, err := s.users.AdminStats(ctx)
	if err != nil {
		return domain.AdminStats{}, fmt.Errorf("aggregate user stats: %w", err)
	}
	active, err := s.sessions.CountActiveSessions(ctx)
	if err != nil {
		return domain.AdminStats{}, fmt.Errorf("count active sessions: %w", err)
	}
	stats.ActiveSessions = active
	return stats, nil
}

// UserPage is one page of the admin user list.
type UserPage struct {
	Users      []domain.UserAccountSummary
	Total      int
	Page       int
	PerPage    int
	TotalPages int
}

// ListUsers returns a page of user summaries, optionally filtered by a
// search term matched against username and email.
func (s Service) ListUsers(ctx context.Context, search string, page, perPage int) (*UserPage, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 10
	}
	users, total, err := s.users.ListUserSummaries(ctx, search, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &UserPage{
		Users:      users,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

// GetUser returns one user summary.
func (s Service) GetUser(ctx context.Context, id int64) (*domain.UserAccountSummary, error) {
	summary, err := s.users.GetUserSummary(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return summary, nil
}

// CreateInput carries the fields for a new account.
type CreateInput struct {
	Username string
	FullName string
	Email    string
	Password string
	Role     domain.Role
	Status   domain.AccountStatus
}

// CreateUser provisions an account with a hashed credential.
func (s Service) CreateUser(ctx context.Context, input CreateInput) (*domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, ErrMissingRequired
	}
	if input.Role == "" {
		input.Role = domain.RoleUser
	}
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if input.Status == "" {
		input.Status = domain.StatusActive
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		Username:     input.Username,
		FullName:     strings.TrimSpace(input.FullName),
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		Status:       input.Status,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user created", "user_id", user.ID, "username", user.Username, "role", user.Role)
	return user, nil
}

// UpdateInput carries optional profile mutations; nil fields are untouched.
type UpdateInput struct {
	Username *string
	FullName *string
	Email    *string
	Role     *string
	Status   *string
}

// UpdateUser applies the provided mutations to an account.
func (s Service) UpdateUser(ctx context.Context, id int64, input UpdateInput) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if input.Username != nil && strings.TrimSpace(*input.Username) != "" {
		user.Username = strings.TrimSpace(*input.Username)
	}
	if input.FullName != nil {
		user.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Email != nil && strings.TrimSpace(*input.Email) != "" {
		user.Email = strings.TrimSpace(*input.Email)
	}
	if input.Role != nil {
		role := domain.Role(*input.Role)
		if !role.Valid() {
			return nil, ErrInvalidRole
		}
		user.Role = role
	}
	if input.Status != nil {
		status := domain.AccountStatus(*input.Status)
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
		user.Status = status
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrUsernameTaken
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.logger.Info("user updated", "user_id", user.ID)
	return user, nil
}

// DeleteUser removes a non-admin account. Sessions are removed by the
// cascading foreign key.
func (s Service) DeleteUser(ctx context.Context, id int64) error {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}
	if user.Role == domain.RoleAdmin {
		return ErrProtectedUser
	}
	deleted, err := s.users.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !deleted {
		return ErrUserNotFound
	}
	s.logger.Info("user deleted", "user_id", id, "username", user.Username)
	return nil
}
