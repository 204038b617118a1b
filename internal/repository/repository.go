package repository

import (
	"context"
	"time"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/domain"
)

// UserRepository persists dashboard accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id int64) (bool, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	ListUserSummaries(ctx context.Context, search string, limit, offset int) ([]domain.UserAccountSummary, int, error)
	GetUserSummary(ctx context.Context, id int64) (*domain.UserAccountSummary, error)
	AdminStats(ctx context.Context) (domain.AdminStats, error)
}

// SessionRepository is the durable token-to-identity mapping.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSessionByToken(ctx context.Context, token string) (*domain.Session, error)
	DeleteSessionByToken(ctx context.Context, token string) (bool, error)
	CountActiveSessions(ctx context.Context) (int, error)
}

// LoginLogRepository appends login-attempt audit rows. Records are never
// mutated or deleted.
type LoginLogRepository interface {
	RecordLoginAttempt(ctx context.Context, attempt *domain.LoginAttempt) error
}

// ContainerRepository stores monitored container state.
type ContainerRepository interface {
	ListContainers(ctx context.Context, limit, offset int) ([]domain.Container, int, error)
	GetContainerByID(ctx context.Context, id string) (*domain.Container, error)
	UpsertContainer(ctx context.Context, container domain.Container) error
	CountContainers(ctx context.Context) (total, running int, err error)
}

// NodeRepository stores cluster node state.
type NodeRepository interface {
	ListNodes(ctx context.Context) ([]domain.Node, error)
	GetNodeByName(ctx context.Context, name string) (*domain.Node, error)
	UpsertNode(ctx context.Context, node domain.Node) error
	CountNodes(ctx context.Context) (total, ready int, err error)
}

// AlertRepository stores raised alerts.
type AlertRepository interface {
	ListAlerts(ctx context.Context, status string, limit int) ([]domain.Alert, error)
	GetAlertByID(ctx context.Context, id string) (*domain.Alert, error)
	CreateAlert(ctx context.Context, alert *domain.Alert) error
	ResolveAlert(ctx context.Context, id string, at time.Time) (bool, error)
	AlertSummary(ctx context.Context) (domain.AlertSummary, error)
}

// EventRepository stores cluster events.
type EventRepository interface {
	ListEvents(ctx context.Context, namespace string, limit int) ([]domain.Event, error)
	GetEventByID(ctx context.Context, id int64) (*domain.Event, error)
	InsertEvent(ctx context.Context, event *domain.Event) error
	EventCountsBetween(ctx context.Context, from, to time.Time) (domain.EventCounts, error)
}

// LogRepository stores collected application logs.
type LogRepository interface {
	ListLogs(ctx context.Context, filter domain.LogFilter) ([]domain.LogEntry, int, error)
	GetLogByID(ctx context.Context, id string) (*domain.LogEntry, error)
	AppendLog(ctx context.Context, entry domain.LogEntry) error
	LogStats(ctx context.Context, since time.Time) (domain.LogStats, error)
}

// MetricRepository stores monitoring chart samples.
type MetricRepository interface {
	InsertMetricSample(ctx context.Context, sample domain.MetricSample) error
	ListMetricSamples(ctx context.Context, kind string, since time.Time, limit int) ([]domain.MetricSample, error)
}
