package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/domain"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/repository"
)

// ErrNotFound indicates an unknown alert identifier.
var ErrNotFound = errors.New("alert: not found")

// ErrAlreadyResolved indicates a resolve call against a resolved alert.
var ErrAlreadyResolved = errors.New("alert: already resolved")

// Service serves the alert center.
type Service struct {
	alerts repository.AlertRepository
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a Service.
func New(alerts repository.AlertRepository, logger *slog.Logger) Service {
	return Service{alerts: alerts, logger: logger, now: time.Now}
}

// View is the client-facing alert shape.
type View struct {
	ID        string `json:"id"`
	AlertType string `json:"alert_type"`
	Target    string `json:"target"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	Duration  string `json:"duration"`
	Source    string `json:"source"`
}

// List couples alerts with their summary counts.
type List struct {
	Alerts  []View              `json:"alerts"`
	Summary domain.AlertSummary `json:"summary"`
}

// ListAlerts returns alerts plus summary counts, optionally filtered by status.
func (s Service) ListAlerts(ctx context.Context, status string, limit int) (*List, error) {
	alerts, err := s.alerts.ListAlerts(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	summary, err := s.alerts.AlertSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarize alerts: %w", err)
	}
	views := make([]View, 0, len(alerts))
	for _, a := range alerts {
		views = append(views, s.view(a))
	}
	return &List{Alerts: views, Summary: summary}, nil
}

// GetAlert returns one alert.
func (s Service) GetAlert(ctx context.Context, id string) (*View, error) {
	alert, err := s.alerts.GetAlertByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	view := s.view(*alert)
	return &view, nil
}

// RaiseInput carries the fields of a newly raised alert.
type RaiseInput struct {
	AlertType string
	Target    string
	Message   string
	Severity  string
	Source    string
}

// Raise records a new active alert and returns its generated identifier.
func (s Service) Raise(ctx context.Context, input RaiseInput) (*View, error) {
	severity := input.Severity
	switch severity {
	case domain.SeverityCritical, domain.SeverityWarning, domain.SeverityInfo:
	default:
		severity = domain.SeverityInfo
	}
	alert := &domain.Alert{
		ID:        "ALT-" + uuid.NewString()[:8],
		AlertType: input.AlertType,
		Target:    input.Target,
		Message:   input.Message,
		Severity:  severity,
		Status:    domain.AlertActive,
		Source:    input.Source,
	}
	if err := s.alerts.CreateAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}
	s.logger.Info("alert raised", "alert_id", alert.ID, "severity", alert.Severity, "target", alert.Target)
	view := s.view(*alert)
	return &view, nil
}

// Resolve transitions an active alert to resolved.
func (s Service) Resolve(ctx context.Context, id string) error {
	resolved, err := s.alerts.ResolveAlert(ctx, id, s.now().UTC())
	if err != nil {
		return fmt.Errorf("resolve alert: %w", err)
	}
	if !resolved {
		// Distinguish "absent" from "already resolved" for the caller.
		if _, err := s.alerts.GetAlertByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("get alert: %w", err)
		}
		return ErrAlreadyResolved
	}
	s.logger.Info("alert resolved", "alert_id", id)
	return nil
}

func (s Service) view(a domain.Alert) View {
	end := s.now().UTC()
	if a.ResolvedAt != nil {
		end = *a.ResolvedAt
	}
	return View{
		ID:        a.ID,
		AlertType: a.AlertType,
		Target:    a.Target,
		Message:   a.Message,
		Severity:  a.Severity,
		Status:    a.Status,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
		Duration:  FormatDuration(end.Sub(a.CreatedAt)),
		Source:    a.Source,
	}
}

// FormatDuration renders an alert age like "15m" or "2h 5m".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
