package alert

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/domain"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/repository"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{15 * time.Minute, "15m"},
		{2*time.Hour + 5*time.Minute, "2h 5m"},
		{0, "0m"},
		{-time.Minute, "0m"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.in); got != tc.want {
			t.Errorf("FormatDuration(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRaiseGeneratesIDAndDefaults(t *testing.T) {
	var stored *domain.Alert
	repo := alertRepoMock{
		createFunc: func(_ context.Context, alert *domain.Alert) error {
			stored = alert
			return nil
		},
	}
	svc := New(repo, newLogger())

	view, err := svc.Raise(context.Background(), RaiseInput{
		AlertType: "HighCPU",
		Target:    "worker-1",
		Message:   "cpu above 90%",
		Severity:  "catastrophic",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(view.ID, "ALT-") || len(view.ID) != len("ALT-")+8 {
		t.Fatalf("unexpected alert id: %q", view.ID)
	}
	if stored.Severity != domain.SeverityInfo {
		t.Fatalf("expected unknown severity coerced to Info, got %q", stored.Severity)
	}
	if stored.Status != domain.AlertActive {
		t.Fatalf("expected new alert active, got %q", stored.Status)
	}
}

func TestResolveDistinguishesAbsentFromResolved(t *testing.T) {
	resolvedAt := time.Now().UTC()
	repo := alertRepoMock{
		resolveFunc: func(_ context.Context, id string, _ time.Time) (bool, error) {
			return false, nil
		},
		getFunc: func(_ context.Context, id string) (*domain.Alert, error) {
			if id == "ALT-gone" {
				return nil, repository.ErrNotFound
			}
			return &domain.Alert{ID: id, Status: domain.AlertResolved, ResolvedAt: &resolvedAt}, nil
		},
	}
	svc := New(repo, newLogger())

	if err := svc.Resolve(context.Background(), "ALT-gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent alert, got %v", err)
	}
	if err := svc.Resolve(context.Background(), "ALT-done"); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
}

func TestResolveSuccess(t *testing.T) {
	repo := alertRepoMock{
		resolveFunc: func(_ context.Context, id string, at time.Time) (bool, error) {
			if id != "ALT-1234" {
				t.Fatalf("unexpected id: %s", id)
			}
			if at.IsZero() {
				t.Fatalf("expected resolution timestamp")
			}
			return true, nil
		},
	}
	svc := New(repo, newLogger())
	if err := svc.Resolve(context.Background(), "ALT-1234"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListAlertsIncludesSummary(t *testing.T) {
	repo := alertRepoMock{
		listFunc: func(_ context.Context, status string, limit int) ([]domain.Alert, error) {
			if status != "Active" {
				t.Fatalf("unexpected status filter: %q", status)
			}
			return []domain.Alert{{ID: "ALT-1", Status: domain.AlertActive, CreatedAt: time.Now().Add(-15 * time.Minute)}}, nil
		},
		summaryFunc: func(context.Context) (domain.AlertSummary, error) {
			return domain.AlertSummary{Critical: 1, Warning: 2, Resolved: 3}, nil
		},
	}
	svc := New(repo, newLogger())

	list, err := svc.ListAlerts(context.Background(), "Active", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list.Alerts) != 1 || list.Alerts[0].Duration != "15m" {
		t.Fatalf("unexpected alerts: %+v", list.Alerts)
	}
	if list.Summary.Warning != 2 {
		t.Fatalf("unexpected summary: %+v", list.Summary)
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type alertRepoMock struct {
	listFunc    func(context.Context, string, int) ([]domain.Alert, error)
	getFunc     func(context.Context, string) (*domain.Alert, error)
	createFunc  func(context.Context, *domain.Alert) error
	resolveFunc func(context.Context, string, time.Time) (bool, error)
	summaryFunc func(context.Context) (domain.AlertSummary, error)
}

func (m alertRepoMock) ListAlerts(ctx context.Context, status string, limit int) ([]domain.Alert, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, status, limit)
	}
	return nil, nil
}

func (m alertRepoMock) GetAlertByID(ctx context.Context, id string) (*domain.Alert, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m alertRepoMock) CreateAlert(ctx context.Context, alert *domain.Alert) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, alert)
	}
	return nil
}

func (m alertRepoMock) ResolveAlert(ctx context.Context, id string, at time.Time) (bool, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, id, at)
	}
	return false, nil
}

func (m alertRepoMock) AlertSummary(ctx context.Context) (domain.AlertSummary, error) {
	if m.summaryFunc != nil {
		return m.summaryFunc(ctx)
	}
	return domain.AlertSummary{}, nil
}
