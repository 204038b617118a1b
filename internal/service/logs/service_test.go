package logs

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

func TestListDefaultsWindowAndPagination(t *testing.T) {
	fixed := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	repo := logRepoMock{
		listFunc: func(_ context.Context, filter domain.LogFilter) ([]domain.LogEntry, int, error) {
			if filter.Limit != 50 {
				t.Fatalf("expected default limit 50, got %d", filter.Limit)
			}
			if !filter.Since.Equal(fixed.Add(-24 * time.Hour)) {
				t.Fatalf("expected default 24h window, got %s", filter.Since)
			}
			return []domain.LogEntry{{ID: "log-1", Level: domain.LogInfo, Message: "up", CreatedAt: fixed}}, 120, nil
		},
		statsFunc: func(_ context.Context, _ time.Time) (domain.LogStats, error) {
			return domain.LogStats{TotalLogs: 120, InfoCount: 100}, nil
		},
	}
	svc := New(repo, nil, newLogger())
	svc.now = func() time.Time { return fixed }

	page, err := svc.List(context.Background(), domain.LogFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Pagination["total_pages"] != 3 {
		t.Fatalf("expected 3 pages for 120 logs, got %d", page.Pagination["total_pages"])
	}
	if page.Stats.TimeRange != "Last 24 hours" {
		t.Fatalf("unexpected time range: %q", page.Stats.TimeRange)
	}
	if len(page.Logs) != 1 || page.Logs[0].Timestamp != "2026-08-29T12:00:00Z" {
		t.Fatalf("unexpected logs: %+v", page.Logs)
	}
}

func TestStatsRendersDayRange(t *testing.T) {
	fixed := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	svc := New(logRepoMock{}, nil, newLogger())
	svc.now = func() time.Time { return fixed }

	stats, err := svc.Stats(context.Background(), fixed.Add(-72*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TimeRange != "Last 3 days" {
		t.Fatalf("unexpected time range: %q", stats.TimeRange)
	}
}

func TestIngestValidatesAndDefaults(t *testing.T) {
	var stored domain.LogEntry
	repo := logRepoMock{
		appendFunc: func(_ context.Context, entry domain.LogEntry) error {
			stored = entry
			return nil
		},
	}
	svc := New(repo, nil, newLogger())

	if _, err := svc.Ingest(context.Background(), domain.LogEntry{Message: "   "}); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}

	entry, err := svc.Ingest(context.Background(), domain.LogEntry{Message: " disk pressure ", Level: "chatty"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Message != "disk pressure" {
		t.Fatalf("expected trimmed message, got %q", stored.Message)
	}
	if stored.Level != domain.LogInfo || stored.Source != "agent" {
		t.Fatalf("expected defaults applied, got level=%q source=%q", stored.Level, stored.Source)
	}
	if !strings.HasPrefix(entry.ID, "log-") {
		t.Fatalf("expected generated id, got %q", entry.ID)
	}
	if entry.CreatedAt.IsZero() {
		t.Fatalf("expected timestamp defaulted")
	}
}

func TestGetNotFound(t *testing.T) {
	svc := New(logRepoMock{}, nil, newLogger())
	if _, err := svc.Get(context.Background(), "log-missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type logRepoMock struct {
	listFunc   func(context.Context, domain.LogFilter) ([]domain.LogEntry, int, error)
	getFunc    func(context.Context, string) (*domain.LogEntry, error)
	appendFunc func(context.Context, domain.LogEntry) error
	statsFunc  func(context.Context, time.Time) (domain.LogStats, error)
}

func (m logRepoMock) ListLogs(ctx context.Context, filter domain.LogFilter) ([]domain.LogEntry, int, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return nil, 0, nil
}

func (m logRepoMock) GetLogByID(ctx context.Context, id string) (*domain.LogEntry, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m logRepoMock) AppendLog(ctx context.Context, entry domain.LogEntry) error {
	if m.appendFunc != nil {
		return m.appendFunc(ctx, entry)
	}
	return nil
}

func (m logRepoMock) LogStats(ctx context.Context, since time.Time) (domain.LogStats, error) {
	if m.statsFunc != nil {
		return m.statsFunc(ctx, since)
	}
	return domain.LogStats{}, nil
}
