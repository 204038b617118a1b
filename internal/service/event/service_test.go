package event

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/domain"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/repository"
)

func TestPercentChange(t *testing.T) {
	cases := []struct {
		current, previous int
		want              string
	}{
		{105, 100, "+5%"},
		{98, 100, "-2%"},
		{100, 100, "0%"},
		{5, 0, "+100%"},
		{0, 0, "0%"},
		{50, 100, "-50%"},
	}
	for _, tc := range cases {
		if got := PercentChange(tc.current, tc.previous); got != tc.want {
			t.Errorf("PercentChange(%d, %d) = %q, want %q", tc.current, tc.previous, got, tc.want)
		}
	}
}

func TestListEventsComputesDayOverDaySummary(t *testing.T) {
	fixed := time.Date(2026, 8, 29, 14, 0, 0, 0, time.UTC)
	startOfToday := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	repo := eventRepoMock{
		listFunc: func(_ context.Context, namespace string, limit int) ([]domain.Event, error) {
			return []domain.Event{{ID: 1, Type: domain.EventWarning, CreatedAt: fixed}}, nil
		},
		countsFunc: func(_ context.Context, from, to time.Time) (domain.EventCounts, error) {
			if from.Equal(startOfToday) {
				return domain.EventCounts{Total: 20, Warning: 4}, nil
			}
			return domain.EventCounts{Total: 10, Warning: 8}, nil
		},
	}
	svc := New(repo, nil, newLogger())
	svc.now = func() time.Time { return fixed }

	list, err := svc.ListEvents(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Summary.TodayEvents != 20 || list.Summary.TodayEventsChange != "+100%" {
		t.Fatalf("unexpected today summary: %+v", list.Summary)
	}
	if list.Summary.WarningEventsChange != "-50%" {
		t.Fatalf("unexpected warning change: %q", list.Summary.WarningEventsChange)
	}
	if len(list.Events) != 1 || list.Events[0].Time != "14:00:00" {
		t.Fatalf("unexpected events: %+v", list.Events)
	}
}

func TestIngestDefaultsTypeAndNamespace(t *testing.T) {
	var stored *domain.Event
	repo := eventRepoMock{
		insertFunc: func(_ context.Context, event *domain.Event) error {
			event.ID = 5
			stored = event
			return nil
		},
	}
	svc := New(repo, nil, newLogger())

	view, err := svc.Ingest(context.Background(), domain.Event{Type: "Bizarre", Message: "pod restarted"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Type != domain.EventNormal {
		t.Fatalf("expected unknown type coerced to Normal, got %q", stored.Type)
	}
	if stored.Namespace != "default" {
		t.Fatalf("expected namespace defaulted, got %q", stored.Namespace)
	}
	if view.ID != 5 {
		t.Fatalf("expected generated id in view, got %d", view.ID)
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type eventRepoMock struct {
	listFunc   func(context.Context, string, int) ([]domain.Event, error)
	getFunc    func(context.Context, int64) (*domain.Event, error)
	insertFunc func(context.Context, *domain.Event) error
	countsFunc func(context.Context, time.Time, time.Time) (domain.EventCounts, error)
}

func (m eventRepoMock) ListEvents(ctx context.Context, namespace string, limit int) ([]domain.Event, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, namespace, limit)
	}
	return nil, nil
}

func (m eventRepoMock) GetEventByID(ctx context.Context, id int64) (*domain.Event, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m eventRepoMock) InsertEvent(ctx context.Context, event *domain.Event) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, event)
	}
	return nil
}

func (m eventRepoMock) EventCountsBetween(ctx context.Context, from, to time.Time) (domain.EventCounts, error) {
	if m.countsFunc != nil {
		return m.countsFunc(ctx, from, to)
	}
	return domain.EventCounts{}, nil
}
