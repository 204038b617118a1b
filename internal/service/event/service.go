package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"log/slog"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/domain"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/repository"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/ws"
)

// StreamChannel is the hub channel live event payloads are broadcast on.
const StreamChannel = "events"

// Service ingests and serves cluster events.
type Service struct {
	events repository.EventRepository
	hub    *ws.Hub
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a Service.
func New(events repository.EventRepository, hub *ws.Hub, logger *slog.Logger) Service {
	return Service{events: events, hub: hub, logger: logger, now: time.Now}
}

// View is the client-facing event shape.
type View struct {
	ID        int64  `json:"id"`
	Time      string `json:"time"`
	Type      string `json:"type"`
	Object    string `json:"object"`
	Namespace string `json:"namespace"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
	Source    string `json:"source"`
}

// Summary carries today's event counts with day-over-day change markers.
type Summary struct {
	TodayEvents         int    `json:"today_events"`
	WarningEvents       int    `json:"warning_events"`
	NormalEvents        int    `json:"normal_events"`
	SystemEvents        int    `json:"system_events"`
	TodayEventsChange   string `json:"today_events_change"`
	WarningEventsChange string `json:"warning_events_change"`
	NormalEventsChange  string `json:"normal_events_change"`
	SystemEventsChange  string `json:"system_events_change"`
}

// List couples events with their summary.
type List struct {
	Events  []View  `json:"events"`
	Summary Summary `json:"summary"`
}

// ListEvents returns recent events plus today's summary, optionally scoped to
// a namespace.
func (s Service) ListEvents(ctx context.Context, namespace string, limit int) (*List, error) {
	events, err := s.events.ListEvents(ctx, namespace, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	summary, err := s.summary(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(events))
	for _, e := range events {
		views = append(views, view(e))
	}
	return &List{Events: views, Summary: summary}, nil
}

// GetEvent returns one event.
func (s Service) GetEvent(ctx context.Context, id int64) (*View, error) {
	event, err := s.events.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := view(*event)
	return &v, nil
}

// Ingest stores an event and broadcasts it to live stream subscribers.
func (s Service) Ingest(ctx context.Context, event domain.Event) (*View, error) {
	switch event.Type {
	case domain.EventNormal, domain.EventWarning, domain.EventError:
	default:
		event.Type = domain.EventNormal
	}
	if event.Namespace == "" {
		event.Namespace = "default"
	}
	if err := s.events.InsertEvent(ctx, &event); err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	v := view(event)
	s.broadcast(v)
	return &v, nil
}

func (s Service) broadcast(v View) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("failed to marshal event payload", "error", err)
		return
	}
	s.hub.Broadcast(StreamChannel, payload)
}

func (s Service) summary(ctx context.Context) (Summary, error) {
	now := s.now().UTC()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	startOfYesterday := startOfToday.AddDate(0, 0, -1)

	today, err := s.events.EventCountsBetween(ctx, startOfToday, now)
	if err != nil {
		return Summary{}, fmt.Errorf("count today's events: %w", err)
	}
	yesterday, err := s.events.EventCountsBetween(ctx, startOfYesterday, startOfToday)
	if err != nil {
		return Summary{}, fmt.Errorf("count yesterday's events: %w", err)
	}
	return Summary{
		TodayEvents:         today.Total,
		WarningEvents:       today.Warning,
		NormalEvents:        today.Normal,
		SystemEvents:        today.System,
		TodayEventsChange:   PercentChange(today.Total, yesterday.Total),
		WarningEventsChange: PercentChange(today.Warning, yesterday.Warning),
		NormalEventsChange:  PercentChange(today.Normal, yesterday.Normal),
		SystemEventsChange:  PercentChange(today.System, yesterday.System),
	}, nil
}

func view(e domain.Event) View {
	return View{
		ID:        e.ID,
		Time:      e.CreatedAt.UTC().Format("15:04:05"),
		Type:      e.Type,
		Object:    e.Object,
		Namespace: e.Namespace,
		Reason:    e.Reason,
		Message:   e.Message,
		Source:    e.Source,
	}
}

// PercentChange renders the day-over-day change of a count as a signed
// percentage string: "+5%", "-2%" or "0%". A zero baseline with new activity
// reads "+100%".
func PercentChange(current, previous int) string {
	if previous == 0 {
		if current == 0 {
			return "0%"
		}
		return "+100%"
	}
	change := (current - previous) * 100 / previous
	switch {
	case change > 0:
		return fmt.Sprintf("+%d%%", change)
	case change < 0:
		return fmt.Sprintf("%d%%", change)
	default:
		return "0%"
	}
}
