package logs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/domain"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/repository"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/ws"
)

// StreamChannel is the hub channel live log payloads are broadcast on.
const StreamChannel = "logs"

// ErrNotFound indicates an unknown log identifier.
var ErrNotFound = errors.New("logs: not found")

// ErrEmptyMessage indicates an ingest call without a message body.
var ErrEmptyMessage = errors.New("logs: message is required")

// Service handles log persistence, statistics and streaming.
type Service struct {
	repo   repository.LogRepository
	hub    *ws.Hub
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a log service.
func New(repo repository.LogRepository, hub *ws.Hub, logger *slog.Logger) Service {
	return Service{repo: repo, hub: hub, logger: logger, now: time.Now}
}

// EntryView is the client-facing log shape.
type EntryView struct {
	ID            string `json:"id"`
	Level         string `json:"level"`
	Message       string `json:"message"`
	Source        string `json:"source"`
	Namespace     string `json:"namespace,omitempty"`
	PodName       string `json:"pod_name,omitempty"`
	ContainerName string `json:"container_name,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// Page couples log entries with stats and pagination.
type Page struct {
	Logs       []EntryView     `json:"logs"`
	Stats      domain.LogStats `json:"stats"`
	Pagination map[string]int  `json:"pagination"`
}

// List returns logs matching the filter along with stats for the same window.
func (s Service) List(ctx context.Context, filter domain.LogFilter) (*Page, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Since.IsZero() {
		filter.Since = s.now().UTC().Add(-24 * time.Hour)
	}
	entries, total, err := s.repo.ListLogs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	stats, err := s.Stats(ctx, filter.Since)
	if err != nil {
		return nil, err
	}
	views := make([]EntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, view(entry))
	}
	page := filter.Offset/filter.Limit + 1
	return &Page{
		Logs:  views,
		Stats: stats,
		Pagination: map[string]int{
			"page":        page,
			"per_page":    filter.Limit,
			"total":       total,
			"total_pages": (total + filter.Limit - 1) / filter.Limit,
		},
	}, nil
}

// Get returns one log entry.
func (s Service) Get(ctx context.Context, id string) (*EntryView, error) {
	entry, err := s.repo.GetLogByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get log: %w", err)
	}
	v := view(*entry)
	return &v, nil
}

// Stats aggregates level counts since the given time.
func (s Service) Stats(ctx context.Context, since time.Time) (domain.LogStats, error) {
	stats, err := s.repo.LogStats(ctx, since)
	if err != nil {
		return domain.LogStats{}, fmt.Errorf("log stats: %w", err)
	}
	stats.TimeRange = fmt.Sprintf("Last %s", monitorRange(s.now().UTC().Sub(since)))
	return stats, nil
}

// Ingest stores a collected log line and broadcasts it to stream subscribers.
func (s Service) Ingest(ctx context.Context, entry domain.LogEntry) (*domain.LogEntry, error) {
	entry.Message = strings.TrimSpace(entry.Message)
	if entry.Message == "" {
		return nil, ErrEmptyMessage
	}
	switch entry.Level {
	case domain.LogDebug, domain.LogInfo, domain.LogWarn, domain.LogError:
	default:
		entry.Level = domain.LogInfo
	}
	if entry.Source == "" {
		entry.Source = "agent"
	}
	if entry.ID == "" {
		entry.ID = "log-" + uuid.NewString()[:12]
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	if err := s.repo.AppendLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("append log: %w", err)
	}
	s.broadcast(entry)
	return &entry, nil
}

func (s Service) broadcast(entry domain.LogEntry) {
	if s.hub == nil {
		return
	}
	payload, err := MarshalEntry(entry)
	if err != nil {
		s.logger.Warn("failed to marshal log payload", "error", err)
		return
	}
	s.hub.Broadcast(StreamChannel, payload)
}

// MarshalEntry formats a log entry for streaming payloads.
func MarshalEntry(entry domain.LogEntry) ([]byte, error) {
	payload := map[string]any{
		"id":        entry.ID,
		"level":     entry.Level,
		"message":   entry.Message,
		"source":    entry.Source,
		"timestamp": entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if entry.Namespace != "" {
		payload["namespace"] = entry.Namespace
	}
	if entry.PodName != "" {
		payload["pod_name"] = entry.PodName
	}
	if entry.ContainerName != "" {
		payload["container_name"] = entry.ContainerName
	}
	return json.Marshal(payload)
}

func view(entry domain.LogEntry) EntryView {
	return EntryView{
		ID:            entry.ID,
		Level:         entry.Level,
		Message:       entry.Message,
		Source:        entry.Source,
		Namespace:     entry.Namespace,
		PodName:       entry.PodName,
		ContainerName: entry.ContainerName,
		Timestamp:     entry.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func monitorRange(d time.Duration) string {
	if d >= 48*time.Hour {
		return fmt.Sprintf("%d days", int(d.Hours())/24)
	}
	return fmt.Sprintf("%d hours", int(d.Hours()))
}
