package domain

import "time"

// Alert severity levels.
const (
	SeverityCritical = "Critical"
	SeverityWarning  = "Warning"
	SeverityInfo     = "Info"
)

// Alert statuses.
const (
	AlertActive     = "Active"
	AlertResolved   = "Resolved"
	AlertSuppressed = "Suppressed"
)

// Alert is a raised monitoring alert.
type Alert struct {
	ID         string
	AlertType  string
	Target     string
	Message    string
	Severity   string
	Status     string
	Source     string
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// AlertSummary aggregates alert counts for the dashboard header.
type AlertSummary struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
	Resolved int `json:"resolved"`
}

// Event is a cluster event (kubelet, scheduler, controllers).
type Event struct {
	ID        int64
	Type      string
	Object    string
	Namespace string
	Reason    string
	Message   string
	Source    string
	CreatedAt time.Time
}

// Event types.
const (
	EventNormal  = "Normal"
	EventWarning = "Warning"
	EventError   = "Error"
)

// EventCounts are raw counts for one day, used to derive day-over-day change.
type EventCounts struct {
	Total   int
	Warning int
	Normal  int
	System  int
}
