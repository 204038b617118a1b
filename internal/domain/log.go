package domain

import "time"

// LogEntry is an application log line collected from the cluster.
type LogEntry struct {
	ID            string
	Level         string
	Message       string
	Source        string
	Namespace     string
	PodName       string
	ContainerName string
	CreatedAt     time.Time
}

// Log levels.
const (
	LogDebug = "debug"
	LogInfo  = "info"
	LogWarn  = "warn"
	LogError = "error"
)

// LogFilter narrows a log listing.
type LogFilter struct {
	Level     string
	Source    string
	Namespace string
	Search    string
	Since     time.Time
	Limit     int
	Offset    int
}

// LogStats aggregates log counts by level over a time range.
type LogStats struct {
	TotalLogs  int    `json:"total_logs"`
	InfoCount  int    `json:"info_count"`
	WarnCount  int    `json:"warn_count"`
	ErrorCount int    `json:"error_count"`
	DebugCount int    `json:"debug_count"`
	TimeRange  string `json:"time_range"`
}

// MetricSample is one point of a monitoring chart series. Kind selects the
// chart (network_traffic, disk_io, response_time, request_status) and Label
// the series within it (inbound/outbound, read/write, 2xx/4xx/5xx, ...).
type MetricSample struct {
	ID        int64
	Kind      string
	Target    string
	Label     string
	Value     float64
	SampledAt time.Time
}

// Metric kinds.
const (
	MetricNetworkTraffic = "network_traffic"
	MetricDiskIO         = "disk_io"
	MetricResponseTime   = "response_time"
	MetricRequestStatus  = "request_status"
)
