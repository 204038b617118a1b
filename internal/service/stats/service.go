package stats

import (
	"context"
	"fmt"
	"math"
	"time"

	"log/slog"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/domain"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/repository"
)

// Service aggregates dashboard headline numbers and monitoring chart series.
type Service struct {
	containers repository.ContainerRepository
	nodes      repository.NodeRepository
	alerts     repository.AlertRepository
	metrics    repository.MetricRepository
	logger     *slog.Logger
	now        func() time.Time
}

// New constructs a Service.
func New(containers repository.ContainerRepository, nodes repository.NodeRepository, alerts repository.AlertRepository, metrics repository.MetricRepository, logger *slog.Logger) Service {
	return Service{containers: containers, nodes: nodes, alerts: alerts, metrics: metrics, logger: logger, now: time.Now}
}

// Overview backs the home page header cards.
func (s Service) Overview(ctx context.Context) (domain.OverviewStats, error) {
	total, running, err := s.containers.CountContainers(ctx)
	if err != nil {
		return domain.OverviewStats{}, fmt.Errorf("count containers: %w", err)
	}
	nodesTotal, nodesReady, err := s.nodes.CountNodes(ctx)
	if err != nil {
		return domain.OverviewStats{}, fmt.Errorf("count nodes: %w", err)
	}
	summary, err := s.alerts.AlertSummary(ctx)
	if err != nil {
		return domain.OverviewStats{}, fmt.Errorf("summarize alerts: %w", err)
	}
	return domain.OverviewStats{
		TotalContainers:   total,
		RunningContainers: running,
		ActiveNodes:       nodesTotal,
		HealthyNodes:      nodesReady,
		SystemHealth:      healthPercent(nodesReady, nodesTotal, running, total),
		Uptime:            uptimePercent(nodesReady, nodesTotal),
		WarningAlerts:     summary.Warning,
		CriticalAlerts:    summary.Critical,
	}, nil
}

// DashboardData bundles the headline cards with the full alert summary and
// the trailing-hour chart series for the main dashboard page.
type DashboardData struct {
	Overview domain.OverviewStats  `json:"overview"`
	Alerts   domain.AlertSummary   `json:"alerts"`
	Charts   map[string]*ChartData `json:"charts"`
}

// Dashboard assembles everything the landing page renders in one call.
func (s Service) Dashboard(ctx context.Context) (*DashboardData, error) {
	overview, err := s.Overview(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := s.alerts.AlertSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarize alerts: %w", err)
	}
	kinds := []string{domain.MetricNetworkTraffic, domain.MetricDiskIO, domain.MetricResponseTime, domain.MetricRequestStatus}
	charts := make(map[string]*ChartData, len(kinds))
	for _, kind := range kinds {
		chart, err := s.Chart(ctx, kind, time.Hour)
		if err != nil {
			return nil, err
		}
		charts[kind] = chart
	}
	return &DashboardData{Overview: overview, Alerts: summary, Charts: charts}, nil
}

// SeriesPoint is one chart sample.
type SeriesPoint struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
}

// ChartData holds one chart's series keyed by label.
type ChartData struct {
	Kind   string                   `json:"kind"`
	Since  string                   `json:"since"`
	Series map[string][]SeriesPoint `json:"series"`
}

// Chart returns the series of one monitoring chart over the trailing window.
func (s Service) Chart(ctx context.Context, kind string, window time.Duration) (*ChartData, error) {
	switch kind {
	case domain.MetricNetworkTraffic, domain.MetricDiskIO, domain.MetricResponseTime, domain.MetricRequestStatus:
	default:
		return nil, fmt.Errorf("unknown chart kind %q", kind)
	}
	if window <= 0 {
		window = time.Hour
	}
	since := s.now().UTC().Add(-window)
	samples, err := s.metrics.ListMetricSamples(ctx, kind, since, 0)
	if err != nil {
		return nil, fmt.Errorf("list metric samples: %w", err)
	}
	series := make(map[string][]SeriesPoint)
	for _, sample := range samples {
		series[sample.Label] = append(series[sample.Label], SeriesPoint{
			Timestamp: sample.SampledAt.UTC().Format(time.RFC3339),
			Value:     sample.Value,
		})
	}
	return &ChartData{
		Kind:   kind,
		Since:  since.Format(time.RFC3339),
		Series: series,
	}, nil
}

// RecordSample stores one chart sample reported by an agent.
func (s Service) RecordSample(ctx context.Context, sample domain.MetricSample) error {
	if err := s.metrics.InsertMetricSample(ctx, sample); err != nil {
		return fmt.Errorf("insert metric sample: %w", err)
	}
	return nil
}

// healthPercent blends node readiness and container liveness into one
// headline percentage.
func healthPercent(readyNodes, totalNodes, runningContainers, totalContainers int) float64 {
	nodeScore := ratio(readyNodes, totalNodes)
	containerScore := ratio(runningContainers, totalContainers)
	return round1((nodeScore*0.6 + containerScore*0.4) * 100)
}

func uptimePercent(readyNodes, totalNodes int) float64 {
	return round1(ratio(readyNodes, totalNodes) * 100)
}

func ratio(part, whole int) float64 {
	if whole <= 0 {
		return 1
	}
	return float64(part) / float64(whole)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
