package stats

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/domain"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/repository"
)

func TestRound1RoundsHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1.24, 1.2},
		{1.25, 1.3},
		{-1.24, -1.2},
		{-1.25, -1.3},
	}
	for _, tc := range cases {
		if got := round1(tc.in); got != tc.want {
			t.Errorf("round1(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDashboardAssemblesSections(t *testing.T) {
	containers := containerRepoMock{
		countFunc: func(context.Context) (int, int, error) { return 5, 5, nil },
	}
	alerts := alertRepoMock{
		summaryFunc: func(context.Context) (domain.AlertSummary, error) {
			return domain.AlertSummary{Critical: 2, Warning: 1, Resolved: 7}, nil
		},
	}
	metrics := metricRepoMock{
		listFunc: func(_ context.Context, kind string, _ time.Time, _ int) ([]domain.MetricSample, error) {
			if kind != domain.MetricNetworkTraffic {
				return nil, nil
			}
			return []domain.MetricSample{{Kind: kind, Label: "inbound", Value: 42, SampledAt: time.Now()}}, nil
		},
	}
	svc := New(containers, nodeRepoMock{}, alerts, metrics, newLogger())

	dashboard, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dashboard.Overview.TotalContainers != 5 {
		t.Fatalf("expected overview containers 5, got %d", dashboard.Overview.TotalContainers)
	}
	if dashboard.Alerts.Resolved != 7 {
		t.Fatalf("expected resolved alerts 7, got %d", dashboard.Alerts.Resolved)
	}
	if len(dashboard.Charts) != 4 {
		t.Fatalf("expected all four charts, got %d", len(dashboard.Charts))
	}
	traffic := dashboard.Charts[domain.MetricNetworkTraffic]
	if len(traffic.Series["inbound"]) != 1 || traffic.Series["inbound"][0].Value != 42 {
		t.Fatalf("unexpected traffic series: %+v", traffic.Series)
	}
}

func TestOverviewBlendsCounts(t *testing.T) {
	containers := containerRepoMock{
		countFunc: func(context.Context) (int, int, error) { return 10, 8, nil },
	}
	nodes := nodeRepoMock{
		countFunc: func(context.Context) (int, int, error) { return 4, 4, nil },
	}
	alerts := alertRepoMock{
		summaryFunc: func(context.Context) (domain.AlertSummary, error) {
			return domain.AlertSummary{Critical: 1, Warning: 3}, nil
		},
	}
	svc := New(containers, nodes, alerts, metricRepoMock{}, newLogger())

	overview, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overview.TotalContainers != 10 || overview.RunningContainers != 8 {
		t.Fatalf("unexpected container counts: %+v", overview)
	}
	if overview.Uptime != 100 {
		t.Fatalf("expected 100%% uptime with all nodes ready, got %v", overview.Uptime)
	}
	// 0.6*1.0 + 0.4*0.8 = 0.92
	if overview.SystemHealth != 92 {
		t.Fatalf("expected 92%% system health, got %v", overview.SystemHealth)
	}
	if overview.CriticalAlerts != 1 || overview.WarningAlerts != 3 {
		t.Fatalf("unexpected alert counts: %+v", overview)
	}
}

func TestOverviewEmptyClusterIsHealthy(t *testing.T) {
	svc := New(containerRepoMock{}, nodeRepoMock{}, alertRepoMock{}, metricRepoMock{}, newLogger())
	overview, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overview.SystemHealth != 100 || overview.Uptime != 100 {
		t.Fatalf("empty cluster should not read as unhealthy: %+v", overview)
	}
}

func TestChartGroupsSeriesByLabel(t *testing.T) {
	fixed := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	metrics := metricRepoMock{
		listFunc: func(_ context.Context, kind string, since time.Time, _ int) ([]domain.MetricSample, error) {
			if kind != domain.MetricNetworkTraffic {
				t.Fatalf("unexpected kind: %s", kind)
			}
			if !since.Equal(fixed.Add(-time.Hour)) {
				t.Fatalf("unexpected window start: %s", since)
			}
			return []domain.MetricSample{
				{Kind: kind, Label: "inbound", Value: 120, SampledAt: fixed.Add(-30 * time.Minute)},
				{Kind: kind, Label: "outbound", Value: 80, SampledAt: fixed.Add(-30 * time.Minute)},
				{Kind: kind, Label: "inbound", Value: 150, SampledAt: fixed.Add(-15 * time.Minute)},
			}, nil
		},
	}
	svc := New(containerRepoMock{}, nodeRepoMock{}, alertRepoMock{}, metrics, newLogger())
	svc.now = func() time.Time { return fixed }

	chart, err := svc.Chart(context.Background(), domain.MetricNetworkTraffic, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chart.Series["inbound"]) != 2 || len(chart.Series["outbound"]) != 1 {
		t.Fatalf("unexpected series grouping: %+v", chart.Series)
	}
	if chart.Series["inbound"][1].Value != 150 {
		t.Fatalf("expected chronological order preserved: %+v", chart.Series["inbound"])
	}
}

func TestChartRejectsUnknownKind(t *testing.T) {
	svc := New(containerRepoMock{}, nodeRepoMock{}, alertRepoMock{}, metricRepoMock{}, newLogger())
	if _, err := svc.Chart(context.Background(), "cpu-flames", time.Hour); err == nil {
		t.Fatalf("expected error for unknown chart kind")
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type containerRepoMock struct {
	countFunc func(context.Context) (int, int, error)
}

func (m containerRepoMock) ListContainers(ctx context.Context, limit, offset int) ([]domain.Container, int, error) {
	return nil, 0, nil
}

func (m containerRepoMock) GetContainerByID(ctx context.Context, id string) (*domain.Container, error) {
	return nil, repository.ErrNotFound
}

func (m containerRepoMock) UpsertContainer(ctx context.Context, container domain.Container) error {
	return nil
}

func (m containerRepoMock) CountContainers(ctx context.Context) (int, int, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, 0, nil
}

type nodeRepoMock struct {
	countFunc func(context.Context) (int, int, error)
}

func (m nodeRepoMock) ListNodes(ctx context.Context) ([]domain.Node, error) { return nil, nil }

func (m nodeRepoMock) GetNodeByName(ctx context.Context, name string) (*domain.Node, error) {
	return nil, repository.ErrNotFound
}

func (m nodeRepoMock) UpsertNode(ctx context.Context, node domain.Node) error { return nil }

func (m nodeRepoMock) CountNodes(ctx context.Context) (int, int, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, 0, nil
}

type alertRepoMock struct {
	summaryFunc func(context.Context) (domain.AlertSummary, error)
}

func (m alertRepoMock) ListAlerts(ctx context.Context, status string, limit int) ([]domain.Alert, error) {
	return nil, nil
}

func (m alertRepoMock) GetAlertByID(ctx context.Context, id string) (*domain.Alert, error) {
	return nil, repository.ErrNotFound
}

func (m alertRepoMock) CreateAlert(ctx context.Context, alert *domain.Alert) error { return nil }

func (m alertRepoMock) ResolveAlert(ctx context.Context, id string, at time.Time) (bool, error) {
	return false, nil
}

func (m alertRepoMock) AlertSummary(ctx context.Context) (domain.AlertSummary, error) {
	if m.summaryFunc != nil {
		return m.summaryFunc(ctx)
	}
	return domain.AlertSummary{}, nil
}

type metricRepoMock struct {
	listFunc func(context.Context, string, time.Time, int) ([]domain.MetricSample, error)
}

func (m metricRepoMock) InsertMetricSample(ctx context.Context, sample domain.MetricSample) error {
	return nil
}

func (m metricRepoMock) ListMetricSamples(ctx context.Context, kind string, since time.Time, limit int) ([]domain.MetricSample, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, kind, since, limit)
	}
	return nil, nil
}
