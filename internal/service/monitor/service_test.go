package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/domain"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/repository"
)

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{30*24*time.Hour + 12*time.Hour, "30d 12h"},
		{2*time.Hour + 30*time.Minute, "2h 30m"},
		{5 * time.Minute, "5m"},
		{0, "0m"},
		{-time.Hour, "0m"},
	}
	for _, tc := range cases {
		if got := FormatUptime(tc.in); got != tc.want {
			t.Errorf("FormatUptime(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestListContainersPaginates(t *testing.T) {
	containers := containerRepoMock{
		listFunc: func(_ context.Context, limit, offset int) ([]domain.Container, int, error) {
			if limit != 20 || offset != 20 {
				t.Fatalf("expected limit 20 offset 20, got %d/%d", limit, offset)
			}
			return []domain.Container{{ID: "abc123", Name: "web", Status: domain.ContainerRunning}}, 41, nil
		},
	}
	svc := New(containers, nodeRepoMock{}, newLogger())

	page, err := svc.ListContainers(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Pagination.TotalPages != 3 {
		t.Fatalf("expected 3 pages for 41 containers, got %d", page.Pagination.TotalPages)
	}
	if len(page.Containers) != 1 || page.Containers[0].ID != "abc123" {
		t.Fatalf("unexpected containers: %+v", page.Containers)
	}
}

func TestGetContainerNotFound(t *testing.T) {
	svc := New(containerRepoMock{}, nodeRepoMock{}, newLogger())
	if _, err := svc.GetContainer(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetNodeShapesView(t *testing.T) {
	heartbeat := time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC)
	nodes := nodeRepoMock{
		getFunc: func(_ context.Context, name string) (*domain.Node, error) {
			return &domain.Node{
				Name:          name,
				IP:            "10.0.0.5",
				Role:          "worker",
				Status:        domain.NodeReady,
				CPUCores:      8,
				CPUUsage:      42.5,
				MemoryTotalGB: 32,
				MemoryUsage:   61.0,
				DiskTotalGB:   500,
				DiskUsage:     18.2,
				Containers:    7,
				LastHeartbeat: heartbeat,
			}, nil
		},
	}
	svc := New(containerRepoMock{}, nodes, newLogger())

	view, err := svc.GetNode(context.Background(), "worker-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.CPU.Cores != 8 || view.CPU.Usage != 42.5 {
		t.Fatalf("unexpected cpu view: %+v", view.CPU)
	}
	if view.Memory.Total != 32 || view.Disk.Total != 500 {
		t.Fatalf("unexpected capacity views: %+v %+v", view.Memory, view.Disk)
	}
	if view.LastHeartbeat != "2026-08-01T10:30:00Z" {
		t.Fatalf("unexpected heartbeat format: %q", view.LastHeartbeat)
	}
}

func TestRecordHeartbeatDefaults(t *testing.T) {
	var stored domain.Node
	nodes := nodeRepoMock{
		upsertFunc: func(_ context.Context, node domain.Node) error {
			stored = node
			return nil
		},
	}
	svc := New(containerRepoMock{}, nodes, newLogger())

	if err := svc.RecordHeartbeat(context.Background(), domain.Node{Name: "worker-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != domain.NodeReady {
		t.Fatalf("expected status defaulted to Ready, got %q", stored.Status)
	}
	if stored.LastHeartbeat.IsZero() {
		t.Fatalf("expected heartbeat timestamp defaulted")
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type containerRepoMock struct {
	listFunc   func(context.Context, int, int) ([]domain.Container, int, error)
	getFunc    func(context.Context, string) (*domain.Container, error)
	upsertFunc func(context.Context, domain.Container) error
}

func (m containerRepoMock) ListContainers(ctx context.Context, limit, offset int) ([]domain.Container, int, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return nil, 0, nil
}

func (m containerRepoMock) GetContainerByID(ctx context.Context, id string) (*domain.Container, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m containerRepoMock) UpsertContainer(ctx context.Context, container domain.Container) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, container)
	}
	return nil
}

func (m containerRepoMock) CountContainers(ctx context.Context) (int, int, error) {
	return 0, 0, nil
}

type nodeRepoMock struct {
	listFunc   func(context.Context) ([]domain.Node, error)
	getFunc    func(context.Context, string) (*domain.Node, error)
	upsertFunc func(context.Context, domain.Node) error
}

func (m nodeRepoMock) ListNodes(ctx context.Context) ([]domain.Node, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m nodeRepoMock) GetNodeByName(ctx context.Context, name string) (*domain.Node, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, name)
	}
	return nil, repository.ErrNotFound
}

func (m nodeRepoMock) UpsertNode(ctx context.Context, node domain.Node) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, node)
	}
	return nil
}

func (m nodeRepoMock) CountNodes(ctx context.Context) (int, int, error) {
	return 0, 0, nil
}
