package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/domain"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/repository"
)

// ErrNotFound indicates the requested container or node does not exist.
var ErrNotFound = errors.New("monitor: not found")

// Service serves container and node inventory.
type Service struct {
	containers repository.ContainerRepository
	nodes      repository.NodeRepository
	logger     *slog.Logger
	now        func() time.Time
}

// New constructs a Service.
func New(containers repository.ContainerRepository, nodes repository.NodeRepository, logger *slog.Logger) Service {
	return Service{containers: containers, nodes: nodes, logger: logger, now: time.Now}
}

// ContainerView is the client-facing container shape.
type ContainerView struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Image        string  `json:"image"`
	Status       string  `json:"status"`
	CPU          float64 `json:"cpu"`
	Memory       int     `json:"memory"`
	Uptime       string  `json:"uptime"`
	Node         string  `json:"node"`
	CreatedAt    string  `json:"created_at"`
	RestartCount int     `json:"restart_count"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ContainerPage couples a container listing with its pagination.
type ContainerPage struct {
	Containers []ContainerView `json:"containers"`
	Pagination Pagination      `json:"pagination"`
}

// ListContainers returns one page of containers.
func (s Service) ListContainers(ctx context.Context, page, perPage int) (*ContainerPage, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	containers, total, err := s.containers.ListContainers(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	views := make([]ContainerView, 0, len(containers))
	for _, c := range containers {
		views = append(views, s.containerView(c))
	}
	return &ContainerPage{
		Containers: views,
		Pagination: Pagination{
			Page:       page,
			PerPage:    perPage,
			Total:      total,
			TotalPages: (total + perPage - 1) / perPage,
		},
	}, nil
}

// GetContainer returns one container.
func (s Service) GetContainer(ctx context.Context, id string) (*ContainerView, error) {
	container, err := s.containers.GetContainerByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get container: %w", err)
	}
	view := s.containerView(*container)
	return &view, nil
}

// ResourceUsage pairs capacity with a usage percentage.
type ResourceUsage struct {
	Cores int     `json:"cores"`
	Usage float64 `json:"usage"`
}

// CapacityUsage pairs a total size with a usage percentage.
type CapacityUsage struct {
	Total int     `json:"total"`
	Usage float64 `json:"usage"`
}

// NodeView is the client-facing node shape.
type NodeView struct {
	Name          string        `json:"name"`
	IP            string        `json:"ip"`
	Role          string        `json:"role"`
	Status        string        `json:"status"`
	CPU           ResourceUsage `json:"cpu"`
	Memory        CapacityUsage `json:"memory"`
	Disk          CapacityUsage `json:"disk"`
	Containers    int           `json:"containers"`
	Uptime        string        `json:"uptime"`
	LastHeartbeat string        `json:"last_heartbeat"`
}

// ListNodes returns all cluster nodes.
func (s Service) ListNodes(ctx context.Context) ([]NodeView, error) {
	nodes, err := s.nodes.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	views := make([]NodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, s.nodeView(n))
	}
	return views, nil
}

// GetNode returns one node.
func (s Service) GetNode(ctx context.Context, name string) (*NodeView, error) {
	node, err := s.nodes.GetNodeByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get node: %w", err)
	}
	view := s.nodeView(*node)
	return &view, nil
}

// RecordHeartbeat upserts a node sample reported by an agent.
func (s Service) RecordHeartbeat(ctx context.Context, node domain.Node) error {
	if node.LastHeartbeat.IsZero() {
		node.LastHeartbeat = s.now().UTC()
	}
	if node.Status == "" {
		node.Status = domain.NodeReady
	}
	if err := s.nodes.UpsertNode(ctx, node); err != nil {
		return fmt.Errorf("upsert node: %w", err)
	}
	s.logger.Debug("node heartbeat recorded", "node", node.Name, "status", node.Status)
	return nil
}

func (s Service) containerView(c domain.Container) ContainerView {
	return ContainerView{
		ID:           c.ID,
		Name:         c.Name,
		Image:        c.Image,
		Status:       c.Status,
		CPU:          c.CPUPercent,
		Memory:       c.MemoryMB,
		Uptime:       FormatUptime(s.now().UTC().Sub(c.StartedAt)),
		Node:         c.Node,
		CreatedAt:    c.CreatedAt.UTC().Format(time.RFC3339),
		RestartCount: c.RestartCount,
	}
}

func (s Service) nodeView(n domain.Node) NodeView {
	return NodeView{
		Name:          n.Name,
		IP:            n.IP,
		Role:          n.Role,
		Status:        n.Status,
		CPU:           ResourceUsage{Cores: n.CPUCores, Usage: n.CPUUsage},
		Memory:        CapacityUsage{Total: n.MemoryTotalGB, Usage: n.MemoryUsage},
		Disk:          CapacityUsage{Total: n.DiskTotalGB, Usage: n.DiskUsage},
		Containers:    n.Containers,
		Uptime:        FormatUptime(s.now().UTC().Sub(n.BootedAt)),
		LastHeartbeat: n.LastHeartbeat.UTC().Format(time.RFC3339),
	}
}

// FormatUptime renders a duration in the dashboard's compact form: "30d 12h",
// "2h 30m" or "5m". Negative durations clamp to "0m".
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
