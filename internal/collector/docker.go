package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/domain"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/repository"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/service/monitor"
)

// Collector polls the local Docker daemon and feeds container state and node
// heartbeats into the dashboard store.
type Collector struct {
	cli        *client.Client
	containers repository.ContainerRepository
	monitor    monitor.Service
	logger     *slog.Logger
	nodeName   string
	interval   time.Duration
	bootedAt   time.Time
}

// New connects to the Docker daemon. An empty host uses environment defaults.
func New(host, nodeName string, interval time.Duration, containers repository.ContainerRepository, monitorSvc monitor.Service, logger *slog.Logger) (*Collector, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if nodeName == "" {
		nodeName = "local"
	}
	return &Collector{
		cli:        cli,
		containers: containers,
		monitor:    monitorSvc,
		logger:     logger,
		nodeName:   nodeName,
		interval:   interval,
		bootedAt:   time.Now().UTC(),
	}, nil
}

// Ping validates connectivity to the Docker daemon.
func (c *Collector) Ping(ctx context.Context) error {
	ping, err := c.cli.Ping(ctx)
	if err != nil {
		return fmt.Errorf("docker ping: %w", err)
	}
	if ping.APIVersion == "" {
		return fmt.Errorf("docker ping returned empty API version")
	}
	return nil
}

// Run polls until the context is cancelled.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.collect(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.collect(ctx)
		}
	}
}

// Close releases the Docker client.
func (c *Collector) Close() error {
	return c.cli.Close()
}

func (c *Collector) collect(ctx context.Context) {
	listed, err := c.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		c.logger.Warn("container list failed", "error", err)
		return
	}
	running := 0
	for _, item := range listed {
		entry := domain.Container{
			ID:        shortID(item.ID),
			Name:      containerName(item.Names),
			Image:     item.Image,
			Status:    mapState(item.State),
			Node:      c.nodeName,
			CreatedAt: time.Unix(item.Created, 0).UTC(),
		}
		if entry.Status == domain.ContainerRunning {
			running++
		}
		c.enrich(ctx, item.ID, &entry)
		if err := c.containers.UpsertContainer(ctx, entry); err != nil {
			c.logger.Warn("container upsert failed", "container", entry.ID, "error", err)
		}
	}
	c.heartbeat(ctx, len(listed), running)
}

// enrich fills inspect- and stats-derived fields. Failures degrade to the
// listing data rather than dropping the container.
func (c *Collector) enrich(ctx context.Context, id string, entry *domain.Container) {
	inspect, err := c.cli.ContainerInspect(ctx, id)
	if err != nil {
		c.logger.Debug("container inspect failed", "container", id, "error", err)
		return
	}
	entry.RestartCount = inspect.RestartCount
	if inspect.State != nil && inspect.State.StartedAt != "" {
		if started, err := time.Parse(time.RFC3339Nano, inspect.State.StartedAt); err == nil {
			entry.StartedAt = started.UTC()
		}
	}
	if entry.Status != domain.ContainerRunning {
		return
	}
	stats, err := c.cli.ContainerStatsOneShot(ctx, id)
	if err != nil {
		c.logger.Debug("container stats failed", "container", id, "error", err)
		return
	}
	defer stats.Body.Close()

	var sample statsSample
	if err := json.NewDecoder(stats.Body).Decode(&sample); err != nil {
		c.logger.Debug("container stats decode failed", "container", id, "error", err)
		return
	}
	entry.CPUPercent = sample.cpuPercent()
	entry.MemoryMB = int(sample.MemoryStats.Usage / (1024 * 1024))
}

func (c *Collector) heartbeat(ctx context.Context, total, running int) {
	info, err := c.cli.Info(ctx)
	if err != nil {
		c.logger.Warn("docker info failed", "error", err)
		return
	}
	node := domain.Node{
		Name:          c.nodeName,
		Role:          "worker",
		Status:        domain.NodeReady,
		CPUCores:      info.NCPU,
		MemoryTotalGB: int(info.MemTotal / (1024 * 1024 * 1024)),
		Containers:    total,
		BootedAt:      c.bootedAt,
	}
	if err := c.monitor.RecordHeartbeat(ctx, node); err != nil {
		c.logger.Warn("node heartbeat failed", "node", c.nodeName, "error", err)
		return
	}
	c.logger.Debug("collection cycle complete", "containers", total, "running", running)
}

// statsSample is the subset of the daemon stats payload the dashboard needs.
type statsSample struct {
	CPUStats struct {
		CPUUsage struct {
			TotalUsage uint64 `json:"total_usage"`
		} `json:"cpu_usage"`
		SystemUsage uint64 `json:"system_cpu_usage"`
		OnlineCPUs  uint32 `json:"online_cpus"`
	} `json:"cpu_stats"`
	MemoryStats struct {
		Usage uint64 `json:"usage"`
	} `json:"memory_stats"`
}

func (s statsSample) cpuPercent() float64 {
	if s.CPUStats.SystemUsage == 0 {
		return 0
	}
	cpus := float64(s.CPUStats.OnlineCPUs)
	if cpus == 0 {
		cpus = 1
	}
	return float64(s.CPUStats.CPUUsage.TotalUsage) / float64(s.CPUStats.SystemUsage) * cpus * 100
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func containerName(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return strings.TrimPrefix(names[0], "/")
}

func mapState(state string) string {
	switch state {
	case "running":
		return domain.ContainerRunning
	case "dead", "restarting":
		return domain.ContainerFailed
	default:
		return domain.ContainerStopped
	}
}
