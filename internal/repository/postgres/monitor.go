package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/domain"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/repository"
)

const containerColumns = `id, name, image, status, cpu_percent, memory_mb, node, started_at, created_at, restart_count, updated_at`

// ListContainers pages through monitored containers, newest first.
func (r *Repository) ListContainers(ctx context.Context, limit, offset int) ([]domain.Container, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `SELECT ` + containerColumns + ` FROM containers
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var containers []domain.Container
	for rows.Next() {
		var c domain.Container
		if err := rows.Scan(&c.ID, &c.Name, &c.Image, &c.Status, &c.CPUPercent, &c.MemoryMB, &c.Node, &c.StartedAt, &c.CreatedAt, &c.RestartCount, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		containers = append(containers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(1) FROM containers`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return containers, total, nil
}

// GetContainerByID fetches a single container.
func (r *Repository) GetContainerByID(ctx context.Context, id string) (*domain.Container, error) {
	const query = `SELECT ` + containerColumns + ` FROM containers WHERE id = $1`
	var c domain.Container
	row := r.pool.QueryRow(ctx, query, strings.TrimSpace(id))
	if err := row.Scan(&c.ID, &c.Name, &c.Image, &c.Status, &c.CPUPercent, &c.MemoryMB, &c.Node, &c.StartedAt, &c.CreatedAt, &c.RestartCount, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// UpsertContainer inserts or refreshes a container row keyed by container ID.
func (r *Repository) UpsertContainer(ctx context.Context, container domain.Container) error {
	if strings.TrimSpace(container.ID) == "" {
		return repository.ErrInvalidArgument
	}
	const query = `INSERT INTO containers (id, name, image, status, cpu_percent, memory_mb, node, started_at, created_at, restart_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			image = EXCLUDED.image,
			status = EXCLUDED.status,
			cpu_percent = EXCLUDED.cpu_percent,
			memory_mb = EXCLUDED.memory_mb,
			node = EXCLUDED.node,
			started_at = EXCLUDED.started_at,
			restart_count = EXCLUDED.restart_count,
			updated_at = NOW()`
	_, err := r.pool.Exec(ctx, query,
		container.ID, container.Name, container.Image, container.Status,
		container.CPUPercent, container.MemoryMB, container.Node,
		container.StartedAt.UTC(), container.CreatedAt.UTC(), container.RestartCount)
	return err
}

// CountContainers returns total and running container counts.
func (r *Repository) CountContainers(ctx context.Context) (int, int, error) {
	const query = `SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'running') FROM containers`
	var total, running int
	if err := r.pool.QueryRow(ctx, query).Scan(&total, &running); err != nil {
		return 0, 0, err
	}
	return total, running, nil
}

const nodeColumns = `name, ip, role, status, cpu_cores, cpu_usage, memory_total_gb, memory_usage, disk_total_gb, disk_usage, containers, booted_at, last_heartbeat`

// ListNodes returns all cluster nodes ordered by name.
func (r *Repository) ListNodes(ctx context.Context) ([]domain.Node, error) {
	const query = `SELECT ` + nodeColumns + ` FROM nodes ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []domain.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

// GetNodeByName fetches one node.
func (r *Repository) GetNodeByName(ctx context.Context, name string) (*domain.Node, error) {
	const query = `SELECT ` + nodeColumns + ` FROM nodes WHERE name = $1`
	return scanNode(r.pool.QueryRow(ctx, query, strings.TrimSpace(name)))
}

// UpsertNode inserts or refreshes a node row keyed by node name. Heartbeat
// ingestion and the Docker collector both funnel through here.
func (r *Repository) UpsertNode(ctx context.Context, node domain.Node) error {
	if strings.TrimSpace(node.Name) == "" {
		return repository.ErrInvalidArgument
	}
	const query = `INSERT INTO nodes (name, ip, role, status, cpu_cores, cpu_usage, memory_total_gb, memory_usage, disk_total_gb, disk_usage, containers, booted_at, last_heartbeat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (name) DO UPDATE SET
			ip = EXCLUDED.ip,
			role = EXCLUDED.role,
			status = EXCLUDED.status,
			cpu_cores = EXCLUDED.cpu_cores,
			cpu_usage = EXCLUDED.cpu_usage,
			memory_total_gb = EXCLUDED.memory_total_gb,
			memory_usage = EXCLUDED.memory_usage,
			disk_total_gb = EXCLUDED.disk_total_gb,
			disk_usage = EXCLUDED.disk_usage,
			containers = EXCLUDED.containers,
			booted_at = EXCLUDED.booted_at,
			last_heartbeat = EXCLUDED.last_heartbeat`
	_, err := r.pool.Exec(ctx, query,
		node.Name, node.IP, node.Role, node.Status,
		node.CPUCores, node.CPUUsage, node.MemoryTotalGB, node.MemoryUsage,
		node.DiskTotalGB, node.DiskUsage, node.Containers,
		node.BootedAt.UTC(), node.LastHeartbeat.UTC())
	return err
}

// CountNodes returns total and ready node counts.
func (r *Repository) CountNodes(ctx context.Context) (int, int, error) {
	const query = `SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'Ready') FROM nodes`
	var total, ready int
	if err := r.pool.QueryRow(ctx, query).Scan(&total, &ready); err != nil {
		return 0, 0, err
	}
	return total, ready, nil
}

func scanNode(row pgx.Row) (*domain.Node, error) {
	var n domain.Node
	if err := row.Scan(&n.Name, &n.IP, &n.Role, &n.Status, &n.CPUCores, &n.CPUUsage, &n.MemoryTotalGB, &n.MemoryUsage, &n.DiskTotalGB, &n.DiskUsage, &n.Containers, &n.BootedAt, &n.LastHeartbeat); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}
