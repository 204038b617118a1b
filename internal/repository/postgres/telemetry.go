package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/domain"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/repository"
)

const alertColumns = `id, alert_type, target, message, severity, status, source, created_at, resolved_at`

// ListAlerts returns alerts, newest first, optionally filtered by status.
func (r *Repository) ListAlerts(ctx context.Context, status string, limit int) ([]domain.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + alertColumns + ` FROM alerts`
	args := []any{limit}
	if s := strings.TrimSpace(status); s != "" {
		query += ` WHERE status = $2`
		args = append(args, s)
	}
	query += ` ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

// GetAlertByID fetches one alert.
func (r *Repository) GetAlertByID(ctx context.Context, id string) (*domain.Alert, error) {
	const query = `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`
	return scanAlert(r.pool.QueryRow(ctx, query, strings.TrimSpace(id)))
}

// CreateAlert inserts a raised alert.
func (r *Repository) CreateAlert(ctx context.Context, alert *domain.Alert) error {
	if alert == nil || strings.TrimSpace(alert.ID) == "" {
		return repository.ErrInvalidArgument
	}
	const query = `INSERT INTO alerts (id, alert_type, target, message, severity, status, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at`
	row := r.pool.QueryRow(ctx, query, alert.ID, alert.AlertType, alert.Target, alert.Message, alert.Severity, alert.Status, alert.Source)
	if err := row.Scan(&alert.CreatedAt); err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

// ResolveAlert transitions an active alert to resolved. Returns false when the
// alert is absent or already resolved.
func (r *Repository) ResolveAlert(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `UPDATE alerts
		SET status = 'Resolved', resolved_at = $2
		WHERE id = $1 AND status <> 'Resolved'`
	tag, err := r.pool.Exec(ctx, query, strings.TrimSpace(id), at.UTC())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AlertSummary aggregates open alert counts by severity plus resolved total.
func (r *Repository) AlertSummary(ctx context.Context) (domain.AlertSummary, error) {
	const query = `SELECT
			COUNT(*) FILTER (WHERE severity = 'Critical' AND status = 'Active'),
			COUNT(*) FILTER (WHERE severity = 'Warning' AND status = 'Active'),
			COUNT(*) FILTER (WHERE severity = 'Info' AND status = 'Active'),
			COUNT(*) FILTER (WHERE status = 'Resolved')
		FROM alerts`
	var summary domain.AlertSummary
	err := r.pool.QueryRow(ctx, query).Scan(&summary.Critical, &summary.Warning, &summary.Info, &summary.Resolved)
	return summary, err
}

const eventColumns = `id, type, object, namespace, reason, message, source, created_at`

// ListEvents returns events, newest first, optionally scoped to a namespace.
func (r *Repository) ListEvents(ctx context.Context, namespace string, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + eventColumns + ` FROM events`
	args := []any{limit}
	if ns := strings.TrimSpace(namespace); ns != "" {
		query += ` WHERE namespace = $2`
		args = append(args, ns)
	}
	query += ` ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Type, &e.Object, &e.Namespace, &e.Reason, &e.Message, &e.Source, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetEventByID fetches one event.
func (r *Repository) GetEventByID(ctx context.Context, id int64) (*domain.Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	var e domain.Event
	row := r.pool.QueryRow(ctx, query, id)
	if err := row.Scan(&e.ID, &e.Type, &e.Object, &e.Namespace, &e.Reason, &e.Message, &e.Source, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// InsertEvent appends a cluster event.
func (r *Repository) InsertEvent(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return repository.ErrInvalidArgument
	}
	const query = `INSERT INTO events (type, object, namespace, reason, message, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	event.CreatedAt = createdAt.UTC()
	row := r.pool.QueryRow(ctx, query, event.Type, event.Object, event.Namespace, event.Reason, event.Message, event.Source, event.CreatedAt)
	return row.Scan(&event.ID)
}

// EventCountsBetween aggregates event counts inside [from, to).
func (r *Repository) EventCountsBetween(ctx context.Context, from, to time.Time) (domain.EventCounts, error) {
	const query = `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE type = 'Warning'),
			COUNT(*) FILTER (WHERE type = 'Normal'),
			COUNT(*) FILTER (WHERE namespace = 'kube-system')
		FROM events
		WHERE created_at >= $1 AND created_at < $2`
	var counts domain.EventCounts
	err := r.pool.QueryRow(ctx, query, from.UTC(), to.UTC()).Scan(&counts.Total, &counts.Warning, &counts.Normal, &counts.System)
	return counts, err
}

const logColumns = `id, level, message, source, namespace, pod_name, container_name, created_at`

// ListLogs returns log entries matching the filter, newest first, plus the
// total match count for pagination.
func (r *Repository) ListLogs(ctx context.Context, filter domain.LogFilter) ([]domain.LogEntry, int, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var conditions []string
	args := []any{}
	addCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}
	if filter.Level != "" {
		addCondition("level = $%d", filter.Level)
	}
	if filter.Source != "" {
		addCondition("source = $%d", filter.Source)
	}
	if filter.Namespace != "" {
		addCondition("namespace = $%d", filter.Namespace)
	}
	if filter.Search != "" {
		addCondition("message ILIKE $%d", "%"+filter.Search+"%")
	}
	if !filter.Since.IsZero() {
		addCondition("created_at >= $%d", filter.Since.UTC())
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(1) FROM app_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+logColumns+` FROM app_logs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []domain.LogEntry
	for rows.Next() {
		entry, err := scanLogEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *entry)
	}
	return entries, total, rows.Err()
}

// GetLogByID fetches one log entry.
func (r *Repository) GetLogByID(ctx context.Context, id string) (*domain.LogEntry, error) {
	const query = `SELECT ` + logColumns + ` FROM app_logs WHERE id = $1`
	return scanLogEntry(r.pool.QueryRow(ctx, query, strings.TrimSpace(id)))
}

// AppendLog inserts a collected log line.
func (r *Repository) AppendLog(ctx context.Context, entry domain.LogEntry) error {
	if strings.TrimSpace(entry.ID) == "" || strings.TrimSpace(entry.Message) == "" {
		return repository.ErrInvalidArgument
	}
	const query = `INSERT INTO app_logs (id, level, message, source, namespace, pod_name, container_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query,
		entry.ID, entry.Level, entry.Message, entry.Source,
		nullString(entry.Namespace), nullString(entry.PodName), nullString(entry.ContainerName),
		entry.CreatedAt.UTC())
	return translateUniqueViolation(err)
}

// LogStats aggregates level counts since the given time.
func (r *Repository) LogStats(ctx context.Context, since time.Time) (domain.LogStats, error) {
	const query = `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE level = 'info'),
			COUNT(*) FILTER (WHERE level = 'warn'),
			COUNT(*) FILTER (WHERE level = 'error'),
			COUNT(*) FILTER (WHERE level = 'debug')
		FROM app_logs
		WHERE created_at >= $1`
	var stats domain.LogStats
	err := r.pool.QueryRow(ctx, query, since.UTC()).Scan(&stats.TotalLogs, &stats.InfoCount, &stats.WarnCount, &stats.ErrorCount, &stats.DebugCount)
	return stats, err
}

// InsertMetricSample appends a monitoring chart sample.
func (r *Repository) InsertMetricSample(ctx context.Context, sample domain.MetricSample) error {
	const query = `INSERT INTO metric_samples (kind, target, label, value, sampled_at)
		VALUES ($1, $2, $3, $4, $5)`
	sampledAt := sample.SampledAt
	if sampledAt.IsZero() {
		sampledAt = time.Now()
	}
	_, err := r.pool.Exec(ctx, query, sample.Kind, nullString(sample.Target), sample.Label, sample.Value, sampledAt.UTC())
	return err
}

// ListMetricSamples returns samples of one kind since the given time in
// chronological order.
func (r *Repository) ListMetricSamples(ctx context.Context, kind string, since time.Time, limit int) ([]domain.MetricSample, error) {
	if limit <= 0 {
		limit = 500
	}
	const query = `SELECT id, kind, target, label, value, sampled_at
		FROM metric_samples
		WHERE kind = $1 AND sampled_at >= $2
		ORDER BY sampled_at ASC
		LIMIT $3`
	rows, err := r.pool.Query(ctx, query, kind, since.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []domain.MetricSample
	for rows.Next() {
		var (
			s      domain.MetricSample
			target sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Kind, &target, &s.Label, &s.Value, &s.SampledAt); err != nil {
			return nil, err
		}
		s.Target = target.String
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var (
		a        domain.Alert
		resolved sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.AlertType, &a.Target, &a.Message, &a.Severity, &a.Status, &a.Source, &a.CreatedAt, &resolved); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if resolved.Valid {
		value := resolved.Time.UTC()
		a.ResolvedAt = &value
	}
	return &a, nil
}

func scanLogEntry(row pgx.Row) (*domain.LogEntry, error) {
	var (
		e         domain.LogEntry
		namespace sql.NullString
		pod       sql.NullString
		container sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Level, &e.Message, &e.Source, &namespace, &pod, &container, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	e.Namespace = namespace.String
	e.PodName = pod.String
	e.ContainerName = container.String
	return &e, nil
}
