package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"vrpsolve/internal/model"
)

// Postgres persists problems, solve jobs, and the webhook queue.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// Ping checks database connectivity for readiness probes.
func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

const schema = `
CREATE TABLE IF NOT EXISTS problems (
    id UUID PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    name TEXT,
    matrix JSONB NOT NULL,
    demands JSONB NOT NULL,
    capacities JSONB NOT NULL,
    depot INT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS problems_tenant_idx ON problems (tenant_id, id);

CREATE TABLE IF NOT EXISTS solve_jobs (
    id UUID PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    problem_id UUID,
    status TEXT NOT NULL,
    error TEXT,
    solution JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    finished_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS solve_jobs_tenant_idx ON solve_jobs (tenant_id, id);

CREATE TABLE IF NOT EXISTS solve_metrics (
    job_id UUID PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    metrics JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS subscriptions (
    id UUID PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    url TEXT NOT NULL,
    events JSONB NOT NULL,
    secret TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS webhook_deliveries (
    id UUID PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    subscription_id UUID NOT NULL,
    event_type TEXT NOT NULL,
    url TEXT NOT NULL,
    secret TEXT NOT NULL,
    payload BYTEA NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    attempts INT NOT NULL DEFAULT 0,
    next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_error TEXT,
    response_code INT,
    latency_ms INT,
    delivered_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS webhook_due_idx ON webhook_deliveries (status, next_attempt_at);
`

// Migrate creates the schema (dev helper).
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

func toJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func (p *Postgres) CreateProblem(ctx context.Context, tenantID string, in model.ProblemIn) (model.ProblemOut, error) {
	id := uuid.New()
	now := time.Now().UTC()
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO problems (id, tenant_id, name, matrix, demands, capacities, depot, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		id, tenantID, in.Name, toJSON(in.Matrix), toJSON(in.Demands), toJSON(in.Capacities), in.Depot, now)
	if err != nil {
		return model.ProblemOut{}, err
	}
	return model.ProblemOut{
		ID: id.String(), TenantID: tenantID, Name: in.Name,
		Matrix: in.Matrix, Demands: in.Demands, Capacities: in.Capacities,
		Depot: in.Depot, CreatedAt: now.Format(time.RFC3339),
	}, nil
}

func (p *Postgres) GetProblem(ctx context.Context, tenantID, id string) (model.ProblemOut, error) {
	var out model.ProblemOut
	var matrix, demands, capacities []byte
	var name sql.NullString
	var created time.Time
	row := p.db.QueryRowContext(ctx,
		`SELECT id::text, name, matrix, demands, capacities, depot, created_at FROM problems WHERE tenant_id=$1 AND id=$2`,
		tenantID, id)
	if err := row.Scan(&out.ID, &name, &matrix, &demands, &capacities, &out.Depot, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return out, ErrNotFound
		}
		return out, err
	}
	out.TenantID = tenantID
	out.Name = name.String
	out.CreatedAt = created.Format(time.RFC3339)
	if err := json.Unmarshal(matrix, &out.Matrix); err != nil {
		return out, fmt.Errorf("decode matrix: %w", err)
	}
	if err := json.Unmarshal(demands, &out.Demands); err != nil {
		return out, fmt.Errorf("decode demands: %w", err)
	}
	if err := json.Unmarshal(capacities, &out.Capacities); err != nil {
		return out, fmt.Errorf("decode capacities: %w", err)
	}
	return out, nil
}

func (p *Postgres) ListProblems(ctx context.Context, tenantID, cursor string, limit int) ([]model.ProblemOut, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if cursor != "" {
		rows, err = p.db.QueryContext(ctx,
			`SELECT id::text, name, depot, created_at FROM problems WHERE tenant_id=$1 AND id::text > $2 ORDER BY id LIMIT $3`,
			tenantID, cursor, limit)
	} else {
		rows, err = p.db.QueryContext(ctx,
			`SELECT id::text, name, depot, created_at FROM problems WHERE tenant_id=$1 ORDER BY id LIMIT $2`,
			tenantID, limit)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.ProblemOut{}
	var last string
	for rows.Next() {
		var o model.ProblemOut
		var name sql.NullString
		var created time.Time
		if err := rows.Scan(&o.ID, &name, &o.Depot, &created); err != nil {
			return nil, "", err
		}
		o.TenantID = tenantID
		o.Name = name.String
		o.CreatedAt = created.Format(time.RFC3339)
		out = append(out, o)
		last = o.ID
	}
	var next string
	if len(out) == limit {
		next = last
	}
	return out, next, rows.Err()
}

func (p *Postgres) CreateJob(ctx context.Context, job model.Job) (model.Job, error) {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = "pending"
	}
	now := time.Now().UTC()
	job.CreatedAt = now.Format(time.RFC3339)
	var probID any
	if job.ProblemID != "" {
		probID = job.ProblemID
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO solve_jobs (id, tenant_id, problem_id, status, created_at) VALUES ($1,$2,$3,$4,$5)`,
		job.ID, job.TenantID, probID, job.Status, now)
	if err != nil {
		return model.Job{}, err
	}
	return job, nil
}

func (p *Postgres) UpdateJob(ctx context.Context, tenantID, id, status string, sol *model.SolutionOut, jobErr string) (model.Job, error) {
	var solJSON any
	if sol != nil {
		solJSON = toJSON(sol)
	}
	var finished any
	if status == "done" || status == "failed" {
		finished = time.Now().UTC()
	}
	res, err := p.db.ExecContext(ctx,
		`UPDATE solve_jobs SET status=$1, solution=COALESCE($2, solution), error=$3, finished_at=COALESCE($4, finished_at) WHERE tenant_id=$5 AND id=$6`,
		status, solJSON, jobErr, finished, tenantID, id)
	if err != nil {
		return model.Job{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Job{}, ErrNotFound
	}
	return p.GetJob(ctx, tenantID, id)
}

func (p *Postgres) GetJob(ctx context.Context, tenantID, id string) (model.Job, error) {
	var j model.Job
	var probID, jobErr sql.NullString
	var solJSON []byte
	var created time.Time
	var finished sql.NullTime
	row := p.db.QueryRowContext(ctx,
		`SELECT id::text, problem_id::text, status, error, solution, created_at, finished_at FROM solve_jobs WHERE tenant_id=$1 AND id=$2`,
		tenantID, id)
	if err := row.Scan(&j.ID, &probID, &j.Status, &jobErr, &solJSON, &created, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return j, ErrNotFound
		}
		return j, err
	}
	j.TenantID = tenantID
	j.ProblemID = probID.String
	j.Error = jobErr.String
	j.CreatedAt = created.Format(time.RFC3339)
	if finished.Valid {
		j.FinishedAt = finished.Time.Format(time.RFC3339)
	}
	if len(solJSON) > 0 {
		var sol model.SolutionOut
		if err := json.Unmarshal(solJSON, &sol); err == nil {
			j.Solution = &sol
		}
	}
	return j, nil
}

func (p *Postgres) ListJobs(ctx context.Context, tenantID, status, cursor string, limit int) ([]model.Job, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := `SELECT id::text, status, created_at FROM solve_jobs WHERE tenant_id=$1`
	args := []any{tenantID}
	if status != "" {
		args = append(args, status)
		q += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if cursor != "" {
		args = append(args, cursor)
		q += fmt.Sprintf(" AND id::text > $%d", len(args))
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.Job{}
	var last string
	for rows.Next() {
		var j model.Job
		var created time.Time
		if err := rows.Scan(&j.ID, &j.Status, &created); err != nil {
			return nil, "", err
		}
		j.TenantID = tenantID
		j.CreatedAt = created.Format(time.RFC3339)
		out = append(out, j)
		last = j.ID
	}
	var next string
	if len(out) == limit {
		next = last
	}
	return out, next, rows.Err()
}

func (p *Postgres) SaveSolveMetrics(ctx context.Context, tenantID, jobID string, metrics map[string]any) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO solve_metrics (job_id, tenant_id, metrics) VALUES ($1,$2,$3)
         ON CONFLICT (job_id) DO UPDATE SET metrics=EXCLUDED.metrics`,
		jobID, tenantID, toJSON(metrics))
	return err
}

func (p *Postgres) GetSolveMetrics(ctx context.Context, tenantID, jobID string) (map[string]any, error) {
	var raw []byte
	row := p.db.QueryRowContext(ctx,
		`SELECT metrics FROM solve_metrics WHERE tenant_id=$1 AND job_id=$2`, tenantID, jobID)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	id := uuid.New()
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, tenant_id, url, events, secret) VALUES ($1,$2,$3,$4,$5)`,
		id, req.TenantID, req.URL, toJSON(req.Events), req.Secret)
	if err != nil {
		return model.Subscription{}, err
	}
	return model.Subscription{ID: id.String(), TenantID: req.TenantID, URL: req.URL, Events: req.Events}, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, url, events, secret FROM subscriptions WHERE tenant_id=$1 AND (events @> $2 OR events @> '["*"]')`,
		tenantID, toJSON([]string{eventType}))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		var events []byte
		if err := rows.Scan(&s.ID, &s.URL, &events, &s.Secret); err != nil {
			return nil, err
		}
		s.TenantID = tenantID
		_ = json.Unmarshal(events, &s.Events)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if cursor != "" {
		rows, err = p.db.QueryContext(ctx,
			`SELECT id::text, url, events FROM subscriptions WHERE tenant_id=$1 AND id::text > $2 ORDER BY id LIMIT $3`,
			tenantID, cursor, limit)
	} else {
		rows, err = p.db.QueryContext(ctx,
			`SELECT id::text, url, events FROM subscriptions WHERE tenant_id=$1 ORDER BY id LIMIT $2`,
			tenantID, limit)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.Subscription{}
	var last string
	for rows.Next() {
		var s model.Subscription
		var events []byte
		if err := rows.Scan(&s.ID, &s.URL, &events); err != nil {
			return nil, "", err
		}
		s.TenantID = tenantID
		_ = json.Unmarshal(events, &s.Events)
		out = append(out, s)
		last = s.ID
	}
	var next string
	if len(out) == limit {
		next = last
	}
	return out, next, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, tenantID, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	id := uuid.New()
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO webhook_deliveries (id, tenant_id, subscription_id, event_type, url, secret, payload) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		id, tenantID, subscriptionID, eventType, url, secret, payload)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, tenant_id, subscription_id::text, event_type, url, secret, payload, status, attempts
         FROM webhook_deliveries WHERE status='pending' AND next_attempt_at <= now()
         ORDER BY next_attempt_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []WebhookDelivery{}
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.TenantID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Status, &d.Attempts); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	if success {
		_, err := p.db.ExecContext(ctx,
			`UPDATE webhook_deliveries SET status='delivered', attempts=attempts+1, last_error=$1, response_code=$2, latency_ms=$3, delivered_at=now() WHERE id=$4`,
			lastError, responseCode, latencyMs, id)
		return err
	}
	_, err := p.db.ExecContext(ctx,
		`UPDATE webhook_deliveries SET attempts=attempts+1, next_attempt_at=$1, last_error=$2, response_code=$3, latency_ms=$4 WHERE id=$5`,
		nextAttemptAt, lastError, responseCode, latencyMs, id)
	return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE webhook_deliveries SET status='failed', attempts=attempts+1, last_error=$1, response_code=$2, latency_ms=$3 WHERE id=$4`,
		lastError, responseCode, latencyMs, id)
	return err
}

func (p *Postgres) ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := `SELECT id::text, event_type, url, status, attempts, COALESCE(last_error,''), COALESCE(response_code,0), COALESCE(latency_ms,0) FROM webhook_deliveries WHERE tenant_id=$1`
	args := []any{tenantID}
	if status != "" {
		args = append(args, status)
		q += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if cursor != "" {
		args = append(args, cursor)
		q += fmt.Sprintf(" AND id::text > $%d", len(args))
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []map[string]any{}
	var last string
	for rows.Next() {
		var id, eventType, url, st, lastErr string
		var attempts, code, latency int
		if err := rows.Scan(&id, &eventType, &url, &st, &attempts, &lastErr, &code, &latency); err != nil {
			return nil, "", err
		}
		out = append(out, map[string]any{
			"id": id, "eventType": eventType, "url": url, "status": st,
			"attempts": attempts, "lastError": lastErr, "responseCode": code, "latencyMs": latency,
		})
		last = id
	}
	var next string
	if len(out) == limit {
		next = last
	}
	return out, next, rows.Err()
}

func (p *Postgres) RetryWebhookDelivery(ctx context.Context, tenantID, id string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE webhook_deliveries SET status='pending', next_attempt_at=now() WHERE tenant_id=$1 AND id=$2`,
		tenantID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
