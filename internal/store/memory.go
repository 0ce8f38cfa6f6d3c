package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"vrpsolve/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu        sync.Mutex
	problems  map[string]model.ProblemOut
	probByTen map[string][]string
	jobs      map[string]model.Job
	jobsByTen map[string][]string
	metrics   map[string]map[string]any // jobID -> metrics
	subs      map[string][]model.Subscription

	deliveries map[string]*memDelivery
	delivByTen map[string][]string
}

// memDelivery augments WebhookDelivery with scheduling state.
type memDelivery struct {
	WebhookDelivery
	NextAttemptAt time.Time
	LastError     string
	ResponseCode  int
	LatencyMs     int
	DeliveredAt   *time.Time
}

func NewMemory() *Memory {
	return &Memory{
		problems:   map[string]model.ProblemOut{},
		probByTen:  map[string][]string{},
		jobs:       map[string]model.Job{},
		jobsByTen:  map[string][]string{},
		metrics:    map[string]map[string]any{},
		subs:       map[string][]model.Subscription{},
		deliveries: map[string]*memDelivery{},
		delivByTen: map[string][]string{},
	}
}

func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339) }

func (m *Memory) CreateProblem(ctx context.Context, tenantID string, in model.ProblemIn) (model.ProblemOut, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := model.ProblemOut{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		Name:       in.Name,
		Matrix:     in.Matrix,
		Demands:    in.Demands,
		Capacities: in.Capacities,
		Depot:      in.Depot,
		CreatedAt:  nowRFC3339(),
	}
	m.problems[out.ID] = out
	m.probByTen[tenantID] = append(m.probByTen[tenantID], out.ID)
	return out, nil
}

func (m *Memory) GetProblem(ctx context.Context, tenantID, id string) (model.ProblemOut, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.problems[id]
	if !ok || p.TenantID != tenantID {
		return model.ProblemOut{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) ListProblems(ctx context.Context, tenantID, cursor string, limit int) ([]model.ProblemOut, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.probByTen[tenantID]
	return pageProblems(m.problems, ids, cursor, limit)
}

func pageProblems(all map[string]model.ProblemOut, ids []string, cursor string, limit int) ([]model.ProblemOut, string, error) {
	start := 0
	if cursor != "" {
		for i, id := range ids {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	if limit <= 0 {
		limit = 100
	}
	out := []model.ProblemOut{}
	var last string
	for i := start; i < len(ids) && len(out) < limit; i++ {
		out = append(out, all[ids[i]])
		last = ids[i]
	}
	var next string
	if len(out) == limit && start+len(out) < len(ids) {
		next = last
	}
	return out, next, nil
}

func (m *Memory) CreateJob(ctx context.Context, job model.Job) (model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = "pending"
	}
	job.CreatedAt = nowRFC3339()
	m.jobs[job.ID] = job
	m.jobsByTen[job.TenantID] = append(m.jobsByTen[job.TenantID], job.ID)
	return job, nil
}

func (m *Memory) UpdateJob(ctx context.Context, tenantID, id, status string, sol *model.SolutionOut, jobErr string) (model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok || j.TenantID != tenantID {
		return model.Job{}, ErrNotFound
	}
	j.Status = status
	if sol != nil {
		j.Solution = sol
	}
	j.Error = jobErr
	if status == "done" || status == "failed" {
		j.FinishedAt = nowRFC3339()
	}
	m.jobs[id] = j
	return j, nil
}

func (m *Memory) GetJob(ctx context.Context, tenantID, id string) (model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok || j.TenantID != tenantID {
		return model.Job{}, ErrNotFound
	}
	return j, nil
}

func (m *Memory) ListJobs(ctx context.Context, tenantID, status, cursor string, limit int) ([]model.Job, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.jobsByTen[tenantID]
	start := 0
	if cursor != "" {
		for i, id := range ids {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	if limit <= 0 {
		limit = 100
	}
	out := []model.Job{}
	var last string
	for i := start; i < len(ids) && len(out) < limit; i++ {
		j := m.jobs[ids[i]]
		if status != "" && j.Status != status {
			continue
		}
		out = append(out, j)
		last = ids[i]
	}
	var next string
	if len(out) == limit {
		next = last
	}
	return out, next, nil
}

func (m *Memory) SaveSolveMetrics(ctx context.Context, tenantID, jobID string, metrics map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[jobID]; !ok || j.TenantID != tenantID {
		return ErrNotFound
	}
	m.metrics[jobID] = metrics
	return nil
}

func (m *Memory) GetSolveMetrics(ctx context.Context, tenantID, jobID string) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[jobID]; !ok || j.TenantID != tenantID {
		return nil, ErrNotFound
	}
	mx, ok := m.metrics[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	return mx, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := model.Subscription{
		ID:       uuid.New().String(),
		TenantID: req.TenantID,
		URL:      req.URL,
		Events:   req.Events,
		Secret:   req.Secret,
	}
	m.subs[req.TenantID] = append(m.subs[req.TenantID], sub)
	return sub, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Subscription{}
	for _, s := range m.subs[tenantID] {
		for _, e := range s.Events {
			if e == eventType || e == "*" {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := m.subs[tenantID]
	start := 0
	if cursor != "" {
		for i, s := range subs {
			if s.ID == cursor {
				start = i + 1
				break
			}
		}
	}
	if limit <= 0 {
		limit = 100
	}
	end := start + limit
	if end > len(subs) {
		end = len(subs)
	}
	out := append([]model.Subscription{}, subs[start:end]...)
	var next string
	if end < len(subs) && len(out) > 0 {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := m.subs[tenantID]
	for i, s := range subs {
		if s.ID == id {
			m.subs[tenantID] = append(subs[:i], subs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.deliveries[id] = &memDelivery{
		WebhookDelivery: WebhookDelivery{
			ID:             id,
			TenantID:       tenantID,
			SubscriptionID: subscriptionID,
			EventType:      eventType,
			URL:            url,
			Secret:         secret,
			Payload:        payload,
			Status:         "pending",
		},
		NextAttemptAt: time.Now(),
	}
	m.delivByTen[tenantID] = append(m.delivByTen[tenantID], id)
	return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	out := []WebhookDelivery{}
	ids := make([]string, 0, len(m.deliveries))
	for id := range m.deliveries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		d := m.deliveries[id]
		if d.Status == "pending" && !d.NextAttemptAt.After(now) {
			out = append(out, d.WebhookDelivery)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.LastError = lastError
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	if success {
		d.Status = "delivered"
		t := time.Now()
		d.DeliveredAt = &t
	} else if nextAttemptAt != nil {
		d.NextAttemptAt = *nextAttemptAt
	}
	return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.Status = "failed"
	d.LastError = lastError
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	return nil
}

func (m *Memory) ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.delivByTen[tenantID]
	start := 0
	if cursor != "" {
		for i, id := range ids {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	if limit <= 0 {
		limit = 100
	}
	out := []map[string]any{}
	var last string
	for i := start; i < len(ids) && len(out) < limit; i++ {
		d := m.deliveries[ids[i]]
		if status != "" && d.Status != status {
			continue
		}
		out = append(out, map[string]any{
			"id":           d.ID,
			"eventType":    d.EventType,
			"url":          d.URL,
			"status":       d.Status,
			"attempts":     d.Attempts,
			"lastError":    d.LastError,
			"responseCode": d.ResponseCode,
			"latencyMs":    d.LatencyMs,
		})
		last = ids[i]
	}
	var next string
	if len(out) == limit {
		next = last
	}
	return out, next, nil
}

func (m *Memory) RetryWebhookDelivery(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok || d.TenantID != tenantID {
		return ErrNotFound
	}
	d.Status = "pending"
	d.NextAttemptAt = time.Now()
	return nil
}
