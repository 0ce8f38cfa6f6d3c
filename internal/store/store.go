package store

import (
	"context"
	"errors"
	"time"

	"vrpsolve/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
	// Problems
	CreateProblem(ctx context.Context, tenantID string, in model.ProblemIn) (model.ProblemOut, error)
	GetProblem(ctx context.Context, tenantID, id string) (model.ProblemOut, error)
	ListProblems(ctx context.Context, tenantID, cursor string, limit int) ([]model.ProblemOut, string, error)

	// Solve jobs
	CreateJob(ctx context.Context, job model.Job) (model.Job, error)
	UpdateJob(ctx context.Context, tenantID, id, status string, sol *model.SolutionOut, jobErr string) (model.Job, error)
	GetJob(ctx context.Context, tenantID, id string) (model.Job, error)
	ListJobs(ctx context.Context, tenantID, status, cursor string, limit int) ([]model.Job, string, error)

	// Search metrics per job
	SaveSolveMetrics(ctx context.Context, tenantID, jobID string, metrics map[string]any) error
	GetSolveMetrics(ctx context.Context, tenantID, jobID string) (map[string]any, error)

	// Webhook subscriptions
	CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
	GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error)
	ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error)
	DeleteSubscription(ctx context.Context, tenantID, id string) error

	// Webhook deliveries
	EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
	FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
	MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
	FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
	ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error)
	RetryWebhookDelivery(ctx context.Context, tenantID, id string) error
}

// WebhookDelivery is one queued webhook post.
type WebhookDelivery struct {
	ID             string
	TenantID       string
	SubscriptionID string
	EventType      string
	URL            string
	Secret         string
	Payload        []byte
	Status         string
	Attempts       int
}

var ErrNotFound = errors.New("not found")
