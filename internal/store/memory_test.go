package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vrpsolve/internal/model"
)

func testProblemIn() model.ProblemIn {
	return model.ProblemIn{
		Name:       "test",
		Matrix:     [][]int64{{0, 5}, {5, 0}},
		Demands:    []int64{0, 1},
		Capacities: []int64{3},
		Depot:      0,
	}
}

func TestMemoryProblems(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	created, err := m.CreateProblem(ctx, "t1", testProblemIn())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "t1", created.TenantID)

	got, err := m.GetProblem(ctx, "t1", created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, [][]int64{{0, 5}, {5, 0}}, got.Matrix)

	// tenants are isolated
	_, err = m.GetProblem(ctx, "t2", created.ID)
	require.ErrorIs(t, err, ErrNotFound)

	items, next, err := m.ListProblems(ctx, "t1", "", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Empty(t, next)
}

func TestMemoryProblemPagination(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := m.CreateProblem(ctx, "t1", testProblemIn())
		require.NoError(t, err)
	}

	first, cursor, err := m.ListProblems(ctx, "t1", "", 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotEmpty(t, cursor)

	second, _, err := m.ListProblems(ctx, "t1", cursor, 10)
	require.NoError(t, err)
	require.Len(t, second, 3)
	require.NotEqual(t, first[0].ID, second[0].ID)
}

func TestMemoryJobs(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	job, err := m.CreateJob(ctx, model.Job{TenantID: "t1", Status: "pending"})
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)

	sol := &model.SolutionOut{Objective: 42}
	updated, err := m.UpdateJob(ctx, "t1", job.ID, "done", sol, "")
	require.NoError(t, err)
	require.Equal(t, "done", updated.Status)
	require.NotNil(t, updated.Solution)
	require.NotEmpty(t, updated.FinishedAt)

	got, err := m.GetJob(ctx, "t1", job.ID)
	require.NoError(t, err)
	require.Equal(t, int64(42), got.Solution.Objective)

	_, err = m.UpdateJob(ctx, "t1", "missing", "done", nil, "")
	require.ErrorIs(t, err, ErrNotFound)

	byStatus, _, err := m.ListJobs(ctx, "t1", "done", "", 10)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	empty, _, err := m.ListJobs(ctx, "t1", "failed", "", 10)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestMemorySolveMetrics(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SaveSolveMetrics(ctx, "t1", "j1", map[string]any{"iterations": 10}))
	got, err := m.GetSolveMetrics(ctx, "t1", "j1")
	require.NoError(t, err)
	require.Equal(t, 10, got["iterations"])

	_, err = m.GetSolveMetrics(ctx, "t1", "j2")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySubscriptions(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	sub, err := m.CreateSubscription(ctx, model.SubscriptionRequest{
		TenantID: "t1", URL: "https://example.com/h", Events: []string{"solve.completed"}, Secret: "s",
	})
	require.NoError(t, err)

	wildcard, err := m.CreateSubscription(ctx, model.SubscriptionRequest{
		TenantID: "t1", URL: "https://example.com/all", Events: []string{"*"}, Secret: "s2",
	})
	require.NoError(t, err)

	subs, err := m.GetSubscriptionsForEvent(ctx, "t1", "solve.completed")
	require.NoError(t, err)
	require.Len(t, subs, 2)

	subs, err = m.GetSubscriptionsForEvent(ctx, "t1", "solve.failed")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, wildcard.ID, subs[0].ID)

	require.NoError(t, m.DeleteSubscription(ctx, "t1", sub.ID))
	require.ErrorIs(t, m.DeleteSubscription(ctx, "t1", sub.ID), ErrNotFound)
}

func TestMemoryWebhookQueue(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.EnqueueWebhook(ctx, "t1", "sub1", "solve.completed", "https://example.com/h", "s", []byte(`{}`))
	require.NoError(t, err)

	due, err := m.FetchDueWebhookDeliveries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, id, due[0].ID)

	// retry pushed into the future is no longer due
	next := time.Now().Add(time.Hour)
	require.NoError(t, m.MarkWebhookDelivery(ctx, id, false, &next, "boom", 500, 12))
	due, err = m.FetchDueWebhookDeliveries(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, due)

	// admin retry makes it due again
	require.NoError(t, m.RetryWebhookDelivery(ctx, "t1", id))
	due, err = m.FetchDueWebhookDeliveries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, 1, due[0].Attempts)

	require.NoError(t, m.MarkWebhookDelivery(ctx, id, true, nil, "", 200, 8))
	due, err = m.FetchDueWebhookDeliveries(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, due)

	items, _, err := m.ListWebhookDeliveries(ctx, "t1", "delivered", "", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "delivered", items[0]["status"])

	require.ErrorIs(t, m.RetryWebhookDelivery(ctx, "t2", id), ErrNotFound)
}
