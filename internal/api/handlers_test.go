package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vrpsolve/internal/config"
	"vrpsolve/internal/model"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		Port:      "0",
		RateRPS:   1000,
		RateBurst: 1000,
	}
	cfg.Solver.TimeBudgetMs = 200
	cfg.Solver.MaxTimeBudgetMs = 2000
	cfg.Solver.Strategy = "savings"
	cfg.Solver.Metaheuristic = "gls"
	cfg.Solver.GLSLambda = 0.1
	cfg.Solver.SnapshotEvery = 10
	s, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func testProblemBody() map[string]any {
	return map[string]any{
		"name": "five stops",
		"matrix": [][]int64{
			{0, 10, 15, 20, 12},
			{10, 0, 35, 25, 18},
			{15, 35, 0, 30, 22},
			{20, 25, 30, 0, 16},
			{12, 18, 22, 16, 0},
		},
		"demands":    []int64{0, 1, 1, 2, 4},
		"capacities": []int64{5, 5},
		"depot":      0,
	}
}

func TestHealthReady(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("health: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != 200 {
		t.Fatalf("ready: got %d", rr.Code)
	}
}

func TestProblemsCreateGetList(t *testing.T) {
	s := newTestServer(t)
	b, _ := json.Marshal(testProblemBody())
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/problems", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	s.ProblemsHandler(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create problem: got %d body=%s", rr.Code, rr.Body.String())
	}
	var created model.ProblemOut
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil || created.ID == "" {
		t.Fatalf("decode created problem: %v body=%s", err, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	s.ProblemByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/problems/"+created.ID, nil))
	if rr.Code != 200 {
		t.Fatalf("get problem: got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.ProblemsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/problems?limit=5", nil))
	if rr.Code != 200 {
		t.Fatalf("list problems: got %d", rr.Code)
	}
}

func TestProblemsRejectInvalid(t *testing.T) {
	s := newTestServer(t)
	body := testProblemBody()
	body["demands"] = []int64{0, 1, 1, 2, 99} // exceeds every capacity
	b, _ := json.Marshal(body)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/problems", bytes.NewReader(b))
	s.ProblemsHandler(rr, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid problem: got %d, want 422", rr.Code)
	}
}

func TestSolveSyncInline(t *testing.T) {
	s := newTestServer(t)
	req := map[string]any{
		"problem":       testProblemBody(),
		"timeBudgetMs":  100,
		"maxIterations": 200,
		"seed":          7,
	}
	b, _ := json.Marshal(req)
	rr := httptest.NewRecorder()
	hr := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(b))
	hr.Header.Set("Content-Type", "application/json")
	s.SolveHandler(rr, hr)
	if rr.Code != 200 {
		t.Fatalf("solve: got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Solution model.SolutionOut `json:"solution"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Solution.Routes) != 2 {
		t.Fatalf("want 2 routes, got %d", len(resp.Solution.Routes))
	}
	if resp.Solution.TotalLoad != 8 {
		t.Fatalf("total load = %d, want 8", resp.Solution.TotalLoad)
	}
	if resp.Solution.Objective <= 0 {
		t.Fatalf("objective = %d", resp.Solution.Objective)
	}
}

func TestSolveValidation(t *testing.T) {
	s := newTestServer(t)
	for _, body := range []string{
		`{}`,
		`{"problemId":"p1","problem":{"matrix":[[0]],"demands":[0],"capacities":[1],"depot":0}}`,
		`{"problemId":"p1","strategy":"annealing"}`,
		`{"problemId":"p1","timeBudgetMs":-1}`,
	} {
		rr := httptest.NewRecorder()
		hr := httptest.NewRequest(http.MethodPost, "/v1/solve", strings.NewReader(body))
		s.SolveHandler(rr, hr)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %s: got %d, want 400", body, rr.Code)
		}
	}
}

func TestSolveForbiddenForViewer(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	hr := httptest.NewRequest(http.MethodPost, "/v1/solve", strings.NewReader(`{"problemId":"p1"}`))
	hr.Header.Set("X-Role", "viewer")
	s.SolveHandler(rr, hr)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("viewer solve: got %d, want 403", rr.Code)
	}
}

func TestSolveAsyncJobLifecycle(t *testing.T) {
	s := newTestServer(t)
	req := map[string]any{
		"problem":       testProblemBody(),
		"timeBudgetMs":  50,
		"maxIterations": 100,
		"seed":          7,
		"async":         true,
	}
	b, _ := json.Marshal(req)
	rr := httptest.NewRecorder()
	hr := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(b))
	s.SolveHandler(rr, hr)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("async solve: got %d body=%s", rr.Code, rr.Body.String())
	}
	var job model.Job
	if err := json.Unmarshal(rr.Body.Bytes(), &job); err != nil || job.ID == "" {
		t.Fatalf("decode job: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		got, err := s.Store.GetJob(context.Background(), "t_demo", job.ID)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if got.Status == "done" {
			if got.Solution == nil || len(got.Solution.Routes) != 2 {
				t.Fatalf("job solution: %+v", got.Solution)
			}
			break
		}
		if got.Status == "failed" {
			t.Fatalf("job failed: %s", got.Error)
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish, status=%s", got.Status)
		}
		time.Sleep(20 * time.Millisecond)
	}

	// metrics recorded for the finished job
	rr = httptest.NewRecorder()
	s.SolveMetricsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/admin/solve-metrics?jobId="+job.ID, nil))
	if rr.Code != 200 {
		t.Fatalf("solve metrics: got %d body=%s", rr.Code, rr.Body.String())
	}
	var m map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if _, ok := m["iterations"]; !ok {
		t.Fatalf("metrics missing iterations: %v", m)
	}
}

func TestSubscriptionsLifecycle(t *testing.T) {
	s := newTestServer(t)
	b := []byte(`{"url":"https://example.com/hook","events":["solve.completed"],"secret":"sh"}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", bytes.NewReader(b))
	s.SubscriptionsHandler(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create sub: got %d body=%s", rr.Code, rr.Body.String())
	}
	var sub model.Subscription
	if err := json.Unmarshal(rr.Body.Bytes(), &sub); err != nil || sub.ID == "" {
		t.Fatalf("decode sub: %v", err)
	}
	if sub.Secret != "" {
		t.Fatal("secret must not be echoed back")
	}

	rr = httptest.NewRecorder()
	s.SubscriptionsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/subscriptions", nil))
	if rr.Code != 200 {
		t.Fatalf("list subs: got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.SubscriptionByIDHandler(rr, httptest.NewRequest(http.MethodDelete, "/v1/subscriptions/"+sub.ID, nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete sub: got %d", rr.Code)
	}
}

func TestWebhookDeliveriesAdminOnly(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/webhook-deliveries", nil)
	req.Header.Set("X-Role", "planner")
	s.WebhookDeliveriesHandler(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("non-admin deliveries: got %d, want 403", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.WebhookDeliveriesHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/admin/webhook-deliveries", nil))
	if rr.Code != 200 {
		t.Fatalf("admin deliveries: got %d", rr.Code)
	}
}

func TestJobEventsStream(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/j1/events/stream", nil).WithContext(ctx)
	rr := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.JobByIDHandler(rr, req)
		close(done)
	}()

	// let the handler subscribe before publishing
	time.Sleep(50 * time.Millisecond)
	s.Broker.Publish("j1", SSEEvent{Type: "solve.progress", Data: map[string]any{"cost": 99}})
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream handler did not exit on context cancel")
	}

	body := rr.Body.String()
	if !strings.Contains(body, "event: heartbeat") {
		t.Fatalf("missing heartbeat in stream:\n%s", body)
	}
	if !strings.Contains(body, "event: solve.progress") {
		t.Fatalf("missing progress event in stream:\n%s", body)
	}
}
