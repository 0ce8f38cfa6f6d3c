package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"vrpsolve/internal/config"
)

func TestRateLimitScopedToSolveRoutes(t *testing.T) {
	cfg := config.Config{Port: "0", RateRPS: 0.001, RateBurst: 1}
	cfg.Solver.TimeBudgetMs = 100
	cfg.Solver.MaxTimeBudgetMs = 1000
	cfg.Solver.Strategy = "savings"
	cfg.Solver.Metaheuristic = "none"
	s, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/solve", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/healthz", s.HealthHandler)
	handler := s.RateLimitMiddleware(mux)

	do := func(path string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Tenant-Id", "t_rl")
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do("/v1/solve"); code != http.StatusOK {
		t.Fatalf("first solve request: %d", code)
	}
	if code := do("/v1/solve"); code != http.StatusTooManyRequests {
		t.Fatalf("second solve request: %d, want 429", code)
	}
	// health and telemetry never consume solve tokens
	for i := 0; i < 5; i++ {
		if code := do("/healthz"); code != http.StatusOK {
			t.Fatalf("healthz request %d: %d", i, code)
		}
	}
}
