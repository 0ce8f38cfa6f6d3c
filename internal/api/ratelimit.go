package api

import (
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// tenantLimiter keeps one token bucket per tenant.
type tenantLimiter struct {
	mu    sync.Mutex
	eps   map[string]*rate.Limiter
	rps   rate.Limit
	burst int
}

func newTenantLimiter(rps float64, burst int) *tenantLimiter {
	if rps <= 0 {
		rps = 50
	}
	if burst <= 0 {
		burst = 100
	}
	return &tenantLimiter{eps: map[string]*rate.Limiter{}, rps: rate.Limit(rps), burst: burst}
}

func (t *tenantLimiter) get(tenant string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.eps[tenant]
	if !ok {
		l = rate.NewLimiter(t.rps, t.burst)
		t.eps[tenant] = l
	}
	return l
}

// RateLimitMiddleware rejects solve requests over the per-tenant budget
// with 429. Only /v1/solve routes consume tokens; reads, health, and
// telemetry endpoints pass through.
func (s *Server) RateLimitMiddleware(next http.Handler) http.Handler {
	lim := newTenantLimiter(s.Cfg.RateRPS, s.Cfg.RateBurst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/solve") {
			_, tenant := s.withTenant(r)
			if !lim.get(tenant).Allow() {
				writeProblem(w, http.StatusTooManyRequests, "Rate limit exceeded", "", r.URL.Path)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
