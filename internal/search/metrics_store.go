package search

import "sync"

type metricsKey struct {
	Tenant string
	JobID  string
}

var (
	metricsMu sync.Mutex
	metricsBy = map[metricsKey]Metrics{}
)

// RecordMetrics keeps the run metrics of a solve job in memory so the admin
// endpoints can serve them even without a database.
func RecordMetrics(tenant, jobID string, m Metrics) {
	metricsMu.Lock()
	metricsBy[metricsKey{Tenant: tenant, JobID: jobID}] = m
	metricsMu.Unlock()
}

// GetMetrics returns the recorded metrics for a tenant's job, if any.
func GetMetrics(tenant, jobID string) (Metrics, bool) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	m, ok := metricsBy[metricsKey{Tenant: tenant, JobID: jobID}]
	return m, ok
}
