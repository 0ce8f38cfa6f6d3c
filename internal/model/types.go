package model

// API request/response types for the solve service.

// ProblemIn is an instance as submitted by a client.
type ProblemIn struct {
	Name       string    `json:"name,omitempty"`
	Matrix     [][]int64 `json:"matrix"`
	Demands    []int64   `json:"demands"`
	Capacities []int64   `json:"capacities"`
	Depot      int       `json:"depot"`
}

// ProblemOut is a stored instance.
type ProblemOut struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenantId"`
	Name       string    `json:"name,omitempty"`
	Matrix     [][]int64 `json:"matrix"`
	Demands    []int64   `json:"demands"`
	Capacities []int64   `json:"capacities"`
	Depot      int       `json:"depot"`
	CreatedAt  string    `json:"createdAt,omitempty"`
}

// SolveRequest starts a solve of a stored or inline problem.
type SolveRequest struct {
	TenantID      string     `json:"tenantId,omitempty"`
	ProblemID     string     `json:"problemId,omitempty"`
	Problem       *ProblemIn `json:"problem,omitempty"`
	TimeBudgetMs  int        `json:"timeBudgetMs,omitempty"`
	MaxIterations int        `json:"maxIterations,omitempty"`
	Seed          int64      `json:"seed,omitempty"`
	Strategy      string     `json:"strategy,omitempty"`      // savings, greedy
	Metaheuristic string     `json:"metaheuristic,omitempty"` // gls, none
	GLSLambda     float64    `json:"glsLambda,omitempty"`
	Async         bool       `json:"async,omitempty"`
}

// RouteOut is one vehicle's solved route.
type RouteOut struct {
	Vehicle int   `json:"vehicle"`
	Nodes   []int `json:"nodes"`
	Load    int64 `json:"load"`
	DistM   int64 `json:"distM"`
}

// SolutionOut is a solved assignment.
type SolutionOut struct {
	Objective  int64      `json:"objective"`
	Routes     []RouteOut `json:"routes"`
	TotalDistM int64      `json:"totalDistM"`
	TotalLoad  int64      `json:"totalLoad"`
}

// Job tracks one solve run.
type Job struct {
	ID         string       `json:"id"`
	TenantID   string       `json:"tenantId"`
	ProblemID  string       `json:"problemId,omitempty"`
	Status     string       `json:"status"` // pending, running, done, failed
	Error      string       `json:"error,omitempty"`
	Solution   *SolutionOut `json:"solution,omitempty"`
	CreatedAt  string       `json:"createdAt,omitempty"`
	FinishedAt string       `json:"finishedAt,omitempty"`
}

// SubscriptionRequest registers a webhook endpoint.
type SubscriptionRequest struct {
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"` // solve.completed, solve.failed
	Secret   string   `json:"secret"`
}

// Subscription is a stored webhook endpoint.
type Subscription struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret,omitempty"`
}
