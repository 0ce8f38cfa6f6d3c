package api

import (
	"context"
	"fmt"
	"time"

	"vrpsolve/internal/cvrp"
	"vrpsolve/internal/metrics"
	"vrpsolve/internal/model"
	"vrpsolve/internal/search"
	"vrpsolve/internal/webhooks"
)

// Runner executes solve jobs against the search engine and reports progress
// through the event broker.
type Runner struct {
	srv *Server
}

func NewRunner(s *Server) *Runner {
	return &Runner{srv: s}
}

// resolveProblem loads a stored instance or validates an inline one.
func (rn *Runner) resolveProblem(ctx context.Context, tenant string, req model.SolveRequest) (*cvrp.Problem, error) {
	if req.Problem != nil {
		return buildProblem(*req.Problem)
	}
	stored, err := rn.srv.Store.GetProblem(ctx, tenant, req.ProblemID)
	if err != nil {
		return nil, fmt.Errorf("load problem %s: %w", req.ProblemID, err)
	}
	return cvrp.NewProblem(stored.Matrix, stored.Demands, stored.Capacities, stored.Depot)
}

// RunSync solves in the caller's goroutine and returns the result.
func (rn *Runner) RunSync(ctx context.Context, tenant string, req model.SolveRequest) (model.SolutionOut, search.Metrics, error) {
	prob, err := rn.resolveProblem(ctx, tenant, req)
	if err != nil {
		metrics.SolveJobs.WithLabelValues("failed").Inc()
		return model.SolutionOut{}, search.Metrics{}, err
	}
	out, m, err := rn.srv.runEngine(ctx, prob, rn.srv.solveParams(req))
	if err != nil {
		metrics.SolveJobs.WithLabelValues("failed").Inc()
	}
	return out, m, err
}

// runEngine executes one solve and records run counters on success. Failure
// accounting is the caller's job since each entry point reports differently.
func (s *Server) runEngine(ctx context.Context, prob *cvrp.Problem, params search.Params) (model.SolutionOut, search.Metrics, error) {
	eng, err := search.New(prob, params)
	if err != nil {
		return model.SolutionOut{}, search.Metrics{}, err
	}
	start := time.Now()
	sol, m, err := eng.Solve(ctx)
	if err != nil {
		return model.SolutionOut{}, m, err
	}
	metrics.SolveJobs.WithLabelValues("done").Inc()
	metrics.SolveDuration.Observe(time.Since(start).Seconds())
	metrics.SolveIterations.Add(float64(m.Iterations))
	metrics.SolveObjective.Set(float64(sol.Objective))
	return toSolutionOut(sol), m, nil
}

// StartAsync creates a job record and solves in the background, streaming
// progress events and emitting a webhook on completion.
func (rn *Runner) StartAsync(tenant string, req model.SolveRequest) (model.Job, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := rn.srv.Store.CreateJob(ctx, model.Job{TenantID: tenant, ProblemID: req.ProblemID, Status: "pending"})
	if err != nil {
		return model.Job{}, err
	}
	go rn.run(job, tenant, req)
	return job, nil
}

func (rn *Runner) run(job model.Job, tenant string, req model.SolveRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	_, _ = rn.srv.Store.UpdateJob(ctx, tenant, job.ID, "running", nil, "")
	rn.publish(job.ID, "solve.started", map[string]any{"jobId": job.ID})

	prob, err := rn.resolveProblem(ctx, tenant, req)
	if err != nil {
		rn.fail(ctx, tenant, job.ID, err)
		return
	}
	params := rn.srv.solveParams(req)
	params.OnImprove = func(iteration int, cost int64) {
		rn.publish(job.ID, "solve.progress", map[string]any{
			"jobId":     job.ID,
			"iteration": iteration,
			"cost":      cost,
		})
	}
	out, m, err := rn.srv.runEngine(ctx, prob, params)
	if err != nil {
		rn.fail(ctx, tenant, job.ID, err)
		return
	}
	_, _ = rn.srv.Store.UpdateJob(ctx, tenant, job.ID, "done", &out, "")

	search.RecordMetrics(tenant, job.ID, m)
	_ = rn.srv.Store.SaveSolveMetrics(ctx, tenant, job.ID, metricsMap(m))

	rn.publish(job.ID, "solve.completed", map[string]any{
		"jobId":     job.ID,
		"objective": out.Objective,
		"routes":    len(out.Routes),
	})
	rn.srv.Pub.Emit(ctx, tenant, webhooks.EventSolveCompleted, map[string]any{
		"jobId":     job.ID,
		"problemId": req.ProblemID,
		"objective": out.Objective,
		"solution":  out,
	})
}

func (rn *Runner) fail(ctx context.Context, tenant, jobID string, err error) {
	_, _ = rn.srv.Store.UpdateJob(ctx, tenant, jobID, "failed", nil, err.Error())
	metrics.SolveJobs.WithLabelValues("failed").Inc()
	rn.publish(jobID, "solve.failed", map[string]any{"jobId": jobID, "error": err.Error()})
	rn.srv.Pub.Emit(ctx, tenant, webhooks.EventSolveFailed, map[string]any{
		"jobId": jobID,
		"error": err.Error(),
	})
}

func (rn *Runner) publish(jobID, eventType string, data map[string]any) {
	rn.srv.Broker.Publish(jobID, SSEEvent{Type: eventType, Data: data})
}

func toSolutionOut(sol cvrp.Solution) model.SolutionOut {
	out := model.SolutionOut{Objective: sol.Objective, Routes: make([]model.RouteOut, 0, len(sol.Routes))}
	for _, rt := range sol.Routes {
		out.Routes = append(out.Routes, model.RouteOut{
			Vehicle: rt.Vehicle,
			Nodes:   append([]int{}, rt.Nodes...),
			Load:    rt.Load,
			DistM:   rt.Distance,
		})
		out.TotalDistM += rt.Distance
		out.TotalLoad += rt.Load
	}
	return out
}

func metricsMap(m search.Metrics) map[string]any {
	return map[string]any{
		"iterations":       m.Iterations,
		"improvements":     m.Improvements,
		"penalizations":    m.Penalizations,
		"penalizedArcs":    m.PenalizedArcs,
		"constructionCost": m.ConstructionCost,
		"bestCost":         m.BestCost,
		"finalCost":        m.FinalCost,
		"elapsedMs":        m.Elapsed.Milliseconds(),
	}
}
