package api

import (
	"fmt"
	"time"

	"vrpsolve/internal/cvrp"
	"vrpsolve/internal/model"
	"vrpsolve/internal/search"
)

func validateSolveRequest(req *model.SolveRequest) error {
	if req.ProblemID == "" && req.Problem == nil {
		return fmt.Errorf("either problemId or an inline problem is required")
	}
	if req.ProblemID != "" && req.Problem != nil {
		return fmt.Errorf("problemId and inline problem are mutually exclusive")
	}
	if req.TimeBudgetMs < 0 {
		return fmt.Errorf("timeBudgetMs must be >= 0")
	}
	if req.MaxIterations < 0 {
		return fmt.Errorf("maxIterations must be >= 0")
	}
	if req.Strategy != "" && req.Strategy != "savings" && req.Strategy != "greedy" {
		return fmt.Errorf("invalid strategy: %s", req.Strategy)
	}
	if req.Metaheuristic != "" && req.Metaheuristic != "gls" && req.Metaheuristic != "none" {
		return fmt.Errorf("invalid metaheuristic: %s", req.Metaheuristic)
	}
	if req.GLSLambda < 0 {
		return fmt.Errorf("glsLambda must be >= 0")
	}
	return nil
}

// buildProblem converts a stored or inline instance into a validated Problem.
func buildProblem(in model.ProblemIn) (*cvrp.Problem, error) {
	return cvrp.NewProblem(in.Matrix, in.Demands, in.Capacities, in.Depot)
}

// solveParams maps a request onto engine parameters bounded by server config.
func (s *Server) solveParams(req model.SolveRequest) search.Params {
	d := s.Cfg.Solver
	params := search.DefaultParams()
	params.TimeBudget = time.Duration(d.TimeBudgetMs) * time.Millisecond
	params.Strategy = search.Strategy(d.Strategy)
	params.Metaheuristic = search.Metaheuristic(d.Metaheuristic)
	params.GLSLambda = d.GLSLambda
	params.SnapshotEvery = d.SnapshotEvery

	if req.TimeBudgetMs > 0 {
		ms := req.TimeBudgetMs
		if d.MaxTimeBudgetMs > 0 && ms > d.MaxTimeBudgetMs {
			ms = d.MaxTimeBudgetMs
		}
		params.TimeBudget = time.Duration(ms) * time.Millisecond
	}
	if req.MaxIterations > 0 {
		params.MaxIterations = req.MaxIterations
	}
	if req.Seed != 0 {
		params.Seed = req.Seed
	}
	if req.Strategy != "" {
		params.Strategy = search.Strategy(req.Strategy)
	}
	if req.Metaheuristic != "" {
		params.Metaheuristic = search.Metaheuristic(req.Metaheuristic)
	}
	if req.GLSLambda > 0 {
		params.GLSLambda = req.GLSLambda
	}
	return params
}
