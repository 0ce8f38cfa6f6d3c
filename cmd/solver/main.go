// Command solver solves a built-in 10-location capacitated routing instance
// and prints the resulting routes.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"vrpsolve/internal/cvrp"
	"vrpsolve/internal/report"
	"vrpsolve/internal/search"
)

var demoMatrix = [][]int64{
	{0, 548, 776, 696, 582, 274, 502, 194, 308, 194},
	{548, 0, 684, 308, 194, 502, 730, 354, 696, 742},
	{776, 684, 0, 992, 878, 502, 274, 810, 468, 742},
	{696, 308, 992, 0, 114, 650, 878, 502, 844, 890},
	{582, 194, 878, 114, 0, 536, 764, 388, 730, 776},
	{274, 502, 502, 650, 536, 0, 228, 308, 194, 240},
	{502, 730, 274, 878, 764, 228, 0, 536, 194, 468},
	{194, 354, 810, 502, 388, 308, 536, 0, 342, 388},
	{308, 696, 468, 844, 730, 194, 194, 342, 0, 274},
	{194, 742, 742, 890, 776, 240, 468, 388, 274, 0},
}

var demoDemands = []int64{0, 1, 1, 2, 4, 2, 4, 8, 8, 1}

func main() {
	var (
		timeLimit = flag.Duration("time-limit", time.Second, "search wall-clock budget")
		vehicles  = flag.Int("vehicles", 4, "fleet size")
		capacity  = flag.Int64("capacity", 15, "capacity per vehicle")
		seed      = flag.Int64("seed", 0, "RNG seed (0 picks one)")
		strategy  = flag.String("strategy", "savings", "construction heuristic: savings or greedy")
		meta      = flag.String("metaheuristic", "gls", "escape metaheuristic: gls or none")
		lambda    = flag.Float64("gls-lambda", 0.1, "guided local search penalty factor")
		asJSON    = flag.Bool("json", false, "emit the solution as JSON instead of text")
	)
	flag.Parse()

	caps := make([]int64, *vehicles)
	for i := range caps {
		caps[i] = *capacity
	}
	prob, err := cvrp.NewProblem(demoMatrix, demoDemands, caps, 0)
	if err != nil {
		log.Fatalf("invalid instance: %v", err)
	}

	params := search.DefaultParams()
	params.TimeBudget = *timeLimit
	params.Seed = *seed
	params.Strategy = search.Strategy(*strategy)
	params.Metaheuristic = search.Metaheuristic(*meta)
	params.GLSLambda = *lambda

	eng, err := search.New(prob, params)
	if err != nil {
		log.Fatalf("engine: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sol, m, err := eng.Solve(ctx)
	if err != nil {
		log.Fatalf("solve: %v", err)
	}
	if err := sol.Validate(prob); err != nil {
		log.Fatalf("solution check: %v", err)
	}

	if *asJSON {
		out := map[string]any{
			"objective":  sol.Objective,
			"routes":     sol.Routes,
			"iterations": m.Iterations,
			"elapsedMs":  m.Elapsed.Milliseconds(),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatalf("encode: %v", err)
		}
		return
	}
	fmt.Print(report.Format(prob, sol))
	log.Printf("iterations=%d improvements=%d construction=%d best=%d elapsed=%v",
		m.Iterations, m.Improvements, m.ConstructionCost, m.BestCost, m.Elapsed)
}
