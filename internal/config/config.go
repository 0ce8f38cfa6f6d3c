package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds server settings. Values come from the environment, with an
// optional YAML file (SOLVER_CONFIG) overriding solver defaults only.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	RateRPS     float64
	RateBurst   int

	Solver SolverDefaults
}

// SolverDefaults bound per-request search parameters.
type SolverDefaults struct {
	TimeBudgetMs    int     `yaml:"timeBudgetMs"`
	MaxTimeBudgetMs int     `yaml:"maxTimeBudgetMs"`
	Strategy        string  `yaml:"strategy"`
	Metaheuristic   string  `yaml:"metaheuristic"`
	GLSLambda       float64 `yaml:"glsLambda"`
	SnapshotEvery   int     `yaml:"snapshotEvery"`
}

func defaultSolver() SolverDefaults {
	return SolverDefaults{
		TimeBudgetMs:    1000,
		MaxTimeBudgetMs: 30000,
		Strategy:        "savings",
		Metaheuristic:   "gls",
		GLSLambda:       0.1,
		SnapshotEvery:   50,
	}
}

// Load reads configuration from the environment and the optional YAML file.
func Load() (Config, error) {
	cfg := Config{
		Port:        getenv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		RateRPS:     getenvFloat("RATE_RPS", 50),
		RateBurst:   getenvInt("RATE_BURST", 100),
		Solver:      defaultSolver(),
	}
	if path := os.Getenv("SOLVER_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read solver config: %w", err)
		}
		var sd SolverDefaults
		if err := yaml.Unmarshal(raw, &sd); err != nil {
			return cfg, fmt.Errorf("parse solver config: %w", err)
		}
		cfg.Solver = mergeSolver(cfg.Solver, sd)
	}
	return cfg, nil
}

func mergeSolver(base, over SolverDefaults) SolverDefaults {
	if over.TimeBudgetMs > 0 {
		base.TimeBudgetMs = over.TimeBudgetMs
	}
	if over.MaxTimeBudgetMs > 0 {
		base.MaxTimeBudgetMs = over.MaxTimeBudgetMs
	}
	if over.Strategy != "" {
		base.Strategy = over.Strategy
	}
	if over.Metaheuristic != "" {
		base.Metaheuristic = over.Metaheuristic
	}
	if over.GLSLambda > 0 {
		base.GLSLambda = over.GLSLambda
	}
	if over.SnapshotEvery > 0 {
		base.SnapshotEvery = over.SnapshotEvery
	}
	return base
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
