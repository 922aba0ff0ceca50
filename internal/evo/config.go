package evo

import (
	"errors"
	"fmt"

	"tetrisga/internal/agent"
	"tetrisga/internal/heuristics"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds every knob of a training run. Zero MaxDrops or
// MaxPopulations means unbounded; a nil MaxNonProgressPopulations disables
// the stagnation stop.
type Config struct {
	NEntities                 int      `json:"n_entities"`
	MutationRate              float64  `json:"mutation_rate"`
	MaxDrops                  int      `json:"max_drops"`
	MaxPopulations            int      `json:"max_populations"`
	MaxNonProgressPopulations *int     `json:"max_non_progress_populations,omitempty"`
	Heuristics                []string `json:"heuristics"`

	Branching        string  `json:"branching"`
	Selection        string  `json:"selection"`
	TournamentSize   int     `json:"tournament_size,omitempty"`
	Crossover        string  `json:"crossover"`
	CrossoverRate    float64 `json:"crossover_rate"`
	Mutation         string  `json:"mutation"`
	MutationStrength float64 `json:"mutation_strength"`
	Fitness          string  `json:"fitness"`
	EliteCount       int     `json:"elite_count"`
	WeightMin        float64 `json:"weight_min"`
	WeightMax        float64 `json:"weight_max"`
	Workers          int     `json:"workers"`
	Seed             int64   `json:"seed"`
}

func DefaultConfig() Config {
	return Config{
		NEntities:        100,
		MutationRate:     0.02,
		Heuristics:       heuristics.DefaultNames(),
		Branching:        agent.Current.String(),
		Selection:        "roulette",
		Crossover:        "blend",
		CrossoverRate:    1,
		Mutation:         "replace",
		MutationStrength: 0.2,
		Fitness:          "score",
		WeightMin:        -1,
		WeightMax:        1,
		Seed:             1,
	}
}

// Validate reports the first problem found. It runs before any population
// is built.
func (c Config) Validate() error {
	if c.NEntities == 0 {
		return fmt.Errorf("%w: n entities cannot be 0", ErrInvalidConfig)
	}
	if c.NEntities < 0 {
		return fmt.Errorf("%w: n entities must be > 0, got %d", ErrInvalidConfig, c.NEntities)
	}
	if c.NEntities%2 != 0 {
		return fmt.Errorf("%w: n entities must be even, got %d", ErrInvalidConfig, c.NEntities)
	}
	if len(c.Heuristics) == 0 {
		return fmt.Errorf("%w: heuristics list cannot be empty", ErrInvalidConfig)
	}
	if _, err := heuristics.FromNames(c.Heuristics); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("%w: mutation rate must be in [0, 1], got %g", ErrInvalidConfig, c.MutationRate)
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return fmt.Errorf("%w: crossover rate must be in [0, 1], got %g", ErrInvalidConfig, c.CrossoverRate)
	}
	if c.MaxDrops < 0 {
		return fmt.Errorf("%w: max drops must be >= 0", ErrInvalidConfig)
	}
	if c.MaxPopulations < 0 {
		return fmt.Errorf("%w: max populations must be >= 0", ErrInvalidConfig)
	}
	if c.MaxNonProgressPopulations != nil && *c.MaxNonProgressPopulations < 0 {
		return fmt.Errorf("%w: max non-progress populations must be >= 0", ErrInvalidConfig)
	}
	if c.EliteCount < 0 || c.EliteCount >= c.NEntities {
		return fmt.Errorf("%w: elite count must be in [0, n entities)", ErrInvalidConfig)
	}
	if c.WeightMin >= c.WeightMax && !(c.WeightMin == 0 && c.WeightMax == 0) {
		return fmt.Errorf("%w: weight range [%g, %g) is empty", ErrInvalidConfig, c.WeightMin, c.WeightMax)
	}
	if c.MutationStrength < 0 {
		return fmt.Errorf("%w: mutation strength must be >= 0", ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0", ErrInvalidConfig)
	}
	if _, err := agent.ParseBranchingMode(c.Branching); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := SelectorFromName(c.Selection, c.TournamentSize); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := CrossoverFromName(c.Crossover); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	lo, hi := c.weightRange()
	if _, err := MutatorFromName(c.Mutation, lo, hi, c.MutationStrength); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := FitnessFromName(c.Fitness); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// weightRange treats an unset range as [-1, 1).
func (c Config) weightRange() (float64, float64) {
	if c.WeightMin == 0 && c.WeightMax == 0 {
		return -1, 1
	}
	return c.WeightMin, c.WeightMax
}

// IntPtr is a helper for MaxNonProgressPopulations literals.
func IntPtr(v int) *int {
	return &v
}
