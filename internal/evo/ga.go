package evo

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"

	"github.com/rs/zerolog"

	"tetrisga/internal/agent"
	"tetrisga/internal/heuristics"
)

// StopReason tells why Train returned.
type StopReason string

const (
	StopMaxPopulations StopReason = "max_populations"
	StopNonProgress    StopReason = "non_progress"
	StopCanceled       StopReason = "canceled"
)

// Observer is called after every evaluated generation, from the goroutine
// running Train.
type Observer func(GenerationStats)

type Option func(*GA)

func WithLogger(logger zerolog.Logger) Option {
	return func(g *GA) {
		g.ops.logger = logger
	}
}

func WithObserver(fn Observer) Option {
	return func(g *GA) {
		g.observer = fn
	}
}

// GA drives successive populations and keeps the best agent seen so far.
type GA struct {
	ops      *operators
	observer Observer
}

// Result is what a training run produced. Best is the fittest agent over
// all generations, with the score of the playout that earned its fitness.
type Result struct {
	Best        ScoredAgent
	Generations []GenerationStats
	Reason      StopReason
}

func New(cfg Config, opts ...Option) (*GA, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	set, err := heuristics.FromNames(cfg.Heuristics)
	if err != nil {
		return nil, err
	}
	branching, err := agent.ParseBranchingMode(cfg.Branching)
	if err != nil {
		return nil, err
	}
	selector, err := SelectorFromName(cfg.Selection, cfg.TournamentSize)
	if err != nil {
		return nil, err
	}
	crossover, err := CrossoverFromName(cfg.Crossover)
	if err != nil {
		return nil, err
	}
	lo, hi := cfg.weightRange()
	mutator, err := MutatorFromName(cfg.Mutation, lo, hi, cfg.MutationStrength)
	if err != nil {
		return nil, err
	}
	fitness, err := FitnessFromName(cfg.Fitness)
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g := &GA{
		ops: &operators{
			cfg:       cfg,
			set:       set,
			branching: branching,
			selector:  selector,
			crossover: crossover,
			mutator:   mutator,
			fitness:   fitness,
			workers:   workers,
			logger:    zerolog.Nop(),
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *GA) Config() Config {
	return g.ops.cfg
}

func (g *GA) Heuristics() heuristics.Set {
	return g.ops.set
}

// Train runs generations until MaxPopulations is reached, the non-progress
// counter exceeds MaxNonProgressPopulations, or ctx is done. With neither
// bound set it only stops on ctx. On cancellation the partial result is
// returned together with the context error.
func (g *GA) Train(ctx context.Context) (Result, error) {
	cfg := g.ops.cfg
	logger := g.ops.logger
	pop := spawnPopulation(g.ops, rand.New(rand.NewSource(cfg.Seed)))

	var (
		res         Result
		haveBest    bool
		nonProgress int
	)
	for {
		if err := ctx.Err(); err != nil {
			res.Reason = StopCanceled
			return res, err
		}

		scored, err := pop.Evaluate(ctx)
		if err != nil {
			if ctx.Err() != nil {
				res.Reason = StopCanceled
				return res, ctx.Err()
			}
			return res, fmt.Errorf("generation %d: %w", pop.Generation, err)
		}

		stats := Summarize(pop.Generation, scored)
		if top := bestOf(scored); !haveBest || top.Fitness > res.Best.Fitness {
			res.Best = ScoredAgent{Agent: fresh(top.Agent), Score: top.Score, Fitness: top.Fitness}
			haveBest = true
			nonProgress = 0
			stats.Improved = true
		} else {
			nonProgress++
		}
		stats.NonProgress = nonProgress
		res.Generations = append(res.Generations, stats)

		logger.Info().
			Int("generation", stats.Generation).
			Float64("biggest", stats.Biggest).
			Float64("mean", stats.Mean).
			Float64("median", stats.Median).
			Float64("lowest", stats.Lowest).
			Float64("best_overall", res.Best.Fitness).
			Int("non_progress", nonProgress).
			Msg("generation evaluated")
		if g.observer != nil {
			g.observer(stats)
		}

		if cfg.MaxPopulations > 0 && pop.Generation >= cfg.MaxPopulations {
			res.Reason = StopMaxPopulations
			return res, nil
		}
		if cfg.MaxNonProgressPopulations != nil && nonProgress > *cfg.MaxNonProgressPopulations {
			res.Reason = StopNonProgress
			return res, nil
		}

		next, err := pop.Next(scored)
		if err != nil {
			return res, fmt.Errorf("generation %d: %w", pop.Generation, err)
		}
		pop = next
	}
}
