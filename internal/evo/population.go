package evo

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tetrisga/internal/agent"
	"tetrisga/internal/heuristics"
	"tetrisga/internal/tetris"
)

// ScoredAgent is an agent together with the outcome of its last playout.
type ScoredAgent struct {
	Agent   agent.Agent
	Score   tetris.Score
	Fitness float64
}

// operators bundles the resolved strategies a population breeds with.
type operators struct {
	cfg       Config
	set       heuristics.Set
	branching agent.BranchingMode
	selector  Selector
	crossover Crossover
	mutator   Mutator
	fitness   Fitness
	workers   int
	logger    zerolog.Logger
}

// Population is one generation of agents.
type Population struct {
	Generation int
	Agents     []agent.Agent

	ops *operators
	rng *rand.Rand
}

func spawnPopulation(ops *operators, rng *rand.Rand) *Population {
	lo, hi := ops.cfg.weightRange()
	agents := make([]agent.Agent, ops.cfg.NEntities)
	for i := range agents {
		agents[i] = agent.Random(rng, ops.set, lo, hi)
		agents[i].Branching = ops.branching
	}
	return &Population{Generation: 1, Agents: agents, ops: ops, rng: rng}
}

// Evaluate plays one fresh game per agent on the worker pool. Seeds are
// drawn from the population RNG up front so results do not depend on
// scheduling. The returned slice keeps the order of p.Agents.
func (p *Population) Evaluate(ctx context.Context) ([]ScoredAgent, error) {
	seeds := make([]int64, len(p.Agents))
	for i := range seeds {
		seeds[i] = p.rng.Int63()
	}

	scored := make([]ScoredAgent, len(p.Agents))
	playErrs := make([]error, len(p.Agents))

	var g errgroup.Group
	g.SetLimit(p.ops.workers)
	for i := range p.Agents {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			a := p.Agents[i].Clone()
			src := tetris.NewRandomSource(rand.New(rand.NewSource(seeds[i])))
			score, err := a.Play(src, p.ops.cfg.MaxDrops)
			if err != nil {
				playErrs[i] = fmt.Errorf("agent %d: %w", i, err)
				return nil
			}
			fitness := p.ops.fitness.Of(score)
			p.ops.logger.Debug().
				Int("generation", p.Generation).
				Int("agent", i).
				Int("score", score.Score).
				Int("dropped", score.DroppedPieces).
				Float64("fitness", fitness).
				Msg("playout finished")
			scored[i] = ScoredAgent{Agent: a, Score: score, Fitness: fitness}
			return nil
		})
	}
	waitErr := g.Wait()

	// The lowest-index playout failure wins.
	for _, err := range playErrs {
		if err != nil {
			return nil, err
		}
	}
	if waitErr != nil {
		return nil, waitErr
	}
	return scored, nil
}

// Next breeds the following generation from the scored agents: the
// EliteCount fittest are copied unchanged, the rest are selected, paired for
// crossover and mutated.
func (p *Population) Next(scored []ScoredAgent) (*Population, error) {
	cfg := p.ops.cfg
	if len(scored) != len(p.Agents) {
		return nil, fmt.Errorf("scored population mismatch: got=%d want=%d", len(scored), len(p.Agents))
	}

	next := make([]agent.Agent, 0, cfg.NEntities)
	if cfg.EliteCount > 0 {
		ranked := append([]ScoredAgent(nil), scored...)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Fitness > ranked[j].Fitness
		})
		for _, s := range ranked[:cfg.EliteCount] {
			next = append(next, fresh(s.Agent))
		}
	}

	survivors, err := p.ops.selector.Select(p.rng, scored, cfg.NEntities-cfg.EliteCount)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	for i := 0; i+1 < len(survivors); i += 2 {
		a, b := survivors[i], survivors[i+1]
		if p.rng.Float64() < cfg.CrossoverRate {
			a.Weights, b.Weights = p.ops.crossover.Cross(p.rng, a.Weights, b.Weights)
		}
		next = append(next, fresh(a), fresh(b))
	}
	if len(survivors)%2 == 1 {
		next = append(next, fresh(survivors[len(survivors)-1]))
	}

	for i := cfg.EliteCount; i < len(next); i++ {
		if p.rng.Float64() < cfg.MutationRate {
			p.ops.mutator.Mutate(p.rng, next[i].Weights)
		}
	}

	return &Population{Generation: p.Generation + 1, Agents: next, ops: p.ops, rng: p.rng}, nil
}

// fresh drops the finished game so only weights carry over.
func fresh(a agent.Agent) agent.Agent {
	out := a.Clone()
	out.Game = tetris.Game{}
	return out
}
