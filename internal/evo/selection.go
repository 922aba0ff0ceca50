package evo

import (
	"fmt"
	"math/rand"
	"sort"

	"tetrisga/internal/agent"
)

// Selector draws the survivors that breed the next generation.
type Selector interface {
	Name() string
	Select(rng *rand.Rand, scored []ScoredAgent, n int) ([]agent.Agent, error)
}

// RouletteSelector samples with replacement, proportionally to fitness
// shifted so the weakest agent has weight zero. When every shifted weight is
// zero it samples uniformly.
type RouletteSelector struct{}

func (RouletteSelector) Name() string {
	return "roulette"
}

func (RouletteSelector) Select(rng *rand.Rand, scored []ScoredAgent, n int) ([]agent.Agent, error) {
	if err := checkSelectArgs(rng, scored, n); err != nil {
		return nil, err
	}

	lowest := scored[0].Fitness
	for _, s := range scored[1:] {
		lowest = min(lowest, s.Fitness)
	}
	cumulative := make([]float64, len(scored))
	total := 0.0
	for i, s := range scored {
		total += s.Fitness - lowest
		cumulative[i] = total
	}

	out := make([]agent.Agent, 0, n)
	for len(out) < n {
		if total <= 0 {
			out = append(out, scored[rng.Intn(len(scored))].Agent.Clone())
			continue
		}
		r := rng.Float64() * total
		idx := sort.Search(len(cumulative), func(i int) bool { return cumulative[i] > r })
		if idx == len(cumulative) {
			idx = len(cumulative) - 1
		}
		out = append(out, scored[idx].Agent.Clone())
	}
	return out, nil
}

// TournamentSelector samples TournamentSize agents and keeps the fittest of
// them, once per survivor.
type TournamentSelector struct {
	TournamentSize int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) Select(rng *rand.Rand, scored []ScoredAgent, n int) ([]agent.Agent, error) {
	if err := checkSelectArgs(rng, scored, n); err != nil {
		return nil, err
	}
	size := s.TournamentSize
	if size <= 0 {
		size = 3
	}
	if size > len(scored) {
		size = len(scored)
	}

	out := make([]agent.Agent, 0, n)
	for len(out) < n {
		best := scored[rng.Intn(len(scored))]
		for i := 1; i < size; i++ {
			candidate := scored[rng.Intn(len(scored))]
			if candidate.Fitness > best.Fitness {
				best = candidate
			}
		}
		out = append(out, best.Agent.Clone())
	}
	return out, nil
}

func checkSelectArgs(rng *rand.Rand, scored []ScoredAgent, n int) error {
	if rng == nil {
		return fmt.Errorf("random source is required")
	}
	if len(scored) == 0 {
		return fmt.Errorf("cannot select from an empty population")
	}
	if n < 0 {
		return fmt.Errorf("invalid survivor count: %d", n)
	}
	return nil
}

func SelectorFromName(name string, tournamentSize int) (Selector, error) {
	switch name {
	case "", "roulette":
		return RouletteSelector{}, nil
	case "tournament":
		return TournamentSelector{TournamentSize: tournamentSize}, nil
	default:
		return nil, fmt.Errorf("unsupported selection strategy: %s", name)
	}
}
