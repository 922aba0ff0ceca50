package evo

import (
	"fmt"
	"math/rand"
)

// Crossover recombines two parent weight vectors into two children. The
// parents are never modified.
type Crossover interface {
	Name() string
	Cross(rng *rand.Rand, a, b []float64) ([]float64, []float64)
}

// Mutator changes a weight vector in place.
type Mutator interface {
	Name() string
	Mutate(rng *rand.Rand, weights []float64)
}

// BlendCrossover interpolates with one random coefficient per pair.
type BlendCrossover struct{}

func (BlendCrossover) Name() string {
	return "blend"
}

func (BlendCrossover) Cross(rng *rand.Rand, a, b []float64) ([]float64, []float64) {
	alpha := rng.Float64()
	x := make([]float64, len(a))
	y := make([]float64, len(a))
	for i := range a {
		x[i] = alpha*a[i] + (1-alpha)*b[i]
		y[i] = (1-alpha)*a[i] + alpha*b[i]
	}
	return x, y
}

// SplitCrossover swaps the suffixes after a random cut point.
type SplitCrossover struct{}

func (SplitCrossover) Name() string {
	return "split"
}

func (SplitCrossover) Cross(rng *rand.Rand, a, b []float64) ([]float64, []float64) {
	x := append([]float64(nil), a...)
	y := append([]float64(nil), b...)
	if len(a) < 2 {
		return x, y
	}
	cut := 1 + rng.Intn(len(a)-1)
	copy(x[cut:], b[cut:])
	copy(y[cut:], a[cut:])
	return x, y
}

// ReplaceMutation resamples one weight from the initial range.
type ReplaceMutation struct {
	Min float64
	Max float64
}

func (ReplaceMutation) Name() string {
	return "replace"
}

func (m ReplaceMutation) Mutate(rng *rand.Rand, weights []float64) {
	if len(weights) == 0 {
		return
	}
	weights[rng.Intn(len(weights))] = m.Min + rng.Float64()*(m.Max-m.Min)
}

// PerturbMutation nudges one weight by a uniform delta in
// [-Strength, Strength).
type PerturbMutation struct {
	Strength float64
}

func (PerturbMutation) Name() string {
	return "perturb"
}

func (m PerturbMutation) Mutate(rng *rand.Rand, weights []float64) {
	if len(weights) == 0 {
		return
	}
	weights[rng.Intn(len(weights))] += (rng.Float64()*2 - 1) * m.Strength
}

func CrossoverFromName(name string) (Crossover, error) {
	switch name {
	case "", "blend":
		return BlendCrossover{}, nil
	case "split":
		return SplitCrossover{}, nil
	default:
		return nil, fmt.Errorf("unsupported crossover: %s", name)
	}
}

func MutatorFromName(name string, lo, hi, strength float64) (Mutator, error) {
	switch name {
	case "", "replace":
		return ReplaceMutation{Min: lo, Max: hi}, nil
	case "perturb":
		return PerturbMutation{Strength: strength}, nil
	default:
		return nil, fmt.Errorf("unsupported mutation: %s", name)
	}
}
