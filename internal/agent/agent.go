package agent

import (
	"errors"
	"fmt"
	"math/rand"

	"tetrisga/internal/heuristics"
	"tetrisga/internal/tetris"
)

var ErrWeightCount = errors.New("weight count does not match heuristic count")

// Agent plays by scoring every reachable placement with a weighted sum of
// heuristics and taking the lowest.
type Agent struct {
	Game       tetris.Game
	Weights    []float64
	Heuristics heuristics.Set
	Branching  BranchingMode
}

// FromWeights builds an agent with explicit weights, one per heuristic.
func FromWeights(weights []float64, set heuristics.Set) (Agent, error) {
	if set.Len() == 0 {
		return Agent{}, heuristics.ErrEmptySet
	}
	if len(weights) != set.Len() {
		return Agent{}, fmt.Errorf("%w: weights=%d heuristics=%d", ErrWeightCount, len(weights), set.Len())
	}
	return Agent{
		Weights:    append([]float64(nil), weights...),
		Heuristics: set,
	}, nil
}

// Random draws every weight uniformly from [lo, hi).
func Random(rng *rand.Rand, set heuristics.Set, lo, hi float64) Agent {
	weights := make([]float64, set.Len())
	for i := range weights {
		weights[i] = lo + rng.Float64()*(hi-lo)
	}
	return Agent{Weights: weights, Heuristics: set}
}

// Clone copies the weights; the heuristic set stays shared.
func (a Agent) Clone() Agent {
	a.Weights = append([]float64(nil), a.Weights...)
	return a
}

// Forward is the weighted heuristic score of a board.
func (a *Agent) Forward(b *tetris.Board) float64 {
	sum := 0.0
	for i, w := range a.Weights {
		sum += w * a.Heuristics.At(i).Eval(b)
	}
	return sum
}
