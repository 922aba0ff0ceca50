package evo

import (
	"sort"

	"tetrisga/internal/tetris"
)

// GenerationStats summarises one evaluated generation.
type GenerationStats struct {
	Generation  int          `json:"generation"`
	Biggest     float64      `json:"biggest"`
	Lowest      float64      `json:"lowest"`
	Mean        float64      `json:"mean"`
	Median      float64      `json:"median"`
	BestWeights []float64    `json:"best_weights"`
	BestScore   tetris.Score `json:"best_score"`
	Improved    bool         `json:"improved"`
	NonProgress int          `json:"non_progress"`
}

// Summarize computes fitness statistics. The best agent is the first one
// holding the biggest fitness.
func Summarize(generation int, scored []ScoredAgent) GenerationStats {
	if len(scored) == 0 {
		return GenerationStats{Generation: generation}
	}

	best := 0
	total := 0.0
	fitness := make([]float64, len(scored))
	for i, s := range scored {
		fitness[i] = s.Fitness
		total += s.Fitness
		if s.Fitness > scored[best].Fitness {
			best = i
		}
	}
	sort.Float64s(fitness)

	return GenerationStats{
		Generation:  generation,
		Biggest:     fitness[len(fitness)-1],
		Lowest:      fitness[0],
		Mean:        total / float64(len(fitness)),
		Median:      median(fitness),
		BestWeights: append([]float64(nil), scored[best].Agent.Weights...),
		BestScore:   scored[best].Score,
	}
}

// median expects sorted input.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func bestOf(scored []ScoredAgent) ScoredAgent {
	best := scored[0]
	for _, s := range scored[1:] {
		if s.Fitness > best.Fitness {
			best = s
		}
	}
	return best
}
