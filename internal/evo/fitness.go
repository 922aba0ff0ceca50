package evo

import (
	"fmt"

	"tetrisga/internal/tetris"
)

// Fitness turns the final score of a playout into the value selection
// maximises.
type Fitness interface {
	Name() string
	Of(score tetris.Score) float64
}

// ScoreFitness uses the line-clear points.
type ScoreFitness struct{}

func (ScoreFitness) Name() string {
	return "score"
}

func (ScoreFitness) Of(score tetris.Score) float64 {
	return float64(score.Score)
}

// DroppedPiecesFitness rewards survival rather than clears.
type DroppedPiecesFitness struct{}

func (DroppedPiecesFitness) Name() string {
	return "dropped_pieces"
}

func (DroppedPiecesFitness) Of(score tetris.Score) float64 {
	return float64(score.DroppedPieces)
}

func FitnessFromName(name string) (Fitness, error) {
	switch name {
	case "", "score":
		return ScoreFitness{}, nil
	case "dropped_pieces":
		return DroppedPiecesFitness{}, nil
	default:
		return nil, fmt.Errorf("unsupported fitness: %s", name)
	}
}
