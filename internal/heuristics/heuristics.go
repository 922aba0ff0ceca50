// Package heuristics scores board positions. Every function here is pure and
// safe to call from many goroutines on the same board.
package heuristics

import (
	"math"

	"tetrisga/internal/tetris"
)

// Func maps a board to a scalar. Lower is better for the agent.
type Func func(b *tetris.Board) float64

// Heuristic pairs a Func with the stable name used in configs and weight
// files.
type Heuristic struct {
	Name string
	Eval Func
}

// Bumpiness sums the absolute height differences of adjacent columns.
func Bumpiness(b *tetris.Board) float64 {
	heights := b.ColumnHeights()
	total := 0
	for x := 1; x < len(heights); x++ {
		d := heights[x] - heights[x-1]
		if d < 0 {
			d = -d
		}
		total += d
	}
	return float64(total)
}

// Holes counts empty cells that lie below the top block of their column.
func Holes(b *tetris.Board) float64 {
	heights := b.ColumnHeights()
	holes := 0
	for x, h := range heights {
		for y := 0; y < h; y++ {
			if !b.Occupied(tetris.Coord{X: x, Y: y}) {
				holes++
			}
		}
	}
	return float64(holes)
}

func HighestBlock(b *tetris.Board) float64 {
	return float64(b.HighestBlock())
}

// RelativeDiff is the spread between the tallest and the shortest column.
func RelativeDiff(b *tetris.Board) float64 {
	heights := b.ColumnHeights()
	lo, hi := heights[0], heights[0]
	for _, h := range heights[1:] {
		lo = min(lo, h)
		hi = max(hi, h)
	}
	return float64(hi - lo)
}

// ClearPotential drops a vertical I into every column of a scratch copy of
// the board and returns the most rows any single drop clears.
func ClearPotential(b *tetris.Board) float64 {
	best := 0
	for x := 0; x < tetris.Width; x++ {
		g := tetris.NewBuilder().
			Board(*b).
			Piece(tetris.I, tetris.Coord{X: x, Y: tetris.SpawnAnchor.Y}).
			Build()
		if blocked(&g) {
			continue
		}
		g.HardDrop()
		best = max(best, g.Score.ClearedRows)
	}
	return float64(best)
}

func blocked(g *tetris.Game) bool {
	for _, c := range g.PieceCells() {
		if !tetris.InBounds(c) || g.Board.Occupied(c) {
			return true
		}
	}
	return false
}

// DistanceFromFour rewards a modal column height of four. Below four the
// penalty is linear, above it doubles per extra row. Ties between modes go
// to the lower height.
func DistanceFromFour(b *tetris.Board) float64 {
	var counts [tetris.TotalHeight + 1]int
	for _, h := range b.ColumnHeights() {
		counts[h]++
	}
	mode := 0
	for h, n := range counts {
		if n > counts[mode] {
			mode = h
		}
	}
	if mode <= 4 {
		return float64(4 - mode)
	}
	return math.Exp2(float64(mode - 4))
}
