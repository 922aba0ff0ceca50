package stats

import (
	"context"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"tetrisga/internal/agent"
	"tetrisga/internal/evo"
	"tetrisga/internal/heuristics"
	"tetrisga/internal/tetris"
)

// Linspace returns num evenly spaced values from start to stop inclusive.
func Linspace(start, stop float64, num int) []float64 {
	if num <= 0 {
		return nil
	}
	if num == 1 {
		return []float64{start}
	}
	step := (stop - start) / float64(num-1)
	out := make([]float64, num)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[num-1] = stop
	return out
}

type LandscapeConfig struct {
	XHeuristic string
	YHeuristic string
	From       float64
	To         float64
	Samples    int
	Tries      int
	MaxDrops   int
	Fitness    string
	Seed       int64
	Workers    int
}

// LandscapePoint is the mean fitness of an agent weighted (X, Y) over the two
// heuristics.
type LandscapePoint struct {
	X       float64
	Y       float64
	Fitness float64
}

// Landscape evaluates the Samples x Samples grid spanned by Linspace(From,
// To, Samples) on both axes. Points come back in row-major order, X outer.
// Each point plays Tries games and averages their fitness; game seeds derive
// from Seed and the point index only.
func Landscape(ctx context.Context, cfg LandscapeConfig) ([]LandscapePoint, error) {
	if cfg.Samples <= 0 {
		return nil, fmt.Errorf("samples must be > 0")
	}
	if cfg.Tries <= 0 {
		cfg.Tries = 20
	}
	set, err := heuristics.FromNames([]string{cfg.XHeuristic, cfg.YHeuristic})
	if err != nil {
		return nil, err
	}
	fitness, err := evo.FitnessFromName(cfg.Fitness)
	if err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	axis := Linspace(cfg.From, cfg.To, cfg.Samples)
	points := make([]LandscapePoint, 0, len(axis)*len(axis))
	for _, x := range axis {
		for _, y := range axis {
			points = append(points, LandscapePoint{X: x, Y: y})
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range points {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a, err := agent.FromWeights([]float64{points[i].X, points[i].Y}, set)
			if err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
			total := 0.0
			for try := 0; try < cfg.Tries; try++ {
				score, err := a.Play(tetris.NewRandomSource(rng), cfg.MaxDrops)
				if err != nil {
					return fmt.Errorf("point (%g, %g): %w", points[i].X, points[i].Y, err)
				}
				total += fitness.Of(score)
			}
			points[i].Fitness = total / float64(cfg.Tries)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// WriteLandscapeCSV writes a header naming the two heuristics and the
// fitness column, then one row per point.
func WriteLandscapeCSV(path, xLabel, yLabel string, points []LandscapePoint) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{xLabel, yLabel, "fitness"}); err != nil {
		return err
	}
	for _, p := range points {
		if err := writer.Write([]string{formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Fitness)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
