package stats

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"tetrisga/internal/model"
)

// GenerationRow is the columnar form of model.GenerationDiagnostics.
type GenerationRow struct {
	RunID             string    `parquet:"run_id,dict"`
	Generation        int32     `parquet:"generation"`
	BestFitness       float64   `parquet:"best_fitness"`
	MeanFitness       float64   `parquet:"mean_fitness"`
	MedianFitness     float64   `parquet:"median_fitness"`
	MinFitness        float64   `parquet:"min_fitness"`
	BestScore         int32     `parquet:"best_score"`
	BestClearedRows   int32     `parquet:"best_cleared_rows"`
	BestDroppedPieces int32     `parquet:"best_dropped_pieces"`
	BestWeights       []float64 `parquet:"best_weights"`
	Improved          bool      `parquet:"improved"`
	NonProgress       int32     `parquet:"non_progress"`
}

// WriteGenerationsParquet writes the per-generation history to outPath
// through a temp file and rename.
func WriteGenerationsParquet(outPath, runID string, generations []model.GenerationDiagnostics) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	rows := make([]GenerationRow, len(generations))
	for i, g := range generations {
		rows[i] = GenerationRow{
			RunID:             runID,
			Generation:        int32(g.Generation),
			BestFitness:       g.BestFitness,
			MeanFitness:       g.MeanFitness,
			MedianFitness:     g.MedianFitness,
			MinFitness:        g.MinFitness,
			BestScore:         int32(g.BestScore),
			BestClearedRows:   int32(g.BestClearedRows),
			BestDroppedPieces: int32(g.BestDroppedPieces),
			BestWeights:       g.BestWeights,
			Improved:          g.Improved,
			NonProgress:       int32(g.NonProgress),
		}
	}

	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "generation_v1"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

func ReadGenerationsParquet(path string) ([]GenerationRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[GenerationRow](pf)
	defer reader.Close()

	rows := make([]GenerationRow, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	return rows[:n], nil
}

// ReadRunGenerations loads generations.parquet of a run.
func ReadRunGenerations(baseDir, runID string) ([]GenerationRow, bool, error) {
	rows, err := ReadGenerationsParquet(filepath.Join(baseDir, runID, generationsFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return rows, true, nil
}
