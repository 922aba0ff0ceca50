package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tetrisga/internal/model"
)

func TestDecodeRunFixture(t *testing.T) {
	run, err := DecodeRun(readFixture(t, "run_v1.json"))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if run.ID != "run-fixture-1" || run.Generations != 12 || run.StopReason != "non_progress" {
		t.Fatalf("unexpected run: %+v", run)
	}
	if len(run.Heuristics) != 5 || run.Heuristics[1] != "holes" {
		t.Fatalf("unexpected heuristics: %v", run.Heuristics)
	}
}

func TestDecodeBestWeightsFixture(t *testing.T) {
	best, err := DecodeBestWeights(readFixture(t, "best_weights_v1.json"))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if diff := cmp.Diff([]float64{0.31, 0.92, 0.07, 0.44, -0.58}, best.Weights); diff != "" {
		t.Fatalf("weights mismatch (-want +got):\n%s", diff)
	}
	if best.ClearedRows != 41 || best.DroppedPieces != 118 {
		t.Fatalf("unexpected counters: %+v", best)
	}
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	if _, err := DecodeRun(readFixture(t, "run_v0.json")); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
	data := []byte(`[{"schema_version":1,"codec_version":2,"generation":1}]`)
	if _, err := DecodeGenerationDiagnostics(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch for diagnostics, got %v", err)
	}
}

func TestGenerationDiagnosticsCodecRoundTrip(t *testing.T) {
	input := []model.GenerationDiagnostics{
		{VersionedRecord: Versioned(), Generation: 1, BestFitness: 300, MeanFitness: 120, MedianFitness: 100, BestWeights: []float64{0.1, -0.2}, Improved: true},
		{VersionedRecord: Versioned(), Generation: 2, BestFitness: 300, MeanFitness: 140, NonProgress: 1},
	}
	data, err := EncodeGenerationDiagnostics(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	output, err := DecodeGenerationDiagnostics(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(input, output); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(fixturePath(name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func fixturePath(name string) string {
	return filepath.Join("..", "..", "testdata", "fixtures", name)
}
