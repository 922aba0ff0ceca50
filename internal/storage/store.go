package storage

import (
	"context"

	"tetrisga/internal/model"
)

// Store persists training runs and their per-generation records. Get methods
// report a missing record through the bool, not an error.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.Run) error
	GetRun(ctx context.Context, id string) (model.Run, bool, error)
	ListRuns(ctx context.Context) ([]model.Run, error)
	SaveGenerationDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetGenerationDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)
	SaveBestWeights(ctx context.Context, best model.BestWeights) error
	GetBestWeights(ctx context.Context, runID string) (model.BestWeights, bool, error)
	DeleteRun(ctx context.Context, id string) error
}
