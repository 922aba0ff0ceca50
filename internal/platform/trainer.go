package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"tetrisga/internal/evo"
	"tetrisga/internal/model"
	"tetrisga/internal/storage"
)

type Config struct {
	Store  storage.Store
	Logger zerolog.Logger
}

type StopReason string

const (
	StopReasonNormal   StopReason = "normal"
	StopReasonShutdown StopReason = "shutdown"
)

var ErrNotStarted = errors.New("trainer is not initialized")

type EvolutionConfig struct {
	RunID        string
	CreatedAtUTC string
	GA           evo.Config
	Observer     evo.Observer
}

type EvolutionResult struct {
	Run         model.Run
	Generations []model.GenerationDiagnostics
	Best        model.BestWeights
}

// Trainer runs training jobs against a store and keeps a cancel handle per
// active run.
type Trainer struct {
	store  storage.Store
	logger zerolog.Logger

	mu             sync.RWMutex
	started        bool
	lastStopReason StopReason
	runs           map[string]context.CancelFunc
}

func NewTrainer(cfg Config) *Trainer {
	return &Trainer{
		store:          cfg.Store,
		logger:         cfg.Logger,
		runs:           make(map[string]context.CancelFunc),
		lastStopReason: StopReasonNormal,
	}
}

func (t *Trainer) Init(ctx context.Context) error {
	if t.store == nil {
		return fmt.Errorf("store is required")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return nil
	}
	if err := t.store.Init(ctx); err != nil {
		return err
	}
	t.started = true
	return nil
}

// RunEvolution trains one GA and persists the run, its per-generation
// diagnostics and the best weights. A cancelled run that completed at least
// one generation is still persisted, and the cancellation error is returned
// alongside the partial result.
func (t *Trainer) RunEvolution(ctx context.Context, cfg EvolutionConfig) (EvolutionResult, error) {
	if cfg.RunID == "" {
		return EvolutionResult{}, fmt.Errorf("run id is required")
	}

	opts := []evo.Option{evo.WithLogger(t.logger.With().Str("run_id", cfg.RunID).Logger())}
	if cfg.Observer != nil {
		opts = append(opts, evo.WithObserver(cfg.Observer))
	}
	ga, err := evo.New(cfg.GA, opts...)
	if err != nil {
		return EvolutionResult{}, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := t.registerRun(cfg.RunID, cancel); err != nil {
		return EvolutionResult{}, err
	}
	defer t.unregisterRun(cfg.RunID)

	result, trainErr := ga.Train(runCtx)
	if trainErr != nil && (len(result.Generations) == 0 || !errors.Is(trainErr, context.Canceled)) {
		return EvolutionResult{}, trainErr
	}

	snapshot, err := json.Marshal(cfg.GA)
	if err != nil {
		return EvolutionResult{}, fmt.Errorf("encode config: %w", err)
	}
	names := ga.Heuristics().Names()
	out := EvolutionResult{
		Run: model.Run{
			VersionedRecord: storage.Versioned(),
			ID:              cfg.RunID,
			CreatedAtUTC:    cfg.CreatedAtUTC,
			Seed:            cfg.GA.Seed,
			Heuristics:      names,
			Config:          snapshot,
			Generations:     len(result.Generations),
			BestFitness:     result.Best.Fitness,
			StopReason:      string(result.Reason),
		},
		Generations: toModelDiagnostics(result.Generations),
		Best: model.BestWeights{
			VersionedRecord: storage.Versioned(),
			RunID:           cfg.RunID,
			Heuristics:      names,
			Weights:         append([]float64(nil), result.Best.Agent.Weights...),
			Fitness:         result.Best.Fitness,
			Score:           result.Best.Score.Score,
			ClearedRows:     result.Best.Score.ClearedRows,
			DroppedPieces:   result.Best.Score.DroppedPieces,
		},
	}

	// The caller's context may already be done when the run was interrupted;
	// the partial result is still written.
	saveCtx := context.WithoutCancel(ctx)
	if err := t.store.SaveRun(saveCtx, out.Run); err != nil {
		return EvolutionResult{}, err
	}
	if err := t.store.SaveGenerationDiagnostics(saveCtx, cfg.RunID, out.Generations); err != nil {
		return EvolutionResult{}, err
	}
	if err := t.store.SaveBestWeights(saveCtx, out.Best); err != nil {
		return EvolutionResult{}, err
	}

	t.logger.Info().
		Str("run_id", cfg.RunID).
		Int("generations", out.Run.Generations).
		Float64("best_fitness", out.Run.BestFitness).
		Str("stop_reason", out.Run.StopReason).
		Msg("run persisted")
	return out, trainErr
}

func toModelDiagnostics(stats []evo.GenerationStats) []model.GenerationDiagnostics {
	out := make([]model.GenerationDiagnostics, 0, len(stats))
	for _, s := range stats {
		out = append(out, model.GenerationDiagnostics{
			VersionedRecord:   storage.Versioned(),
			Generation:        s.Generation,
			BestFitness:       s.Biggest,
			MeanFitness:       s.Mean,
			MedianFitness:     s.Median,
			MinFitness:        s.Lowest,
			BestWeights:       append([]float64(nil), s.BestWeights...),
			BestScore:         s.BestScore.Score,
			BestClearedRows:   s.BestScore.ClearedRows,
			BestDroppedPieces: s.BestScore.DroppedPieces,
			Improved:          s.Improved,
			NonProgress:       s.NonProgress,
		})
	}
	return out
}

func (t *Trainer) Stop() {
	_ = t.StopWithReason(StopReasonNormal)
}

func (t *Trainer) Shutdown() {
	_ = t.StopWithReason(StopReasonShutdown)
}

// StopWithReason cancels every active run and marks the trainer stopped.
func (t *Trainer) StopWithReason(reason StopReason) error {
	if reason == "" {
		reason = StopReasonNormal
	}
	if !isValidStopReason(reason) {
		return fmt.Errorf("unsupported stop reason: %s", reason)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, cancel := range t.runs {
		cancel()
	}
	t.started = false
	t.lastStopReason = reason
	t.runs = make(map[string]context.CancelFunc)
	return nil
}

// StopRun cancels one active run. The run stops after its current
// generation.
func (t *Trainer) StopRun(runID string) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	t.mu.RLock()
	cancel, ok := t.runs[runID]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("run not active: %s", runID)
	}
	cancel()
	return nil
}

func (t *Trainer) ActiveRuns() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]string, 0, len(t.runs))
	for id := range t.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (t *Trainer) Started() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.started
}

func (t *Trainer) LastStopReason() StopReason {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastStopReason
}

func (t *Trainer) registerRun(runID string, cancel context.CancelFunc) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started {
		return ErrNotStarted
	}
	if _, exists := t.runs[runID]; exists {
		return fmt.Errorf("run already active: %s", runID)
	}
	t.runs[runID] = cancel
	return nil
}

func (t *Trainer) unregisterRun(runID string) {
	t.mu.Lock()
	delete(t.runs, runID)
	t.mu.Unlock()
}

func isValidStopReason(reason StopReason) bool {
	switch reason {
	case StopReasonNormal, StopReasonShutdown:
		return true
	default:
		return false
	}
}
