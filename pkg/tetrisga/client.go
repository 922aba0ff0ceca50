package tetrisga

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tetrisga/internal/evo"
	"tetrisga/internal/model"
	"tetrisga/internal/platform"
	"tetrisga/internal/stats"
	"tetrisga/internal/storage"
)

const (
	defaultBenchmarksDir = "benchmarks"
	defaultExportsDir    = "exports"
	defaultDBPath        = "tetrisga.db"
)

// Config is the training configuration; see DefaultConfig.
type Config = evo.Config

// GenerationStats is passed to a TrainRequest observer after every
// generation.
type GenerationStats = evo.GenerationStats

func DefaultConfig() Config {
	return evo.DefaultConfig()
}

type Options struct {
	StoreKind     string
	DBPath        string
	BenchmarksDir string
	ExportsDir    string
	Logger        zerolog.Logger
}

type Client struct {
	store   storage.Store
	trainer *platform.Trainer
	logger  zerolog.Logger

	benchmarksDir string
	exportsDir    string
}

// TrainRequest starts a run. RunID is generated when empty; set it to be
// able to StopRun the run from another goroutine.
type TrainRequest struct {
	RunID    string
	Config   Config
	Observer func(GenerationStats)
}

type TrainSummary struct {
	RunID            string
	ArtifactsDir     string
	BestByGeneration []float64
	FinalBestFitness float64
	BestWeights      []float64
	Heuristics       []string
	StopReason       string
	Duration         time.Duration
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Seed             int64
	Population       int
	Generations      int
	Heuristics       []string
	FinalBestFitness float64
	StopReason       string
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type DiagnosticsItem struct {
	Generation        int
	BestFitness       float64
	MeanFitness       float64
	MedianFitness     float64
	MinFitness        float64
	BestScore         int
	BestDroppedPieces int
	Improved          bool
	NonProgress       int
}

type BestWeightsRequest struct {
	RunID  string
	Latest bool
}

type BestWeightsItem struct {
	RunID      string
	Heuristics []string
	Weights    []float64
	Fitness    float64
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	benchmarksDir := opts.BenchmarksDir
	if benchmarksDir == "" {
		benchmarksDir = defaultBenchmarksDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:         store,
		logger:        opts.Logger,
		benchmarksDir: benchmarksDir,
		exportsDir:    exportsDir,
	}, nil
}

func (c *Client) Close() error {
	if c.trainer != nil {
		c.trainer.Shutdown()
	}
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensureTrainer(ctx)
	return err
}

// Train runs the GA to completion, then writes the run artifacts and the
// run index entry. A cancelled run that finished at least one generation is
// recorded as well; the cancellation error is still returned.
func (c *Client) Train(ctx context.Context, req TrainRequest) (TrainSummary, error) {
	if err := req.Config.Validate(); err != nil {
		return TrainSummary{}, err
	}
	t, err := c.ensureTrainer(ctx)
	if err != nil {
		return TrainSummary{}, err
	}

	started := time.Now()
	now := started.UTC()
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	createdAt := now.Format(time.RFC3339Nano)

	result, trainErr := t.RunEvolution(ctx, platform.EvolutionConfig{
		RunID:        runID,
		CreatedAtUTC: createdAt,
		GA:           req.Config,
		Observer:     req.Observer,
	})
	if trainErr != nil && result.Run.ID == "" {
		return TrainSummary{}, trainErr
	}

	runDir, err := stats.WriteRunArtifacts(c.benchmarksDir, stats.RunArtifacts{
		Config:      stats.RunConfig{RunID: runID, CreatedAtUTC: createdAt, Config: req.Config},
		Generations: result.Generations,
		Best:        result.Best,
	})
	if err != nil {
		return TrainSummary{}, err
	}
	if err := stats.AppendRunIndex(c.benchmarksDir, stats.RunIndexEntry{
		RunID:            runID,
		PopulationSize:   req.Config.NEntities,
		Generations:      result.Run.Generations,
		Seed:             req.Config.Seed,
		Workers:          req.Config.Workers,
		EliteCount:       req.Config.EliteCount,
		Heuristics:       result.Run.Heuristics,
		FinalBestFitness: result.Run.BestFitness,
		StopReason:       result.Run.StopReason,
		CreatedAtUTC:     createdAt,
	}); err != nil {
		return TrainSummary{}, err
	}

	best := make([]float64, 0, len(result.Generations))
	for _, g := range result.Generations {
		best = append(best, g.BestFitness)
	}
	summary := TrainSummary{
		RunID:            runID,
		ArtifactsDir:     filepath.Clean(runDir),
		BestByGeneration: best,
		FinalBestFitness: result.Run.BestFitness,
		BestWeights:      append([]float64(nil), result.Best.Weights...),
		Heuristics:       append([]string(nil), result.Best.Heuristics...),
		StopReason:       result.Run.StopReason,
		Duration:         time.Since(started),
	}
	c.logger.Info().
		Str("run_id", runID).
		Str("artifacts_dir", summary.ArtifactsDir).
		Dur("duration", summary.Duration).
		Msg("training finished")
	return summary, trainErr
}

// StopRun cancels an in-flight Train call by run id.
func (c *Client) StopRun(runID string) error {
	if c.trainer == nil {
		return platform.ErrNotStarted
	}
	return c.trainer.StopRun(runID)
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}
	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			Seed:             e.Seed,
			Population:       e.PopulationSize,
			Generations:      e.Generations,
			Heuristics:       e.Heuristics,
			FinalBestFitness: e.FinalBestFitness,
			StopReason:       e.StopReason,
		})
	}
	return out, nil
}

// Diagnostics returns per-generation statistics, read from the store and,
// for runs the store does not hold, from the run's parquet history.
func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]DiagnosticsItem, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "diagnostics")
	if err != nil {
		return nil, err
	}
	if _, err := c.ensureTrainer(ctx); err != nil {
		return nil, err
	}

	var out []DiagnosticsItem
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if ok {
		out = make([]DiagnosticsItem, 0, len(diagnostics))
		for _, d := range diagnostics {
			out = append(out, diagnosticsItem(d))
		}
	} else {
		rows, found, err := stats.ReadRunGenerations(c.benchmarksDir, runID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
		}
		out = make([]DiagnosticsItem, 0, len(rows))
		for _, r := range rows {
			out = append(out, DiagnosticsItem{
				Generation:        int(r.Generation),
				BestFitness:       r.BestFitness,
				MeanFitness:       r.MeanFitness,
				MedianFitness:     r.MedianFitness,
				MinFitness:        r.MinFitness,
				BestScore:         int(r.BestScore),
				BestDroppedPieces: int(r.BestDroppedPieces),
				Improved:          r.Improved,
				NonProgress:       int(r.NonProgress),
			})
		}
	}
	if req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}

func diagnosticsItem(d model.GenerationDiagnostics) DiagnosticsItem {
	return DiagnosticsItem{
		Generation:        d.Generation,
		BestFitness:       d.BestFitness,
		MeanFitness:       d.MeanFitness,
		MedianFitness:     d.MedianFitness,
		MinFitness:        d.MinFitness,
		BestScore:         d.BestScore,
		BestDroppedPieces: d.BestDroppedPieces,
		Improved:          d.Improved,
		NonProgress:       d.NonProgress,
	}
}

// BestWeights returns the fittest weights of a run. Runs missing from the
// store fall back to best_weights.txt and config.json in the run directory.
func (c *Client) BestWeights(ctx context.Context, req BestWeightsRequest) (BestWeightsItem, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "best weights")
	if err != nil {
		return BestWeightsItem{}, err
	}
	if _, err := c.ensureTrainer(ctx); err != nil {
		return BestWeightsItem{}, err
	}

	best, ok, err := c.store.GetBestWeights(ctx, runID)
	if err != nil {
		return BestWeightsItem{}, err
	}
	if ok {
		return BestWeightsItem{
			RunID:      best.RunID,
			Heuristics: best.Heuristics,
			Weights:    best.Weights,
			Fitness:    best.Fitness,
		}, nil
	}

	weights, found, err := stats.ReadBestWeights(c.benchmarksDir, runID)
	if err != nil {
		return BestWeightsItem{}, err
	}
	if !found {
		return BestWeightsItem{}, fmt.Errorf("best weights not found for run id: %s", runID)
	}
	item := BestWeightsItem{RunID: runID, Weights: weights}
	cfg, found, err := stats.ReadRunConfig(c.benchmarksDir, runID)
	if err != nil {
		return BestWeightsItem{}, err
	}
	if found {
		item.Heuristics = cfg.Heuristics
	}
	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return BestWeightsItem{}, err
	}
	for _, e := range entries {
		if e.RunID == runID {
			item.Fitness = e.FinalBestFitness
			break
		}
	}
	return item, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "export")
	if err != nil {
		return ExportSummary{}, err
	}
	exportedDir, err := stats.ExportRunArtifacts(c.benchmarksDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) resolveRunID(runID string, latest bool, what string) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if latest {
		entries, err := stats.ListRunIndex(c.benchmarksDir)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "", errors.New("no runs available")
		}
		return entries[0].RunID, nil
	}
	if runID == "" {
		return "", fmt.Errorf("%s requires run id or latest", what)
	}
	return runID, nil
}

func (c *Client) ensureTrainer(ctx context.Context) (*platform.Trainer, error) {
	if c.trainer != nil {
		return c.trainer, nil
	}
	t := platform.NewTrainer(platform.Config{Store: c.store, Logger: c.logger})
	if err := t.Init(ctx); err != nil {
		return nil, err
	}
	c.trainer = t
	return c.trainer, nil
}
