package model

import "encoding/json"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Run describes one training run. Config is the JSON snapshot of the
// configuration the run was started with.
type Run struct {
	VersionedRecord
	ID           string          `json:"id"`
	CreatedAtUTC string          `json:"created_at_utc"`
	Seed         int64           `json:"seed"`
	Heuristics   []string        `json:"heuristics"`
	Config       json.RawMessage `json:"config,omitempty"`
	Generations  int             `json:"generations"`
	BestFitness  float64         `json:"best_fitness"`
	StopReason   string          `json:"stop_reason"`
}

type GenerationDiagnostics struct {
	VersionedRecord
	Generation        int       `json:"generation"`
	BestFitness       float64   `json:"best_fitness"`
	MeanFitness       float64   `json:"mean_fitness"`
	MedianFitness     float64   `json:"median_fitness"`
	MinFitness        float64   `json:"min_fitness"`
	BestWeights       []float64 `json:"best_weights"`
	BestScore         int       `json:"best_score"`
	BestClearedRows   int       `json:"best_cleared_rows"`
	BestDroppedPieces int       `json:"best_dropped_pieces"`
	Improved          bool      `json:"improved"`
	NonProgress       int       `json:"non_progress"`
}

// BestWeights is the fittest agent of a run, weights paired by position with
// the heuristic names.
type BestWeights struct {
	VersionedRecord
	RunID         string    `json:"run_id"`
	Heuristics    []string  `json:"heuristics"`
	Weights       []float64 `json:"weights"`
	Fitness       float64   `json:"fitness"`
	Score         int       `json:"score"`
	ClearedRows   int       `json:"cleared_rows"`
	DroppedPieces int       `json:"dropped_pieces"`
}
