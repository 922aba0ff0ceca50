package storage

import (
	"encoding/json"
	"errors"
	"sort"

	"tetrisga/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Versioned is the record header stamped on everything this package writes.
func Versioned() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeRun(r model.Run) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.Run, error) {
	var run model.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return model.Run{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.Run{}, err
	}
	return run, nil
}

func EncodeBestWeights(b model.BestWeights) ([]byte, error) {
	return json.Marshal(b)
}

func DecodeBestWeights(data []byte) (model.BestWeights, error) {
	var best model.BestWeights
	if err := json.Unmarshal(data, &best); err != nil {
		return model.BestWeights{}, err
	}
	if err := checkVersion(best.VersionedRecord); err != nil {
		return model.BestWeights{}, err
	}
	return best, nil
}

func EncodeGenerationDiagnostics(diagnostics []model.GenerationDiagnostics) ([]byte, error) {
	return json.Marshal(diagnostics)
}

func DecodeGenerationDiagnostics(data []byte) ([]model.GenerationDiagnostics, error) {
	var diagnostics []model.GenerationDiagnostics
	if err := json.Unmarshal(data, &diagnostics); err != nil {
		return nil, err
	}
	for _, d := range diagnostics {
		if err := checkVersion(d.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return diagnostics, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

// sortRuns orders newest first; runs created in the same instant fall back
// to descending id.
func sortRuns(runs []model.Run) {
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC != runs[j].CreatedAtUTC {
			return runs[i].CreatedAtUTC > runs[j].CreatedAtUTC
		}
		return runs[i].ID > runs[j].ID
	})
}

func copyRun(r model.Run) model.Run {
	r.Heuristics = append([]string(nil), r.Heuristics...)
	r.Config = append([]byte(nil), r.Config...)
	return r
}

func copyBestWeights(b model.BestWeights) model.BestWeights {
	b.Heuristics = append([]string(nil), b.Heuristics...)
	b.Weights = append([]float64(nil), b.Weights...)
	return b
}

func copyDiagnostics(in []model.GenerationDiagnostics) []model.GenerationDiagnostics {
	out := make([]model.GenerationDiagnostics, len(in))
	for i, d := range in {
		d.BestWeights = append([]float64(nil), d.BestWeights...)
		out[i] = d
	}
	return out
}
