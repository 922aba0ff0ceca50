package stats

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FormatWeights renders weights as one line of space-separated floats.
func FormatWeights(weights []float64) string {
	parts := make([]string, len(weights))
	for i, w := range weights {
		parts[i] = strconv.FormatFloat(w, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

// ParseWeights is the inverse of FormatWeights. Any whitespace separates
// values.
func ParseWeights(s string) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("no weights found")
	}
	weights := make([]float64, len(fields))
	for i, f := range fields {
		w, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("weight %d: %w", i, err)
		}
		weights[i] = w
	}
	return weights, nil
}

func WriteWeights(path string, weights []float64) error {
	if len(weights) == 0 {
		return fmt.Errorf("no weights to write")
	}
	return os.WriteFile(path, []byte(FormatWeights(weights)+"\n"), 0o644)
}

func ReadWeights(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	weights, err := ParseWeights(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return weights, nil
}
