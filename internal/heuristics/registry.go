package heuristics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownHeuristic = errors.New("unknown heuristic")

const (
	NameBumpiness        = "bumpiness"
	NameHoles            = "holes"
	NameHighestBlock     = "highest_block"
	NameRelativeDiff     = "relative_diff"
	NameClearPotential   = "clear_potential"
	NameDistanceFromFour = "distance_from_four"
)

var builtin = map[string]Func{
	NameBumpiness:        Bumpiness,
	NameHoles:            Holes,
	NameHighestBlock:     HighestBlock,
	NameRelativeDiff:     RelativeDiff,
	NameClearPotential:   ClearPotential,
	NameDistanceFromFour: DistanceFromFour,
}

// DefaultNames is the heuristic list used when a run does not name one.
func DefaultNames() []string {
	return []string{
		NameBumpiness,
		NameHoles,
		NameRelativeDiff,
		NameHighestBlock,
		NameClearPotential,
	}
}

func Lookup(name string) (Heuristic, error) {
	fn, ok := builtin[strings.TrimSpace(name)]
	if !ok {
		return Heuristic{}, fmt.Errorf("%w: %s", ErrUnknownHeuristic, name)
	}
	return Heuristic{Name: strings.TrimSpace(name), Eval: fn}, nil
}

func Available() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
