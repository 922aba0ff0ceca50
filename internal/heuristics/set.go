package heuristics

import (
	"errors"
	"fmt"

	"tetrisga/internal/tetris"
)

var ErrEmptySet = errors.New("heuristic set is empty")

// Set is an ordered, immutable list of heuristics. Copies share the
// underlying slice, which is never written after construction.
type Set struct {
	items []Heuristic
}

func NewSet(items ...Heuristic) (Set, error) {
	if len(items) == 0 {
		return Set{}, ErrEmptySet
	}
	seen := make(map[string]struct{}, len(items))
	for i, h := range items {
		if h.Eval == nil {
			return Set{}, fmt.Errorf("heuristic %q at index %d has no function", h.Name, i)
		}
		if _, ok := seen[h.Name]; ok {
			return Set{}, fmt.Errorf("duplicate heuristic: %s", h.Name)
		}
		seen[h.Name] = struct{}{}
	}
	return Set{items: append([]Heuristic(nil), items...)}, nil
}

// FromNames resolves names against the built-in registry.
func FromNames(names []string) (Set, error) {
	items := make([]Heuristic, 0, len(names))
	for _, name := range names {
		h, err := Lookup(name)
		if err != nil {
			return Set{}, err
		}
		items = append(items, h)
	}
	return NewSet(items...)
}

func Default() Set {
	set, err := FromNames(DefaultNames())
	if err != nil {
		panic(err)
	}
	return set
}

func (s Set) Len() int {
	return len(s.items)
}

func (s Set) At(i int) Heuristic {
	return s.items[i]
}

func (s Set) Names() []string {
	out := make([]string, len(s.items))
	for i, h := range s.items {
		out[i] = h.Name
	}
	return out
}

// Evaluate writes every heuristic value for b into dst, which must have
// room for Len values, and returns it.
func (s Set) Evaluate(b *tetris.Board, dst []float64) []float64 {
	dst = dst[:len(s.items)]
	for i, h := range s.items {
		dst[i] = h.Eval(b)
	}
	return dst
}
