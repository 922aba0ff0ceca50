package heuristics

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tetrisga/internal/tetris"
)

func stairBoard() tetris.Board {
	// column heights: 1 3 0 0 0 0 0 0 0 2, with a hole at (1,1)
	return tetris.NewBuilder().
		Block(tetris.I, tetris.Coord{X: 0, Y: 0}).
		Block(tetris.O, tetris.Coord{X: 1, Y: 0}).
		Block(tetris.O, tetris.Coord{X: 1, Y: 2}).
		Block(tetris.T, tetris.Coord{X: 9, Y: 1}).
		Build().Board
}

func TestBoardHeuristics(t *testing.T) {
	b := stairBoard()
	cases := []struct {
		name string
		fn   Func
		want float64
	}{
		{name: "bumpiness", fn: Bumpiness, want: 2 + 3 + 2},
		{name: "holes", fn: Holes, want: 2},
		{name: "highest_block", fn: HighestBlock, want: 3},
		{name: "relative_diff", fn: RelativeDiff, want: 3},
		{name: "distance_from_four", fn: DistanceFromFour, want: 4},
	}
	for _, tc := range cases {
		if got := tc.fn(&b); got != tc.want {
			t.Fatalf("%s: got=%f want=%f", tc.name, got, tc.want)
		}
	}
}

func TestEmptyBoardHeuristics(t *testing.T) {
	var b tetris.Board
	for _, fn := range []Func{Bumpiness, Holes, HighestBlock, RelativeDiff, ClearPotential} {
		if got := fn(&b); got != 0 {
			t.Fatalf("expected 0 on empty board, got %f", got)
		}
	}
}

func TestClearPotentialFindsBestColumn(t *testing.T) {
	b := tetris.NewBuilder().
		Row(0, tetris.J, 6).
		Row(1, tetris.J, 6).
		Row(2, tetris.J, 3, 6).
		Build().Board
	if got := ClearPotential(&b); got != 2 {
		t.Fatalf("expected 2 clearable rows, got %f", got)
	}
	if b.HighestBlock() != 3 {
		t.Fatal("clear potential must not modify the input board")
	}
}

func TestDistanceFromFourAboveFour(t *testing.T) {
	builder := tetris.NewBuilder()
	for y := 0; y < 6; y++ {
		builder.Row(y, tetris.Z, 0)
	}
	b := builder.Build().Board
	// nine columns at height 6, one empty
	if got := DistanceFromFour(&b); got != 4 {
		t.Fatalf("expected 2^(6-4)=4, got %f", got)
	}
}

func TestFromNamesKeepsOrder(t *testing.T) {
	names := []string{NameHoles, NameBumpiness, NameDistanceFromFour}
	set, err := FromNames(names)
	if err != nil {
		t.Fatalf("from names: %v", err)
	}
	if diff := cmp.Diff(names, set.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	b := stairBoard()
	got := set.Evaluate(&b, make([]float64, set.Len()))
	if diff := cmp.Diff([]float64{2, 7, 4}, got); diff != "" {
		t.Fatalf("evaluate mismatch (-want +got):\n%s", diff)
	}
}

func TestFromNamesRejectsUnknownAndEmpty(t *testing.T) {
	if _, err := FromNames([]string{"nope"}); !errors.Is(err, ErrUnknownHeuristic) {
		t.Fatalf("expected unknown heuristic error, got %v", err)
	}
	if _, err := FromNames(nil); !errors.Is(err, ErrEmptySet) {
		t.Fatalf("expected empty set error, got %v", err)
	}
	if _, err := FromNames([]string{NameHoles, NameHoles}); err == nil {
		t.Fatal("expected duplicate heuristic error")
	}
}

func TestDefaultSetResolves(t *testing.T) {
	set := Default()
	if diff := cmp.Diff(DefaultNames(), set.Names()); diff != "" {
		t.Fatalf("default names mismatch:\n%s", diff)
	}
	for _, name := range Available() {
		if _, err := Lookup(name); err != nil {
			t.Fatalf("lookup %s: %v", name, err)
		}
	}
}
