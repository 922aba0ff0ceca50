package tetris

import (
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sortedCells(cells [4]Coord) []Coord {
	out := cells[:]
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y == out[j].Y {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

func TestPieceRotationRoundTrip(t *testing.T) {
	for _, pt := range PieceTypes {
		for _, r := range []Rotation{Clockwise, CounterClockwise} {
			p := NewPieceAt(pt, Coord{X: 4, Y: 10})
			want := p
			for i := 0; i < 4; i++ {
				p.Rotate(r)
			}
			if diff := cmp.Diff(want, p); diff != "" {
				t.Fatalf("piece %s rotated 4x %s mismatch (-want +got):\n%s", pt, r, diff)
			}
		}
	}
}

func TestOPieceRotationKeepsAbsoluteCells(t *testing.T) {
	cases := []struct {
		name  string
		build func() Game
	}{
		{
			name: "open board",
			build: func() Game {
				return NewBuilder().Piece(O, Coord{X: 4, Y: 8}).Build()
			},
		},
		{
			name: "boxed in at the floor",
			build: func() Game {
				return NewBuilder().
					Row(0, J, 0, 1).
					Row(1, J, 0, 1).
					Row(2, J).
					Piece(O, Coord{X: 0, Y: 0}).
					Build()
			},
		},
	}
	for _, tc := range cases {
		for _, r := range []Rotation{Clockwise, CounterClockwise} {
			g := tc.build()
			for step := 0; step < 4; step++ {
				before := sortedCells(g.PieceCells())
				if !g.Rotate(r) {
					t.Fatalf("%s: rotate %s rejected at step %d", tc.name, r, step)
				}
				if diff := cmp.Diff(before, sortedCells(g.PieceCells())); diff != "" {
					t.Fatalf("%s: O cells changed after rotate %s (-before +after):\n%s", tc.name, r, diff)
				}
			}
		}
	}
}

func TestKicksForOPieceCompensateRotation(t *testing.T) {
	for from := 0; from < 4; from++ {
		p := NewPieceAt(O, Coord{X: 4, Y: 4})
		for i := 0; i < from; i++ {
			p.Rotate(Clockwise)
		}
		p = p.shifted(Kicks(O, 0, from)[0])
		base := sortedCells(NewPieceAt(O, Coord{X: 4, Y: 4}).Cells())
		if diff := cmp.Diff(base, sortedCells(p.Cells())); diff != "" {
			t.Fatalf("O kick from 0 to %d does not restore cells:\n%s", from, diff)
		}
	}
}

func TestKickTables(t *testing.T) {
	cases := []struct {
		piece    PieceType
		from, to int
		want     []Coord
	}{
		{I, 0, 1, []Coord{{1, 0}, {-1, 0}, {2, 0}, {-1, -1}, {2, 2}}},
		{I, 1, 0, []Coord{{-1, 0}, {1, 0}, {-2, 0}, {1, 1}, {-2, -2}}},
		{I, 1, 2, []Coord{{0, -1}, {-1, -1}, {2, -1}, {-1, 1}, {2, -2}}},
		{I, 3, 0, []Coord{{0, 1}, {1, 1}, {-2, 1}, {1, -1}, {-2, 2}}},
		{T, 0, 1, []Coord{{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}}},
		{T, 1, 0, []Coord{{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}}},
		{T, 1, 2, []Coord{{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}}},
		{T, 0, 3, []Coord{{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}}},
		{T, 3, 0, []Coord{{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}}},
		{L, 0, 3, []Coord{{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}}},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, Kicks(tc.piece, tc.from, tc.to)); diff != "" {
			t.Fatalf("kicks %s %d->%d mismatch (-want +got):\n%s", tc.piece, tc.from, tc.to, diff)
		}
	}
}

func TestRotateUsesWallKicks(t *testing.T) {
	t.Run("I at left wall", func(t *testing.T) {
		g := NewBuilder().Piece(I, Coord{X: 0, Y: 5}).Build()
		if !g.Rotate(Clockwise) {
			t.Fatal("expected kicked rotation to succeed")
		}
		if g.Piece.Anchor != (Coord{X: 1, Y: 5}) || g.Piece.Rotation != 1 {
			t.Fatalf("unexpected piece after kick: %+v", g.Piece)
		}
		want := []Coord{{0, 5}, {1, 5}, {2, 5}, {3, 5}}
		if diff := cmp.Diff(want, sortedCells(g.PieceCells())); diff != "" {
			t.Fatalf("I cells mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("T takes the second kick", func(t *testing.T) {
		g := NewBuilder().Piece(T, Coord{X: 1, Y: 5}).Build()
		if !g.Rotate(Clockwise) || !g.Move(Left) {
			t.Fatal("setup: could not stand T against the wall")
		}
		if !g.Rotate(Clockwise) {
			t.Fatal("expected kicked rotation to succeed")
		}
		if g.Piece.Anchor != (Coord{X: 1, Y: 5}) || g.Piece.Rotation != 2 {
			t.Fatalf("unexpected piece after kick: %+v", g.Piece)
		}
		want := []Coord{{1, 4}, {0, 5}, {1, 5}, {2, 5}}
		if diff := cmp.Diff(want, sortedCells(g.PieceCells())); diff != "" {
			t.Fatalf("T cells mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestRotateRejectedWhenNoKickFits(t *testing.T) {
	boxedT := func() Game {
		b := NewBuilder()
		for y := 0; y < 11; y++ {
			switch y {
			case 5:
				b.Row(y, J, 3, 4, 5)
			case 6:
				b.Row(y, J, 4)
			default:
				b.Row(y, J)
			}
		}
		return b.Piece(T, Coord{X: 4, Y: 5}).Build()
	}
	cases := []struct {
		name  string
		build func() Game
		rots  []Rotation
	}{
		{
			name:  "L at left wall",
			build: func() Game { return NewBuilder().Piece(L, Coord{X: 0, Y: 5}).Build() },
			rots:  []Rotation{CounterClockwise},
		},
		{
			name:  "T boxed in",
			build: boxedT,
			rots:  []Rotation{Clockwise, CounterClockwise},
		},
	}
	for _, tc := range cases {
		for _, r := range tc.rots {
			g := tc.build()
			before := g.Piece
			if g.Rotate(r) {
				t.Fatalf("%s: expected rotate %s to be refused", tc.name, r)
			}
			if diff := cmp.Diff(before, g.Piece); diff != "" {
				t.Fatalf("%s: piece changed after refused rotation (-before +after):\n%s", tc.name, diff)
			}
		}
	}
}

func TestEmptyBoardCentralSpawnHasNoCollision(t *testing.T) {
	for _, pt := range PieceTypes {
		g := NewBuilder().Piece(pt, Coord{X: 4, Y: 10}).Build()
		for _, d := range []Direction{Left, Right, Down} {
			if c := g.CollisionAfterMove(d.Offset()); c != NoCollision {
				t.Fatalf("piece %s move %s: unexpected collision %s", pt, d, c)
			}
		}
		for _, r := range []Rotation{Clockwise, CounterClockwise} {
			rotated := g
			if !rotated.Rotate(r) {
				t.Fatalf("piece %s rotate %s rejected on empty board", pt, r)
			}
		}
	}
}

func TestCollisionPriority(t *testing.T) {
	g := NewBuilder().Piece(I, Coord{X: 0, Y: 1}).Build()
	if c := g.CollisionAfterMove(Left.Offset()); c != LeftBorder {
		t.Fatalf("expected left border, got %s", c)
	}
	if c := g.CollisionAfterMove(Down.Offset().Add(Down.Offset())); c != BottomBorder {
		t.Fatalf("expected bottom border, got %s", c)
	}

	g = NewBuilder().Block(Z, Coord{X: 1, Y: 3}).Piece(I, Coord{X: 0, Y: 5}).Build()
	if c := g.CollisionAfterMove(Coord{X: 1, Y: -1}); c != BlockCollision {
		t.Fatalf("expected block collision, got %s", c)
	}
}

func TestMoveLeftAtWallIsRejected(t *testing.T) {
	g := NewBuilder().Piece(L, Coord{X: 0, Y: 6}).Build()
	before := g.Piece
	if g.Move(Left) {
		t.Fatal("expected move left at column 0 to be refused")
	}
	if diff := cmp.Diff(before, g.Piece); diff != "" {
		t.Fatalf("piece changed after refused move (-before +after):\n%s", diff)
	}
}

func TestOPieceRightWallScenario(t *testing.T) {
	g := NewBuilder().Piece(O, Coord{X: 7, Y: 0}).Build()
	want := []Coord{{7, 0}, {8, 0}, {7, 1}, {8, 1}}
	if diff := cmp.Diff(want, sortedCells(g.PieceCells())); diff != "" {
		t.Fatalf("unexpected O cells:\n%s", diff)
	}
	if !g.Move(Right) {
		t.Fatal("expected first move right to succeed")
	}
	if g.Piece.Anchor.X != 8 {
		t.Fatalf("expected anchor x=8, got %d", g.Piece.Anchor.X)
	}
	if g.Move(Right) {
		t.Fatal("expected second move right to be refused")
	}
	if g.Piece.Anchor.X != 8 {
		t.Fatalf("expected anchor to stay at x=8, got %d", g.Piece.Anchor.X)
	}
}

func TestSingleRowClearScoring(t *testing.T) {
	g := NewBuilder().
		Row(0, J, 0).
		Piece(I, Coord{X: 0, Y: 5}).
		Next(S).
		Build()
	g.HardDrop()

	want := Score{ClearedRows: 1, Score: 100, DroppedPieces: 1, Ones: 1}
	if diff := cmp.Diff(want, g.Score); diff != "" {
		t.Fatalf("score mismatch (-want +got):\n%s", diff)
	}
	for y := 0; y < 3; y++ {
		if got := g.Board.Get(Coord{X: 0, Y: y}); got != I {
			t.Fatalf("expected shifted I block at (0,%d), got %s", y, got)
		}
	}
	if got := g.Board.Get(Coord{X: 0, Y: 3}); got != Empty {
		t.Fatalf("expected (0,3) empty after shift, got %s", got)
	}
	for x := 1; x < Width; x++ {
		if g.Board.Occupied(Coord{X: x, Y: 0}) {
			t.Fatalf("expected cleared row remnant at x=%d to be empty", x)
		}
	}
	if g.Piece.Type != S {
		t.Fatalf("expected queued S to become current, got %s", g.Piece.Type)
	}
}

func TestFourRowClearScoring(t *testing.T) {
	b := NewBuilder()
	for y := 0; y < 4; y++ {
		b.Row(y, T, Width-1)
	}
	g := b.Piece(I, Coord{X: Width - 1, Y: 10}).Build()
	g.HardDrop()

	want := Score{ClearedRows: 4, Score: 800, DroppedPieces: 1, Fours: 1}
	if diff := cmp.Diff(want, g.Score); diff != "" {
		t.Fatalf("score mismatch (-want +got):\n%s", diff)
	}
	if g.Board != (Board{}) {
		t.Fatalf("expected empty board, got:\n%s", g.Board.String())
	}
}

func TestDeleteFullLinesLeavesNoFullRow(t *testing.T) {
	g := NewBuilder().
		Row(0, L).
		Row(1, L).
		Row(2, S, 4).
		Row(3, L).
		Block(Z, Coord{X: 2, Y: 4}).
		Build()

	removed := g.Board.DeleteFullLines([]int{3, 0, 1, 2, 3})
	if removed != 3 {
		t.Fatalf("expected 3 removed rows, got %d", removed)
	}
	for y := 0; y < TotalHeight; y++ {
		if g.Board.rowFull(y) {
			t.Fatalf("row %d still full", y)
		}
	}
	if got := g.Board.Get(Coord{X: 0, Y: 0}); got != S {
		t.Fatalf("expected partial row to fall to the bottom, got %s", got)
	}
	if got := g.Board.Get(Coord{X: 2, Y: 1}); got != Z {
		t.Fatalf("expected lone block to fall to row 1, got %s", got)
	}
	if g.Board.HighestBlock() != 2 {
		t.Fatalf("unexpected highest block: %d", g.Board.HighestBlock())
	}
}

func TestLostGameIgnoresCommands(t *testing.T) {
	g := NewBuilder().Block(T, Coord{X: 0, Y: Height}).Piece(O, Coord{X: 4, Y: 5}).Build()
	if !g.IsLost() {
		t.Fatal("expected game with a buffer-row block to be lost")
	}
	board, piece, score := g.Board, g.Piece, g.Score
	for _, a := range Actions {
		g.Apply(a)
	}
	if g.Board != board || g.Piece != piece || g.Score != score {
		t.Fatal("expected lost game to ignore every command")
	}
}

func TestSoftDropLocksWhenBlocked(t *testing.T) {
	g := NewBuilder().Piece(O, Coord{X: 0, Y: 0}).Next(I).Build()
	if g.Move(Down) {
		t.Fatal("expected blocked soft drop to report no movement")
	}
	if g.Score.DroppedPieces != 1 {
		t.Fatalf("expected piece to lock, dropped=%d", g.Score.DroppedPieces)
	}
	if g.Piece.Type != I || g.Piece.Anchor != SpawnAnchor {
		t.Fatalf("expected fresh I at spawn, got %+v", g.Piece)
	}
}

func TestNewGameDrawsFromSource(t *testing.T) {
	src := NewSequenceSource(Z, L, J)
	g := NewGame(src)
	if g.Piece.Type != Z || g.Next != L {
		t.Fatalf("unexpected queue: piece=%s next=%s", g.Piece.Type, g.Next)
	}
	g.HardDrop()
	if g.Piece.Type != L || g.Next != J {
		t.Fatalf("unexpected queue after lock: piece=%s next=%s", g.Piece.Type, g.Next)
	}
	if g.IsLost() {
		t.Fatal("single drop on an empty board must not lose")
	}
}

func TestSpawnStaysInBuffer(t *testing.T) {
	for _, pt := range PieceTypes {
		for _, c := range NewPiece(pt).Cells() {
			if c.Y < Height || c.Y >= TotalHeight {
				t.Fatalf("piece %s spawns outside buffer rows at %s", pt, c)
			}
		}
	}
}

func TestBoardString(t *testing.T) {
	g := NewBuilder().Block(I, Coord{X: 0, Y: 0}).Block(T, Coord{X: 9, Y: 1}).Build()
	lines := strings.Split(strings.TrimSuffix(g.Board.String(), "\n"), "\n")
	if len(lines) != Height {
		t.Fatalf("expected %d lines, got %d", Height, len(lines))
	}
	wantBottom := " I " + strings.Repeat(" ", 27)
	if lines[Height-1] != wantBottom {
		t.Fatalf("unexpected bottom row %q", lines[Height-1])
	}
	wantSecond := strings.Repeat(" ", 27) + " T "
	if lines[Height-2] != wantSecond {
		t.Fatalf("unexpected second row %q", lines[Height-2])
	}
}

func TestBoardRowsIsACopy(t *testing.T) {
	g := NewBuilder().Row(0, L, 4).Block(S, Coord{X: 2, Y: Height}).Build()
	rows := g.Board.Rows()
	if rows[0][4] != Empty || rows[0][3] != L || rows[Height][2] != S {
		t.Fatalf("unexpected rows: bottom=%v buffer=%v", rows[0], rows[Height])
	}
	rows[0][4] = I
	if g.Board.Get(Coord{X: 4, Y: 0}) != Empty {
		t.Fatal("rows must not alias the board")
	}
}

func TestBoardSetOutOfBoundsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-bounds set")
		}
	}()
	var b Board
	b.Set(Coord{X: Width, Y: 0}, I)
}

func TestGetOutOfBoundsIsEmpty(t *testing.T) {
	b := NewBuilder().Row(0, O).Build().Board
	for _, c := range []Coord{{-1, 0}, {Width, 0}, {0, -1}, {0, TotalHeight}} {
		if got := b.Get(c); got != Empty {
			t.Fatalf("expected empty at %s, got %s", c, got)
		}
	}
}

func TestParsePieceType(t *testing.T) {
	got, err := ParsePieceType("t")
	if err != nil || got != T {
		t.Fatalf("parse t: got=%s err=%v", got, err)
	}
	if _, err := ParsePieceType("x"); err == nil {
		t.Fatal("expected error for unknown piece")
	}
}
