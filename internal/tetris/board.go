package tetris

import (
	"fmt"
	"sort"
	"strings"
)

const (
	Width  = 10
	Height = 20
	// BufferRows are hidden rows above the visible well. Any locked cell in
	// them means the game is lost.
	BufferRows  = 4
	TotalHeight = Height + BufferRows
)

// Board is the grid of locked cells, row-major with row 0 at the bottom.
// It is comparable and can be used directly as a map key.
type Board struct {
	cells [TotalHeight][Width]PieceType
}

func InBounds(c Coord) bool {
	return c.X >= 0 && c.X < Width && c.Y >= 0 && c.Y < TotalHeight
}

// Get returns Empty for any coordinate outside the grid.
func (b *Board) Get(c Coord) PieceType {
	if !InBounds(c) {
		return Empty
	}
	return b.cells[c.Y][c.X]
}

// Set writes a cell. Writing outside the grid is a logic error.
func (b *Board) Set(c Coord, t PieceType) {
	if !InBounds(c) {
		panic(fmt.Sprintf("tetris: set out of bounds at %s", c))
	}
	b.cells[c.Y][c.X] = t
}

func (b *Board) Occupied(c Coord) bool {
	return b.Get(c) != Empty
}

func (b *Board) rowFull(y int) bool {
	for x := 0; x < Width; x++ {
		if b.cells[y][x] == Empty {
			return false
		}
	}
	return true
}

// DeleteFullLines removes those of the given rows that are completely
// occupied and returns how many were removed. Rows are removed bottom to
// top; every removal shifts the rows above it down by one, so each later
// index is corrected by the number of rows already gone.
func (b *Board) DeleteFullLines(rows []int) int {
	full := make([]int, 0, len(rows))
	seen := make(map[int]struct{}, len(rows))
	for _, y := range rows {
		if y < 0 || y >= TotalHeight {
			continue
		}
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		if b.rowFull(y) {
			full = append(full, y)
		}
	}
	sort.Ints(full)

	for removed, y := range full {
		b.removeRow(y - removed)
	}
	return len(full)
}

func (b *Board) removeRow(y int) {
	copy(b.cells[y:], b.cells[y+1:])
	b.cells[TotalHeight-1] = [Width]PieceType{}
}

// ColumnHeights returns, per column, the index of the highest occupied cell
// plus one, or 0 for an empty column.
func (b *Board) ColumnHeights() [Width]int {
	var heights [Width]int
	for x := 0; x < Width; x++ {
		for y := TotalHeight - 1; y >= 0; y-- {
			if b.cells[y][x] != Empty {
				heights[x] = y + 1
				break
			}
		}
	}
	return heights
}

// HighestBlock is the height of the tallest column.
func (b *Board) HighestBlock() int {
	highest := 0
	for _, h := range b.ColumnHeights() {
		if h > highest {
			highest = h
		}
	}
	return highest
}

// Overflowed reports whether any locked cell sits in the buffer rows.
func (b *Board) Overflowed() bool {
	for y := Height; y < TotalHeight; y++ {
		for x := 0; x < Width; x++ {
			if b.cells[y][x] != Empty {
				return true
			}
		}
	}
	return false
}

// Blocks calls fn for every occupied cell, bottom row first.
func (b *Board) Blocks(fn func(c Coord, t PieceType)) {
	for y := 0; y < TotalHeight; y++ {
		for x := 0; x < Width; x++ {
			if t := b.cells[y][x]; t != Empty {
				fn(Coord{X: x, Y: y}, t)
			}
		}
	}
}

// Rows returns a copy of every row, bottom row first, buffer rows included.
func (b *Board) Rows() [TotalHeight][Width]PieceType {
	return b.cells
}

// String renders the visible rows top to bottom, three characters per cell.
func (b *Board) String() string {
	var sb strings.Builder
	sb.Grow(Height * (Width*3 + 1))
	for y := Height - 1; y >= 0; y-- {
		for x := 0; x < Width; x++ {
			t := b.cells[y][x]
			if t == Empty {
				sb.WriteString("   ")
				continue
			}
			sb.WriteByte(' ')
			sb.WriteString(t.String())
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
