package tetris

import (
	"fmt"
	"strings"
)

// PieceType identifies a tetromino. The zero value marks an empty cell.
type PieceType uint8

const (
	Empty PieceType = iota
	I
	O
	T
	S
	Z
	J
	L
)

// PieceTypes lists every playable tetromino in a fixed order.
var PieceTypes = [...]PieceType{I, O, T, S, Z, J, L}

var pieceLetters = [...]string{Empty: " ", I: "I", O: "O", T: "T", S: "S", Z: "Z", J: "J", L: "L"}

func (t PieceType) String() string {
	if int(t) < len(pieceLetters) {
		return pieceLetters[t]
	}
	return "?"
}

func ParsePieceType(s string) (PieceType, error) {
	for _, t := range PieceTypes {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return Empty, fmt.Errorf("unknown piece type: %q", s)
}

// SpawnAnchor keeps every template, in every kick-free orientation, inside
// the hidden buffer rows above the visible well.
var SpawnAnchor = Coord{X: 4, Y: Height + 1}

var templates = [...][4]Coord{
	I: {{0, -1}, {0, 0}, {0, 1}, {0, 2}},
	O: {{0, 0}, {0, 1}, {1, 0}, {1, 1}},
	T: {{0, 0}, {-1, 0}, {1, 0}, {0, 1}},
	S: {{0, 0}, {-1, 0}, {0, 1}, {1, 1}},
	Z: {{0, 0}, {0, 1}, {-1, 1}, {1, 0}},
	J: {{0, 0}, {0, 1}, {0, 2}, {-1, 0}},
	L: {{0, 0}, {0, 1}, {0, 2}, {1, 0}},
}

// Piece is the falling tetromino. It is a plain comparable value so it can
// key visited sets during search.
type Piece struct {
	Type     PieceType `json:"type"`
	Anchor   Coord     `json:"anchor"`
	Blocks   [4]Coord  `json:"blocks"`
	Rotation int       `json:"rotation"`
}

// NewPiece returns an unrotated piece at the spawn anchor.
func NewPiece(t PieceType) Piece {
	return NewPieceAt(t, SpawnAnchor)
}

func NewPieceAt(t PieceType, anchor Coord) Piece {
	if t == Empty || int(t) >= len(templates) {
		panic(fmt.Sprintf("tetris: cannot build piece of type %d", t))
	}
	return Piece{Type: t, Anchor: anchor, Blocks: templates[t]}
}

// Cells returns the absolute board coordinates the piece covers.
func (p Piece) Cells() [4]Coord {
	var out [4]Coord
	for i, b := range p.Blocks {
		out[i] = p.Anchor.Add(b)
	}
	return out
}

// Rotate turns the block offsets a quarter turn about the anchor. No board
// checks happen here; see Game.Rotate for the kicked variant.
func (p *Piece) Rotate(r Rotation) {
	for i, b := range p.Blocks {
		if r == Clockwise {
			p.Blocks[i] = Coord{X: b.Y, Y: -b.X}
		} else {
			p.Blocks[i] = Coord{X: -b.Y, Y: b.X}
		}
	}
	if r == Clockwise {
		p.Rotation = (p.Rotation + 1) % 4
	} else {
		p.Rotation = (p.Rotation + 3) % 4
	}
}

func (p Piece) shifted(by Coord) Piece {
	p.Anchor = p.Anchor.Add(by)
	return p
}

func (p Piece) lowestY() int {
	low := p.Anchor.Y + p.Blocks[0].Y
	for _, c := range p.Cells() {
		if c.Y < low {
			low = c.Y
		}
	}
	return low
}
