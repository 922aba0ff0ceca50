package tetris

import "math/rand"

// PieceSource supplies the queue of upcoming pieces.
type PieceSource interface {
	Next() PieceType
}

// RandomSource draws pieces uniformly. It is not safe for concurrent use.
type RandomSource struct {
	rng *rand.Rand
}

func NewRandomSource(rng *rand.Rand) *RandomSource {
	return &RandomSource{rng: rng}
}

func (s *RandomSource) Next() PieceType {
	return PieceTypes[s.rng.Intn(len(PieceTypes))]
}

// SequenceSource replays a fixed list of pieces, cycling when exhausted.
type SequenceSource struct {
	pieces []PieceType
	pos    int
}

func NewSequenceSource(pieces ...PieceType) *SequenceSource {
	return &SequenceSource{pieces: append([]PieceType(nil), pieces...)}
}

func (s *SequenceSource) Next() PieceType {
	t := s.pieces[s.pos%len(s.pieces)]
	s.pos++
	return t
}

// Collision classifies why a piece position is illegal.
type Collision uint8

const (
	NoCollision Collision = iota
	LeftBorder
	RightBorder
	BottomBorder
	BlockCollision
)

func (c Collision) String() string {
	switch c {
	case NoCollision:
		return "none"
	case LeftBorder:
		return "left_border"
	case RightBorder:
		return "right_border"
	case BottomBorder:
		return "bottom_border"
	case BlockCollision:
		return "block"
	default:
		return "unknown"
	}
}

// Game is the full simulation state. It is a value type: copying a Game
// forks the simulation, except for the piece source which is shared.
type Game struct {
	Board Board
	Piece Piece
	Next  PieceType
	Score Score

	source PieceSource
}

// NewGame starts an empty game drawing pieces from src.
func NewGame(src PieceSource) Game {
	g := Game{source: src}
	g.Piece = NewPiece(src.Next())
	g.Next = src.Next()
	return g
}

// NewGameFrom assembles a game from explicit parts. A nil source keeps
// repeating the queued piece type.
func NewGameFrom(board Board, piece Piece, next PieceType, src PieceSource) Game {
	return Game{Board: board, Piece: piece, Next: next, source: src}
}

// Detached returns a copy that no longer draws from the piece source.
func (g Game) Detached() Game {
	g.source = nil
	return g
}

// Attach makes the game draw future pieces from src.
func (g *Game) Attach(src PieceSource) {
	g.source = src
}

// SetNext replaces the queued piece.
func (g *Game) SetNext(t PieceType) {
	g.Next = t
}

func (g *Game) IsLost() bool {
	return g.Board.Overflowed()
}

// PieceCells returns the cells of the falling piece.
func (g *Game) PieceCells() [4]Coord {
	return g.Piece.Cells()
}

// CollisionAfterMove reports the first collision the piece would hit if
// shifted by offset, checking each cell for left, right, bottom and block
// collisions in that order.
func (g *Game) CollisionAfterMove(offset Coord) Collision {
	return g.collisionOf(g.Piece.shifted(offset))
}

func (g *Game) collisionOf(p Piece) Collision {
	for _, c := range p.Cells() {
		switch {
		case c.X < 0:
			return LeftBorder
		case c.X >= Width:
			return RightBorder
		case c.Y < 0:
			return BottomBorder
		case g.Board.Occupied(c):
			return BlockCollision
		}
	}
	return NoCollision
}

func (g *Game) fits(p Piece) bool {
	for _, c := range p.Cells() {
		if !InBounds(c) || g.Board.Occupied(c) {
			return false
		}
	}
	return true
}

// Move shifts the piece one cell. A blocked downward move locks the piece.
// It reports whether the piece moved.
func (g *Game) Move(d Direction) bool {
	if g.IsLost() {
		return false
	}
	if g.CollisionAfterMove(d.Offset()) != NoCollision {
		if d == Down {
			g.lock()
		}
		return false
	}
	g.Piece = g.Piece.shifted(d.Offset())
	return true
}

// HardDrop drops the piece as far as it goes and locks it.
func (g *Game) HardDrop() {
	if g.IsLost() {
		return
	}
	down := Down.Offset()
	for g.CollisionAfterMove(down) == NoCollision {
		g.Piece = g.Piece.shifted(down)
	}
	g.lock()
}

// Rotate turns the piece, trying each wall kick in order. The piece is left
// untouched when no kick fits.
func (g *Game) Rotate(r Rotation) bool {
	if g.IsLost() {
		return false
	}
	rotated := g.Piece
	rotated.Rotate(r)
	from, to := g.Piece.Rotation, rotated.Rotation
	for _, row := range offsetTable(g.Piece.Type) {
		candidate := rotated.shifted(row[from].Sub(row[to]))
		if g.fits(candidate) {
			g.Piece = candidate
			return true
		}
	}
	return false
}

// LowerTo moves the piece down without locking until its lowest cell
// reaches row y or it can fall no further.
func (g *Game) LowerTo(y int) {
	down := Down.Offset()
	for g.Piece.lowestY() > y && g.CollisionAfterMove(down) == NoCollision {
		g.Piece = g.Piece.shifted(down)
	}
}

func (g *Game) lock() {
	cells := g.Piece.Cells()
	rows := make([]int, 0, len(cells))
	for _, c := range cells {
		g.Board.Set(c, g.Piece.Type)
		rows = append(rows, c.Y)
	}
	cleared := g.Board.DeleteFullLines(rows)
	g.Score.recordLock(cleared)

	g.Piece = NewPiece(g.Next)
	if g.source != nil {
		g.Next = g.source.Next()
	}
}
