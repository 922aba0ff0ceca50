package tetris

// Builder assembles game positions for tests, scenarios and heuristics.
type Builder struct {
	board  Board
	piece  *Piece
	next   PieceType
	source PieceSource
}

func NewBuilder() *Builder {
	return &Builder{next: T}
}

// Block occupies one cell with a locked block of type t.
func (b *Builder) Block(t PieceType, c Coord) *Builder {
	b.board.Set(c, t)
	return b
}

// Row fills row y except for the listed holes.
func (b *Builder) Row(y int, t PieceType, holes ...int) *Builder {
	skip := make(map[int]struct{}, len(holes))
	for _, x := range holes {
		skip[x] = struct{}{}
	}
	for x := 0; x < Width; x++ {
		if _, ok := skip[x]; ok {
			continue
		}
		b.board.Set(Coord{X: x, Y: y}, t)
	}
	return b
}

func (b *Builder) Board(board Board) *Builder {
	b.board = board
	return b
}

// Piece places the falling piece at anchor.
func (b *Builder) Piece(t PieceType, anchor Coord) *Builder {
	p := NewPieceAt(t, anchor)
	b.piece = &p
	return b
}

func (b *Builder) Next(t PieceType) *Builder {
	b.next = t
	return b
}

func (b *Builder) Source(src PieceSource) *Builder {
	b.source = src
	return b
}

func (b *Builder) Build() Game {
	piece := NewPiece(T)
	if b.piece != nil {
		piece = *b.piece
	}
	return NewGameFrom(b.board, piece, b.next, b.source)
}
