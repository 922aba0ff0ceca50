package tetris

import "fmt"

// Coord is a board position. X grows to the right, Y grows upwards with row 0
// at the bottom of the well.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) Add(o Coord) Coord {
	return Coord{X: c.X + o.X, Y: c.Y + o.Y}
}

func (c Coord) Sub(o Coord) Coord {
	return Coord{X: c.X - o.X, Y: c.Y - o.Y}
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Direction is a unit shift applied to the falling piece.
type Direction uint8

const (
	Left Direction = iota
	Right
	Down
)

func (d Direction) Offset() Coord {
	switch d {
	case Left:
		return Coord{X: -1}
	case Right:
		return Coord{X: 1}
	case Down:
		return Coord{Y: -1}
	default:
		panic(fmt.Sprintf("tetris: unknown direction %d", d))
	}
}

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// Rotation selects the rotation sense.
type Rotation uint8

const (
	Clockwise Rotation = iota
	CounterClockwise
)

func (r Rotation) String() string {
	if r == Clockwise {
		return "cw"
	}
	return "ccw"
}
