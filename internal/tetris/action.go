package tetris

import "fmt"

// Action is one discrete player command.
type Action uint8

const (
	HardDrop Action = iota
	SoftDrop
	MoveLeft
	MoveRight
	RotateCCW
	RotateCW
)

// Actions is the closed command set in search order.
var Actions = [...]Action{HardDrop, SoftDrop, MoveLeft, MoveRight, RotateCCW, RotateCW}

func (a Action) String() string {
	switch a {
	case HardDrop:
		return "hard_drop"
	case SoftDrop:
		return "soft_drop"
	case MoveLeft:
		return "left"
	case MoveRight:
		return "right"
	case RotateCCW:
		return "rotate_ccw"
	case RotateCW:
		return "rotate_cw"
	default:
		return fmt.Sprintf("action(%d)", uint8(a))
	}
}

// Apply runs a on the game. Refused moves leave the game unchanged.
func (g *Game) Apply(a Action) {
	switch a {
	case HardDrop:
		g.HardDrop()
	case SoftDrop:
		g.Move(Down)
	case MoveLeft:
		g.Move(Left)
	case MoveRight:
		g.Move(Right)
	case RotateCCW:
		g.Rotate(CounterClockwise)
	case RotateCW:
		g.Rotate(Clockwise)
	default:
		panic(fmt.Sprintf("tetris: unknown action %d", a))
	}
}
