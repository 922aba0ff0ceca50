package tetris

// Offset data indexed [test][rotation state]. The kick for a rotation from
// state a to state b on test i is offset[i][a] - offset[i][b].
var (
	offsetsI = [][4]Coord{
		{{0, 0}, {-1, 0}, {-1, 1}, {0, 1}},
		{{-1, 0}, {0, 0}, {1, 1}, {0, 1}},
		{{2, 0}, {0, 0}, {-2, 1}, {0, 1}},
		{{-1, 0}, {0, 1}, {1, 0}, {0, -1}},
		{{2, 0}, {0, -2}, {-2, 0}, {0, 2}},
	}
	offsetsO = [][4]Coord{
		{{0, 0}, {0, -1}, {-1, -1}, {-1, 0}},
	}
	offsetsJLSTZ = [][4]Coord{
		{{0, 0}, {0, 0}, {0, 0}, {0, 0}},
		{{0, 0}, {1, 0}, {0, 0}, {-1, 0}},
		{{0, 0}, {1, -1}, {0, 0}, {-1, -1}},
		{{0, 0}, {0, 2}, {0, 0}, {0, 2}},
		{{0, 0}, {1, 2}, {0, 0}, {-1, 2}},
	}
)

func offsetTable(t PieceType) [][4]Coord {
	switch t {
	case I:
		return offsetsI
	case O:
		return offsetsO
	default:
		return offsetsJLSTZ
	}
}

// Kicks returns the ordered anchor corrections to try when rotating a piece
// of type t from rotation state from to rotation state to.
func Kicks(t PieceType, from, to int) []Coord {
	table := offsetTable(t)
	out := make([]Coord, len(table))
	for i, row := range table {
		out[i] = row[from].Sub(row[to])
	}
	return out
}
