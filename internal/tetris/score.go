package tetris

var lineClearPoints = [...]int{0, 100, 300, 500, 800}

// Score accumulates per-game counters. Every field only grows.
type Score struct {
	ClearedRows   int `json:"cleared_rows"`
	Score         int `json:"score"`
	DroppedPieces int `json:"dropped_pieces"`
	Fours         int `json:"fours"`
	Threes        int `json:"threes"`
	Twos          int `json:"twos"`
	Ones          int `json:"ones"`
}

func (s *Score) recordLock(cleared int) {
	s.DroppedPieces++
	if cleared <= 0 {
		return
	}
	if cleared >= len(lineClearPoints) {
		cleared = len(lineClearPoints) - 1
	}
	s.ClearedRows += cleared
	s.Score += lineClearPoints[cleared]
	switch cleared {
	case 1:
		s.Ones++
	case 2:
		s.Twos++
	case 3:
		s.Threes++
	case 4:
		s.Fours++
	}
}
