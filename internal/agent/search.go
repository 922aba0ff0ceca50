package agent

import "tetrisga/internal/tetris"

// PossibleNextStates returns every distinct locked position reachable by
// moving and rotating the falling piece of g before it locks. Outcomes are
// deduplicated by board and returned in discovery order; lost positions are
// never returned. The returned games are detached from any piece source.
func PossibleNextStates(g tetris.Game) []tetris.Game {
	if g.IsLost() {
		return nil
	}

	start := g.Detached()
	start.LowerTo(start.Board.HighestBlock())
	dropped := start.Score.DroppedPieces

	visited := map[tetris.Piece]struct{}{start.Piece: {}}
	outcomes := make(map[tetris.Board]struct{})
	var out []tetris.Game

	stack := []tetris.Game{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, action := range tetris.Actions {
			next := cur
			next.Apply(action)
			if next.IsLost() {
				continue
			}
			if next.Score.DroppedPieces > dropped {
				if _, ok := outcomes[next.Board]; ok {
					continue
				}
				outcomes[next.Board] = struct{}{}
				out = append(out, next)
				continue
			}
			if _, ok := visited[next.Piece]; ok {
				continue
			}
			visited[next.Piece] = struct{}{}
			stack = append(stack, next)
		}
	}
	return out
}

// BestNextState ranks placements under the branching mode and returns the
// lowest scoring one. It reports false when no placement survives.
func (a *Agent) BestNextState(g tetris.Game) (tetris.Game, bool) {
	first := PossibleNextStates(g)
	if len(first) == 0 {
		return tetris.Game{}, false
	}

	if a.Branching == CurrentAndNext {
		if best, ok := a.bestTwoPly(first); ok {
			return best, true
		}
	}

	bestIdx := 0
	bestScore := a.Forward(&first[0].Board)
	for i := 1; i < len(first); i++ {
		if s := a.Forward(&first[i].Board); s < bestScore {
			bestIdx, bestScore = i, s
		}
	}
	return first[bestIdx], true
}

func (a *Agent) bestTwoPly(first []tetris.Game) (tetris.Game, bool) {
	found := false
	var best tetris.Game
	var bestScore float64
	for _, ply := range first {
		for _, second := range PossibleNextStates(ply) {
			s := a.Forward(&second.Board)
			if !found || s < bestScore {
				best, bestScore, found = ply, s, true
			}
		}
	}
	return best, found
}
