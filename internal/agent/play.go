package agent

import (
	"errors"
	"fmt"

	"tetrisga/internal/tetris"
)

// ErrNoCandidates means the move search found nothing while the falling
// piece could still be placed without losing. It points at a bug in the
// search or collision code and must stop the run.
var ErrNoCandidates = errors.New("move search produced no candidates")

// Step places the falling piece of g at the agent's preferred position and
// queues a fresh piece from src.
func (a *Agent) Step(g *tetris.Game, src tetris.PieceSource) error {
	if g.IsLost() {
		return nil
	}

	next, ok := a.BestNextState(*g)
	if !ok {
		fallback := g.Detached()
		fallback.HardDrop()
		if !fallback.IsLost() {
			return fmt.Errorf("%w: piece %s at %s", ErrNoCandidates, g.Piece.Type, g.Piece.Anchor)
		}
		next = fallback
	}

	next.Attach(src)
	next.SetNext(src.Next())
	*g = next
	return nil
}

// Play runs a fresh game until it is lost or maxDrops pieces have locked.
// A maxDrops of zero means no limit.
func (a *Agent) Play(src tetris.PieceSource, maxDrops int) (tetris.Score, error) {
	a.Game = tetris.NewGame(src)
	for !a.Game.IsLost() {
		if maxDrops > 0 && a.Game.Score.DroppedPieces >= maxDrops {
			break
		}
		if err := a.Step(&a.Game, src); err != nil {
			return a.Game.Score, fmt.Errorf("drop %d: %w", a.Game.Score.DroppedPieces+1, err)
		}
	}
	return a.Game.Score, nil
}
