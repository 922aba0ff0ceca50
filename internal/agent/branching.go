package agent

import "fmt"

// BranchingMode controls how far ahead the agent looks.
type BranchingMode uint8

const (
	// Current ranks the placements of the falling piece.
	Current BranchingMode = iota
	// CurrentAndNext also places the queued piece and ranks the final
	// board of each two-piece path.
	CurrentAndNext
)

func (m BranchingMode) String() string {
	switch m {
	case Current:
		return "current"
	case CurrentAndNext:
		return "current_and_next"
	default:
		return fmt.Sprintf("branching(%d)", uint8(m))
	}
}

func ParseBranchingMode(s string) (BranchingMode, error) {
	switch s {
	case "", "current":
		return Current, nil
	case "current_and_next", "next":
		return CurrentAndNext, nil
	default:
		return Current, fmt.Errorf("unknown branching mode: %s", s)
	}
}
