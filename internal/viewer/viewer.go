// Package viewer is a terminal front end for a tetris.Game, driven either by
// the keyboard or by an agent.
package viewer

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tetrisga/internal/agent"
	"tetrisga/internal/tetris"
)

const defaultInterval = 500 * time.Millisecond

type Config struct {
	Source tetris.PieceSource
	// Autopilot plays the game when set; keyboard moves are then ignored.
	Autopilot *agent.Agent
	// Interval between gravity steps, or between agent moves.
	Interval time.Duration
	// MaxDrops ends an autopilot game after that many locks. Zero is no
	// limit.
	MaxDrops int
}

type tickMsg time.Time

type Model struct {
	game     tetris.Game
	src      tetris.PieceSource
	pilot    *agent.Agent
	interval time.Duration
	maxDrops int

	paused bool
	done   bool
	err    error
}

func New(cfg Config) (Model, error) {
	if cfg.Source == nil {
		return Model{}, fmt.Errorf("piece source is required")
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return Model{
		game:     tetris.NewGame(cfg.Source),
		src:      cfg.Source,
		pilot:    cfg.Autopilot,
		interval: interval,
		maxDrops: cfg.MaxDrops,
	}, nil
}

// Game returns the current simulation state.
func (m Model) Game() tetris.Game {
	return m.game
}

// Err is the agent error that ended the session, if any.
func (m Model) Err() error {
	return m.err
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// KeyAction maps a key to a game command. Arrows, vim keys and the usual
// z/x rotation keys are accepted.
func KeyAction(key string) (tetris.Action, bool) {
	switch key {
	case "left", "h", "a":
		return tetris.MoveLeft, true
	case "right", "l", "d":
		return tetris.MoveRight, true
	case "down", "j", "s":
		return tetris.SoftDrop, true
	case " ", "space", "enter":
		return tetris.HardDrop, true
	case "up", "k", "x", "w":
		return tetris.RotateCW, true
	case "z":
		return tetris.RotateCCW, true
	default:
		return 0, false
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "p":
			if !m.done {
				m.paused = !m.paused
			}
			return m, nil
		}
		if m.pilot != nil || m.paused || m.done {
			return m, nil
		}
		if a, ok := KeyAction(msg.String()); ok {
			m.game.Apply(a)
			m.done = m.game.IsLost()
		}
		return m, nil
	case tickMsg:
		if m.done {
			return m, nil
		}
		if !m.paused {
			m.advance()
		}
		if m.done {
			return m, nil
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) advance() {
	if m.pilot == nil {
		m.game.Apply(tetris.SoftDrop)
		m.done = m.game.IsLost()
		return
	}
	if err := m.pilot.Step(&m.game, m.src); err != nil {
		m.err = err
		m.done = true
		return
	}
	m.done = m.game.IsLost() || (m.maxDrops > 0 && m.game.Score.DroppedPieces >= m.maxDrops)
}

var (
	wellStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	panelStyle = lipgloss.NewStyle().Padding(0, 2)
	titleStyle = lipgloss.NewStyle().Bold(true)
	overStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	pieceColors = map[tetris.PieceType]lipgloss.Color{
		tetris.I: lipgloss.Color("51"),
		tetris.O: lipgloss.Color("226"),
		tetris.T: lipgloss.Color("129"),
		tetris.S: lipgloss.Color("46"),
		tetris.Z: lipgloss.Color("196"),
		tetris.J: lipgloss.Color("21"),
		tetris.L: lipgloss.Color("208"),
	}
)

// Cells returns the visible well top row first, with the falling piece
// drawn over the locked blocks.
func Cells(g *tetris.Game) [tetris.Height][tetris.Width]tetris.PieceType {
	var out [tetris.Height][tetris.Width]tetris.PieceType
	rows := g.Board.Rows()
	for y := 0; y < tetris.Height; y++ {
		out[tetris.Height-1-y] = rows[y]
	}
	if g.IsLost() {
		return out
	}
	for _, c := range g.PieceCells() {
		if c.Y >= 0 && c.Y < tetris.Height && c.X >= 0 && c.X < tetris.Width {
			out[tetris.Height-1-c.Y][c.X] = g.Piece.Type
		}
	}
	return out
}

func renderWell(g *tetris.Game) string {
	cells := Cells(g)
	var sb strings.Builder
	for i, row := range cells {
		for _, t := range row {
			if t == tetris.Empty {
				sb.WriteString(" .")
				continue
			}
			sb.WriteString(lipgloss.NewStyle().Foreground(pieceColors[t]).Render("[]"))
		}
		if i < len(cells)-1 {
			sb.WriteByte('\n')
		}
	}
	return wellStyle.Render(sb.String())
}

func (m Model) View() string {
	score := m.game.Score
	mode := "human"
	if m.pilot != nil {
		mode = "agent"
	}
	lines := []string{
		titleStyle.Render("tetris"),
		"",
		fmt.Sprintf("mode:    %s", mode),
		fmt.Sprintf("next:    %s", m.game.Next),
		fmt.Sprintf("score:   %d", score.Score),
		fmt.Sprintf("lines:   %d", score.ClearedRows),
		fmt.Sprintf("pieces:  %d", score.DroppedPieces),
		fmt.Sprintf("tetrises: %d", score.Fours),
		"",
	}
	switch {
	case m.err != nil:
		lines = append(lines, overStyle.Render("error: "+m.err.Error()))
	case m.done && m.game.IsLost():
		lines = append(lines, overStyle.Render("game over"))
	case m.done:
		lines = append(lines, overStyle.Render("drop limit reached"))
	case m.paused:
		lines = append(lines, "paused")
	}
	lines = append(lines, "", "p pause, q quit")
	panel := panelStyle.Render(strings.Join(lines, "\n"))
	return lipgloss.JoinHorizontal(lipgloss.Top, renderWell(&m.game), panel) + "\n"
}

// Run starts a full-screen program and returns the final game state.
func Run(cfg Config) (tetris.Game, error) {
	m, err := New(cfg)
	if err != nil {
		return tetris.Game{}, err
	}
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return tetris.Game{}, err
	}
	fm := final.(Model)
	return fm.game, fm.err
}
