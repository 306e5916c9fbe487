package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/flappy-core/internal/auth"
	"github.com/vovakirdan/flappy-core/internal/core"
	"github.com/vovakirdan/flappy-core/internal/games/flappy"
	"github.com/vovakirdan/flappy-core/internal/storage"
)

// Service is the session API the client drives.
type Service interface {
	Do(ctx context.Context, player, op string, caller auth.Caller) (flappy.GameState, error)
	State(ctx context.Context, player string) (flappy.GameState, error)
}

// ScoreSource supplies the scoreboard.
type ScoreSource interface {
	TopScores(ctx context.Context, player string, limit int) ([]storage.ScoreEntry, error)
	Players(ctx context.Context) ([]string, error)
}

// stateMsg carries the record loaded when the model starts.
type stateMsg struct {
	state flappy.GameState
	err   error
}

// Model is the Bubble Tea model for one player's game.
type Model struct {
	svc      Service
	scores   ScoreSource
	player   string
	caller   auth.Caller
	screen   *core.Screen
	config   core.RuntimeConfig
	keys     *KeyMapper
	state    flappy.GameState
	loaded   bool
	notice   string // Last rejected operation, shown until the next success
	board    *ScoreboardModel
	quitting bool
}

// NewModel creates a client for player's record. scores may be nil.
func NewModel(svc Service, scores ScoreSource, player string, caller auth.Caller, cfg core.RuntimeConfig) Model {
	def := core.DefaultConfig()
	if cfg.ScreenW <= 0 || cfg.ScreenH <= 0 {
		cfg.ScreenW, cfg.ScreenH = def.ScreenW, def.ScreenH
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = def.TickRate
	}
	return Model{
		svc:    svc,
		scores: scores,
		player: player,
		caller: caller,
		screen: core.NewScreen(cfg.ScreenW, cfg.ScreenH),
		config: cfg,
		keys:   NewKeyMapper(),
	}
}

// Init loads the record and starts the tick loop.
func (m Model) Init() tea.Cmd {
	load := func() tea.Msg {
		g, err := m.svc.State(context.Background(), m.player)
		return stateMsg{state: g, err: err}
	}
	return tea.Batch(load, tickCmd(m.config.TickRate))
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.board != nil {
		return m.updateBoard(msg)
	}

	switch msg := msg.(type) {
	case stateMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
			return m, nil
		}
		m.state = msg.state
		m.loaded = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.screen.Resize(msg.Width, msg.Height)
		return m, nil

	case TickMsg:
		// The client is the external clock; it only ticks a live episode.
		if m.loaded && m.state.Status == flappy.StatusPlaying {
			m.apply("tick")
		}
		return m, tickCmd(m.config.TickRate)
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.keys.MapKey(msg)
	switch action {
	case core.ActionQuit:
		m.quitting = true
		return m, tea.Quit
	case core.ActionScores:
		if m.scores != nil {
			board := NewScoreboardModel(m.scores, m.config.ScreenW, m.config.ScreenH)
			board.embedded = true
			m.board = &board
		}
		return m, nil
	}

	if op := action.Op(); op != "" && m.loaded {
		m.apply(op)
	}
	return m, nil
}

// updateBoard routes messages to the scoreboard overlay.
func (m Model) updateBoard(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.config.ScreenW = wsm.Width
		m.config.ScreenH = wsm.Height
		m.screen.Resize(wsm.Width, wsm.Height)
	}
	// Keep the clock alive while the overlay is open; the game is not ticked.
	if _, ok := msg.(TickMsg); ok {
		return m, tickCmd(m.config.TickRate)
	}

	next, cmd := m.board.Update(msg)
	board, ok := next.(ScoreboardModel)
	if !ok {
		return m, cmd
	}
	switch {
	case board.IsQuitting():
		m.quitting = true
		return m, tea.Quit
	case board.IsGoingBack():
		m.board = nil
	default:
		m.board = &board
	}
	return m, cmd
}

// apply runs one operation and records the outcome.
func (m *Model) apply(op string) {
	g, err := m.svc.Do(context.Background(), m.player, op, m.caller)
	if err != nil {
		m.notice = describe(op, err)
		return
	}
	m.state = g
	m.notice = ""
}

func describe(op string, err error) string {
	if code := flappy.ErrorCode(err); code != "" {
		return fmt.Sprintf("%s rejected: %s", op, code)
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return fmt.Sprintf("%s failed: %v", op, err)
}

// State returns the last record the client saw.
func (m Model) State() flappy.GameState {
	return m.state
}

// Notice returns the message describing the last rejected operation.
func (m Model) Notice() string {
	return m.notice
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.board != nil {
		return m.board.View()
	}

	m.state.Render(m.screen)
	if m.notice != "" {
		m.screen.DrawTextColored(1, 0, m.notice, core.ColorBrightRed)
	}
	return RenderScreen(m.screen)
}

// Run starts the Bubble Tea program for player.
func Run(svc Service, scores ScoreSource, player string, caller auth.Caller, cfg core.RuntimeConfig) error {
	model := NewModel(svc, scores, player, caller, cfg)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
