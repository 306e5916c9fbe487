package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/flappy-core/internal/auth"
	"github.com/vovakirdan/flappy-core/internal/core"
	"github.com/vovakirdan/flappy-core/internal/games/flappy"
	"github.com/vovakirdan/flappy-core/internal/storage"
)

// fakeService applies operations to an in-memory record.
type fakeService struct {
	g   flappy.GameState
	now int64
	ops []string
}

func newFakeService() *fakeService {
	return &fakeService{g: flappy.New("alice", 1), now: 1}
}

func (f *fakeService) Do(_ context.Context, _ string, op string, c auth.Caller) (flappy.GameState, error) {
	f.ops = append(f.ops, op)
	f.now++
	next := f.g
	p := flappy.Signer(c.Signer)
	var err error
	switch op {
	case "start":
		err = next.Start(p, f.now)
	case "flap":
		err = next.Flap(p, f.now)
	case "tick":
		err = next.Tick(p, f.now)
	case "end":
		err = next.End(p, f.now)
	case "reset":
		err = next.Reset(p, f.now)
	}
	if err != nil {
		return flappy.GameState{}, err
	}
	f.g = next
	return next, nil
}

func (f *fakeService) State(context.Context, string) (flappy.GameState, error) {
	return f.g, nil
}

type fakeScores struct{}

func (fakeScores) TopScores(_ context.Context, player string, _ int) ([]storage.ScoreEntry, error) {
	entries := []storage.ScoreEntry{
		{Player: "bob", Score: 9, CreatedAt: time.Unix(0, 0)},
		{Player: "alice", Score: 4, CreatedAt: time.Unix(0, 0)},
	}
	if player == "" {
		return entries, nil
	}
	var out []storage.ScoreEntry
	for _, e := range entries {
		if e.Player == player {
			out = append(out, e)
		}
	}
	return out, nil
}

func (fakeScores) Players(context.Context) ([]string, error) {
	return []string{"alice", "bob"}, nil
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadedModel(t *testing.T, svc *fakeService) Model {
	t.Helper()
	m := NewModel(svc, fakeScores{}, "alice", auth.Caller{Signer: "alice"}, core.RuntimeConfig{ScreenW: 80, ScreenH: 24, TickRate: 20})
	g, _ := svc.State(context.Background(), "alice")
	next, _ := m.Update(stateMsg{state: g})
	return next.(Model)
}

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return model
}

func TestKeyMapper(t *testing.T) {
	km := NewKeyMapper()
	cases := map[string]core.Action{
		" ":     core.ActionFlap,
		"up":    core.ActionFlap,
		"w":     core.ActionFlap,
		"enter": core.ActionStart,
		"e":     core.ActionEnd,
		"r":     core.ActionReset,
		"tab":   core.ActionScores,
		"q":     core.ActionQuit,
		"x":     core.ActionNone,
	}
	for k, want := range cases {
		if got := km.MapKey(keyPress(k)); got != want {
			t.Errorf("MapKey(%q) = %v, want %v", k, got, want)
		}
	}
}

func TestTicksOnlyWhilePlaying(t *testing.T) {
	svc := newFakeService()
	m := loadedModel(t, svc)

	m = step(t, m, TickMsg(time.Now()))
	if len(svc.ops) != 0 {
		t.Errorf("Ticked a record that is not playing: %v", svc.ops)
	}

	m = step(t, m, keyPress("enter"))
	m = step(t, m, TickMsg(time.Now()))
	m = step(t, m, TickMsg(time.Now()))
	if strings.Join(svc.ops, ",") != "start,tick,tick" {
		t.Errorf("ops = %v, want start,tick,tick", svc.ops)
	}
	if m.State().FrameCount != 2 {
		t.Errorf("FrameCount = %d, want 2", m.State().FrameCount)
	}
}

func TestFlapKeyAutoStarts(t *testing.T) {
	svc := newFakeService()
	m := loadedModel(t, svc)

	m = step(t, m, keyPress(" "))
	if m.State().Status != flappy.StatusPlaying {
		t.Errorf("Status after flap = %v, want Playing", m.State().Status)
	}
	if m.State().BirdVelocity != flappy.JumpVelocity+flappy.Gravity {
		t.Errorf("BirdVelocity = %d", m.State().BirdVelocity)
	}
}

func TestRejectedOpShowsNotice(t *testing.T) {
	svc := newFakeService()
	m := loadedModel(t, svc)

	m = step(t, m, keyPress("enter"))
	m = step(t, m, keyPress("enter"))
	if !strings.Contains(m.Notice(), "GameAlreadyStarted") {
		t.Errorf("Notice = %q, want GameAlreadyStarted", m.Notice())
	}

	m = step(t, m, keyPress("e"))
	if m.Notice() != "" {
		t.Errorf("Notice should clear after a successful op, got %q", m.Notice())
	}
	if !strings.Contains(m.View(), "GAME OVER") {
		t.Error("View should show the game over box")
	}
}

func TestScoreboardOverlay(t *testing.T) {
	svc := newFakeService()
	m := loadedModel(t, svc)
	m = step(t, m, keyPress("enter"))

	m = step(t, m, keyPress("tab"))
	if m.board == nil {
		t.Fatal("Tab should open the scoreboard")
	}
	if rows := m.board.Rows(); len(rows) != 2 || rows[0].Player != "bob" {
		t.Errorf("Scoreboard rows = %+v", rows)
	}

	// The game is paused while the board is open.
	m = step(t, m, TickMsg(time.Now()))
	if len(svc.ops) != 1 {
		t.Errorf("Ticked behind the scoreboard: %v", svc.ops)
	}

	m = step(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.board.Selected() != "alice" || len(m.board.Rows()) != 1 {
		t.Errorf("Scoreboard filter = %q rows=%d", m.board.Selected(), len(m.board.Rows()))
	}

	m = step(t, m, keyPress("tab"))
	if m.board != nil {
		t.Error("Tab should close the scoreboard")
	}
}

func TestRenderScreen(t *testing.T) {
	s := core.NewScreen(5, 2)
	s.DrawText(0, 0, "ab")
	s.SetColored(2, 0, 'c', core.ColorGreen)

	out := RenderScreen(s)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("RenderScreen produced %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "ab") || !strings.Contains(lines[0], "c") {
		t.Errorf("First line = %q", lines[0])
	}
}
