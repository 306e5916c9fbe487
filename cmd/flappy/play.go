package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/flappy-core/internal/config"
	"github.com/vovakirdan/flappy-core/internal/core"
	"github.com/vovakirdan/flappy-core/internal/platform/tui"
	"github.com/vovakirdan/flappy-core/internal/session"
)

var flagTickRate int

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	Long: `Play your record in the terminal. The client sends a tick every
1/tick-rate seconds while the game is playing.

Controls:
  Space/Up   - Flap (starts a fresh game)
  Enter      - Start a new game
  E          - End the current game
  R          - Reset to the title screen
  Tab        - Scoreboard
  Q/Ctrl+C   - Quit

Examples:
  flappy play
  flappy play --tick-rate 30
  flappy --player alice --signer relay --token <token> play`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func init() {
	playCmd.Flags().IntVar(&flagTickRate, "tick-rate", 0, "Ticks per second (default: play.tick_rate from config)")
}

func runPlay(_ *cobra.Command, _ []string) {
	a, err := openApp("flappy")
	if err != nil {
		fail("%v", err)
	}
	defer a.Close()

	p := player()
	ctx := context.Background()
	if _, err := a.svc.State(ctx, p); errors.Is(err, session.ErrNoGame) {
		// Only the player may create their own record.
		if c := caller(); c.Token == "" && c.Signer == p {
			if _, err := a.svc.Initialize(ctx, p); err != nil {
				a.Close()
				fail("%v", err)
			}
		} else {
			a.Close()
			fail("%s has no record yet", p)
		}
	} else if err != nil {
		a.Close()
		fail("%v", err)
	}

	// The alternate screen owns stderr while playing; log next to the database.
	logPath := filepath.Join(filepath.Dir(config.ExpandHome(a.cfg.Storage.DBPath)), "play.log")
	if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600); err == nil {
		defer f.Close()
		a.logger.SetOutput(f)
	} else {
		a.logger.SetOutput(io.Discard)
	}

	width, height := 80, 24
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width, height = w, h
	}

	rate := a.cfg.Play.TickRate
	if flagTickRate > 0 {
		rate = flagTickRate
	}

	cfg := core.RuntimeConfig{
		ScreenW:  width,
		ScreenH:  height,
		TickRate: rate,
	}
	if err := tui.Run(a.svc, a.store, p, caller(), cfg); err != nil {
		a.Close()
		fail("%v", err)
	}
}
