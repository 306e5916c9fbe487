// flappy is a deterministic Flappy Bird game served from a local record store.
//
// Usage:
//
//	flappy init                  - Create (or recreate) your game record
//	flappy start|flap|tick|end|reset
//	                             - Apply one operation to your record
//	flappy show                  - Print your record
//	flappy ops                   - List the operations
//	flappy play                  - Play in the terminal
//	flappy serve                 - Serve SSH and websocket play
//	flappy scores [player]       - Show high scores
//	flappy token issue|revoke    - Manage delegated session tokens
//	flappy replay                - Re-run your journal and verify every step
//
// Global flags:
//
//	--config <path>  - Config file (default: search ~/.flappy, ./configs)
//	--db <path>      - Database path (overrides config)
//	--player <name>  - Record to act on (default: $USER)
//	--signer <name>  - Identity issuing operations (default: the player)
//	--token <value>  - Session token delegated to the signer
package main

import (
	"fmt"
	"os"
	"os/user"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-core/internal/auth"
	"github.com/vovakirdan/flappy-core/internal/config"
	"github.com/vovakirdan/flappy-core/internal/session"
	"github.com/vovakirdan/flappy-core/internal/storage"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagPlayer   string
	flagSigner   string
	flagToken    string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flappy",
	Short: "Deterministic Flappy Bird in your terminal",
	Long: `flappy keeps one game record per player and advances it only through
named operations: start, flap, tick, end and reset. The same operations and
clock values always produce the same record, so every session can be replayed.

Examples:
  flappy init
  flappy flap
  flappy play
  flappy serve
  flappy scores`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagPlayer, "player", "", "Player whose record to use (default: current user)")
	rootCmd.PersistentFlags().StringVar(&flagSigner, "signer", "", "Identity issuing operations (default: the player)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "Session token delegated to the signer")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(opsCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(replayCmd)
	addOperationCommands(rootCmd)
}

// app bundles what every command needs.
type app struct {
	cfg    config.Config
	store  *storage.Store
	authn  *auth.Authenticator
	svc    *session.Service
	logger *log.Logger
}

// openApp loads configuration and opens the store.
func openApp(prefix string) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           cfg.LogLevel(),
	})

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}

	authn := auth.New(store)
	return &app{
		cfg:    cfg,
		store:  store,
		authn:  authn,
		svc:    session.New(store, authn, session.SystemClock{}, logger),
		logger: logger,
	}, nil
}

func (a *app) Close() {
	a.store.Close()
}

// player resolves the --player flag, defaulting to the current user.
func player() string {
	if flagPlayer != "" {
		return flagPlayer
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

// caller resolves who is issuing operations.
func caller() auth.Caller {
	signer := flagSigner
	if signer == "" {
		signer = player()
	}
	return auth.Caller{Signer: signer, Token: flagToken}
}

// fail prints an error and exits.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
