package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-core/internal/games/flappy"
	"github.com/vovakirdan/flappy-core/internal/platform/ws"
	"github.com/vovakirdan/flappy-core/internal/registry"
)

var flagJSON bool

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List all operations",
	Long:  `Shows the operations that can be applied to a game record.`,
	Run:   runOps,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create your game record",
	Long: `Create the game record for --player, who becomes its authority.
An existing record is replaced and its journal restarted.`,
	Args: cobra.NoArgs,
	Run:  runInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a game record",
	Args:  cobra.NoArgs,
	Run:   runShow,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print records as JSON")
}

// addOperationCommands adds one subcommand per registered operation.
func addOperationCommands(root *cobra.Command) {
	for _, op := range registry.List() {
		name := op.Name
		root.AddCommand(&cobra.Command{
			Use:   name,
			Short: op.Title,
			Args:  cobra.NoArgs,
			Run: func(_ *cobra.Command, _ []string) {
				runOperation(name)
			},
		})
	}
}

func runOps(_ *cobra.Command, _ []string) {
	ops := registry.List()

	maxNameLen := 4 // "Name" header
	for _, op := range ops {
		if len(op.Name) > maxNameLen {
			maxNameLen = len(op.Name)
		}
	}

	fmt.Println("Operations:")
	fmt.Println()
	fmt.Printf("  %-*s  %s\n", maxNameLen, "Name", "Description")
	fmt.Printf("  %-*s  %s\n", maxNameLen, "----", "-----------")
	for _, op := range ops {
		fmt.Printf("  %-*s  %s\n", maxNameLen, op.Name, op.Title)
	}

	fmt.Println()
	fmt.Println("Run 'flappy <name>' to apply one to your record.")
}

func runInit(_ *cobra.Command, _ []string) {
	a, err := openApp("flappy")
	if err != nil {
		fail("%v", err)
	}
	defer a.Close()

	g, err := a.svc.Initialize(context.Background(), player())
	if err != nil {
		a.Close()
		fail("%v", err)
	}
	printState(g)
}

func runShow(_ *cobra.Command, _ []string) {
	a, err := openApp("flappy")
	if err != nil {
		fail("%v", err)
	}
	defer a.Close()

	g, err := a.svc.State(context.Background(), player())
	if err != nil {
		a.Close()
		fail("%v\nRun 'flappy init' to create a record.", err)
	}
	printState(g)
}

func runOperation(op string) {
	a, err := openApp("flappy")
	if err != nil {
		fail("%v", err)
	}
	defer a.Close()

	g, err := a.svc.Do(context.Background(), player(), op, caller())
	if err != nil {
		a.Close()
		if code := flappy.ErrorCode(err); code != "" {
			fail("%s: %s (%v)", op, code, err)
		}
		fail("%v", err)
	}
	printState(g)
}

// printState writes a record to stdout.
func printState(g flappy.GameState) {
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		//nolint:errcheck // stdout
		enc.Encode(ws.NewStateMessage(0, g))
		return
	}

	fmt.Printf("Player:      %s\n", g.Authority)
	fmt.Printf("Status:      %s\n", g.Status)
	fmt.Printf("Score:       %d (best %d)\n", g.Score, g.HighScore)
	fmt.Printf("Bird:        y=%d px  v=%d mpx/tick\n", g.BirdY.Pixels(), int32(g.BirdVelocity))
	fmt.Printf("Frame:       %d (last update %d)\n", g.FrameCount, g.LastUpdate)
	fmt.Printf("Next spawn:  x=%d  seed=%d\n", g.NextPipeSpawnX, g.Seed)

	active := g.ActivePipes()
	if active == 0 {
		fmt.Println("Pipes:       none")
		return
	}
	fmt.Printf("Pipes:       %d active\n", active)
	for i, p := range g.Pipes {
		if !p.Active {
			continue
		}
		passed := ""
		if p.Passed {
			passed = "  passed"
		}
		fmt.Printf("  [%d] x=%-4d gap=%d..%d%s\n", i, p.X, p.GapTop(), p.GapBottom(), passed)
	}
}
