package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/flappy-core/internal/platform/tui"
)

var (
	flagScoresLimit int
	flagScoresTUI   bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores [player]",
	Short: "Show high scores",
	Long: `Display the top scores of finished episodes, for one player or for everyone.

Examples:
  flappy scores
  flappy scores alice
  flappy scores --tui`,
	Args: cobra.MaximumNArgs(1),
	Run:  runScores,
}

func init() {
	scoresCmd.Flags().IntVarP(&flagScoresLimit, "limit", "n", 10, "Number of scores to show")
	scoresCmd.Flags().BoolVar(&flagScoresTUI, "tui", false, "Browse scores interactively")
}

func runScores(_ *cobra.Command, args []string) {
	a, err := openApp("flappy")
	if err != nil {
		fail("%v", err)
	}
	defer a.Close()

	if flagScoresTUI {
		width, height := 80, 24
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width, height = w, h
		}
		if err := tui.RunScoreboard(a.store, width, height); err != nil {
			a.Close()
			fail("%v", err)
		}
		return
	}

	who := ""
	title := "everyone"
	if len(args) == 1 {
		who = args[0]
		title = who
	}

	scores, err := a.store.TopScores(context.Background(), who, flagScoresLimit)
	if err != nil {
		a.Close()
		fail("retrieving scores: %v", err)
	}

	fmt.Printf("High Scores - %s\n", title)
	fmt.Println()

	if len(scores) == 0 {
		fmt.Println("No scores recorded yet.")
		fmt.Println()
		fmt.Println("Run 'flappy play' to set the first high score!")
		return
	}

	fmt.Printf("  %-4s  %-12s  %-8s  %s\n", "Rank", "Player", "Score", "Date")
	fmt.Printf("  %-4s  %-12s  %-8s  %s\n", "----", "------", "-----", "----")
	for i, entry := range scores {
		fmt.Printf("  %-4d  %-12s  %-8d  %s\n", i+1, entry.Player, entry.Score, entry.CreatedAt.Format("2006-01-02 15:04"))
	}
}
