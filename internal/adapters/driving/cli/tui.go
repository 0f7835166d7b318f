package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tutor/internal/adapters/driving/tui"
	"github.com/custodia-labs/tutor/internal/core/domain"
)

var tuiBook string

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive ask loop",
	Long: `Launch the interactive terminal interface for asking questions
about an indexed book and browsing its table of contents.

Controls:
  Enter    - Ask / Select
  n        - New question
  s        - Toggle answer and sources
  ↑/k, ↓/j - Scroll / Navigate
  Esc      - Back
  q        - Quit (from the menu)`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVarP(&tuiBook, "book", "b", domain.DefaultCollectionID, "collection to ask against")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = errors.New("TUI crashed")
		}
	}()

	if answerService == nil && answerUnavailable != nil {
		return fmt.Errorf("answer service not configured: %w", answerUnavailable)
	}

	app, err := tui.NewApp(tui.NewPorts(answerService, tocService, tuiBook))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
