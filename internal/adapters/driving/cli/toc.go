package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tutor/internal/core/domain"
)

var tocJSON bool

var tocCmd = &cobra.Command{
	Use:   "toc [book]",
	Short: "Print the table of contents of an indexed book",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTOC,
}

func init() {
	tocCmd.Flags().BoolVar(&tocJSON, "json", false, "output the table of contents as JSON")
	rootCmd.AddCommand(tocCmd)
}

func runTOC(cmd *cobra.Command, args []string) error {
	if tocService == nil {
		return errors.New("toc service not configured")
	}

	book := domain.DefaultCollectionID
	if len(args) == 1 {
		book = args[0]
	}

	toc, err := tocService.TOC(cmd.Context(), book)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("no table of contents for %q: index the book first", book)
	}
	if err != nil {
		return fmt.Errorf("failed to read table of contents: %w", err)
	}

	if tocJSON {
		data, err := json.MarshalIndent(toc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal table of contents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	header := toc.CollectionID
	if toc.SourceFile != "" {
		header += " (" + toc.SourceFile + ")"
	}
	cmd.Printf("Table of contents: %s\n\n", header)
	if len(toc.Entries) == 0 {
		cmd.Println("No sections.")
		return nil
	}
	for i := range toc.Entries {
		e := &toc.Entries[i]
		chunk := domain.Chunk{Title: e.Title, PageStart: e.PageStart, PageEnd: e.PageEnd}
		cmd.Printf("  %-24s %s  pp. %s  %d bytes\n", e.ChunkID, chunk.DisplayTitle(), chunk.PageRange(), e.ByteSize)
	}
	return nil
}
