package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var booksJSON bool

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List the indexed books",
	Args:  cobra.NoArgs,
	RunE:  runBooks,
}

func init() {
	booksCmd.Flags().BoolVar(&booksJSON, "json", false, "output the book list as JSON")
	rootCmd.AddCommand(booksCmd)
}

func runBooks(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	books, err := catalogService.Books(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}

	if booksJSON {
		if books == nil {
			books = []string{}
		}
		data, err := json.Marshal(books)
		if err != nil {
			return fmt.Errorf("failed to marshal books: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(books) == 0 {
		cmd.Println("No books indexed. Run 'tutor index <file>' first.")
		return nil
	}
	for _, book := range books {
		cmd.Println(book)
	}
	return nil
}
