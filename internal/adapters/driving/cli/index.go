package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/logger"
)

var (
	indexBook          string
	indexSubject       string
	indexPagesPerBlock int
	indexMaxChars      int
	indexUpload        string
)

var indexCmd = &cobra.Command{
	Use:   "index [file]",
	Short: "Index a book into the chunk store",
	Long: `Reads a PDF page by page, or a text file whose pages are separated
by form feeds, groups pages into blocks, splits blocks into chunks and
writes every chunk plus a table of contents. Re-indexing a book replaces it.

Use --upload to copy the finished index to another store URL, e.g.
  tutor index ethics.pdf --book ethics --upload s3://my-bucket/indexes`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexBook, "book", "b", "", "collection id (default: file name without extension)")
	indexCmd.Flags().StringVar(&indexSubject, "subject", "", "subject recorded on each chunk (default: collection id)")
	indexCmd.Flags().IntVar(&indexPagesPerBlock, "pages-per-block", 0, "pages grouped per block (0 = default)")
	indexCmd.Flags().IntVar(&indexMaxChars, "max-chars", 0, "maximum chunk size in characters (0 = default)")
	indexCmd.Flags().StringVar(&indexUpload, "upload", "", "store URL to copy the index to after indexing")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	path := args[0]
	book := indexBook
	if book == "" {
		book = bookFromPath(path)
	}

	report, err := indexService.Index(cmd.Context(), domain.IndexRequest{
		Path:          path,
		CollectionID:  book,
		Subject:       indexSubject,
		PagesPerBlock: indexPagesPerBlock,
		MaxChars:      indexMaxChars,
	})
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	cmd.Printf("Indexed %s into %q: %d pages, %d chunks, %d bytes\n",
		filepath.Base(path), report.CollectionID, report.Pages, report.Chunks, report.Bytes)

	if indexUpload == "" {
		return nil
	}
	return uploadIndex(cmd, report.CollectionID, indexUpload)
}

func uploadIndex(cmd *cobra.Command, book, location string) error {
	if openTarget == nil {
		return errors.New("upload not configured")
	}

	target, err := openTarget(location)
	if err != nil {
		return fmt.Errorf("open upload target: %w", err)
	}
	defer func() {
		if cerr := target.Close(); cerr != nil {
			logger.Warn("closing upload target: %v", cerr)
		}
	}()

	n, err := indexService.Copy(cmd.Context(), book, target)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	cmd.Printf("Uploaded %d chunks to %s\n", n, location)
	return nil
}

// bookFromPath derives a collection id from a file name:
// "Kant Groundwork.pdf" becomes "kant-groundwork".
func bookFromPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(name), "-")
}
