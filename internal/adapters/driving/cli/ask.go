package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tutor/internal/core/domain"
)

var (
	askBook string
	askTopK int
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about an indexed book",
	Long: `Retrieves the best matching sections of the book and asks the
configured provider for an answer grounded in them. When the provider is
throttled the secondary provider is tried; when both are busy the most
relevant passages are returned instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askBook, "book", "b", domain.DefaultCollectionID, "collection to ask against")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", domain.DefaultTopK, "number of sections to ground the answer in")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		if answerUnavailable != nil {
			return fmt.Errorf("answer service not configured: %w", answerUnavailable)
		}
		return errors.New("answer service not configured")
	}

	question := strings.Join(args, " ")
	res, err := answerService.Answer(cmd.Context(), askBook, question, askTopK)
	if err != nil {
		return err
	}

	if askJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	outputAnswer(cmd, res)
	return nil
}

func outputAnswer(cmd *cobra.Command, res *domain.AnswerResult) {
	cmd.Println(res.Answer)
	if len(res.Sources) == 0 {
		return
	}

	cmd.Println()
	cmd.Println("Sources:")
	for i := range res.Sources {
		src := &res.Sources[i]
		chunk := domain.Chunk{Title: src.Title, PageStart: src.PageStart, PageEnd: src.PageEnd}
		cmd.Printf("  [%d] %s (pp. %s)\n", i+1, chunk.DisplayTitle(), chunk.PageRange())
	}

	cmd.Println()
	if res.Degraded {
		cmd.Printf("Answered from excerpts in %dms (request %s)\n", res.LatencyMS, res.RequestID)
		return
	}
	cmd.Printf("Answered by %s in %dms (request %s)\n", res.Provider, res.LatencyMS, res.RequestID)
}
