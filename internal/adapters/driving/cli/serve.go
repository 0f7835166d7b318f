package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/tutor/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/tutor/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve the question answering API over HTTP.

Routes:
  POST /ask     {"question": "...", "book_id": "...", "top_k": 5}
  GET  /toc     ?book_id=...
  GET  /health`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}

	server := newHTTPServer()
	if answerService == nil && answerUnavailable != nil {
		logger.Warn("serving without an answer provider: %v", answerUnavailable)
	}

	cmd.Printf("HTTP API listening on %s\n", addr)
	return server.Run(cmd.Context(), addr)
}

func newHTTPServer() *httpapi.Server {
	opts := []httpapi.Option{httpapi.WithVersion(version)}
	if tocService != nil {
		opts = append(opts, httpapi.WithTOC(tocService))
	}
	if catalogService != nil {
		opts = append(opts, httpapi.WithCatalog(catalogService))
	}
	for name, check := range healthChecks {
		opts = append(opts, httpapi.WithHealthCheck(name, check))
	}
	return httpapi.NewServer(answerService, opts...)
}
