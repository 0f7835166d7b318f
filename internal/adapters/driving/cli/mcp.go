package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tutor/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for serving tutor to assistants over the Model Context Protocol.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Expose the ask, search and toc tools, plus one table of contents
resource per book (tutor://books/{bookId}/toc), over MCP.

The server speaks JSON-RPC over stdio unless --port is given, in which case
it serves the streamable HTTP transport instead (useful with MCP Inspector).
The ask tool is only available when a generation provider is configured.

Examples:
  tutor mcp serve
  tutor mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "tutor": {
        "command": "/path/to/tutor",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Retrieval: retrievalService,
		Answer:    answerService,
		TOC:       tocService,
		Catalog:   catalogService,
	}, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		cmd.Printf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}
	return server.Run(cmd.Context())
}
