// Package cli provides the tutor command-line interface built on cobra.
// It is a driving adapter: commands translate flags and arguments into
// calls on the driving ports and format the results.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tutor/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
	"github.com/custodia-labs/tutor/internal/core/ports/driving"
	"github.com/custodia-labs/tutor/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// Services injected by main. Any of them may be nil; commands that need a
// missing service fail with a configuration error.
var (
	answerService    driving.AnswerService
	retrievalService driving.RetrievalService
	tocService       driving.TOCService
	catalogService   driving.CatalogService
	indexService     driving.IndexService
	settingsService  driving.SettingsService

	// answerUnavailable explains why answerService is nil.
	answerUnavailable error

	// openTarget opens the chunk store an index is uploaded to.
	openTarget func(location string) (driven.ChunkStore, error)

	healthChecks map[string]httpapi.HealthCheck
)

// Services groups everything the commands call into.
type Services struct {
	Answer    driving.AnswerService
	Retrieval driving.RetrievalService
	TOC       driving.TOCService
	Catalog   driving.CatalogService
	Index     driving.IndexService
	Settings  driving.SettingsService

	// AnswerErr is reported by commands that need Answer when it is nil.
	AnswerErr error

	// OpenTarget opens an upload target by URL for 'tutor index --upload'.
	OpenTarget func(location string) (driven.ChunkStore, error)

	// HealthChecks are probed by GET /health in 'tutor serve'.
	HealthChecks map[string]httpapi.HealthCheck
}

var rootCmd = &cobra.Command{
	Use:   "tutor",
	Short: "Answer questions from indexed textbooks",
	Long: `tutor indexes textbooks into chunk stores and answers questions
grounded in the retrieved passages, citing the sections it used.

Index a book, then ask:
  tutor index ethics.pdf --book ethics
  tutor ask --book ethics "What is the categorical imperative?"`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices injects the services used by every command.
func SetServices(s Services) {
	answerService = s.Answer
	retrievalService = s.Retrieval
	tocService = s.TOC
	catalogService = s.Catalog
	indexService = s.Index
	settingsService = s.Settings
	answerUnavailable = s.AnswerErr
	openTarget = s.OpenTarget
	healthChecks = s.HealthChecks
}

// SetVersion sets the version reported by 'tutor version' and /health.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context so servers shut down gracefully.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
