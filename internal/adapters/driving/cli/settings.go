package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driving"
)

// Prompt input, swapped in tests.
var (
	stdin           = bufio.NewReader(os.Stdin)
	stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the chunk store and the generation providers.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the store and providers step by step.`,
	RunE:  runSettingsWizard,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure a generation provider",
	Long: `Configure the primary provider, or with --role secondary the provider
tried when the primary is throttled.`,
	RunE: runSettingsLLM,
}

var settingsStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Configure the chunk store",
	Long: `Select where indexed books are kept.

Available backends:
  afs     - JSON records under a file://, mem:// or s3:// URL
  sqlite  - a local SQLite database
  memory  - process memory (testing only)`,
	RunE: runSettingsStore,
}

var settingsLLMRole string

func init() {
	settingsLLMCmd.Flags().StringVar(&settingsLLMRole, "role", string(driving.RolePrimary), "provider role: primary or secondary")
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsStoreCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Backend: %s\n", settings.Store.Backend)
	switch settings.Store.Backend {
	case domain.StoreBackendAFS:
		cmd.Printf("  URL: %s\n", valueOrDefault(settings.Store.URL))
	case domain.StoreBackendSQLite:
		cmd.Printf("  Data dir: %s\n", valueOrDefault(settings.Store.DataDir))
	case domain.StoreBackendMemory:
	}
	cmd.Printf("  Books: %s\n", strings.Join(settings.Store.Books, ", "))
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Strategy: %s\n", settings.Retrieval.Strategy)
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  Candidate limit: %d\n", settings.Retrieval.CandidateLimit)
	cmd.Printf("  Concurrency: %d\n", settings.Retrieval.Concurrency)
	cmd.Println()

	cmd.Println("[Generation]")
	cmd.Printf("  Context budget: %d\n", settings.Generation.ContextBudget)
	cmd.Printf("  Max tokens: %d\n", settings.Generation.MaxTokens)
	cmd.Printf("  Temperature: %.2f\n", settings.Generation.Temperature)
	cmd.Printf("  Timeout: %s\n", settings.Generation.Timeout)
	cmd.Printf("  Excerpts only: %t\n", settings.Generation.ExcerptsOnly)
	cmd.Println()

	showLLM(cmd, "Primary", settings.Primary)
	showLLM(cmd, "Secondary", settings.Secondary)

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'tutor settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func showLLM(cmd *cobra.Command, label string, llm domain.LLMSettings) {
	cmd.Printf("[%s Provider]\n", label)
	if llm.Provider == "" {
		cmd.Println("  Provider: (none)")
		cmd.Println()
		return
	}
	cmd.Printf("  Provider: %s\n", llm.Provider.Description())
	cmd.Printf("  Model: %s\n", llm.Model)
	if llm.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", llm.BaseURL)
	}
	if llm.Region != "" {
		cmd.Printf("  Region: %s\n", llm.Region)
	}
	if llm.Provider.RequiresAPIKey() {
		if llm.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(llm.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !llm.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("Tutor Settings Wizard")
	cmd.Println("=====================")
	cmd.Println()

	cmd.Println("Step 1: Chunk Store")
	cmd.Println("-------------------")
	if err := configureStore(cmd, stdin); err != nil {
		return err
	}

	cmd.Println("Step 2: Primary Provider")
	cmd.Println("------------------------")
	if err := configureLLMProvider(cmd, stdin, driving.RolePrimary); err != nil {
		return err
	}

	cmd.Println("Step 3: Secondary Provider")
	cmd.Println("--------------------------")
	cmd.Print("Configure a fallback provider for when the primary is busy? [y/N]: ")
	if answer := strings.ToLower(readLine(stdin)); answer == "y" || answer == "yes" {
		if err := configureLLMProvider(cmd, stdin, driving.RoleSecondary); err != nil {
			return err
		}
	} else {
		cmd.Println("Skipped. Throttled requests will return the most relevant passages.")
		cmd.Println()
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	role := driving.ProviderRole(settingsLLMRole)
	if role != driving.RolePrimary && role != driving.RoleSecondary {
		return fmt.Errorf("invalid role %q: use primary or secondary", settingsLLMRole)
	}
	return configureLLMProvider(cmd, stdin, role)
}

func runSettingsStore(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return configureStore(cmd, stdin)
}

func configureStore(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Store Backend")
	backends := []domain.StoreBackend{domain.StoreBackendAFS, domain.StoreBackendSQLite, domain.StoreBackendMemory}
	for i, b := range backends {
		cmd.Printf("  %d. %s\n", i+1, b)
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(backends), 1)
	backend := backends[idx-1]

	var location string
	switch backend {
	case domain.StoreBackendAFS:
		cmd.Print("Enter store URL [~/.tutor/indexes]: ")
		location = readLine(reader)
	case domain.StoreBackendSQLite:
		cmd.Print("Enter data directory [~/.tutor]: ")
		location = readLine(reader)
	case domain.StoreBackendMemory:
	}

	if err := settingsService.SetStore(backend, location); err != nil {
		return fmt.Errorf("failed to configure store: %w", err)
	}
	cmd.Printf("Store configured: %s\n\n", backend)
	return nil
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader, role driving.ProviderRole) error {
	cmd.Printf("Select %s Provider\n", role)
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selectedProvider := providers[idx-1]

	defaultModel := domain.DefaultLLMModels()[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetLLMProvider(role, selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", role, err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(role); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s provider validation failed: %w", role, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n\n", role, selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo on a terminal and falls back to a
// plain line read otherwise.
func readPassword(reader *bufio.Reader) string {
	if stdinIsTerminal() {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func valueOrDefault(v string) string {
	if v == "" {
		return "(default)"
	}
	return v
}
