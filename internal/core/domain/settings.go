package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies a generation provider.
type AIProvider string

// Available generation providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderBedrock is Anthropic models served by AWS Bedrock.
	AIProviderBedrock AIProvider = "bedrock"

	// AIProviderMock answers from the prompt excerpts without a network call.
	AIProviderMock AIProvider = "mock"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderBedrock, AIProviderMock:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
// Bedrock authenticates through the AWS credential chain instead.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderMock
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderBedrock:
		return "AWS Bedrock (cloud)"
	case AIProviderMock:
		return "Mock (excerpt echo)"
	default:
		return unknownDescription
	}
}

// LLMSettings holds configuration for one generation provider.
type LLMSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the model name (Bedrock: model ID).
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Region is the cloud region (for Bedrock).
	Region string
}

// IsConfigured returns true if the provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// StoreBackend identifies the chunk store implementation.
type StoreBackend string

// Available chunk store backends.
const (
	// StoreBackendAFS stores JSON records under a file://, mem:// or s3:// URL.
	StoreBackendAFS StoreBackend = "afs"

	// StoreBackendSQLite stores records in a local SQLite database.
	StoreBackendSQLite StoreBackend = "sqlite"

	// StoreBackendMemory keeps records in process memory.
	StoreBackendMemory StoreBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendAFS, StoreBackendSQLite, StoreBackendMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// StoreSettings configures the chunk store.
type StoreSettings struct {
	// Backend selects the store implementation.
	Backend StoreBackend

	// URL is the base location for the afs backend.
	URL string

	// DataDir is the database directory for the sqlite backend.
	DataDir string

	// Books are the collections probed by health checks.
	Books []string
}

// RetrievalSettings configures ranking.
type RetrievalSettings struct {
	// Strategy names the ranking strategy.
	Strategy string

	// TopK is the default number of chunks selected per question.
	TopK int

	// CandidateLimit bounds how many chunk ids are listed per request.
	CandidateLimit int

	// ChunkCap bounds the text of each chunk read from storage.
	ChunkCap int

	// ExcerptChars is the excerpt window size.
	ExcerptChars int

	// Concurrency bounds parallel chunk fetches.
	Concurrency int
}

// GenerationSettings configures the answer orchestrator.
type GenerationSettings struct {
	// ContextBudget caps the assembled grounding context in characters.
	ContextBudget int

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness.
	Temperature float64

	// Timeout bounds each provider call.
	Timeout time.Duration

	// RateLimit is the proactive request rate per provider (requests/second).
	// Zero disables proactive throttling.
	RateLimit float64

	// ExcerptsOnly grounds prompts on ranked excerpts instead of full chunk text.
	ExcerptsOnly bool
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Store holds chunk store settings.
	Store StoreSettings

	// Retrieval holds ranking settings.
	Retrieval RetrievalSettings

	// Generation holds orchestrator settings.
	Generation GenerationSettings

	// Primary is the first generation provider.
	Primary LLMSettings

	// Secondary is the fallback provider. Unconfigured means no fallback hop.
	Secondary LLMSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Providers are left unconfigured; users must set them in config or env.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Store: StoreSettings{
			Backend: StoreBackendAFS,
			Books:   []string{DefaultCollectionID},
		},
		Retrieval: RetrievalSettings{
			Strategy:       "bm25",
			TopK:           DefaultTopK,
			CandidateLimit: 2000,
			ChunkCap:       DefaultChunkTextCap,
			ExcerptChars:   400,
			Concurrency:    8,
		},
		Generation: GenerationSettings{
			ContextBudget: 12000,
			MaxTokens:     500,
			Temperature:   0.2,
			Timeout:       30 * time.Second,
		},
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderBedrock,
		AIProviderMock,
	}
}

// DefaultLLMModels returns default models for each provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
		AIProviderBedrock:   "anthropic.claude-3-haiku-20240307-v1:0",
		AIProviderMock:      "mock",
	}
}
