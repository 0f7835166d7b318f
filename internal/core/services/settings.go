package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
	"github.com/custodia-labs/tutor/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyStoreBackend     = "store.backend"
	keyStoreURL         = "store.url"
	keyStoreDataDir     = "store.data_dir"
	keyStoreBooks       = "store.books"
	keyStrategy         = "retrieval.strategy"
	keyTopK             = "retrieval.top_k"
	keyCandidateLimit   = "retrieval.candidate_limit"
	keyChunkCap         = "retrieval.chunk_cap"
	keyExcerptChars     = "retrieval.excerpt_chars"
	keyConcurrency      = "retrieval.concurrency"
	keyContextBudget    = "prompt.context_budget"
	keyExcerptsOnly     = "prompt.excerpts_only"
	keyMaxTokens        = "generation.max_tokens"
	keyTemperature      = "generation.temperature"
	keyTimeoutSeconds   = "generation.timeout_seconds"
	keyRateLimit        = "generation.rate_limit"
	keyLLMPrefix        = "llm."
	keyLLMProviderField = "provider"
	keyLLMModelField    = "model"
	keyLLMBaseURLField  = "base_url"
	keyLLMAPIKeyField   = "api_key"
	keyLLMRegionField   = "region"
)

// envPrefix prefixes every environment override, e.g. TUTOR_STORE_URL.
const envPrefix = "TUTOR_"

// defaultOllamaURL is used when a local provider has no base URL.
const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
// Values come from the config store, then environment overrides are applied.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithEnvLookup replaces os.LookupEnv, mainly for tests.
func WithEnvLookup(lookup func(string) (string, bool)) SettingsOption {
	return func(s *SettingsService) {
		s.lookupEnv = lookup
	}
}

// NewSettingsService creates a new settings service.
func NewSettingsService(
	configStore driven.ConfigStore,
	aiValidator driven.AIConfigValidator,
	opts ...SettingsOption,
) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Store: domain.StoreSettings{
			Backend: s.getBackend(defaults.Store.Backend),
			URL:     s.configStore.GetString(keyStoreURL),
			DataDir: s.configStore.GetString(keyStoreDataDir),
			Books:   s.getStrings(keyStoreBooks, defaults.Store.Books),
		},
		Retrieval: domain.RetrievalSettings{
			Strategy:       s.getString(keyStrategy, defaults.Retrieval.Strategy),
			TopK:           s.getInt(keyTopK, defaults.Retrieval.TopK),
			CandidateLimit: s.getInt(keyCandidateLimit, defaults.Retrieval.CandidateLimit),
			ChunkCap:       s.getInt(keyChunkCap, defaults.Retrieval.ChunkCap),
			ExcerptChars:   s.getInt(keyExcerptChars, defaults.Retrieval.ExcerptChars),
			Concurrency:    s.getInt(keyConcurrency, defaults.Retrieval.Concurrency),
		},
		Generation: domain.GenerationSettings{
			ContextBudget: s.getInt(keyContextBudget, defaults.Generation.ContextBudget),
			MaxTokens:     s.getInt(keyMaxTokens, defaults.Generation.MaxTokens),
			Temperature:   s.getFloat(keyTemperature, defaults.Generation.Temperature),
			Timeout:       s.getSeconds(keyTimeoutSeconds, defaults.Generation.Timeout),
			RateLimit:     s.getFloat(keyRateLimit, defaults.Generation.RateLimit),
			ExcerptsOnly:  s.configStore.GetBool(keyExcerptsOnly),
		},
		Primary:   s.getLLM(driving.RolePrimary),
		Secondary: s.getLLM(driving.RoleSecondary),
	}

	s.applyEnv(settings)
	return settings, nil
}

// SetLLMProvider configures the provider for a role.
func (s *SettingsService) SetLLMProvider(role driving.ProviderRole, provider domain.AIProvider, model, apiKey string) error {
	if err := validateRole(role); err != nil {
		return err
	}
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	current := s.getLLM(role)
	llm := domain.LLMSettings{
		Provider: provider,
		Model:    model,
		APIKey:   apiKey,
		Region:   current.Region,
	}
	if llm.Model == "" {
		llm.Model = domain.DefaultLLMModels()[provider]
	}

	// Only local providers keep a custom base URL.
	if provider == domain.AIProviderOllama {
		llm.BaseURL = current.BaseURL
		if llm.BaseURL == "" {
			llm.BaseURL = defaultOllamaURL
		}
	}

	return s.saveLLM(role, llm)
}

// SetStore configures the chunk store backend and its location. The location
// is a base URL for afs and a data directory for sqlite; memory takes none.
func (s *SettingsService) SetStore(backend domain.StoreBackend, location string) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: invalid store backend: %s", domain.ErrInvalidInput, backend)
	}
	if err := s.configStore.Set(keyStoreBackend, backend.String()); err != nil {
		return fmt.Errorf("save store backend: %w", err)
	}

	switch backend {
	case domain.StoreBackendAFS:
		if err := s.configStore.Set(keyStoreURL, location); err != nil {
			return fmt.Errorf("save store url: %w", err)
		}
	case domain.StoreBackendSQLite:
		if err := s.configStore.Set(keyStoreDataDir, location); err != nil {
			return fmt.Errorf("save store data_dir: %w", err)
		}
	}
	return nil
}

// Validate checks if current settings can answer questions.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Store.Backend.IsValid() {
		return fmt.Errorf("invalid store backend: %s", settings.Store.Backend)
	}
	if !settings.Primary.IsConfigured() {
		return fmt.Errorf("%w: primary LLM provider is not configured", domain.ErrProviderUnavailable)
	}
	if settings.Secondary.Provider != "" && !settings.Secondary.IsConfigured() {
		return fmt.Errorf("%w: secondary LLM provider %s is missing an API key",
			domain.ErrProviderUnavailable, settings.Secondary.Provider)
	}
	if settings.Retrieval.TopK > domain.MaxTopK {
		return fmt.Errorf("%w: retrieval.top_k %d exceeds %d", domain.ErrInvalidInput, settings.Retrieval.TopK, domain.MaxTopK)
	}
	if settings.Generation.Timeout <= 0 {
		return fmt.Errorf("%w: generation.timeout_seconds must be positive", domain.ErrInvalidInput)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateLLMConfig validates the provider of a role by pinging it.
func (s *SettingsService) ValidateLLMConfig(role driving.ProviderRole) error {
	if err := validateRole(role); err != nil {
		return err
	}
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	llm := settings.Primary
	if role == driving.RoleSecondary {
		llm = settings.Secondary
	}
	return s.aiValidator.ValidateLLM(&llm)
}

func validateRole(role driving.ProviderRole) error {
	switch role {
	case driving.RolePrimary, driving.RoleSecondary:
		return nil
	default:
		return fmt.Errorf("%w: unknown provider role %q", domain.ErrInvalidInput, role)
	}
}

func llmKey(role driving.ProviderRole, field string) string {
	return keyLLMPrefix + string(role) + "." + field
}

func (s *SettingsService) getLLM(role driving.ProviderRole) domain.LLMSettings {
	provider := domain.AIProvider(s.configStore.GetString(llmKey(role, keyLLMProviderField)))
	if !provider.IsValid() {
		provider = ""
	}
	return domain.LLMSettings{
		Provider: provider,
		Model:    s.configStore.GetString(llmKey(role, keyLLMModelField)),
		BaseURL:  s.configStore.GetString(llmKey(role, keyLLMBaseURLField)),
		APIKey:   s.configStore.GetString(llmKey(role, keyLLMAPIKeyField)),
		Region:   s.configStore.GetString(llmKey(role, keyLLMRegionField)),
	}
}

func (s *SettingsService) saveLLM(role driving.ProviderRole, llm domain.LLMSettings) error {
	fields := []struct {
		name  string
		value string
	}{
		{keyLLMProviderField, llm.Provider.String()},
		{keyLLMModelField, llm.Model},
		{keyLLMBaseURLField, llm.BaseURL},
		{keyLLMAPIKeyField, llm.APIKey},
		{keyLLMRegionField, llm.Region},
	}
	for _, f := range fields {
		if err := s.configStore.Set(llmKey(role, f.name), f.value); err != nil {
			return fmt.Errorf("save llm.%s.%s: %w", role, f.name, err)
		}
	}
	return nil
}

// applyEnv overlays environment variables on settings read from the store.
// Provider API keys fall back to the vendor variables when unset.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if v, ok := s.env("STORE_BACKEND"); ok && domain.StoreBackend(v).IsValid() {
		settings.Store.Backend = domain.StoreBackend(v)
	}
	if v, ok := s.env("STORE_URL"); ok {
		settings.Store.URL = v
	}
	if v, ok := s.env("STORE_DATA_DIR"); ok {
		settings.Store.DataDir = v
	}
	if n, ok := s.envInt("TOP_K"); ok {
		settings.Retrieval.TopK = n
	}
	if n, ok := s.envInt("TIMEOUT_SECONDS"); ok {
		settings.Generation.Timeout = time.Duration(n) * time.Second
	}
	if v, ok := s.env("RATE_LIMIT"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			settings.Generation.RateLimit = f
		}
	}

	s.applyLLMEnv("PRIMARY_", &settings.Primary)
	s.applyLLMEnv("SECONDARY_", &settings.Secondary)
}

func (s *SettingsService) applyLLMEnv(prefix string, llm *domain.LLMSettings) {
	if v, ok := s.env(prefix + "PROVIDER"); ok && domain.AIProvider(v).IsValid() {
		llm.Provider = domain.AIProvider(v)
	}
	if v, ok := s.env(prefix + "MODEL"); ok {
		llm.Model = v
	}
	if v, ok := s.env(prefix + "BASE_URL"); ok {
		llm.BaseURL = v
	}
	if v, ok := s.env(prefix + "API_KEY"); ok {
		llm.APIKey = v
	}
	if v, ok := s.env(prefix + "REGION"); ok {
		llm.Region = v
	}

	if llm.APIKey == "" {
		switch llm.Provider {
		case domain.AIProviderAnthropic:
			llm.APIKey = s.rawEnv("ANTHROPIC_API_KEY")
		case domain.AIProviderOpenAI:
			llm.APIKey = s.rawEnv("OPENAI_API_KEY")
		}
	}
	if llm.Provider == domain.AIProviderBedrock && llm.Region == "" {
		llm.Region = s.rawEnv("AWS_REGION")
	}
	if llm.Model == "" && llm.Provider != "" {
		llm.Model = domain.DefaultLLMModels()[llm.Provider]
	}
}

func (s *SettingsService) env(name string) (string, bool) {
	v, ok := s.lookupEnv(envPrefix + name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (s *SettingsService) envInt(name string) (int, bool) {
	v, ok := s.env(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (s *SettingsService) rawEnv(name string) string {
	v, _ := s.lookupEnv(name)
	return strings.TrimSpace(v)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return defaultVal
}

func (s *SettingsService) getStrings(key string, defaultVal []string) []string {
	if v := s.configStore.GetStringSlice(key); len(v) > 0 {
		return v
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	val := s.configStore.GetFloat64(key)
	if val < 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Second
}

func (s *SettingsService) getBackend(defaultVal domain.StoreBackend) domain.StoreBackend {
	backend := domain.StoreBackend(s.configStore.GetString(keyStoreBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
