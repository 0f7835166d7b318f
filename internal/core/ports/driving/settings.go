package driving

import "github.com/custodia-labs/tutor/internal/core/domain"

// ProviderRole selects which generation provider a setting applies to.
type ProviderRole string

// Provider roles.
const (
	RolePrimary   ProviderRole = "primary"
	RoleSecondary ProviderRole = "secondary"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, environment overrides applied.
	Get() (*domain.AppSettings, error)

	// SetLLMProvider configures the provider for the given role.
	SetLLMProvider(role ProviderRole, provider domain.AIProvider, model, apiKey string) error

	// SetStore configures the chunk store backend and location.
	SetStore(backend domain.StoreBackend, location string) error

	// Validate checks if current settings can answer questions.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateLLMConfig validates the provider of the given role by pinging it.
	ValidateLLMConfig(role ProviderRole) error
}
