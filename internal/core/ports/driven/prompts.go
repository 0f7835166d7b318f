package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Returns the prompt content and any error encountered.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptAnswerSystem is the grounding template for answer generation.
	// The template expects two %s placeholders: the question, then the context.
	PromptAnswerSystem = "answer_system"
)

// DefaultAnswerTemplate is the built-in grounding template stored under
// PromptAnswerSystem. Placeholders: question, then the numbered excerpts.
const DefaultAnswerTemplate = `You are a helpful tutor. Answer ONLY using the provided textbook excerpts. If the answer is not in the excerpts, say you don't have enough information.

QUESTION:
%s

TEXTBOOK EXCERPTS:
%s

INSTRUCTIONS:
- Cite the excerpt numbers you used like [1], [3].
- Keep it concise (2-6 sentences).`

// PromptStoreAware is an optional interface for services that can use custom prompts.
// Services implementing this interface can have their prompt templates customised
// by injecting a PromptStore after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
