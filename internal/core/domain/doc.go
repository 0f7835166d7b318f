// Package domain defines the core business entities for tutor.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: An immutable, addressable unit of indexed textbook text
//   - TableOfContents: The per-collection summary of all chunks
//   - Query: A validated question against one collection
//   - ScoredChunk: A request-scoped ranking result
//   - AnswerResult: The grounded answer returned to callers
//   - GenerationResult: The outcome of one provider call
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
