// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ChunkReader: Lists and reads indexed chunks of a collection
//   - ChunkWriter: Persists chunks and the table of contents during indexing
//   - Generator: Produces a grounded answer from an assembled prompt
//   - PageReader: Extracts page text from a source document
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Generator (secondary): Fallback provider. Without it, throttling yields an excerpt answer.
//   - PromptStore: Custom prompt templates. Without it, built-in defaults are used.
//   - Pinger: Connectivity probe used by health checks and settings validation.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
