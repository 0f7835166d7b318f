// Package normalisers provides page readers that extract text from source
// documents, plus the whitespace rules applied before chunking.
//
// Each reader knows how to extract per-page text from a specific MIME type.
// Readers are registered with a Registry at startup and selected by the
// indexer from the source file's extension.
package normalisers
