// Package ranking scores chunk text against a query.
//
// The default Strategy is a BM25-style term-frequency score with a constant
// idf: only term presence and frequency inside the candidate document are
// modelled, not rarity across the collection. Excerpt extracts the window
// of text shown to the user and to the generation provider.
package ranking
