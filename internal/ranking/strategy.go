package ranking

import "fmt"

// Strategy ranks documents against a query.
type Strategy interface {
	// Name identifies the strategy in logs and configuration.
	Name() string

	// Rank returns one score per document, in the order given.
	// Higher is more relevant; zero means no match.
	Rank(query string, docs []string) []float64
}

// ByName returns the strategy registered under name. An empty name selects BM25.
func ByName(name string) (Strategy, error) {
	switch name {
	case "", "bm25":
		return NewBM25(), nil
	default:
		return nil, fmt.Errorf("unknown ranking strategy: %s", name)
	}
}
