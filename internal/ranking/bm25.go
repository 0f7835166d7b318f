package ranking

// BM25 constants.
const (
	DefaultK1  = 1.2
	DefaultB   = 0.75
	DefaultIDF = 1.0
)

// BM25 is a term-frequency relevance score normalised by document length.
type BM25 struct {
	// K1 controls term frequency saturation.
	K1 float64

	// B controls document length normalisation.
	B float64

	// IDF is the constant weight given to every matched query token.
	IDF float64
}

// Ensure BM25 implements the interface.
var _ Strategy = BM25{}

// NewBM25 returns a scorer with the standard constants.
func NewBM25() BM25 {
	return BM25{K1: DefaultK1, B: DefaultB, IDF: DefaultIDF}
}

// Name returns the strategy name.
func (s BM25) Name() string {
	return "bm25"
}

// Score computes the relevance of a document to a query. Each distinct query
// token present in the document contributes
//
//	idf * tf*(k1+1) / (tf + k1*(1 - b + b*docLen/avgDocLen))
//
// Absent tokens contribute zero, so a query with no overlap scores zero.
// A non-positive avgDocLen is treated as 1.
func (s BM25) Score(queryTokens, docTokens []string, avgDocLen float64) float64 {
	if len(queryTokens) == 0 || len(docTokens) == 0 {
		return 0
	}
	if avgDocLen <= 0 {
		avgDocLen = 1
	}

	tf := make(map[string]int, len(docTokens))
	for _, t := range docTokens {
		tf[t]++
	}

	docLen := float64(len(docTokens))
	norm := s.K1 * (1 - s.B + s.B*docLen/avgDocLen)

	var score float64
	for _, q := range unique(queryTokens) {
		f, ok := tf[q]
		if !ok {
			continue
		}
		freq := float64(f)
		score += s.IDF * (freq * (s.K1 + 1)) / (freq + norm)
	}
	return score
}

// Rank scores every document against the query. The query is tokenised
// once and the average length is taken over all documents.
func (s BM25) Rank(query string, docs []string) []float64 {
	queryTokens := Tokenize(query)

	docTokens := make([][]string, len(docs))
	var total int
	for i, d := range docs {
		docTokens[i] = Tokenize(d)
		total += len(docTokens[i])
	}
	avg := AverageLength(total, len(docs))

	scores := make([]float64, len(docs))
	for i, tokens := range docTokens {
		scores[i] = s.Score(queryTokens, tokens, avg)
	}
	return scores
}

// AverageLength returns total/count, or 1 when there is nothing to average.
func AverageLength(total, count int) float64 {
	if count == 0 || total == 0 {
		return 1
	}
	return float64(total) / float64(count)
}
