package domain

// Page is the text of one page of a source document.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Text is the raw extracted text, line breaks preserved.
	Text string
}

// IndexRequest describes one offline indexing run.
type IndexRequest struct {
	// Path is the local path of the source document.
	Path string

	// CollectionID names the collection to (re)build.
	CollectionID string

	// Subject is the subject folder recorded on each chunk. Defaults to CollectionID.
	Subject string

	// PagesPerBlock groups pages before chunking. Zero uses the chunker default.
	PagesPerBlock int

	// MaxChars bounds chunk size. Zero uses the chunker default.
	MaxChars int
}

// IndexReport summarises a completed indexing run.
type IndexReport struct {
	CollectionID string
	Pages        int
	Chunks       int
	Bytes        int
}
