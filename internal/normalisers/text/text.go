// Package text normalises extracted document text and reads plain text
// sources page by page.
package text

import (
	"regexp"
	"strings"
)

// paragraphBreak matches a newline followed by whitespace-only lines and
// another newline.
var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Normalize collapses every run of whitespace, newlines included, to a single
// space and trims the result. It never fails; empty input yields "".
func Normalize(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// SplitParagraphs splits raw text on blank-line boundaries, normalises each
// piece and drops the ones that end up empty. Order is preserved.
//
// Paragraph boundaries only exist in raw text, so this must run before
// Normalize is applied to the whole block.
func SplitParagraphs(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	parts := paragraphBreak.Split(raw, -1)

	paragraphs := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := Normalize(part); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}
