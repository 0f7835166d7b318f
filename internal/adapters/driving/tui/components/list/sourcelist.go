// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/tutor/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/tutor/internal/core/domain"
)

// SourceList displays the sections cited by an answer in a navigable list.
// Item i is rendered as "[i+1]" to match the citation markers in the answer.
type SourceList struct {
	sources  []domain.SourceRef
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates a new source list component.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the source list.
func (r *SourceList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the source list.
func (r *SourceList) View() string {
	if len(r.sources) == 0 {
		return r.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(r.sources)+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(r.sources))), "")

	// Each source takes one line; header and spacing take two.
	visibleCount := r.height - 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if r.selected >= visibleCount {
		start = r.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(r.sources) {
		end = len(r.sources)
	}

	for i := start; i < end; i++ {
		lines = append(lines, r.renderSource(i, &r.sources[i]))
	}

	return strings.Join(lines, "\n")
}

// renderSource formats one cited section as "[n] title (pp. a–b)  score".
func (r *SourceList) renderSource(index int, src *domain.SourceRef) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	chunk := domain.Chunk{Title: src.Title, PageStart: src.PageStart, PageEnd: src.PageEnd}
	label := fmt.Sprintf("%s (pp. %s)", chunk.DisplayTitle(), chunk.PageRange())

	maxLabelLen := r.width - 16
	if maxLabelLen < 10 {
		maxLabelLen = 10
	}
	if runes := []rune(label); len(runes) > maxLabelLen {
		label = string(runes[:maxLabelLen-3]) + "..."
	}

	marker := r.styles.Citation.Render(fmt.Sprintf("[%d]", index+1))
	score := r.styles.Muted.Render(fmt.Sprintf("%.2f", src.Score))

	if index == r.selected {
		return indicator + marker + " " + r.styles.Selected.Render(label) + "  " + score
	}
	return indicator + marker + " " + r.styles.Normal.Render(label) + "  " + score
}

// SetSources replaces the listed sources and resets the selection.
func (r *SourceList) SetSources(sources []domain.SourceRef) {
	r.sources = sources
	r.selected = 0
}

// Sources returns the current sources.
func (r *SourceList) Sources() []domain.SourceRef {
	return r.sources
}

// Selected returns the index of the selected source.
func (r *SourceList) Selected() int {
	return r.selected
}

// SelectedSource returns the currently selected source, or nil if none.
func (r *SourceList) SelectedSource() *domain.SourceRef {
	if len(r.sources) == 0 || r.selected < 0 || r.selected >= len(r.sources) {
		return nil
	}
	return &r.sources[r.selected]
}

// MoveUp moves selection up.
func (r *SourceList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *SourceList) MoveDown() {
	if r.selected < len(r.sources)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *SourceList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of sources.
func (r *SourceList) Count() int {
	return len(r.sources)
}
