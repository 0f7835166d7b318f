// Package toc provides the table of contents view for the TUI.
package toc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/tutor/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/tutor/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driving"
)

// ErrNoTOCService indicates that no table of contents service was provided.
var ErrNoTOCService = errors.New("table of contents not available")

// View lists the sections of one collection with page ranges and sizes.
type View struct {
	styles       *styles.Styles
	tocService   driving.TOCService
	collectionID string
	ctx          context.Context

	toc          *domain.TableOfContents
	lines        []string
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
}

// NewView creates a new table of contents view.
func NewView(s *styles.Styles, tocService driving.TOCService, collectionID string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:       s,
		tocService:   tocService,
		collectionID: collectionID,
		ctx:          context.Background(),
		width:        80,
		height:       24,
	}
}

// WithContext sets the context used to load the table of contents.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts loading the table of contents.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.err = nil
	v.scrollOffset = 0
	return v.load()
}

func (v *View) load() tea.Cmd {
	svc := v.tocService
	ctx := v.ctx
	collectionID := v.collectionID
	return func() tea.Msg {
		if svc == nil {
			return messages.TOCLoaded{Err: ErrNoTOCService}
		}
		toc, err := svc.TOC(ctx, collectionID)
		return messages.TOCLoaded{TOC: toc, Err: err}
	}
}

// Update handles messages for the table of contents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.TOCLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.toc = msg.TOC
		v.renderLines()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset -= v.visibleLines()
		if v.scrollOffset < 0 {
			v.scrollOffset = 0
		}
	case "pgdown", "ctrl+d":
		v.scrollOffset += v.visibleLines()
		if maxOffset := v.maxScrollOffset(); v.scrollOffset > maxOffset {
			v.scrollOffset = maxOffset
		}
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "r":
		return v, v.Init()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

// renderLines formats one line per entry.
func (v *View) renderLines() {
	v.lines = nil
	if v.toc == nil {
		return
	}
	v.lines = make([]string, 0, len(v.toc.Entries))
	for i := range v.toc.Entries {
		e := &v.toc.Entries[i]
		chunk := domain.Chunk{Title: e.Title, PageStart: e.PageStart, PageEnd: e.PageEnd}
		v.lines = append(v.lines, fmt.Sprintf("%4d. %s  pp. %s  %dB",
			i+1, chunk.DisplayTitle(), chunk.PageRange(), e.ByteSize))
	}
}

// visibleLines returns the number of entry lines that fit on screen.
func (v *View) visibleLines() int {
	available := v.height - 7
	if available < 1 {
		available = 1
	}
	return available
}

func (v *View) maxScrollOffset() int {
	maxOffset := len(v.lines) - v.visibleLines()
	if maxOffset < 0 {
		maxOffset = 0
	}
	return maxOffset
}

// View renders the table of contents.
func (v *View) View() string {
	var b strings.Builder

	title := "Table of contents"
	if v.collectionID != "" {
		title += " · " + v.collectionID
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", minInt(v.width-4, 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(v.errorText()))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(No sections)"))
	default:
		v.writeEntries(&b)
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [r] reload  [esc] back"))
	return b.String()
}

func (v *View) writeEntries(b *strings.Builder) {
	if v.toc != nil && v.toc.SourceFile != "" {
		b.WriteString(v.styles.Subtitle.Render(v.toc.SourceFile))
		b.WriteString("\n")
	}

	visible := v.visibleLines()
	for i := v.scrollOffset; i < len(v.lines) && i < v.scrollOffset+visible; i++ {
		b.WriteString(v.styles.Normal.Render(v.lines[i]))
		b.WriteString("\n")
	}

	if len(v.lines) > visible {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %d-%d of %d sections",
			v.scrollOffset+1,
			minInt(v.scrollOffset+visible, len(v.lines)),
			len(v.lines))))
	}
}

func (v *View) errorText() string {
	if errors.Is(v.err, domain.ErrNotFound) || errors.Is(v.err, domain.ErrUnknownCollection) {
		return fmt.Sprintf("No table of contents for %q", v.collectionID)
	}
	return "Error: " + v.err.Error()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// TOC returns the loaded table of contents.
func (v *View) TOC() *domain.TableOfContents {
	return v.toc
}

// ScrollOffset returns the index of the first visible entry.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
