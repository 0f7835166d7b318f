// Package menu provides the main navigation menu view for the TUI.
package menu

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/tutor/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/tutor/internal/adapters/driving/tui/styles"
)

// Item represents a single menu option.
type Item struct {
	Label string
	Hint  string
	View  messages.ViewType
	Quit  bool // If true, selecting this item quits the app
}

// View represents the main menu view.
type View struct {
	styles   *styles.Styles
	book     string
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates a new menu view. The subtitle names the active book.
func NewView(s *styles.Styles, collectionID string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles: s,
		book:   collectionID,
		items: []Item{
			{Label: "Ask a question", Hint: "answer grounded in the book, with cited sections", View: messages.ViewAsk},
			{Label: "Table of contents", Hint: "browse the indexed sections", View: messages.ViewTOC},
			{Label: "Help", Hint: "key bindings", View: messages.ViewHelp},
			{Label: "Quit", Quit: true},
		},
		selected: 0,
		width:    80,
		height:   24,
	}
}

// Init initialises the menu view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
			return v, nil

		case "down", "j":
			if v.selected < len(v.items)-1 {
				v.selected++
			}
			return v, nil

		case "enter":
			return v, v.choose(v.selected)

		case "?":
			return v, v.choose(v.indexOf(messages.ViewHelp))

		case "q":
			return v, tea.Quit
		}

		// Digits jump straight to an item.
		if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= len(v.items) {
			return v, v.choose(n - 1)
		}
	}

	return v, nil
}

func (v *View) choose(i int) tea.Cmd {
	if i < 0 {
		return nil
	}
	v.selected = i
	item := v.items[i]
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: item.View}
	}
}

func (v *View) indexOf(view messages.ViewType) int {
	for i, item := range v.items {
		if !item.Quit && item.View == view {
			return i
		}
	}
	return -1
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder

	title := v.styles.Title.Render("Tutor")
	b.WriteString(title)
	b.WriteString("\n\n")

	label := "Textbook questions, answered from the book"
	if v.book != "" {
		label += ": " + v.book
	}
	subtitle := v.styles.Muted.Render(label)
	b.WriteString(subtitle)
	b.WriteString("\n\n")

	for i, item := range v.items {
		cursor := "  "
		style := v.styles.Normal
		if i == v.selected {
			cursor = "> "
			style = v.styles.Subtitle
		}

		line := cursor + strconv.Itoa(i+1) + ". " + style.Render(item.Label)
		if item.Hint != "" && i == v.selected {
			line += "  " + v.styles.Muted.Render(item.Hint)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	footer := v.styles.Help.Render("[j/k] Navigate  [1-4] Jump  [Enter] Select  [q] Quit")
	b.WriteString(footer)

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}
