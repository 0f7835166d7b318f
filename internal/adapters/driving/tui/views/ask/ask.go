// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/tutor/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/tutor/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/tutor/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/tutor/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/tutor/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/tutor/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driving"
)

// reservedLines covers the header, input box, spacing and status bar.
const reservedLines = 10

var citationRe = regexp.MustCompile(`\[\d+\]`)

// View is the ask loop: a question input, the answer in a scrollable
// viewport, and the cited sources.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	answerBox viewport.Model
	sources   *list.SourceList
	statusbar *status.Bar

	answerService driving.AnswerService
	collectionID  string
	ctx           context.Context

	result      *domain.AnswerResult
	err         error
	width       int
	height      int
	ready       bool
	focusInput  bool // true = typing a question, false = reading the answer
	showSources bool
}

// NewView creates a new ask view for one collection.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	answerService driving.AnswerService,
	collectionID string,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewQuestionInput(s),
		answerBox:     viewport.New(76, 12),
		sources:       list.NewSourceList(s),
		statusbar:     status.NewBar(s, km),
		answerService: answerService,
		collectionID:  collectionID,
		ctx:           context.Background(),
		width:         80,
		height:        24,
		focusInput:    true,
	}
}

// WithContext sets the context passed to the answer service.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerCompleted:
		v.handleAnswerCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			question := strings.TrimSpace(v.input.Value())
			if question == "" {
				return v, nil
			}
			v.err = nil
			v.statusbar.SetState(status.StateThinking)
			v.focusInput = false
			v.input.Blur()
			return v, v.ask(question)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch msg.String() {
	case "n":
		v.NewQuestion()
		return v, v.input.Focus()
	case "s":
		if v.result != nil {
			v.showSources = !v.showSources
		}
		return v, nil
	}

	if v.showSources {
		v.sources, _ = v.sources.Update(msg)
		return v, nil
	}

	var cmd tea.Cmd
	v.answerBox, cmd = v.answerBox.Update(msg)
	return v, cmd
}

// ask returns a command that runs the question through the answer service.
func (v *View) ask(question string) tea.Cmd {
	svc := v.answerService
	ctx := v.ctx
	collectionID := v.collectionID
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoAnswerService}
		}
		res, err := svc.Answer(ctx, collectionID, question, 0)
		return messages.AnswerCompleted{Result: res, Err: err}
	}
}

func (v *View) handleAnswerCompleted(msg messages.AnswerCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}
	if msg.Result == nil {
		return
	}

	v.err = nil
	v.result = msg.Result
	v.showSources = false
	v.sources.SetSources(msg.Result.Sources)
	v.statusbar.SetAnswer(msg.Result)
	v.statusbar.SetState(status.StateAnswered)
	v.refreshAnswer()
	v.answerBox.GotoTop()
}

// setError shows err and hands the keyboard back to the input so the
// question can be corrected.
func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(ErrorMessage(err))
	v.focusInput = true
	v.input.Focus()
}

// ErrorMessage renders err for the user. Validation messages are shown
// as is; anything else is reduced to a generic line and the request id.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if domain.IsValidation(err) {
		return err.Error()
	}
	if errors.Is(err, ErrNoAnswerService) {
		return err.Error()
	}
	if id := domain.RequestIDOf(err); id != "" {
		return fmt.Sprintf("could not answer (request %s)", id)
	}
	return "could not answer"
}

// refreshAnswer re-renders the answer text into the viewport at the
// current width.
func (v *View) refreshAnswer() {
	if v.result == nil {
		v.answerBox.SetContent("")
		return
	}
	wrapped := lipgloss.NewStyle().Width(v.answerBox.Width).Render(v.result.Answer)
	highlighted := citationRe.ReplaceAllStringFunc(wrapped, func(m string) string {
		return v.styles.Citation.Render(m)
	})
	v.answerBox.SetContent(highlighted)
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)

	title := "Tutor"
	if v.collectionID != "" {
		title += " · " + v.collectionID
	}
	sections = append(sections, v.styles.Title.Render(title), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render(ErrorMessage(v.err)), "")
	}

	if v.result != nil {
		if v.showSources {
			sections = append(sections, v.sources.View())
		} else {
			if v.result.Degraded {
				sections = append(sections, v.styles.Warning.Render("Answered from excerpts only"))
			}
			sections = append(sections, v.styles.AnswerBox.Render(v.answerBox.View()))
		}
	}

	sections = append(sections, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	body := height - reservedLines
	if body < 3 {
		body = 3
	}
	boxWidth := width - 4
	if boxWidth < 20 {
		boxWidth = 20
	}

	v.input.SetWidth(width)
	v.answerBox.Width = boxWidth
	v.answerBox.Height = body
	v.sources.SetDimensions(width, body)
	v.statusbar.SetWidth(width)
	v.refreshAnswer()
}

// NewQuestion clears the previous answer and focuses the input.
func (v *View) NewQuestion() {
	v.focusInput = true
	v.showSources = false
	v.input.Reset()
	v.input.Focus()
	v.result = nil
	v.err = nil
	v.sources.SetSources(nil)
	v.statusbar.Clear()
	v.refreshAnswer()
}

// Reset returns the view to its initial state.
func (v *View) Reset() {
	v.NewQuestion()
}

// Width returns the current width.
func (v *View) Width() int {
	return v.width
}

// Height returns the current height.
func (v *View) Height() int {
	return v.height
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Question returns the current question text.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the question text.
func (v *View) SetQuestion(q string) {
	v.input.SetValue(q)
}

// Result returns the last answer, or nil.
func (v *View) Result() *domain.AnswerResult {
	return v.result
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// ShowingSources returns whether the source list replaces the answer.
func (v *View) ShowingSources() bool {
	return v.showSources
}

// CollectionID returns the collection questions are asked against.
func (v *View) CollectionID() string {
	return v.collectionID
}
