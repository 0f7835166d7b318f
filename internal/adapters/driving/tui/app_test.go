package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tutor/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/tutor/internal/core/domain"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(NewPorts(&MockAnswerService{}, &MockTOCService{}, "kant"))
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app
}

// run feeds msg to the app and then every message its command produces,
// skipping batches and cursor blinks.
func run(app *App, msg tea.Msg) {
	_, cmd := app.Update(msg)
	for i := 0; cmd != nil && i < 5; i++ {
		next := cmd()
		switch next.(type) {
		case nil, tea.BatchMsg:
			return
		}
		if _, ok := next.(messages.AnswerCompleted); !ok {
			if _, ok := next.(messages.TOCLoaded); !ok {
				if _, ok := next.(messages.ViewChanged); !ok {
					return
				}
			}
		}
		_, cmd = app.Update(next)
	}
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(&Ports{Answer: &MockAnswerService{}})

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{})

	assert.ErrorIs(t, err, ErrMissingAnswerService)
	assert.Nil(t, app)
}

func TestNewApp_DefaultCollection(t *testing.T) {
	app, err := NewApp(&Ports{Answer: &MockAnswerService{}})
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultCollectionID, app.askView.CollectionID())
}

func TestApp_Init(t *testing.T) {
	app := newTestApp(t)

	assert.NotNil(t, app.Init())
}

func TestApp_WindowSize(t *testing.T) {
	app, err := NewApp(&Ports{Answer: &MockAnswerService{}})
	require.NoError(t, err)

	_, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Equal(t, 120, app.askView.Width())
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_AskLoop(t *testing.T) {
	var asked []string
	answer := &MockAnswerService{AnswerFunc: func(
		_ context.Context, collectionID, question string, _ int,
	) (*domain.AnswerResult, error) {
		asked = append(asked, collectionID+"|"+question)
		return &domain.AnswerResult{Answer: "An answer [1].", Provider: "mock"}, nil
	}}
	app, err := NewApp(NewPorts(answer, nil, "kant"))
	require.NoError(t, err)
	app.SetDimensions(100, 30)

	// Menu -> Ask
	run(app, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, messages.ViewAsk, app.CurrentView())

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("What is duty?")})
	run(app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"kant|What is duty?"}, asked)
	require.NotNil(t, app.LastAnswer())
	assert.Contains(t, app.View(), "An answer [1].")

	// Esc returns to the menu.
	run(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_AnswerErrorIsRecorded(t *testing.T) {
	answer := &MockAnswerService{AnswerFunc: func(context.Context, string, string, int) (*domain.AnswerResult, error) {
		return nil, domain.NewValidationError("question", domain.ErrQuestionTooShort)
	}}
	app, err := NewApp(NewPorts(answer, nil, "kant"))
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	run(app, messages.ViewChanged{View: messages.ViewAsk})

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	run(app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, domain.IsValidation(app.Err()))
}

func TestApp_TOCView(t *testing.T) {
	app := newTestApp(t)

	run(app, messages.ViewChanged{View: messages.ViewTOC})

	assert.Equal(t, messages.ViewTOC, app.CurrentView())
	assert.Contains(t, app.View(), "1. block 0")
}

func TestApp_HelpView(t *testing.T) {
	app := newTestApp(t)

	run(app, messages.ViewChanged{View: messages.ViewHelp})
	assert.Contains(t, app.View(), "Toggle answer / sources")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_QuitMessage(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_ErrorOccurredForwardsToView(t *testing.T) {
	app := newTestApp(t)
	run(app, messages.ViewChanged{View: messages.ViewAsk})

	app.Update(messages.ErrorOccurred{Err: domain.ErrProviderUnavailable})

	assert.ErrorIs(t, app.Err(), domain.ErrProviderUnavailable)
	assert.ErrorIs(t, app.askView.Err(), domain.ErrProviderUnavailable)
}

func TestApp_WithContext(t *testing.T) {
	type ctxKey string
	app := newTestApp(t)
	ctx := context.WithValue(context.Background(), ctxKey("k"), "v")

	result := app.WithContext(ctx)

	assert.Equal(t, app, result)
	assert.Equal(t, ctx, app.ctx)
}
