package status

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tutor/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/tutor/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/tutor/internal/core/domain"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 80, bar.Width())
}

func TestNewBar_NilDependencies(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
	assert.Nil(t, bar.Init())
}

func TestStatusBar_UpdateIsPassive(t *testing.T) {
	bar := NewBar(nil, nil)

	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestStatusBar_ViewReady(t *testing.T) {
	bar := NewBar(nil, nil)

	out := bar.View()

	assert.Contains(t, out, "Ready")
	assert.Contains(t, out, "enter: ask")
}

func TestStatusBar_ViewThinking(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateThinking)

	assert.Contains(t, bar.View(), "Thinking...")
}

func TestStatusBar_ViewError(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)

	assert.Contains(t, bar.View(), "Error")

	bar.SetMessage("question too short")
	assert.Contains(t, bar.View(), "Error: question too short")
}

func TestStatusBar_ViewAnswered(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(120)
	bar.SetState(StateAnswered)
	bar.SetAnswer(&domain.AnswerResult{
		Provider:  "anthropic",
		Sources:   []domain.SourceRef{{ChunkID: "a"}, {ChunkID: "b"}},
		LatencyMS: 42,
	})

	out := bar.View()

	assert.Contains(t, out, "anthropic · 2 sources · 42ms")
	assert.Contains(t, out, "n: new question")
}

func TestStatusBar_ViewDegraded(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(120)
	bar.SetState(StateAnswered)
	bar.SetAnswer(&domain.AnswerResult{Degraded: true, Sources: []domain.SourceRef{{ChunkID: "a"}}})

	assert.Contains(t, bar.View(), "excerpts only · 1 sources")
}

func TestStatusBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateAnswered)
	bar.SetMessage("msg")
	bar.SetAnswer(&domain.AnswerResult{})

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Nil(t, bar.answer)
}
