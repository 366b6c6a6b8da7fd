package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/intervuhq/intervu/internal/models"
	"github.com/intervuhq/intervu/internal/speech"
)

func testModel(hooks Hooks) Model {
	return NewModel(&models.Session{
		SessionID:     "sess-1",
		AccessToken:   "tok",
		CandidateName: "Ada",
		Role:          "Backend Engineer",
		CompanyName:   "Initech",
	}, true, hooks)
}

func TestAppendedMessagesRender(t *testing.T) {
	m := testModel(Hooks{})

	next, _ := m.Update(MsgAppended{Message: models.Message{
		Role: models.RoleInterviewer, Content: "Tell me about yourself.", Timestamp: "15:00:01",
	}})
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "Tell me about yourself.")
	assert.Contains(t, view, "Interviewer")
	assert.Contains(t, view, "Backend Engineer")
}

func TestEnterSubmitsAndClearsInput(t *testing.T) {
	var submitted bool
	var lastInput string
	m := testModel(Hooks{
		OnSubmit: func() { submitted = true },
		OnInput:  func(text string) { lastInput = text },
	})

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	m = next.(Model)
	assert.Equal(t, "hi", lastInput)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	assert.True(t, submitted)
	assert.Equal(t, "", lastInput)
	assert.Equal(t, "", m.input.Value())
}

func TestEscAsksRunnerToQuit(t *testing.T) {
	var quit bool
	m := testModel(Hooks{OnQuit: func() { quit = true }})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, quit)
	// The program only exits on MsgEnded, once teardown has finished.
	assert.Nil(t, cmd)
}

func TestEndedMessageQuits(t *testing.T) {
	m := testModel(Hooks{})

	next, cmd := m.Update(MsgEnded{Reason: "time expired"})
	m = next.(Model)

	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "time expired")
}

func TestMicToggleHook(t *testing.T) {
	var toggled bool
	m := testModel(Hooks{OnToggleMic: func() { toggled = true }})

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.True(t, toggled)
}

func TestStatusBarStates(t *testing.T) {
	m := testModel(Hooks{})

	next, _ := m.Update(MsgTick{Elapsed: "12:34", RemainingMinutes: 18, HasDeadline: true})
	m = next.(Model)
	next, _ = m.Update(MsgSpeech{State: speech.StateListening})
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "12:34")
	assert.Contains(t, view, "18 min left")
	assert.Contains(t, view, "mic on")

	next, _ = m.Update(MsgTick{Elapsed: "60:00", RemainingMinutes: 0, HasDeadline: true})
	m = next.(Model)
	assert.Contains(t, m.View(), "time is up")
}

func TestTypingIndicator(t *testing.T) {
	m := testModel(Hooks{})

	next, _ := m.Update(MsgTyping{Active: true})
	m = next.(Model)
	assert.Contains(t, m.View(), "Interviewer is typing")

	next, _ = m.Update(MsgTyping{Active: false})
	m = next.(Model)
	assert.NotContains(t, m.View(), "Interviewer is typing")
}

func TestEditorNotice(t *testing.T) {
	m := testModel(Hooks{})

	next, _ := m.Update(MsgEditorOpened{
		LaunchURL: "https://editor.intervu.dev?sessionId=sess-1",
		BridgeURL: "ws://127.0.0.1:4567/bridge",
	})
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "ws://127.0.0.1:4567/bridge")
	assert.Contains(t, view, "editor.intervu.dev")
}
