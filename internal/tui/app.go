// Package tui renders the live interview as a terminal chat: the transcript
// on top, the input line below, and a status bar with the clocks and the
// microphone state.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/intervuhq/intervu/internal/models"
	"github.com/intervuhq/intervu/internal/speech"
)

// Messages pushed into the program from the interview runner's goroutines.
type (
	// MsgAppended carries a new transcript entry.
	MsgAppended struct{ Message models.Message }
	// MsgTyping toggles the interviewer-is-typing indicator.
	MsgTyping struct{ Active bool }
	// MsgSpeech reports a speech state transition.
	MsgSpeech struct{ State speech.State }
	// MsgTick carries clock updates.
	MsgTick struct {
		Elapsed          string
		RemainingMinutes int
		HasDeadline      bool
	}
	// MsgEditorOpened announces the coding phase.
	MsgEditorOpened struct{ LaunchURL, BridgeURL string }
	// MsgEnded terminates the program.
	MsgEnded struct{ Reason string }
)

// Hooks are the UI's outbound edges into the interview runner.
type Hooks struct {
	// OnInput fires on every keystroke with the current buffer.
	OnInput func(text string)
	// OnSubmit fires when the candidate presses enter.
	OnSubmit func()
	// OnToggleMic flips the microphone.
	OnToggleMic func()
	// OnQuit asks the runner to end the interview.
	OnQuit func()
}

// Model is the bubbletea model for a live interview.
type Model struct {
	session *models.Session
	hooks   Hooks

	input     textinput.Model
	messages  []models.Message
	typing    bool
	speech    speech.State
	elapsed   string
	remaining int
	deadline  bool
	editorURL string
	bridgeURL string
	ended     bool
	reason    string

	width  int
	height int
}

// NewModel builds the interview chat model.
func NewModel(session *models.Session, voiceEnabled bool, hooks Hooks) Model {
	ti := textinput.New()
	ti.Placeholder = "Type your answer..."
	ti.CharLimit = 4000
	ti.Focus()

	state := speech.StateIdle
	if !voiceEnabled {
		state = ""
	}

	return Model{
		session: session,
		hooks:   hooks,
		input:   ti,
		speech:  state,
		elapsed: "00:00",
		width:   100,
		height:  30,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case MsgAppended:
		m.messages = append(m.messages, msg.Message)
		return m, nil

	case MsgTyping:
		m.typing = msg.Active
		return m, nil

	case MsgSpeech:
		m.speech = msg.State
		return m, nil

	case MsgTick:
		m.elapsed = msg.Elapsed
		m.remaining = msg.RemainingMinutes
		m.deadline = msg.HasDeadline
		return m, nil

	case MsgEditorOpened:
		m.editorURL = msg.LaunchURL
		m.bridgeURL = msg.BridgeURL
		return m, nil

	case MsgEnded:
		m.ended = true
		m.reason = msg.Reason
		return m, tea.Quit

	case tea.KeyMsg:
		return m.updateKey(msg)
	}

	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		if m.hooks.OnQuit != nil {
			m.hooks.OnQuit()
		}
		return m, nil // MsgEnded quits once the runner has wound down

	case "ctrl+r":
		if m.hooks.OnToggleMic != nil {
			m.hooks.OnToggleMic()
		}
		return m, nil

	case "enter":
		if m.hooks.OnSubmit != nil {
			m.hooks.OnSubmit()
		}
		m.input.Reset()
		if m.hooks.OnInput != nil {
			m.hooks.OnInput("")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.hooks.OnInput != nil {
		m.hooks.OnInput(m.input.Value())
	}
	return m, cmd
}

func (m Model) View() string {
	if m.ended {
		return fmt.Sprintf("Interview ended: %s\n", m.reason)
	}

	var b strings.Builder

	title := fmt.Sprintf("Interview: %s", m.session.Role)
	if m.session.CompanyName != "" {
		title += " @ " + m.session.CompanyName
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(m.renderTranscript())

	if m.typing {
		b.WriteString(typingStyle.Render("Interviewer is typing..."))
		b.WriteString("\n")
	}
	if m.bridgeURL != "" {
		b.WriteString(noticeStyle.Render("Coding phase: connect your editor to " + m.bridgeURL))
		b.WriteString("\n")
		if m.editorURL != "" {
			b.WriteString(noticeStyle.Render("Or open " + m.editorURL))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.statusBar())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter send · ctrl+r mic · esc end interview"))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderTranscript() string {
	if len(m.messages) == 0 {
		return typingStyle.Render("Waiting for the interviewer...") + "\n"
	}

	// Show as many recent messages as fit.
	visible := m.messages
	if maxRows := m.height - 10; maxRows > 0 && len(visible) > maxRows {
		visible = visible[len(visible)-maxRows:]
	}

	var b strings.Builder
	for _, msg := range visible {
		role := candidateRoleStyle.Render(" You ")
		if msg.Role == models.RoleInterviewer {
			role = interviewerRoleStyle.Render(" Interviewer ")
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", timestampStyle.Render(msg.Timestamp), role, msg.Content))
	}
	return b.String()
}

func (m Model) statusBar() string {
	parts := []string{"elapsed " + m.elapsed}

	if m.deadline {
		left := fmt.Sprintf("%d min left", m.remaining)
		if m.remaining == 0 {
			left = warnStyle.Render("time is up")
		}
		parts = append(parts, left)
	}

	switch m.speech {
	case speech.StateListening:
		parts = append(parts, micOnStyle.Render("● mic on"))
	case speech.StateSpeaking:
		parts = append(parts, noticeStyle.Render("speaking"))
	case speech.StateIdle, speech.StateSuppressed:
		parts = append(parts, micOffStyle.Render("○ mic off"))
	}

	bar := strings.Join(parts, "  │  ")
	return statusBarStyle.Width(max(0, m.width-2)).Render(bar)
}

