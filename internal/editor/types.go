package editor

import "github.com/intervuhq/intervu/internal/models"

// Message type identifiers exchanged with the editor.
const (
	TypeStartCodingTest = "startCodingTest"
	TypeEditorAck       = "editorAck"
	TypeEditorReady     = "editorReady"
	TypeCodeSubmission  = "codeSubmission"
	TypeCodeResult      = "code_result"

	actionSubmit = "submit"
)

// StartMessage tells the editor which session it serves and which tasks to
// present. Synchronized is true when Tasks came from the per-session task
// list rather than a generic fallback test session.
type StartMessage struct {
	Type               string              `json:"type"`
	InterviewSessionID string              `json:"interviewSessionId"`
	CandidateID        string              `json:"candidateId,omitempty"`
	TestSessionID      string              `json:"testSessionId"`
	Tasks              []models.CodingTask `json:"tasks"`
	Synchronized       bool                `json:"synchronized"`
}

// inboundMessage covers every shape the editor sends back: handshake
// acknowledgments and code submissions in their several historical forms.
type inboundMessage struct {
	Type      string         `json:"type"`
	Action    string         `json:"action"`
	SessionID string         `json:"sessionId"`
	TaskID    string         `json:"taskId"`
	Code      string         `json:"code"`
	Language  string         `json:"language"`
	Passed    *bool          `json:"passed"`
	Results   map[string]any `json:"results"`
}

func (m *inboundMessage) isAck() bool {
	return m.Type == TypeEditorAck || m.Type == TypeEditorReady
}

func (m *inboundMessage) isSubmission() bool {
	return m.Type == TypeCodeSubmission || m.Type == TypeCodeResult || m.Action == actionSubmit
}

// Submission is a completed coding answer from the editor.
type Submission struct {
	SessionID string
	TaskID    string
	Code      string
	Language  string
	Passed    *bool
	Results   map[string]any
}

// CodeResult flattens the submission into the payload attached to a
// code_result interview message.
func (s Submission) CodeResult() map[string]any {
	out := map[string]any{
		"sessionId": s.SessionID,
		"code":      s.Code,
	}
	if s.TaskID != "" {
		out["taskId"] = s.TaskID
	}
	if s.Language != "" {
		out["language"] = s.Language
	}
	if s.Passed != nil {
		out["passed"] = *s.Passed
	}
	if len(s.Results) > 0 {
		out["results"] = s.Results
	}
	return out
}
