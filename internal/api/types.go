package api

import (
	"github.com/intervuhq/intervu/internal/models"
)

// AccessResult is the outcome of a successful session access call.
type AccessResult struct {
	Session       *models.Session
	InterviewData map[string]any
}

// SendMessageRequest is the body of a session message call.
type SendMessageRequest struct {
	AccessToken string             `json:"accessToken"`
	Message     string             `json:"message"`
	MessageType models.MessageType `json:"messageType"`
	CodeResult  map[string]any     `json:"codeResult,omitempty"`
}

// TestSession is a dedicated code-test session created as a fallback when no
// synchronized task list is available.
type TestSession struct {
	SessionID string              `json:"sessionId"`
	Tasks     []models.CodingTask `json:"tasks,omitempty"`
	Question  *models.CodingTask  `json:"question,omitempty"`
	Questions []models.CodingTask `json:"questions,omitempty"`
}

// AllTasks normalizes the three shapes the test-session endpoint may return.
func (ts *TestSession) AllTasks() []models.CodingTask {
	switch {
	case len(ts.Tasks) > 0:
		return ts.Tasks
	case ts.Question != nil:
		return []models.CodingTask{*ts.Question}
	case len(ts.Questions) > 0:
		return ts.Questions
	}
	return nil
}

// EndResult is the outcome of ending an interview.
type EndResult struct {
	FileName string             `json:"fileName,omitempty"`
	Summary  *models.EndSummary `json:"summary,omitempty"`
}

// Wire envelopes. Every backend response carries a success flag; application
// failures ride on HTTP 200 as well as on error statuses.

type accessResponse struct {
	Success       bool               `json:"success"`
	Error         string             `json:"error,omitempty"`
	Message       string             `json:"message,omitempty"`
	Session       *models.Session    `json:"session,omitempty"`
	InterviewData map[string]any     `json:"interviewData,omitempty"`
	SessionInfo   *SessionTimingInfo `json:"sessionInfo,omitempty"`
}

type initializeResponse struct {
	Success       bool           `json:"success"`
	Error         string         `json:"error,omitempty"`
	InterviewData map[string]any `json:"interviewData,omitempty"`
}

type messageResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Message  string `json:"message,omitempty"`
	Response string `json:"response,omitempty"`
}

func (r *messageResponse) reply() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Response
}

type codingTasksResponse struct {
	Success     bool                `json:"success"`
	Error       string              `json:"error,omitempty"`
	CodingTasks []models.CodingTask `json:"codingTasks,omitempty"`
}

type endResponse struct {
	Success  bool               `json:"success"`
	Error    string             `json:"error,omitempty"`
	FileName string             `json:"fileName,omitempty"`
	Summary  *models.EndSummary `json:"summary,omitempty"`
}

type resultsResponse struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error,omitempty"`
	Session *models.SessionResults `json:"session,omitempty"`
}
