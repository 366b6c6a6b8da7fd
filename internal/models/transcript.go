package models

import "time"

// InterviewTranscript is the saved record of a finished interview.
type InterviewTranscript struct {
	SessionID       string      `json:"session_id"`
	CandidateID     string      `json:"candidate_id,omitempty"`
	CandidateName   string      `json:"candidate_name,omitempty"`
	Role            string      `json:"role,omitempty"`
	CompanyName     string      `json:"company_name,omitempty"`
	StartedAt       time.Time   `json:"started_at"`
	CompletedAt     time.Time   `json:"completed_at"`
	DurationSeconds int         `json:"duration_seconds"`
	QuestionsAsked  int         `json:"questions_asked"`
	Messages        []Message   `json:"messages"`
	Summary         *EndSummary `json:"summary,omitempty"`
	ErrorMsg        string      `json:"error,omitempty"`
}
