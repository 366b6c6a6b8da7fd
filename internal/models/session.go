package models

import (
	"fmt"
	"time"
)

// SessionStatus represents the lifecycle status of an interview session.
type SessionStatus string

const (
	StatusScheduled SessionStatus = "scheduled"
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusExpired   SessionStatus = "expired"
	StatusCancelled SessionStatus = "cancelled"
)

// Session holds the credentials and metadata for one candidate's interview.
// It is what the backend returns on access and what the store persists
// between runs.
type Session struct {
	SessionID          string         `json:"sessionId"`
	AccessToken        string         `json:"accessToken"`
	CandidateID        string         `json:"candidateId,omitempty"`
	CandidateName      string         `json:"candidateName,omitempty"`
	Role               string         `json:"role,omitempty"`
	CompanyName        string         `json:"companyName,omitempty"`
	Status             SessionStatus  `json:"status,omitempty"`
	IsScheduled        bool           `json:"isScheduled,omitempty"`
	ScheduledStartTime *time.Time     `json:"scheduledStartTime,omitempty"`
	DurationMinutes    int            `json:"durationMinutes,omitempty"`
	EndTime            *time.Time     `json:"endTime,omitempty"`
	InitialMessage     string         `json:"initialMessage,omitempty"`
	CodeQuestionsURL   string         `json:"codeQuestionsUrl,omitempty"`
	InterviewData      map[string]any `json:"interviewData,omitempty"`
}

// HasCredentials reports whether the session carries enough information to
// talk to the backend. A persisted session without credentials is useless
// and should be discarded.
func (s *Session) HasCredentials() bool {
	return s != nil && s.SessionID != "" && s.AccessToken != ""
}

// EndsAt returns the wall-clock deadline for the session. The zero time
// means the session is open-ended.
func (s *Session) EndsAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	if s.EndTime != nil {
		return *s.EndTime
	}
	if s.ScheduledStartTime != nil && s.DurationMinutes > 0 {
		return s.ScheduledStartTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
	}
	return time.Time{}
}

// WelcomeMessage returns the opening interviewer line. The backend may
// provide one via InitialMessage; otherwise a default greeting is built
// from the session metadata.
func (s *Session) WelcomeMessage() string {
	if s.InitialMessage != "" {
		return s.InitialMessage
	}

	name := s.CandidateName
	if name == "" {
		name = "there"
	}
	role := s.Role
	if role == "" {
		role = "position"
	}

	greeting := fmt.Sprintf("Hello %s! Welcome to your technical interview for the %s role", name, role)
	if s.CompanyName != "" {
		greeting += " at " + s.CompanyName
	}
	return greeting + ". I'll be asking you some questions today to understand your technical skills and experience better. " +
		"Let's start with: Can you tell me about yourself and your technical background?"
}
