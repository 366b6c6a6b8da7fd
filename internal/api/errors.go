package api

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for the client error taxonomy. Callers distinguish these
// with errors.Is and map them to user-facing messages.
var (
	// ErrUnreachable means the backend gave no response at all.
	ErrUnreachable = errors.New("interview backend unreachable")
	// ErrUnauthorized means the session id, token, or candidate id was rejected.
	ErrUnauthorized = errors.New("session access denied")
	// ErrNotFound means the backend does not know the given id.
	ErrNotFound = errors.New("session not found")
)

// SessionTimingInfo is the structured payload of a premature access attempt.
type SessionTimingInfo struct {
	CandidateName      string    `json:"candidateName"`
	Role               string    `json:"role"`
	CompanyName        string    `json:"companyName"`
	ScheduledStartTime time.Time `json:"scheduledStartTime"`
	AccessibleFrom     time.Time `json:"accessibleFrom"`
	TimeUntilAccess    int       `json:"timeUntilAccess"` // minutes
}

// NotAccessibleError is returned when a session exists but cannot be entered
// yet. It is recoverable: the caller may retry once TimeUntilAccess has
// elapsed. The rendered message preserves the structured detail verbatim so
// the UI can show it without reformatting.
type NotAccessibleError struct {
	Message string
	Info    SessionTimingInfo
}

func (e *NotAccessibleError) Error() string {
	var b strings.Builder
	b.WriteString("Interview not yet accessible.\n\nSession Details:\n")
	fmt.Fprintf(&b, "- Candidate: %s\n", e.Info.CandidateName)
	fmt.Fprintf(&b, "- Role: %s\n", e.Info.Role)
	fmt.Fprintf(&b, "- Company: %s\n", e.Info.CompanyName)
	fmt.Fprintf(&b, "- Scheduled: %s\n", e.Info.ScheduledStartTime.Local().Format(time.RFC1123))
	fmt.Fprintf(&b, "- Access from: %s\n", e.Info.AccessibleFrom.Local().Format(time.RFC1123))
	fmt.Fprintf(&b, "- Time until access: %d minutes", e.Info.TimeUntilAccess)
	return b.String()
}

// APIError is an application-level failure: the backend answered, but with
// success=false or a non-2xx status that carried a message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("interview backend returned an error (%d)", e.Status)
	}
	return e.Message
}
