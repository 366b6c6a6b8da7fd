package models

import (
	"encoding/json"
	"time"
)

// MessageRole identifies who produced a transcript message.
type MessageRole string

const (
	RoleInterviewer MessageRole = "interviewer"
	RoleCandidate   MessageRole = "candidate"
)

// MessageType tags an outbound message so the backend can special-case it.
type MessageType string

const (
	TypeAnswer     MessageType = "answer"
	TypeSystem     MessageType = "system"
	TypeCodeResult MessageType = "code_result"
)

// Message is a single transcript entry. Messages are append-only and never
// mutated after creation.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp string      `json:"timestamp"`
}

// NewMessage creates a message stamped with the current local time.
func NewMessage(role MessageRole, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().Format("15:04:05"),
	}
}

// CodingTask describes one task handed to the embedded code editor. The
// backend is loose about the shape: synchronized task lists are objects,
// while the fallback test-session endpoint may return bare strings.
type CodingTask struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
}

// UnmarshalJSON accepts either a task object or a plain question string.
func (t *CodingTask) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Description = s
		return nil
	}

	type alias CodingTask
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*t = CodingTask(a)
	return nil
}
