// Package session records the timeline of an interview run as an
// append-only NDJSON event log, one file per run.
package session

import "time"

// EventType identifies the kind of session event.
type EventType string

const (
	EventSessionStart   EventType = "session_start"
	EventSessionEnd     EventType = "session_end"
	EventMessageSent    EventType = "message_sent"
	EventReplyReceived  EventType = "reply_received"
	EventReplyDiscarded EventType = "reply_discarded"
	EventSpeechState    EventType = "speech_state"
	EventEditorOpened   EventType = "editor_opened"
	EventEditorAck      EventType = "editor_ack"
	EventCodeSubmitted  EventType = "code_submitted"
	EventSessionExpired EventType = "session_expired"
	EventError          EventType = "error"
)

// Event is a single timestamped entry in a session log.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, data map[string]any) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		Type:      t,
		Data:      data,
	}
}

// SessionStartData returns event data for a session start.
func SessionStartData(sessionID, candidateName, role, company string) map[string]any {
	return map[string]any{
		"session_id":     sessionID,
		"candidate_name": candidateName,
		"role":           role,
		"company":        company,
	}
}

// SessionEndData returns event data for a session end.
func SessionEndData(sessionID, fileName string, questionsAsked int, durationMs int64) map[string]any {
	return map[string]any{
		"session_id":      sessionID,
		"file_name":       fileName,
		"questions_asked": questionsAsked,
		"duration_ms":     durationMs,
	}
}

// MessageData returns event data for a sent or received message.
func MessageData(role, messageType string, chars int) map[string]any {
	return map[string]any{
		"role":         role,
		"message_type": messageType,
		"chars":        chars,
	}
}

// ReplyDiscardedData returns event data for an out-of-order reply drop.
func ReplyDiscardedData(seq, lastApplied int) map[string]any {
	return map[string]any{
		"seq":          seq,
		"last_applied": lastApplied,
	}
}

// SpeechStateData returns event data for a speech state transition.
func SpeechStateData(from, to string) map[string]any {
	return map[string]any{
		"from": from,
		"to":   to,
	}
}

// EditorData returns event data for editor lifecycle events.
func EditorData(testSessionID string, taskCount int, synchronized bool) map[string]any {
	return map[string]any{
		"test_session_id": testSessionID,
		"task_count":      taskCount,
		"synchronized":    synchronized,
	}
}

// CodeSubmittedData returns event data for a code submission.
func CodeSubmittedData(taskID, language string, chars int) map[string]any {
	return map[string]any{
		"task_id":  taskID,
		"language": language,
		"chars":    chars,
	}
}

// ErrorData returns event data for an error.
func ErrorData(message string, details map[string]any) map[string]any {
	d := map[string]any{
		"message": message,
	}
	for k, v := range details {
		d[k] = v
	}
	return d
}
