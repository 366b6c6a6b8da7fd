package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Logger records interview events. The runner never blocks on logging; a
// failed write is reported and the interview continues.
type Logger interface {
	Log(event Event) error
	Close() error
}

// JSONLogger appends events to a per-run NDJSON file. One interview run,
// one file; rejoining a session starts a fresh file rather than
// interleaving with the old one.
type JSONLogger struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	path string
}

// NewJSONLogger opens (or creates) the event log at path, creating parent
// directories as needed.
func NewJSONLogger(path string) (*JSONLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating interview log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening interview log: %w", err)
	}

	return &JSONLogger{
		file: f,
		enc:  json.NewEncoder(f),
		path: path,
	}, nil
}

// Log appends one event as a JSON line. Events built by hand without a
// timestamp are stamped on the way out so the timeline stays ordered.
func (l *JSONLogger) Log(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := l.enc.Encode(event); err != nil {
		return fmt.Errorf("appending interview event: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (l *JSONLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Path returns the file path of the event log.
func (l *JSONLogger) Path() string {
	return l.path
}

// NopLogger discards all events. Useful as a default when logging is disabled.
type NopLogger struct{}

// Log is a no-op.
func (NopLogger) Log(Event) error { return nil }

// Close is a no-op.
func (NopLogger) Close() error { return nil }

// LogPath returns the event log path for one run of a session inside dir.
// The session identifier keys the file to its interview; the timestamp
// separates repeated runs of the same session.
func LogPath(dir, sessionID string) string {
	ts := time.Now().UTC().Format("20060102T150405Z")
	return filepath.Join(dir, fmt.Sprintf("%s-%s-interview.jsonl", ts, safeID(sessionID)))
}

// safeID strips anything that should not appear in a filename.
func safeID(id string) string {
	id = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_':
			return r
		}
		return -1
	}, id)
	if id == "" {
		return "session"
	}
	return id
}
