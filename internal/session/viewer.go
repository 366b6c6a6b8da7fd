package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LogFile represents an interview event log on disk.
type LogFile struct {
	Path      string
	Name      string
	Size      int64
	ModTime   time.Time
	NumEvents int
}

// ListLogs finds interview event logs in dir, newest first.
func ListLogs(dir string) ([]LogFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading interview log directory: %w", err)
	}

	var files []LogFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(e.Name(), "-interview.jsonl") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(dir, e.Name())
		n, _ := countLines(path) //nolint:errcheck
		files = append(files, LogFile{
			Path:      path,
			Name:      e.Name(),
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			NumEvents: n,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close() //nolint:errcheck
	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}

// ReadEvents parses all events from an interview log file.
func ReadEvents(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening interview log: %w", err)
	}
	defer f.Close() //nolint:errcheck

	var events []Event
	scanner := bufio.NewScanner(f)
	// Increase buffer for large lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue // skip malformed lines
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading interview log: %w", err)
	}
	return events, nil
}

// RenderTimeline writes a human-readable interview timeline to w.
//
//nolint:errcheck // display-only writes; errors are not actionable
func RenderTimeline(w io.Writer, events []Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}

	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintln(w, " INTERVIEW TIMELINE")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintln(w)

	start := events[0].Timestamp
	for _, ev := range events {
		elapsed := ev.Timestamp.Sub(start)
		ts := formatDuration(elapsed)

		switch ev.Type {
		case EventSessionStart:
			name, _ := ev.Data["candidate_name"].(string) //nolint:errcheck
			role, _ := ev.Data["role"].(string)           //nolint:errcheck
			id, _ := ev.Data["session_id"].(string)       //nolint:errcheck
			fmt.Fprintf(w, "[%s] 🚀 Interview started  candidate=%s  role=%s  session=%s\n", ts, name, role, id)

		case EventMessageSent:
			role, _ := ev.Data["role"].(string)          //nolint:errcheck
			mtype, _ := ev.Data["message_type"].(string) //nolint:errcheck
			chars := jsonNumber(ev.Data["chars"])
			fmt.Fprintf(w, "[%s] ▶  Sent %s message (%s, %d chars)\n", ts, role, mtype, chars)

		case EventReplyReceived:
			chars := jsonNumber(ev.Data["chars"])
			fmt.Fprintf(w, "[%s] ◀  Interviewer reply (%d chars)\n", ts, chars)

		case EventReplyDiscarded:
			seq := jsonNumber(ev.Data["seq"])
			last := jsonNumber(ev.Data["last_applied"])
			fmt.Fprintf(w, "[%s] ✗  Stale reply discarded  seq=%d last=%d\n", ts, seq, last)

		case EventSpeechState:
			from, _ := ev.Data["from"].(string) //nolint:errcheck
			to, _ := ev.Data["to"].(string)     //nolint:errcheck
			fmt.Fprintf(w, "[%s]    Speech %s → %s\n", ts, from, to)

		case EventEditorOpened:
			count := jsonNumber(ev.Data["task_count"])
			sync, _ := ev.Data["synchronized"].(bool) //nolint:errcheck
			fmt.Fprintf(w, "[%s] ⌨  Editor opened  tasks=%d synchronized=%v\n", ts, count, sync)

		case EventEditorAck:
			fmt.Fprintf(w, "[%s] ✓  Editor acknowledged\n", ts)

		case EventCodeSubmitted:
			lang, _ := ev.Data["language"].(string) //nolint:errcheck
			chars := jsonNumber(ev.Data["chars"])
			fmt.Fprintf(w, "[%s] ⌨  Code submitted  language=%s (%d chars)\n", ts, lang, chars)

		case EventSessionExpired:
			fmt.Fprintf(w, "[%s] ⏰ Session time expired\n", ts)

		case EventError:
			msg, _ := ev.Data["message"].(string) //nolint:errcheck
			fmt.Fprintf(w, "[%s] ❌ Error: %s\n", ts, msg)

		case EventSessionEnd:
			asked := jsonNumber(ev.Data["questions_asked"])
			dur := jsonNumber(ev.Data["duration_ms"])
			fmt.Fprintf(w, "[%s] 🏁 Interview ended  questions=%d  (%dms)\n", ts, asked, dur)

		default:
			fmt.Fprintf(w, "[%s] %s %v\n", ts, ev.Type, ev.Data)
		}
	}
	fmt.Fprintln(w)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%6dms", d.Milliseconds())
	}
	return fmt.Sprintf("%6.1fs", d.Seconds())
}

// jsonNumber extracts a number from a JSON-decoded interface{} (float64 or json.Number).
func jsonNumber(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, _ := n.Int64() //nolint:errcheck
		return int(i)
	}
	return 0
}
