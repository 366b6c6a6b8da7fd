// Package transcript persists finished interviews as JSON files in the
// results directory.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/intervuhq/intervu/internal/models"
)

// sanitize replaces characters that are unsafe in filenames.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func sanitizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = unsafeChars.ReplaceAllString(s, "")
	if s == "" {
		s = "unnamed"
	}
	return s
}

// Filename returns the transcript filename for a candidate.
func Filename(candidateName string, ts time.Time) string {
	return fmt.Sprintf("%s-%s.json", sanitizeName(candidateName), ts.Format("20060102-150405"))
}

// Write serializes an InterviewTranscript and writes it to dir.
func Write(dir string, t *models.InterviewTranscript) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}

	name := Filename(t.CandidateName, t.StartedAt)
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}

	return path, nil
}

// Build constructs an InterviewTranscript from the conversation and session
// metadata.
func Build(s *models.Session, messages []models.Message, startedAt, completedAt time.Time, summary *models.EndSummary, errMsg string) *models.InterviewTranscript {
	questions := 0
	for _, m := range messages {
		if m.Role == models.RoleInterviewer {
			questions++
		}
	}

	t := &models.InterviewTranscript{
		StartedAt:       startedAt,
		CompletedAt:     completedAt,
		DurationSeconds: int(completedAt.Sub(startedAt).Seconds()),
		QuestionsAsked:  questions,
		Messages:        messages,
		Summary:         summary,
		ErrorMsg:        errMsg,
	}
	if s != nil {
		t.SessionID = s.SessionID
		t.CandidateID = s.CandidateID
		t.CandidateName = s.CandidateName
		t.Role = s.Role
		t.CompanyName = s.CompanyName
	}
	return t
}

// File describes a saved transcript on disk.
type File struct {
	Path    string
	Name    string
	ModTime time.Time
}

// List returns saved transcripts in dir, newest first.
func List(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading transcript dir: %w", err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, File{
			Path:    filepath.Join(dir, e.Name()),
			Name:    e.Name(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// Read loads a saved transcript from disk.
func Read(path string) (*models.InterviewTranscript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	var t models.InterviewTranscript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing transcript %s: %w", filepath.Base(path), err)
	}
	return &t, nil
}
