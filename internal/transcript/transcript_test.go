package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/intervuhq/intervu/internal/models"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"simple", "simple"},
		{"Ada Lovelace", "ada-lovelace"},
		{"name/with/slashes", "namewithslashes"},
		{"special@chars!", "specialchars"},
		{"", "unnamed"},
		{"  spaces  ", "spaces"},
		{"Mixed-Case_Name", "mixed-case_name"},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			got := sanitizeName(tt.input)
			if got != tt.want {
				t.Errorf("sanitizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	ts := time.Date(2026, 3, 1, 14, 30, 45, 0, time.UTC)
	got := Filename("Ada Lovelace", ts)
	want := "ada-lovelace-20260301-143045.json"
	if got != want {
		t.Errorf("Filename() = %q, want %q", got, want)
	}
}

func TestBuild(t *testing.T) {
	session := &models.Session{
		SessionID:     "sess-1",
		CandidateID:   "CAND001",
		CandidateName: "Ada",
		Role:          "Backend Engineer",
		CompanyName:   "Initech",
	}
	messages := []models.Message{
		{Role: models.RoleInterviewer, Content: "Tell me about yourself."},
		{Role: models.RoleCandidate, Content: "I write Go."},
		{Role: models.RoleInterviewer, Content: "What is a goroutine?"},
	}
	start := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	end := start.Add(42 * time.Minute)

	tr := Build(session, messages, start, end, nil, "")

	if tr.SessionID != "sess-1" {
		t.Errorf("SessionID = %q", tr.SessionID)
	}
	if tr.QuestionsAsked != 2 {
		t.Errorf("QuestionsAsked = %d, want 2", tr.QuestionsAsked)
	}
	if tr.DurationSeconds != 42*60 {
		t.Errorf("DurationSeconds = %d", tr.DurationSeconds)
	}
	if len(tr.Messages) != 3 {
		t.Errorf("Messages = %d, want 3", len(tr.Messages))
	}
}

func TestBuildNilSession(t *testing.T) {
	start := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	tr := Build(nil, nil, start, start, nil, "backend unreachable")
	if tr.ErrorMsg != "backend unreachable" {
		t.Errorf("ErrorMsg = %q", tr.ErrorMsg)
	}
	if tr.SessionID != "" {
		t.Errorf("SessionID = %q, want empty", tr.SessionID)
	}
}

func TestWriteAndRead(t *testing.T) {
	dir := t.TempDir()

	tr := &models.InterviewTranscript{
		SessionID:     "sess-1",
		CandidateName: "Ada Lovelace",
		Role:          "Backend Engineer",
		StartedAt:     time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC),
		CompletedAt:   time.Date(2026, 3, 1, 14, 42, 0, 0, time.UTC),
		Messages: []models.Message{
			{Role: models.RoleInterviewer, Content: "Hello Ada!"},
			{Role: models.RoleCandidate, Content: "Hi."},
		},
	}

	path, err := Write(dir, tr)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	if filepath.Base(path) != "ada-lovelace-20260301-140000.json" {
		t.Errorf("path = %q", path)
	}

	// The file must be valid, indented JSON.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.SessionID != "sess-1" {
		t.Errorf("SessionID = %q", got.SessionID)
	}
	if len(got.Messages) != 2 {
		t.Errorf("Messages = %d, want 2", len(got.Messages))
	}
}

func TestWriteCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "interviews")

	tr := &models.InterviewTranscript{
		CandidateName: "Ada",
		StartedAt:     time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC),
	}

	if _, err := Write(dir, tr); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()

	older := &models.InterviewTranscript{CandidateName: "Ada", StartedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	newer := &models.InterviewTranscript{CandidateName: "Grace", StartedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}

	oldPath, err := Write(dir, older)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	newPath, err := Write(dir, newer)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Make mod times distinct regardless of filesystem resolution.
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(oldPath, past, past); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	// A stray non-JSON file is ignored.
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644) //nolint:errcheck

	files, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	if files[0].Path != newPath {
		t.Errorf("files[0] = %q, want newest first (%q)", files[0].Path, newPath)
	}
}

func TestListMissingDir(t *testing.T) {
	files, err := List(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if files != nil {
		t.Errorf("files = %v, want nil", files)
	}
}

func TestReadMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	os.WriteFile(path, []byte("{not json"), 0o644) //nolint:errcheck

	if _, err := Read(path); err == nil {
		t.Error("expected error for malformed transcript")
	}
}
