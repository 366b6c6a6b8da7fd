package editor

import "strings"

// codingPhrases are the interviewer phrasings that imply a coding task.
// Matching is case-insensitive substring; each interviewer message is
// scanned at most once.
var codingPhrases = []string{
	"coding test",
	"code challenge",
	"coding exercise",
	"please write code",
	"implement",
	"solve the problem",
	"write a function",
	"pair programming",
	"open the code editor",
	"coding task",
	"build a solution",
	"please implement",
	"write code to",
}

// DetectCodingPrompt reports whether an interviewer message asks the
// candidate to start coding.
func DetectCodingPrompt(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range codingPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
