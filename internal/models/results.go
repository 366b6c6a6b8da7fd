package models

// ScoreBreakdown holds the per-dimension scores of a completed interview.
type ScoreBreakdown struct {
	Technical      float64 `json:"technical"`
	Communication  float64 `json:"communication"`
	ProblemSolving float64 `json:"problemSolving"`
}

// InterviewResults is the evaluation attached to a completed session.
type InterviewResults struct {
	Score    float64        `json:"score"`
	Scores   ScoreBreakdown `json:"scores"`
	Feedback string         `json:"feedback,omitempty"`
}

// ResultsData is the interviewData block of a results response.
type ResultsData struct {
	Results             *InterviewResults `json:"results,omitempty"`
	ConversationHistory []Message         `json:"conversationHistory,omitempty"`
}

// SessionResults is the full results view for one session.
type SessionResults struct {
	Role          string       `json:"role"`
	CandidateName string       `json:"candidateName"`
	CreatedAt     string       `json:"created_at"`
	Status        string       `json:"status"`
	InterviewData *ResultsData `json:"interviewData,omitempty"`
}

// EndSummary is returned by the backend when an interview is ended.
type EndSummary struct {
	CandidateName  string `json:"candidateName"`
	Duration       string `json:"duration"`
	QuestionsAsked int    `json:"questionsAsked"`
}
