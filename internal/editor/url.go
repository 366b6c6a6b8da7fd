package editor

import (
	"errors"
	"net/url"

	"github.com/intervuhq/intervu/internal/models"
)

// BuildURL derives the editor launch URL for a session. The session
// identifier, candidate identity, and access token ride along as query
// parameters; tasksURL, when non-empty, points the editor at a pre-generated
// task set.
func BuildURL(base string, session *models.Session, tasksURL string) (string, error) {
	if session == nil || !session.HasCredentials() {
		return "", errors.New("session has no credentials")
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("sessionId", session.SessionID)
	q.Set("accessToken", session.AccessToken)
	if session.CandidateID != "" {
		q.Set("candidateId", session.CandidateID)
	}
	if session.CandidateName != "" {
		q.Set("candidateName", session.CandidateName)
	}
	if tasksURL != "" {
		q.Set("codeQuestionsUrl", tasksURL)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
