// Package api implements the HTTP client for the interview backend: session
// access, interview messaging, coding tasks, and results retrieval.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/intervuhq/intervu/internal/models"
)

const (
	defaultTimeout = 30 * time.Second

	// Transient transport failures on idempotent access calls are retried
	// a couple of times before giving up.
	accessRetries  = 2
	accessInterval = 500 * time.Millisecond
)

// Client talks to the interview backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (useful for tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AccessBySession resolves a session from an explicit id and access token.
func (c *Client) AccessBySession(ctx context.Context, sessionID, accessToken string) (*AccessResult, error) {
	body := map[string]string{"sessionId": sessionID, "accessToken": accessToken}

	var resp accessResponse
	status, err := c.postWithRetry(ctx, "/api/sessions/access", body, &resp)
	if err != nil {
		return nil, err
	}
	return c.accessResult(status, &resp, sessionID, "")
}

// AccessByCandidate resolves a session from a candidate identifier. When the
// session exists but is not open yet, the returned error is a
// *NotAccessibleError carrying the backend's timing payload verbatim.
func (c *Client) AccessByCandidate(ctx context.Context, candidateID string) (*AccessResult, error) {
	body := map[string]string{"candidateId": candidateID}

	var resp accessResponse
	status, err := c.postWithRetry(ctx, "/api/sessions/access-by-candidate", body, &resp)
	if err != nil {
		return nil, err
	}
	return c.accessResult(status, &resp, "", candidateID)
}

func (c *Client) accessResult(status int, resp *accessResponse, sessionID, candidateID string) (*AccessResult, error) {
	if resp.SessionInfo != nil && !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = resp.Error
		}
		return nil, &NotAccessibleError{Message: msg, Info: *resp.SessionInfo}
	}

	if !resp.Success {
		switch status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, firstNonEmpty(resp.Error, resp.Message))
		case http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", ErrNotFound, firstNonEmpty(resp.Error, resp.Message))
		default:
			return nil, &APIError{Status: status, Message: firstNonEmpty(resp.Error, resp.Message)}
		}
	}
	if resp.Session == nil {
		return nil, &APIError{Status: status, Message: "access response missing session"}
	}

	session := resp.Session
	if session.CandidateID == "" {
		session.CandidateID = candidateID
	}
	if session.SessionID == "" {
		session.SessionID = sessionID
	}
	if resp.InterviewData != nil {
		session.InterviewData = resp.InterviewData
	}

	return &AccessResult{Session: session, InterviewData: resp.InterviewData}, nil
}

// InitializeInterview primes the interview content for an accessed session.
func (c *Client) InitializeInterview(ctx context.Context, sessionID, accessToken string) (map[string]any, error) {
	body := map[string]string{"accessToken": accessToken}

	var resp initializeResponse
	status, err := c.postJSON(ctx, "/api/sessions/initialize-interview/"+url.PathEscape(sessionID), body, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &APIError{Status: status, Message: resp.Error}
	}
	return resp.InterviewData, nil
}

// SendMessage delivers a candidate (or system, or code-result) message and
// returns the interviewer's reply text.
func (c *Client) SendMessage(ctx context.Context, sessionID string, req SendMessageRequest) (string, error) {
	var resp messageResponse
	status, err := c.postJSON(ctx, "/api/sessions/message/"+url.PathEscape(sessionID), req, &resp)
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", &APIError{Status: status, Message: resp.Error}
	}
	return resp.reply(), nil
}

// CodingTasks fetches the synchronized per-session coding task list.
func (c *Client) CodingTasks(ctx context.Context, sessionID, accessToken string) ([]models.CodingTask, error) {
	path := fmt.Sprintf("/api/sessions/coding-tasks/%s?token=%s",
		url.PathEscape(sessionID), url.QueryEscape(accessToken))

	var resp codingTasksResponse
	status, err := c.getJSON(ctx, path, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &APIError{Status: status, Message: resp.Error}
	}
	return resp.CodingTasks, nil
}

// StartTestSession creates a generic code-test session for a candidate. It
// is the fallback when no synchronized task list exists.
func (c *Client) StartTestSession(ctx context.Context, candidateID string) (*TestSession, error) {
	body := map[string]string{"candidateId": candidateID}

	var resp TestSession
	if _, err := c.postJSON(ctx, "/api/test/start-session", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EndInterview terminates the session and returns the saved summary, if any.
func (c *Client) EndInterview(ctx context.Context, sessionID, accessToken string) (*EndResult, error) {
	body := map[string]string{"sessionId": sessionID, "accessToken": accessToken}

	var resp endResponse
	status, err := c.postJSON(ctx, "/api/interview/end", body, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &APIError{Status: status, Message: resp.Error}
	}
	return &EndResult{FileName: resp.FileName, Summary: resp.Summary}, nil
}

// Health probes backend reachability.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("building health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Message: "health check failed"}
	}
	return nil
}

// Results fetches the evaluation and conversation history for a session.
func (c *Client) Results(ctx context.Context, sessionID string) (*models.SessionResults, error) {
	var resp resultsResponse
	status, err := c.getJSON(ctx, "/api/sessions/"+url.PathEscape(sessionID)+"/results", &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.Session == nil {
		if status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
		}
		return nil, &APIError{Status: status, Message: resp.Error}
	}
	return resp.Session, nil
}

// postWithRetry retries postJSON on transport failures only. Access calls
// are idempotent on the backend, so a retry is always safe.
func (c *Client) postWithRetry(ctx context.Context, path string, body, out any) (int, error) {
	var status int
	backoff := retry.WithMaxRetries(accessRetries, retry.NewConstant(accessInterval))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		status, err = c.postJSON(ctx, path, body, out)
		if errors.Is(err, ErrUnreachable) {
			return retry.RetryableError(err)
		}
		return err
	})
	return status, err
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) (int, error) {
	c.logger.Debug("backend request", "method", req.Method, "path", req.URL.Path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// Non-JSON error bodies still map onto the status code.
		return resp.StatusCode, statusError(resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func statusError(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return &APIError{Status: status}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
