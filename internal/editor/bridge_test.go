package editor

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startBridge(t *testing.T, cfg BridgeConfig) *Bridge {
	t.Helper()
	if cfg.HandshakeInterval == 0 {
		cfg.HandshakeInterval = 20 * time.Millisecond
	}
	if cfg.HandshakeAttempts == 0 {
		cfg.HandshakeAttempts = 50
	}
	b := NewBridge(cfg)
	require.NoError(t, b.Start())
	t.Cleanup(func() { b.Close() }) //nolint:errcheck
	return b
}

func dial(t *testing.T, b *Bridge, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(b.URL(), header)
	if conn != nil {
		t.Cleanup(func() { conn.Close() }) //nolint:errcheck
	}
	return conn, resp, err
}

func TestBridgeHandshake(t *testing.T) {
	var acks int
	var mu sync.Mutex
	b := startBridge(t, BridgeConfig{
		Origins: []string{"https://editor.intervu.dev"},
		OnAck:   func() { mu.Lock(); acks++; mu.Unlock() },
	})

	done := make(chan error, 1)
	go func() {
		done <- b.SendStart(context.Background(), StartMessage{
			InterviewSessionID: "sess-1",
			TestSessionID:      "ts-1",
		})
	}()

	conn, _, err := dial(t, b, "https://editor.intervu.dev")
	require.NoError(t, err)

	var start StartMessage
	require.NoError(t, conn.ReadJSON(&start))
	assert.Equal(t, TypeStartCodingTest, start.Type)
	assert.Equal(t, "sess-1", start.InterviewSessionID)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": TypeEditorAck}))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("handshake did not complete")
	}

	assert.True(t, b.Acknowledged())
	mu.Lock()
	assert.Equal(t, 1, acks)
	mu.Unlock()
}

func TestBridgeEditorReadyCountsAsAck(t *testing.T) {
	b := startBridge(t, BridgeConfig{Origins: []string{"https://editor.intervu.dev"}})

	conn, _, err := dial(t, b, "https://editor.intervu.dev")
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(map[string]string{"type": TypeEditorReady}))

	assert.Eventually(t, b.Acknowledged, time.Second, 10*time.Millisecond)
}

func TestBridgeRejectsUntrustedOrigin(t *testing.T) {
	b := startBridge(t, BridgeConfig{Origins: []string{"https://editor.intervu.dev"}})

	_, resp, err := dial(t, b, "https://evil.example")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, b.Acknowledged())
}

func TestBridgeRejectsLoopbackLookalikes(t *testing.T) {
	b := startBridge(t, BridgeConfig{Origins: []string{"https://editor.intervu.dev"}})

	// Substring matching would wave these through.
	for _, origin := range []string{
		"https://evil-localhost.example",
		"https://localhost.evil.example",
		"https://127.0.0.1.evil.example",
	} {
		_, _, err := dial(t, b, origin)
		assert.Error(t, err, "origin %q must be rejected", origin)
	}
}

func TestBridgeAllowsLoopbackOrigins(t *testing.T) {
	b := startBridge(t, BridgeConfig{})

	for _, origin := range []string{
		"http://localhost:5173",
		"http://127.0.0.1:3000",
	} {
		conn, _, err := dial(t, b, origin)
		require.NoError(t, err, "origin %q must be accepted", origin)
		conn.Close() //nolint:errcheck
	}
}

func TestBridgeAllowsOriginlessClients(t *testing.T) {
	b := startBridge(t, BridgeConfig{Origins: []string{"https://editor.intervu.dev"}})

	_, _, err := dial(t, b, "")
	assert.NoError(t, err)
}

func TestBridgeForwardsSubmissionWithSessionBackfill(t *testing.T) {
	subs := make(chan Submission, 1)
	b := startBridge(t, BridgeConfig{
		Origins:      []string{"https://editor.intervu.dev"},
		OnSubmission: func(sub Submission) { subs <- sub },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go b.SendStart(ctx, StartMessage{InterviewSessionID: "sess-1", TestSessionID: "ts-1"}) //nolint:errcheck

	conn, _, err := dial(t, b, "https://editor.intervu.dev")
	require.NoError(t, err)

	var start StartMessage
	require.NoError(t, conn.ReadJSON(&start))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": TypeEditorAck}))

	// No sessionId in the payload; the bridge must backfill it.
	require.NoError(t, conn.WriteJSON(map[string]any{
		"action":   "submit",
		"code":     "func main() {}",
		"language": "go",
	}))

	select {
	case sub := <-subs:
		assert.Equal(t, "sess-1", sub.SessionID)
		assert.Equal(t, "func main() {}", sub.Code)
		assert.Equal(t, "go", sub.Language)
	case <-time.After(2 * time.Second):
		t.Fatal("submission not forwarded")
	}
}

func TestSendStartGivesUpWithoutEditor(t *testing.T) {
	b := startBridge(t, BridgeConfig{
		HandshakeAttempts: 3,
		HandshakeInterval: 10 * time.Millisecond,
	})

	err := b.SendStart(context.Background(), StartMessage{InterviewSessionID: "sess-1"})
	assert.ErrorIs(t, err, ErrNotAcknowledged)
}

func TestSubmissionCodeResultPayload(t *testing.T) {
	passed := true
	sub := Submission{
		SessionID: "sess-1",
		TaskID:    "t1",
		Code:      "print(1)",
		Language:  "python",
		Passed:    &passed,
		Results:   map[string]any{"testsPassed": 3},
	}

	payload := sub.CodeResult()
	assert.Equal(t, "sess-1", payload["sessionId"])
	assert.Equal(t, true, payload["passed"])
	assert.Equal(t, map[string]any{"testsPassed": 3}, payload["results"])

	minimal := Submission{SessionID: "sess-1", Code: "x"}.CodeResult()
	assert.NotContains(t, minimal, "passed")
	assert.NotContains(t, minimal, "taskId")
}
