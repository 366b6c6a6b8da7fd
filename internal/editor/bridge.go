// Package editor connects the interview to an external code editor. The
// editor attaches over a loopback WebSocket; the bridge pushes the start
// message until it is acknowledged and forwards submissions back into the
// interview.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"
)

const (
	// BridgePath is the WebSocket endpoint the editor connects to.
	BridgePath = "/bridge"

	defaultHandshakeAttempts = 6
	defaultHandshakeInterval = 400 * time.Millisecond
)

// ErrNotAcknowledged is returned when the editor never confirms the start
// message within the handshake attempt budget.
var ErrNotAcknowledged = errors.New("editor did not acknowledge start message")

// BridgeConfig configures the local editor bridge.
type BridgeConfig struct {
	// Addr is the loopback listen address, e.g. "127.0.0.1:0".
	Addr string
	// Origins is the exact-match allow-list of trusted editor origins.
	// Loopback origins are always trusted regardless of this list.
	Origins []string

	// HandshakeAttempts and HandshakeInterval bound the start-message
	// retry loop.
	HandshakeAttempts int
	HandshakeInterval time.Duration

	// OnSubmission receives each accepted coding answer.
	OnSubmission func(sub Submission)
	// OnAck fires once when the editor confirms the start message.
	OnAck func()

	Logger *slog.Logger
}

// Bridge hosts the WebSocket endpoint and runs the handshake.
type Bridge struct {
	cfg    BridgeConfig
	logger *slog.Logger
	server *http.Server
	ln     net.Listener

	mu    sync.Mutex
	conn  *websocket.Conn
	start *StartMessage
	acked bool
}

// NewBridge creates a Bridge. Call Start to begin listening.
func NewBridge(cfg BridgeConfig) *Bridge {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	if cfg.HandshakeAttempts <= 0 {
		cfg.HandshakeAttempts = defaultHandshakeAttempts
	}
	if cfg.HandshakeInterval <= 0 {
		cfg.HandshakeInterval = defaultHandshakeInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{cfg: cfg, logger: logger}
}

// Start binds the loopback listener and serves the bridge endpoint.
func (b *Bridge) Start() error {
	ln, err := net.Listen("tcp", b.cfg.Addr)
	if err != nil {
		return fmt.Errorf("binding editor bridge: %w", err)
	}
	b.ln = ln

	mux := http.NewServeMux()
	mux.HandleFunc(BridgePath, b.handleWS)
	b.server = &http.Server{Handler: mux}

	go func() {
		if err := b.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.logger.Error("editor bridge server stopped", "error", err)
		}
	}()

	b.logger.Debug("editor bridge listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound listen address, valid after Start.
func (b *Bridge) Addr() string {
	if b.ln == nil {
		return ""
	}
	return b.ln.Addr().String()
}

// URL returns the ws:// URL the editor should connect to.
func (b *Bridge) URL() string {
	if b.ln == nil {
		return ""
	}
	return "ws://" + b.ln.Addr().String() + BridgePath
}

// Acknowledged reports whether the editor has confirmed the start message.
func (b *Bridge) Acknowledged() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.acked
}

// SendStart pushes the start message to the editor, retrying at a fixed
// interval until acknowledged. The editor may not have connected yet when
// the first attempt fires; that attempt simply waits for the next tick.
func (b *Bridge) SendStart(ctx context.Context, msg StartMessage) error {
	msg.Type = TypeStartCodingTest

	b.mu.Lock()
	b.start = &msg
	b.acked = false
	b.mu.Unlock()

	backoff := retry.WithMaxRetries(uint64(b.cfg.HandshakeAttempts-1), retry.NewConstant(b.cfg.HandshakeInterval))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		b.mu.Lock()
		acked := b.acked
		conn := b.conn
		b.mu.Unlock()

		if acked {
			return nil
		}
		if conn != nil {
			if err := conn.WriteJSON(msg); err != nil {
				b.logger.Debug("start message write failed", "error", err)
			}
		}
		return retry.RetryableError(ErrNotAcknowledged)
	})
}

// Close shuts the bridge down and drops any editor connection.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.conn != nil {
		b.conn.Close() //nolint:errcheck
		b.conn = nil
	}
	b.mu.Unlock()

	if b.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return b.server.Shutdown(ctx)
}

func (b *Bridge) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return b.trustedOrigin(r.Header.Get("Origin")) },
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("editor connection rejected", "origin", r.Header.Get("Origin"), "error", err)
		return
	}

	b.mu.Lock()
	if b.conn != nil {
		b.conn.Close() //nolint:errcheck
	}
	b.conn = conn
	start := b.start
	b.mu.Unlock()

	b.logger.Debug("editor connected", "remote", conn.RemoteAddr().String())

	// A start message queued before the editor attached goes out right away
	// rather than waiting for the next handshake tick.
	if start != nil {
		if err := conn.WriteJSON(*start); err != nil {
			b.logger.Debug("start message write failed", "error", err)
		}
	}

	go b.readLoop(conn)
}

func (b *Bridge) readLoop(conn *websocket.Conn) {
	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			b.mu.Lock()
			if b.conn == conn {
				b.conn = nil
			}
			b.mu.Unlock()
			return
		}

		switch {
		case msg.isAck():
			b.handleAck()
		case msg.isSubmission():
			b.handleSubmission(&msg)
		default:
			b.logger.Debug("unrecognized editor message discarded", "type", msg.Type)
		}
	}
}

func (b *Bridge) handleAck() {
	b.mu.Lock()
	already := b.acked
	b.acked = true
	b.mu.Unlock()

	if already {
		return
	}
	b.logger.Debug("editor acknowledged start message")
	if b.cfg.OnAck != nil {
		b.cfg.OnAck()
	}
}

func (b *Bridge) handleSubmission(msg *inboundMessage) {
	sub := Submission{
		SessionID: msg.SessionID,
		TaskID:    msg.TaskID,
		Code:      msg.Code,
		Language:  msg.Language,
		Passed:    msg.Passed,
		Results:   msg.Results,
	}

	// Older editors omit the session id; backfill from the start message.
	if sub.SessionID == "" {
		b.mu.Lock()
		if b.start != nil {
			sub.SessionID = b.start.InterviewSessionID
		}
		b.mu.Unlock()
	}

	if b.cfg.OnSubmission != nil {
		b.cfg.OnSubmission(sub)
	}
}

// trustedOrigin accepts an origin only on an exact allow-list match or when
// the origin's host is the loopback machine itself. Comparison is never by
// substring; "https://evil-localhost.example" must not pass.
func (b *Bridge) trustedOrigin(origin string) bool {
	// Non-browser editor processes send no Origin header at all.
	if origin == "" {
		return true
	}

	for _, allowed := range b.cfg.Origins {
		if origin == allowed {
			return true
		}
	}

	u, err := url.Parse(origin)
	if err != nil {
		b.logger.Warn("untrusted editor origin dropped", "origin", origin)
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}

	b.logger.Warn("untrusted editor origin dropped", "origin", origin)
	return false
}
