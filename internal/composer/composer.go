// Package composer accumulates candidate input from typing and speech and
// turns it into interview messages. Input is auto-submitted after a quiet
// period, and replies are applied in submission order only.
package composer

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/intervuhq/intervu/internal/models"
)

const (
	// DefaultDebounce is the quiet period after the last keystroke before
	// pending input is submitted automatically.
	DefaultDebounce = 800 * time.Millisecond

	noSessionNotice = "No active interview session. Join a session before answering."
	replyFallback   = "I apologize, I'm having trouble processing your response right now. Could you please repeat that?"
)

// Sender delivers a candidate answer to the backend and returns the
// interviewer's reply text.
type Sender func(ctx context.Context, text string) (string, error)

// Config wires a Composer to the rest of the interview session.
type Config struct {
	// Debounce overrides DefaultDebounce. Zero means the default.
	Debounce time.Duration

	// HasSession reports whether an interview session is active.
	HasSession func() bool
	// Listening reports whether speech capture is active. While it is, the
	// debounce never auto-submits; the end-of-utterance path submits instead.
	Listening func() bool
	// Send delivers the answer. Called off the caller's goroutine.
	Send Sender
	// Append adds a message to the conversation.
	Append func(msg models.Message)
	// Typing toggles the "interviewer is typing" indicator.
	Typing func(active bool)
	// Discarded observes replies dropped for arriving out of order.
	Discarded func(seq, lastApplied int)

	Logger *slog.Logger
}

// Composer holds the pending input buffer and the debounce timer. Replies
// carry the sequence number of the submission that produced them; a reply
// whose submission is older than one already applied is dropped.
type Composer struct {
	mu          sync.Mutex
	cfg         Config
	debounce    time.Duration
	pending     string
	timer       *time.Timer
	seq         int
	lastApplied int
	closed      bool
	logger      *slog.Logger

	wg sync.WaitGroup
}

// New creates a Composer.
func New(cfg Config) *Composer {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{cfg: cfg, debounce: debounce, logger: logger}
}

// SetInput replaces the pending input and restarts the debounce clock. An
// empty buffer never auto-submits.
func (c *Composer) SetInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.pending = text
	c.stopTimerLocked()
	if strings.TrimSpace(text) == "" {
		return
	}
	c.timer = time.AfterFunc(c.debounce, c.timerFired)
}

// Input returns the current pending input.
func (c *Composer) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// AppendFinal adds a finalized speech utterance to the pending input,
// separated from any typed text by a space.
func (c *Composer) AppendFinal(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.pending == "" {
		c.pending = text
	} else {
		c.pending = strings.TrimRight(c.pending, " ") + " " + text
	}
	c.stopTimerLocked()
	c.timer = time.AfterFunc(c.debounce, c.timerFired)
	c.mu.Unlock()
}

func (c *Composer) timerFired() {
	if c.cfg.Listening != nil && c.cfg.Listening() {
		return
	}
	c.Submit(context.Background())
}

// Submit sends the pending input immediately, bypassing the debounce. It is
// a no-op when the buffer is blank.
func (c *Composer) Submit(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	text := strings.TrimSpace(c.pending)
	if text == "" {
		c.mu.Unlock()
		return
	}

	// Clear the buffer and cancel the timer atomically with the read, so a
	// debounce firing during a manual submit cannot send the text twice.
	c.pending = ""
	c.stopTimerLocked()

	if c.cfg.HasSession != nil && !c.cfg.HasSession() {
		c.mu.Unlock()
		c.logger.Warn("answer dropped, no active session")
		c.append(models.NewMessage(models.RoleInterviewer, noSessionNotice))
		return
	}

	c.seq++
	seq := c.seq
	c.wg.Add(1)
	c.mu.Unlock()

	c.append(models.NewMessage(models.RoleCandidate, text))
	c.setTyping(true)

	go c.send(ctx, seq, text)
}

func (c *Composer) send(ctx context.Context, seq int, text string) {
	defer c.wg.Done()
	defer c.setTyping(false)

	reply, err := c.cfg.Send(ctx, text)

	c.mu.Lock()
	if c.closed || seq <= c.lastApplied {
		stale := c.lastApplied
		c.mu.Unlock()
		c.logger.Debug("stale reply discarded", "seq", seq, "lastApplied", stale)
		if c.cfg.Discarded != nil {
			c.cfg.Discarded(seq, stale)
		}
		return
	}
	c.lastApplied = seq
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("failed to send answer", "error", err)
		c.append(models.NewMessage(models.RoleInterviewer, replyFallback))
		return
	}
	if reply != "" {
		c.append(models.NewMessage(models.RoleInterviewer, reply))
	}
}

// Close cancels the debounce timer and waits for in-flight sends to settle.
func (c *Composer) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopTimerLocked()
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Composer) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Composer) append(msg models.Message) {
	if c.cfg.Append != nil {
		c.cfg.Append(msg)
	}
}

func (c *Composer) setTyping(active bool) {
	if c.cfg.Typing != nil {
		c.cfg.Typing(active)
	}
}
