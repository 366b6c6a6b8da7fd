package speech

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrBusy is returned when listening cannot start in the current state.
var ErrBusy = errors.New("speech controller busy")

// Config wires a Controller to its audio backends and consumers.
type Config struct {
	// NewRecognizer builds a fresh recognizer for each listening burst.
	NewRecognizer func() Recognizer
	// Synthesizer plays interviewer messages. Optional; without one,
	// Speak is a no-op that reports completion immediately.
	Synthesizer Synthesizer

	// OnInterim receives partial transcriptions for display.
	OnInterim func(text string)
	// OnFinal receives each finalized utterance.
	OnFinal func(text string)
	// OnUtteranceEnd fires when a listening burst ends. The caller submits
	// any accumulated input immediately, bypassing the typing debounce.
	OnUtteranceEnd func()
	// OnState observes transitions.
	OnState func(from, to State)

	Logger *slog.Logger
}

// Controller is the half-duplex speech state machine. All transitions go
// through a single transition method under one mutex; the generation
// counter discards callbacks from recognizers that were aborted.
type Controller struct {
	mu       sync.Mutex
	cfg      Config
	state    State
	rec      Recognizer
	gen      int
	speakGen int
	resume   bool
	logger   *slog.Logger
}

// NewController creates a Controller in the Idle state.
func NewController(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{cfg: cfg, state: StateIdle, logger: logger}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Listening reports whether the microphone is actively capturing.
func (c *Controller) Listening() bool {
	return c.State() == StateListening
}

// transition moves the machine to a new state. Callers hold c.mu.
func (c *Controller) transition(to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	c.logger.Debug("speech state", "from", from, "to", to)
	if c.cfg.OnState != nil {
		c.cfg.OnState(from, to)
	}
}

// StartListening begins a capture burst. It is a no-op while already
// listening and refuses to start while speaking. Playback always wins.
func (c *Controller) StartListening() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startListeningLocked()
}

func (c *Controller) startListeningLocked() error {
	switch c.state {
	case StateListening:
		return nil
	case StateSpeaking, StateSuppressed:
		return ErrBusy
	}
	if c.cfg.NewRecognizer == nil {
		return errors.New("no recognizer configured")
	}

	rec := c.cfg.NewRecognizer()
	if rec == nil {
		return errors.New("recognizer unavailable")
	}

	gen := c.gen
	cb := Callbacks{
		OnInterim: func(text string) { c.handleInterim(gen, text) },
		OnFinal:   func(text string) { c.handleFinal(gen, text) },
		OnEnd:     func() { c.handleEnd(gen) },
		OnError:   func(code string, err error) { c.handleError(gen, code, err) },
	}
	if err := rec.Start(cb); err != nil {
		return err
	}

	c.rec = rec
	c.transition(StateListening)
	return nil
}

// StopListening ends the capture burst gracefully. Any pending final
// result is still delivered before OnEnd fires.
func (c *Controller) StopListening() {
	c.mu.Lock()
	var rec Recognizer
	if c.state == StateListening {
		rec = c.rec
	}
	c.mu.Unlock()

	if rec != nil {
		rec.Stop()
	}
}

// ToggleListening flips the microphone on or off.
func (c *Controller) ToggleListening() error {
	c.mu.Lock()
	listening := c.state == StateListening
	c.mu.Unlock()

	if listening {
		c.StopListening()
		return nil
	}
	return c.StartListening()
}

// Speak plays an interviewer message. An active capture burst is torn down
// first (aborted, not stopped, so nothing of the playback is transcribed)
// and resumed after playback finishes. Speak never runs concurrently with
// listening.
func (c *Controller) Speak(text string) {
	c.mu.Lock()

	if c.cfg.Synthesizer == nil {
		c.mu.Unlock()
		return
	}

	// Replace any playback already in flight.
	c.cfg.Synthesizer.Cancel()

	switch c.state {
	case StateListening:
		c.resume = true
	case StateSpeaking:
		// Replacing one playback with another keeps the resume decision
		// made when capture was first torn down.
	default:
		c.resume = false
	}
	if c.rec != nil {
		c.gen++ // everything from the old recognizer is now stale
		c.rec.Abort()
		c.rec = nil
		c.transition(StateSuppressed)
	}
	c.transition(StateSpeaking)
	c.speakGen++
	gen := c.speakGen
	c.mu.Unlock()

	err := c.cfg.Synthesizer.Speak(text, func(err error) { c.speechDone(gen, err) })
	if err != nil {
		c.logger.Warn("speech synthesis failed to start", "error", err)
		c.speechDone(gen, err)
	}
}

// speechDone runs when playback completes or errors: return to Listening if
// capture was active before, otherwise Idle. A killed playback reports its
// death late, from the synthesizer's own goroutine; the generation check
// keeps that report from ending the playback that replaced it.
func (c *Controller) speechDone(gen int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.speakGen {
		return
	}
	if err != nil {
		c.logger.Warn("speech synthesis error", "error", err)
	}
	if c.state != StateSpeaking {
		return
	}

	resume := c.resume
	c.resume = false
	c.transition(StateIdle)

	if resume {
		if startErr := c.startListeningLocked(); startErr != nil {
			c.logger.Warn("failed to resume listening after speech", "error", startErr)
		}
	}
}

// Shutdown aborts capture and playback and returns to Idle.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.speakGen++
	if c.rec != nil {
		c.rec.Abort()
		c.rec = nil
	}
	if c.cfg.Synthesizer != nil {
		c.cfg.Synthesizer.Cancel()
	}
	c.resume = false
	c.transition(StateIdle)
}

func (c *Controller) stale(gen int) bool {
	return gen != c.gen
}

func (c *Controller) handleInterim(gen int, text string) {
	c.mu.Lock()
	if c.stale(gen) || c.state != StateListening {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if c.cfg.OnInterim != nil {
		c.cfg.OnInterim(text)
	}
}

func (c *Controller) handleFinal(gen int, text string) {
	c.mu.Lock()
	if c.stale(gen) || c.state != StateListening {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if text != "" && c.cfg.OnFinal != nil {
		c.cfg.OnFinal(text)
	}
}

func (c *Controller) handleEnd(gen int) {
	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		return
	}
	c.rec = nil
	if c.state == StateListening {
		c.transition(StateIdle)
	}
	c.mu.Unlock()

	if c.cfg.OnUtteranceEnd != nil {
		c.cfg.OnUtteranceEnd()
	}
}

func (c *Controller) handleError(gen int, code string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stale(gen) || c.state == StateSuppressed || c.state == StateSpeaking {
		// Expected fallout from an intentional abort.
		if code == ErrCodeAborted || code == ErrCodeNoSpeech {
			return
		}
		c.logger.Debug("stale recognition error discarded", "code", code, "error", err)
		return
	}

	c.logger.Warn("speech recognition error", "code", code, "error", err)
	c.rec = nil
	if c.state == StateListening {
		c.transition(StateIdle)
	}
}
