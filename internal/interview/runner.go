// Package interview orchestrates a live interview run: it owns the
// conversation, wires speech and typed input into the composer, watches the
// clock, and drives the coding-editor handoff.
package interview

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/intervuhq/intervu/internal/api"
	"github.com/intervuhq/intervu/internal/composer"
	"github.com/intervuhq/intervu/internal/editor"
	"github.com/intervuhq/intervu/internal/models"
	"github.com/intervuhq/intervu/internal/session"
	"github.com/intervuhq/intervu/internal/speech"
	"github.com/intervuhq/intervu/internal/store"
	"github.com/intervuhq/intervu/internal/timer"
	"github.com/intervuhq/intervu/internal/transcript"
)

const (
	codingPhaseMessage = "Great, let's move to the coding phase. I'm opening the code editor for you now."
	timeUpMessage      = "Our scheduled time is up, so we'll stop here. Thank you for the conversation; your responses have been recorded."
)

// Backend is the slice of the API client the runner needs.
type Backend interface {
	SendMessage(ctx context.Context, sessionID string, req api.SendMessageRequest) (string, error)
	CodingTasks(ctx context.Context, sessionID, accessToken string) ([]models.CodingTask, error)
	StartTestSession(ctx context.Context, candidateID string) (*api.TestSession, error)
	EndInterview(ctx context.Context, sessionID, accessToken string) (*api.EndResult, error)
}

var _ Backend = (*api.Client)(nil)

// EditorConfig carries the bridge settings for the coding phase.
type EditorConfig struct {
	// LaunchURL is the base URL of the external editor application.
	LaunchURL string
	// BridgeAddr is the loopback address the bridge listens on.
	BridgeAddr string
	// Origins is the exact-match allow-list for editor connections.
	Origins []string

	HandshakeAttempts int
	HandshakeInterval time.Duration
}

// Config assembles a Runner.
type Config struct {
	Session *models.Session
	Backend Backend
	Store   *store.Store
	Events  session.Logger

	// NewRecognizer and Synthesizer enable voice. Either may be nil.
	NewRecognizer func() speech.Recognizer
	Synthesizer   speech.Synthesizer

	Editor     EditorConfig
	Debounce   time.Duration
	Grace      time.Duration
	ResultsDir string

	// Now overrides the clock, for tests.
	Now func() time.Time

	// UI hooks. All optional, all may be called from background goroutines.
	OnTyping       func(active bool)
	OnSpeechState  func(from, to speech.State)
	OnTick         func(elapsed time.Duration, remainingMinutes int)
	OnEditorOpened func(launchURL, bridgeURL string)
	OnEnded        func(reason string)

	Logger *slog.Logger
}

// Outcome summarizes a finished interview.
type Outcome struct {
	Reason         string
	TranscriptPath string
	Summary        *models.EndSummary
}

// Runner drives one interview session from welcome to termination. The
// timer can force termination at any point; everything else stops when it
// does.
type Runner struct {
	cfg    Config
	logger *slog.Logger
	events session.Logger

	conv  *Conversation
	comp  *composer.Composer
	sp    *speech.Controller
	clock *timer.Timer

	mu           sync.Mutex
	bridge       *editor.Bridge
	editorOpened bool
	startedAt    time.Time

	endOnce sync.Once
	outcome *Outcome
}

// NewRunner wires up a Runner for an accessed session.
func NewRunner(cfg Config) (*Runner, error) {
	if !cfg.Session.HasCredentials() {
		return nil, fmt.Errorf("session %q has no credentials", cfg.Session.SessionID)
	}
	if cfg.Backend == nil {
		return nil, fmt.Errorf("no backend configured")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	events := cfg.Events
	if events == nil {
		events = session.NopLogger{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	r := &Runner{
		cfg:    cfg,
		logger: logger,
		events: events,
		conv:   NewConversation(),
	}

	r.comp = composer.New(composer.Config{
		Debounce:   cfg.Debounce,
		HasSession: func() bool { return cfg.Session.HasCredentials() },
		Listening:  r.listening,
		Send:       r.sendAnswer,
		Append:     r.conv.Append,
		Typing:     r.setTyping,
		Discarded: func(seq, lastApplied int) {
			r.logEvent(session.EventReplyDiscarded, session.ReplyDiscardedData(seq, lastApplied))
		},
		Logger: logger,
	})

	if cfg.NewRecognizer != nil || cfg.Synthesizer != nil {
		r.sp = speech.NewController(speech.Config{
			NewRecognizer:  cfg.NewRecognizer,
			Synthesizer:    cfg.Synthesizer,
			OnFinal:        r.comp.AppendFinal,
			OnUtteranceEnd: func() { r.comp.Submit(context.Background()) },
			OnState:        r.onSpeechState,
			Logger:         logger,
		})
	}

	r.clock = timer.New(timer.Config{
		End:      cfg.Session.EndsAt(),
		Grace:    cfg.Grace,
		Now:      now,
		OnTick:   cfg.OnTick,
		OnExpire: r.expire,
		Logger:   logger,
	})

	r.conv.Observe(r.onMessage)
	return r, nil
}

// Conversation exposes the transcript.
func (r *Runner) Conversation() *Conversation { return r.conv }

// Composer exposes the input composer for the UI.
func (r *Runner) Composer() *composer.Composer { return r.comp }

// Speech exposes the speech controller, or nil when voice is disabled.
func (r *Runner) Speech() *speech.Controller { return r.sp }

// Timer exposes the session clock.
func (r *Runner) Timer() *timer.Timer { return r.clock }

// Start opens the interview: welcome message, voice, and the clock.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	r.startedAt = time.Now()
	r.mu.Unlock()

	s := r.cfg.Session
	r.logEvent(session.EventSessionStart,
		session.SessionStartData(s.SessionID, s.CandidateName, s.Role, s.CompanyName))

	// Listening starts first so the welcome playback tears it down and
	// resumes it, same as any later interviewer message.
	if r.sp != nil {
		if err := r.sp.StartListening(); err != nil {
			r.logger.Warn("could not start listening", "error", err)
		}
	}

	r.conv.Append(models.NewMessage(models.RoleInterviewer, s.WelcomeMessage()))

	go r.clock.Run(ctx)
}

// onMessage reacts to every transcript append. Interviewer messages are
// spoken aloud and scanned, once each, for a coding prompt.
func (r *Runner) onMessage(msg models.Message) {
	if msg.Role != models.RoleInterviewer {
		return
	}

	if r.sp != nil {
		r.sp.Speak(msg.Content)
	}

	if editor.DetectCodingPrompt(msg.Content) {
		go r.OpenEditor(context.Background())
	}
}

func (r *Runner) listening() bool {
	return r.sp != nil && r.sp.Listening()
}

func (r *Runner) setTyping(active bool) {
	if r.cfg.OnTyping != nil {
		r.cfg.OnTyping(active)
	}
}

func (r *Runner) onSpeechState(from, to speech.State) {
	r.logEvent(session.EventSpeechState, session.SpeechStateData(string(from), string(to)))
	if r.cfg.OnSpeechState != nil {
		r.cfg.OnSpeechState(from, to)
	}
}

// sendAnswer delivers a composed candidate answer.
func (r *Runner) sendAnswer(ctx context.Context, text string) (string, error) {
	s := r.cfg.Session
	r.logEvent(session.EventMessageSent, session.MessageData(string(models.RoleCandidate), string(models.TypeAnswer), len(text)))

	reply, err := r.cfg.Backend.SendMessage(ctx, s.SessionID, api.SendMessageRequest{
		AccessToken: s.AccessToken,
		Message:     text,
		MessageType: models.TypeAnswer,
	})
	if err != nil {
		r.logEvent(session.EventError, session.ErrorData(err.Error(), nil))
		return "", err
	}

	r.logEvent(session.EventReplyReceived, session.MessageData(string(models.RoleInterviewer), string(models.TypeAnswer), len(reply)))
	return reply, nil
}

// OpenEditor starts the coding phase. Safe to call repeatedly; only the
// first call does anything.
func (r *Runner) OpenEditor(ctx context.Context) {
	r.mu.Lock()
	if r.editorOpened {
		r.mu.Unlock()
		return
	}
	r.editorOpened = true
	r.mu.Unlock()

	s := r.cfg.Session

	// Prefer the synchronized per-session task list; fall back to a fresh
	// generic test session.
	synchronized := true
	tasks, err := r.cfg.Backend.CodingTasks(ctx, s.SessionID, s.AccessToken)
	testSessionID := ""
	if err != nil || len(tasks) == 0 {
		if err != nil {
			r.logger.Warn("synchronized coding tasks unavailable, falling back", "error", err)
		}
		synchronized = false

		candidateID := s.CandidateID
		if candidateID == "" {
			candidateID = uuid.NewString()
		}
		if ts, tsErr := r.cfg.Backend.StartTestSession(ctx, candidateID); tsErr == nil {
			tasks = ts.AllTasks()
			testSessionID = ts.SessionID
		} else {
			r.logger.Warn("fallback test session failed", "error", tsErr)
		}
	}
	if testSessionID == "" {
		testSessionID = uuid.NewString()
	}

	bridge := editor.NewBridge(editor.BridgeConfig{
		Addr:              r.cfg.Editor.BridgeAddr,
		Origins:           r.cfg.Editor.Origins,
		HandshakeAttempts: r.cfg.Editor.HandshakeAttempts,
		HandshakeInterval: r.cfg.Editor.HandshakeInterval,
		OnAck:             func() { r.logEvent(session.EventEditorAck, nil) },
		OnSubmission:      func(sub editor.Submission) { r.onSubmission(context.Background(), sub) },
		Logger:            r.logger,
	})
	if err := bridge.Start(); err != nil {
		r.logger.Error("editor bridge failed to start", "error", err)
		r.logEvent(session.EventError, session.ErrorData(err.Error(), nil))
		return
	}

	r.mu.Lock()
	r.bridge = bridge
	r.mu.Unlock()

	r.conv.Append(models.NewMessage(models.RoleInterviewer, codingPhaseMessage))
	r.logEvent(session.EventEditorOpened, session.EditorData(testSessionID, len(tasks), synchronized))

	launchURL := ""
	if r.cfg.Editor.LaunchURL != "" {
		if u, urlErr := editor.BuildURL(r.cfg.Editor.LaunchURL, s, s.CodeQuestionsURL); urlErr == nil {
			launchURL = u
		}
	}
	if r.cfg.OnEditorOpened != nil {
		r.cfg.OnEditorOpened(launchURL, bridge.URL())
	}

	go func() {
		if err := bridge.SendStart(ctx, editor.StartMessage{
			InterviewSessionID: s.SessionID,
			CandidateID:        s.CandidateID,
			TestSessionID:      testSessionID,
			Tasks:              tasks,
			Synchronized:       synchronized,
		}); err != nil {
			r.logger.Warn("editor handshake incomplete", "error", err)
		}
	}()
}

// onSubmission forwards a coding answer to the backend as a code_result
// message and appends the interviewer's reaction.
func (r *Runner) onSubmission(ctx context.Context, sub editor.Submission) {
	s := r.cfg.Session
	if sub.SessionID == "" {
		sub.SessionID = s.SessionID
	}

	r.logEvent(session.EventCodeSubmitted, session.CodeSubmittedData(sub.TaskID, sub.Language, len(sub.Code)))
	r.conv.Append(models.NewMessage(models.RoleCandidate, "I've submitted my solution in the code editor."))

	reply, err := r.cfg.Backend.SendMessage(ctx, s.SessionID, api.SendMessageRequest{
		AccessToken: s.AccessToken,
		Message:     "The candidate submitted a code solution.",
		MessageType: models.TypeCodeResult,
		CodeResult:  sub.CodeResult(),
	})
	if err != nil {
		r.logger.Error("failed to forward code result", "error", err)
		r.logEvent(session.EventError, session.ErrorData(err.Error(), nil))
		return
	}
	if reply != "" {
		r.conv.Append(models.NewMessage(models.RoleInterviewer, reply))
	}
}

// expire runs when the session deadline passes.
func (r *Runner) expire() {
	r.logEvent(session.EventSessionExpired, nil)
	r.conv.Append(models.NewMessage(models.RoleInterviewer, timeUpMessage))
	r.End(context.Background(), "time expired")
}

// End terminates the interview exactly once: it stops audio and input,
// notifies the backend, clears the persisted session, and writes the
// transcript. The persisted slot is cleared no matter what the backend
// says.
func (r *Runner) End(ctx context.Context, reason string) *Outcome {
	r.endOnce.Do(func() {
		r.outcome = r.end(ctx, reason)
	})
	return r.outcome
}

func (r *Runner) end(ctx context.Context, reason string) *Outcome {
	s := r.cfg.Session
	r.logger.Info("ending interview", "session", s.SessionID, "reason", reason)

	r.clock.Stop()

	r.mu.Lock()
	bridge := r.bridge
	startedAt := r.startedAt
	r.mu.Unlock()

	// Audio, in-flight sends, and the editor connection wind down
	// independently of each other.
	var g errgroup.Group
	if r.sp != nil {
		g.Go(func() error { r.sp.Shutdown(); return nil })
	}
	g.Go(func() error { r.comp.Close(); return nil })
	if bridge != nil {
		g.Go(bridge.Close)
	}
	if err := g.Wait(); err != nil {
		r.logger.Debug("teardown error", "error", err)
	}

	out := &Outcome{Reason: reason}
	var endErrMsg string

	res, err := r.cfg.Backend.EndInterview(ctx, s.SessionID, s.AccessToken)
	if err != nil {
		endErrMsg = err.Error()
		r.logger.Warn("end-interview call failed", "error", err)
	} else if res != nil {
		out.Summary = res.Summary
	}

	if r.cfg.Store != nil {
		if err := r.cfg.Store.Clear(); err != nil {
			r.logger.Warn("could not clear session slot", "error", err)
		}
	}

	if r.cfg.ResultsDir != "" {
		if startedAt.IsZero() {
			startedAt = time.Now()
		}
		tr := transcript.Build(s, r.conv.Messages(), startedAt, time.Now(), out.Summary, endErrMsg)
		path, err := transcript.Write(r.cfg.ResultsDir, tr)
		if err != nil {
			r.logger.Warn("could not write transcript", "error", err)
		} else {
			out.TranscriptPath = path
		}
	}

	questions := 0
	for _, m := range r.conv.Messages() {
		if m.Role == models.RoleInterviewer {
			questions++
		}
	}
	durationMs := int64(0)
	if !startedAt.IsZero() {
		durationMs = time.Since(startedAt).Milliseconds()
	}
	r.logEvent(session.EventSessionEnd, session.SessionEndData(s.SessionID, out.TranscriptPath, questions, durationMs))

	if r.cfg.OnEnded != nil {
		r.cfg.OnEnded(reason)
	}
	return out
}

func (r *Runner) logEvent(t session.EventType, data map[string]any) {
	if err := r.events.Log(session.NewEvent(t, data)); err != nil {
		r.logger.Debug("event log write failed", "error", err)
	}
}
