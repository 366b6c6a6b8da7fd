package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/intervuhq/intervu/internal/api"
	"github.com/intervuhq/intervu/internal/config"
	"github.com/intervuhq/intervu/internal/interview"
	"github.com/intervuhq/intervu/internal/models"
	eventlog "github.com/intervuhq/intervu/internal/session"
	"github.com/intervuhq/intervu/internal/speech"
	"github.com/intervuhq/intervu/internal/store"
	"github.com/intervuhq/intervu/internal/timer"
	"github.com/intervuhq/intervu/internal/tui"
)

var (
	joinSessionID   string
	joinAccessToken string
	joinCandidateID string
	joinNoVoice     bool
	joinBackendURL  string
	joinResultsDir  string
)

func newJoinCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join an interview session",
		Long: `Join an interview session and run it in the terminal.

Credentials are resolved in order: --session/--token, --candidate, a
previously saved session, and finally an interactive prompt for the
candidate ID from the interview invitation.`,
		Args: cobra.NoArgs,
		RunE: joinCommandE,
	}

	cmd.Flags().StringVar(&joinSessionID, "session", "", "Session ID from the invitation")
	cmd.Flags().StringVar(&joinAccessToken, "token", "", "Access token for the session")
	cmd.Flags().StringVar(&joinCandidateID, "candidate", "", "Candidate ID (discovers session and token)")
	cmd.Flags().BoolVar(&joinNoVoice, "no-voice", false, "Disable speech input and output")
	cmd.Flags().StringVar(&joinBackendURL, "backend", "", "Backend base URL (overrides config)")
	cmd.Flags().StringVar(&joinResultsDir, "results-dir", "", "Directory for saved transcripts (overrides config)")

	return cmd
}

func joinCommandE(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}
	if joinBackendURL != "" {
		cfg.Backend.URL = joinBackendURL
	}
	if joinResultsDir != "" {
		cfg.Paths.Results = joinResultsDir
	}

	client := api.NewClient(cfg.Backend.URL)

	storePath, err := store.DefaultPath()
	if err != nil {
		return fmt.Errorf("resolving session store path: %w", err)
	}
	st := store.New(storePath)

	ctx := cmd.Context()
	sess, err := resolveSession(ctx, client, st)
	if err != nil {
		return err
	}

	if err := st.Save(sess); err != nil {
		slog.Warn("could not persist session", "error", err)
	}
	if _, err := client.InitializeInterview(ctx, sess.SessionID, sess.AccessToken); err != nil {
		slog.Warn("interview initialization failed", "error", err)
	}

	return runInterview(ctx, cfg, client, st, sess)
}

// resolveSession turns whatever credentials the user supplied into an
// accessed session.
func resolveSession(ctx context.Context, client *api.Client, st *store.Store) (*models.Session, error) {
	switch {
	case joinSessionID != "" && joinAccessToken != "":
		res, err := client.AccessBySession(ctx, joinSessionID, joinAccessToken)
		if err != nil {
			return nil, err
		}
		return res.Session, nil

	case joinCandidateID != "":
		res, err := client.AccessByCandidate(ctx, joinCandidateID)
		if err != nil {
			return nil, err
		}
		return res.Session, nil
	}

	// A previously saved session resumes transparently, unless the backend
	// no longer recognizes it.
	if saved, err := st.Load(); err == nil {
		res, err := client.AccessBySession(ctx, saved.SessionID, saved.AccessToken)
		if err == nil {
			slog.Info("resuming saved session", "session", saved.SessionID)
			return res.Session, nil
		}
		if errors.Is(err, api.ErrUnauthorized) || errors.Is(err, api.ErrNotFound) {
			slog.Warn("saved session rejected by backend, discarding", "error", err)
			_ = st.Clear()
		} else {
			return nil, err
		}
	}

	candidateID, err := promptCandidateID()
	if err != nil {
		return nil, err
	}
	res, err := client.AccessByCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	return res.Session, nil
}

func promptCandidateID() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("no credentials given and stdin is not a terminal; pass --candidate or --session/--token")
	}

	var id string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Candidate ID").
				Description("The identifier from your interview invitation, e.g. CAND001").
				Value(&id).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("candidate ID is required")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(id), nil
}

func runInterview(ctx context.Context, cfg *config.Config, client *api.Client, st *store.Store, sess *models.Session) error {
	voice := cfg.SpeechEnabled() && !joinNoVoice
	var synth speech.Synthesizer
	var newRec func() speech.Recognizer
	if voice {
		synth, newRec = buildSpeechBackends(cfg)
		voice = synth != nil || newRec != nil
	}

	logDir := cfg.Paths.SessionLog
	if logDir == "" {
		logDir = filepath.Join(cfg.Paths.Results, "logs")
	}
	events, err := eventlog.NewJSONLogger(eventlog.LogPath(logDir, sess.SessionID))
	if err != nil {
		slog.Warn("event logging disabled", "error", err)
		events = nil
	}
	var eventSink eventlog.Logger = eventlog.NopLogger{}
	if events != nil {
		eventSink = events
		defer events.Close() //nolint:errcheck
	}

	// The program variable is captured by the runner hooks before it is
	// assigned; every hook fires only after Start, by which point it is set.
	var p *tea.Program
	send := func(msg tea.Msg) {
		if p != nil {
			p.Send(msg)
		}
	}

	runner, err := interview.NewRunner(interview.Config{
		Session: sess,
		Backend: client,
		Store:   st,
		Events:  eventSink,

		NewRecognizer: newRec,
		Synthesizer:   synth,

		Editor: interview.EditorConfig{
			LaunchURL:         cfg.Editor.URL,
			BridgeAddr:        cfg.Editor.BridgeAddr,
			Origins:           cfg.Editor.Origins,
			HandshakeAttempts: cfg.Editor.HandshakeAttempts,
			HandshakeInterval: time.Duration(cfg.Editor.HandshakeIntervalMs) * time.Millisecond,
		},
		Debounce:   time.Duration(cfg.Composer.DebounceMs) * time.Millisecond,
		Grace:      time.Duration(cfg.Timing.GraceDelaySec) * time.Second,
		ResultsDir: cfg.Paths.Results,

		OnTyping: func(active bool) { send(tui.MsgTyping{Active: active}) },
		OnSpeechState: func(from, to speech.State) {
			send(tui.MsgSpeech{State: to})
		},
		OnTick: func(elapsed time.Duration, remaining int) {
			send(tui.MsgTick{
				Elapsed:          timer.FormatElapsed(elapsed),
				RemainingMinutes: remaining,
				HasDeadline:      !sess.EndsAt().IsZero(),
			})
		},
		OnEditorOpened: func(launchURL, bridgeURL string) {
			send(tui.MsgEditorOpened{LaunchURL: launchURL, BridgeURL: bridgeURL})
		},
		OnEnded: func(reason string) { send(tui.MsgEnded{Reason: reason}) },
	})
	if err != nil {
		return err
	}

	model := tui.NewModel(sess, voice, tui.Hooks{
		OnInput:  runner.Composer().SetInput,
		OnSubmit: func() { runner.Composer().Submit(ctx) },
		OnToggleMic: func() {
			if sp := runner.Speech(); sp != nil {
				if err := sp.ToggleListening(); err != nil {
					slog.Warn("microphone toggle failed", "error", err)
				}
			}
		},
		OnQuit: func() { go runner.End(ctx, "ended by candidate") },
	})

	p = tea.NewProgram(model, tea.WithAltScreen())
	runner.Conversation().Observe(func(msg models.Message) {
		send(tui.MsgAppended{Message: msg})
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	runner.Start(runCtx)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("interview UI failed: %w", err)
	}

	outcome := runner.End(ctx, "ended by candidate")
	printOutcome(outcome)
	return nil
}

// buildSpeechBackends turns the configured external commands into speech
// backends, dropping whichever is unavailable on this machine.
func buildSpeechBackends(cfg *config.Config) (speech.Synthesizer, func() speech.Recognizer) {
	var synth speech.Synthesizer
	if len(cfg.Speech.SpeakCmd) > 0 {
		s, err := speech.NewExecSynthesizer(cfg.Speech.SpeakCmd)
		if err != nil {
			slog.Warn("speech output unavailable", "command", cfg.Speech.SpeakCmd[0], "error", err)
		} else {
			synth = s
		}
	}

	var newRec func() speech.Recognizer
	if len(cfg.Speech.ListenCmd) > 0 {
		if _, err := speech.NewExecRecognizer(cfg.Speech.ListenCmd); err != nil {
			slog.Warn("speech input unavailable", "command", cfg.Speech.ListenCmd[0], "error", err)
		} else {
			listenCmd := cfg.Speech.ListenCmd
			newRec = func() speech.Recognizer {
				r, err := speech.NewExecRecognizer(listenCmd)
				if err != nil {
					return nil
				}
				return r
			}
		}
	}
	return synth, newRec
}

func printOutcome(out *interview.Outcome) {
	if out == nil {
		return
	}
	fmt.Printf("\nInterview ended: %s\n", out.Reason)
	if out.Summary != nil {
		fmt.Printf("  Candidate: %s\n", out.Summary.CandidateName)
		if out.Summary.Duration != "" {
			fmt.Printf("  Duration:  %s\n", out.Summary.Duration)
		}
		fmt.Printf("  Questions: %d\n", out.Summary.QuestionsAsked)
	}
	if out.TranscriptPath != "" {
		fmt.Printf("  Transcript saved to %s\n", out.TranscriptPath)
	}
}
