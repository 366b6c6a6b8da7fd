package speech

import (
	"bufio"
	"errors"
	"os/exec"
	"strings"
	"sync"
)

// ExecSynthesizer speaks through an external text-to-speech program such as
// `say` on macOS or `espeak` on Linux. The text is appended as the final
// argument.
type ExecSynthesizer struct {
	Command []string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewExecSynthesizer creates a synthesizer that runs the given command.
func NewExecSynthesizer(command []string) (*ExecSynthesizer, error) {
	if len(command) == 0 {
		return nil, errors.New("empty synthesizer command")
	}
	if _, err := exec.LookPath(command[0]); err != nil {
		return nil, err
	}
	return &ExecSynthesizer{Command: command}, nil
}

// Speak starts the synthesis process and reports completion through done.
func (s *ExecSynthesizer) Speak(text string, done func(err error)) error {
	args := append(append([]string{}, s.Command[1:]...), text)
	cmd := exec.Command(s.Command[0], args...)

	s.mu.Lock()
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cmd = cmd
	s.mu.Unlock()

	go func() {
		err := cmd.Wait()

		s.mu.Lock()
		if s.cmd == cmd {
			s.cmd = nil
		}
		s.mu.Unlock()

		done(err)
	}()
	return nil
}

// Cancel kills any in-progress playback.
func (s *ExecSynthesizer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		s.cmd = nil
	}
}

// ExecRecognizer captures one utterance per burst from an external
// transcriber program that prints finalized utterances to stdout, one per
// line (e.g. a whisper streaming wrapper or `hear` on macOS).
type ExecRecognizer struct {
	Command []string

	mu      sync.Mutex
	cmd     *exec.Cmd
	aborted bool
}

// NewExecRecognizer creates a recognizer that runs the given command.
func NewExecRecognizer(command []string) (*ExecRecognizer, error) {
	if len(command) == 0 {
		return nil, errors.New("empty recognizer command")
	}
	if _, err := exec.LookPath(command[0]); err != nil {
		return nil, err
	}
	return &ExecRecognizer{Command: command}, nil
}

// Start launches the transcriber and delivers the first non-empty line as a
// final utterance, then signals end of capture.
func (r *ExecRecognizer) Start(cb Callbacks) error {
	cmd := exec.Command(r.Command[0], r.Command[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	r.mu.Lock()
	r.cmd = cmd
	r.aborted = false
	r.mu.Unlock()

	go func() {
		var final string
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				final = line
				break
			}
		}

		// One utterance per burst: tear the process down once we have it.
		r.mu.Lock()
		if r.cmd == cmd && cmd.Process != nil {
			_ = cmd.Process.Kill()
			r.cmd = nil
		}
		aborted := r.aborted
		r.mu.Unlock()

		_ = cmd.Wait()

		if aborted {
			return // no callbacks after Abort
		}
		if final != "" && cb.OnFinal != nil {
			cb.OnFinal(final)
		}
		if final == "" && cb.OnError != nil {
			cb.OnError(ErrCodeNoSpeech, errors.New("transcriber exited without output"))
			return
		}
		if cb.OnEnd != nil {
			cb.OnEnd()
		}
	}()
	return nil
}

// Stop ends the capture gracefully: the transcriber is terminated and
// whatever it printed so far is delivered.
func (r *ExecRecognizer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cmd != nil && r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
		r.cmd = nil
	}
}

// Abort ends the capture immediately and suppresses all callbacks.
func (r *ExecRecognizer) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aborted = true
	if r.cmd != nil && r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
		r.cmd = nil
	}
}
