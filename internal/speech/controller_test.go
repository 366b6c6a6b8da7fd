package speech

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecognizer struct {
	mu      sync.Mutex
	cb      Callbacks
	started bool
	stopped bool
	aborted bool
}

func (f *fakeRecognizer) Start(cb Callbacks) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cb = cb
	f.started = true
	return nil
}

func (f *fakeRecognizer) Stop() {
	f.mu.Lock()
	cb := f.cb
	f.stopped = true
	f.mu.Unlock()
	if cb.OnEnd != nil {
		cb.OnEnd()
	}
}

func (f *fakeRecognizer) Abort() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aborted = true
}

func (f *fakeRecognizer) callbacks() Callbacks {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *fakeRecognizer) wasAborted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aborted
}

func (f *fakeRecognizer) wasStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type fakeSynthesizer struct {
	mu        sync.Mutex
	dones     []func(error)
	spoken    []string
	cancelled int
}

func (f *fakeSynthesizer) Speak(text string, done func(err error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
	f.dones = append(f.dones, done)
	return nil
}

func (f *fakeSynthesizer) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled++
}

// finish completes the most recent playback successfully.
func (f *fakeSynthesizer) finish() {
	f.mu.Lock()
	var done func(error)
	if n := len(f.dones); n > 0 {
		done = f.dones[n-1]
		f.dones[n-1] = nil
	}
	f.mu.Unlock()
	if done != nil {
		done(nil)
	}
}

// reportKilled fires the i-th playback's done with a kill error, the way an
// external synthesis process reports its death after Cancel.
func (f *fakeSynthesizer) reportKilled(i int) {
	f.mu.Lock()
	var done func(error)
	if i < len(f.dones) {
		done = f.dones[i]
		f.dones[i] = nil
	}
	f.mu.Unlock()
	if done != nil {
		done(errors.New("signal: killed"))
	}
}

type recorder struct {
	mu            sync.Mutex
	finals        []string
	utteranceEnds int
	transitions   []string
}

func (r *recorder) onFinal(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finals = append(r.finals, text)
}

func (r *recorder) onUtteranceEnd() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.utteranceEnds++
}

func (r *recorder) onState(from, to State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, string(from)+"->"+string(to))
}

func newTestController(t *testing.T) (*Controller, *fakeSynthesizer, *recorder, func() *fakeRecognizer) {
	t.Helper()

	synth := &fakeSynthesizer{}
	rec := &recorder{}

	var mu sync.Mutex
	var current *fakeRecognizer

	ctrl := NewController(Config{
		NewRecognizer: func() Recognizer {
			mu.Lock()
			defer mu.Unlock()
			current = &fakeRecognizer{}
			return current
		},
		Synthesizer:    synth,
		OnFinal:        rec.onFinal,
		OnUtteranceEnd: rec.onUtteranceEnd,
		OnState:        rec.onState,
	})

	latest := func() *fakeRecognizer {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	return ctrl, synth, rec, latest
}

func TestControllerStartsIdle(t *testing.T) {
	ctrl, _, _, _ := newTestController(t)
	assert.Equal(t, StateIdle, ctrl.State())
	assert.False(t, ctrl.Listening())
}

func TestStartListening(t *testing.T) {
	ctrl, _, _, latest := newTestController(t)

	require.NoError(t, ctrl.StartListening())
	assert.Equal(t, StateListening, ctrl.State())
	assert.True(t, latest().started)

	// Starting again while listening is a no-op.
	require.NoError(t, ctrl.StartListening())
	assert.Equal(t, StateListening, ctrl.State())
}

func TestFinalThenEndDeliversUtterance(t *testing.T) {
	ctrl, _, rec, latest := newTestController(t)
	require.NoError(t, ctrl.StartListening())

	cb := latest().callbacks()
	cb.OnFinal("I enjoy systems programming")
	cb.OnEnd()

	assert.Equal(t, []string{"I enjoy systems programming"}, rec.finals)
	assert.Equal(t, 1, rec.utteranceEnds)
	assert.Equal(t, StateIdle, ctrl.State())
}

func TestStopListeningIsGraceful(t *testing.T) {
	ctrl, _, rec, latest := newTestController(t)
	require.NoError(t, ctrl.StartListening())

	ctrl.StopListening()

	assert.True(t, latest().wasStopped())
	assert.False(t, latest().wasAborted())
	assert.Equal(t, 1, rec.utteranceEnds)
	assert.Equal(t, StateIdle, ctrl.State())
}

func TestSpeakWhileListeningAbortsAndResumes(t *testing.T) {
	ctrl, synth, rec, latest := newTestController(t)
	require.NoError(t, ctrl.StartListening())
	first := latest()

	ctrl.Speak("Tell me about yourself.")

	// Capture is torn down hard so playback is never transcribed.
	assert.True(t, first.wasAborted())
	assert.False(t, first.wasStopped())
	assert.Equal(t, StateSpeaking, ctrl.State())
	assert.Equal(t, []string{"Tell me about yourself."}, synth.spoken)

	// A stale final from the aborted recognizer must be discarded.
	first.callbacks().OnFinal("tell me about yourself")
	assert.Empty(t, rec.finals)

	synth.finish()

	// Listening resumes on a fresh recognizer.
	assert.Equal(t, StateListening, ctrl.State())
	assert.NotSame(t, first, latest())
	assert.True(t, latest().started)
}

func TestSpeakWhileIdleDoesNotResume(t *testing.T) {
	ctrl, synth, _, latest := newTestController(t)

	ctrl.Speak("Welcome to the interview.")
	assert.Equal(t, StateSpeaking, ctrl.State())

	synth.finish()
	assert.Equal(t, StateIdle, ctrl.State())
	assert.Nil(t, latest())
}

func TestStartListeningRefusedWhileSpeaking(t *testing.T) {
	ctrl, synth, _, _ := newTestController(t)

	ctrl.Speak("One moment.")
	assert.ErrorIs(t, ctrl.StartListening(), ErrBusy)

	synth.finish()
	require.NoError(t, ctrl.StartListening())
}

func TestNeverListensWhileSpeaking(t *testing.T) {
	ctrl, synth, _, _ := newTestController(t)
	require.NoError(t, ctrl.StartListening())

	transitions := []State{}
	for i := 0; i < 5; i++ {
		ctrl.Speak("question")
		transitions = append(transitions, ctrl.State())
		synth.finish()
		transitions = append(transitions, ctrl.State())
	}

	for _, s := range transitions {
		// Playback and capture must never overlap; the state right after
		// Speak is always Speaking, never Listening.
		assert.NotEqual(t, StateSuppressed, s)
	}
	assert.Equal(t, StateListening, ctrl.State())
}

func TestAbortedErrorFromStaleRecognizerSwallowed(t *testing.T) {
	ctrl, synth, _, latest := newTestController(t)
	require.NoError(t, ctrl.StartListening())
	first := latest()

	ctrl.Speak("hello")

	// The aborted recognizer reports its teardown; the controller must not
	// leave the Speaking state because of it.
	first.callbacks().OnError(ErrCodeAborted, errors.New("recognition aborted"))
	assert.Equal(t, StateSpeaking, ctrl.State())

	first.callbacks().OnError(ErrCodeNoSpeech, errors.New("no speech detected"))
	assert.Equal(t, StateSpeaking, ctrl.State())

	synth.finish()
	assert.Equal(t, StateListening, ctrl.State())
}

func TestUnexpectedRecognitionErrorReturnsToIdle(t *testing.T) {
	ctrl, _, _, latest := newTestController(t)
	require.NoError(t, ctrl.StartListening())

	latest().callbacks().OnError("audio-capture", errors.New("microphone unavailable"))
	assert.Equal(t, StateIdle, ctrl.State())
}

func TestToggleListening(t *testing.T) {
	ctrl, _, _, _ := newTestController(t)

	require.NoError(t, ctrl.ToggleListening())
	assert.Equal(t, StateListening, ctrl.State())

	require.NoError(t, ctrl.ToggleListening())
	assert.Equal(t, StateIdle, ctrl.State())
}

func TestSpeakReplacesInFlightPlayback(t *testing.T) {
	ctrl, synth, _, _ := newTestController(t)

	ctrl.Speak("first")
	ctrl.Speak("second")

	assert.Equal(t, []string{"first", "second"}, synth.spoken)
	assert.GreaterOrEqual(t, synth.cancelled, 1)

	synth.finish()
	assert.Equal(t, StateIdle, ctrl.State())
}

func TestReplacedPlaybackDeathDoesNotEndReplacement(t *testing.T) {
	ctrl, synth, _, latest := newTestController(t)
	require.NoError(t, ctrl.StartListening())

	ctrl.Speak("first")
	ctrl.Speak("second")

	// The killed playback reports completion late, from its own goroutine.
	// The replacement is still audible, so capture must stay shut out.
	synth.reportKilled(0)
	assert.Equal(t, StateSpeaking, ctrl.State())
	assert.ErrorIs(t, ctrl.StartListening(), ErrBusy)

	// The resume decision from the original teardown survives the
	// replacement: when the second playback finishes, capture comes back.
	synth.finish()
	assert.Equal(t, StateListening, ctrl.State())
	assert.True(t, latest().started)
}

func TestShutdownAbortsEverything(t *testing.T) {
	ctrl, synth, rec, latest := newTestController(t)
	require.NoError(t, ctrl.StartListening())

	ctrl.Shutdown()

	assert.Equal(t, StateIdle, ctrl.State())
	assert.True(t, latest().wasAborted())
	assert.GreaterOrEqual(t, synth.cancelled, 1)

	// Late callbacks from the aborted recognizer are discarded.
	latest().callbacks().OnFinal("leftover")
	latest().callbacks().OnEnd()
	assert.Empty(t, rec.finals)
	assert.Equal(t, 0, rec.utteranceEnds)
}

func TestSpeakWithoutSynthesizerIsNoOp(t *testing.T) {
	ctrl := NewController(Config{
		NewRecognizer: func() Recognizer { return &fakeRecognizer{} },
	})

	require.NoError(t, ctrl.StartListening())
	ctrl.Speak("unheard")
	assert.Equal(t, StateListening, ctrl.State())
}
