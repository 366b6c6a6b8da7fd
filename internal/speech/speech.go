// Package speech coordinates microphone capture and spoken output so the
// two never run at the same time. The interview is half-duplex by
// construction: the recognizer must not transcribe the interviewer's own
// speech.
package speech

// State identifies the current mode of the speech controller.
type State string

const (
	// StateIdle: neither capturing nor speaking.
	StateIdle State = "idle"
	// StateListening: the recognizer is capturing candidate audio.
	StateListening State = "listening"
	// StateSpeaking: synthesized interviewer audio is playing.
	StateSpeaking State = "speaking"
	// StateSuppressed: capture has been torn down for playback but stale
	// recognizer callbacks may still arrive and must be discarded.
	StateSuppressed State = "suppressed"
)

// Recognizer error codes that are expected during an intentional teardown
// and therefore swallowed while suppressed.
const (
	ErrCodeAborted  = "aborted"
	ErrCodeNoSpeech = "no-speech"
)

// Callbacks receive recognition results. They are invoked from the
// recognizer's own goroutine.
type Callbacks struct {
	// OnInterim delivers a partial transcription for display.
	OnInterim func(text string)
	// OnFinal delivers a finalized utterance.
	OnFinal func(text string)
	// OnEnd signals end of capture (end-of-utterance or graceful stop).
	OnEnd func()
	// OnError reports a recognition failure with a machine-readable code.
	OnError func(code string, err error)
}

// Recognizer captures microphone audio and transcribes it.
type Recognizer interface {
	// Start begins capturing and delivering results to cb.
	Start(cb Callbacks) error
	// Stop ends capture gracefully; a final result and OnEnd may still fire.
	Stop()
	// Abort ends capture immediately. Implementations must not fire further
	// callbacks after Abort returns; the controller additionally discards
	// any that slip through.
	Abort()
}

// Synthesizer plays text as audio.
type Synthesizer interface {
	// Speak starts playback and calls done exactly once when playback
	// completes or fails.
	Speak(text string, done func(err error)) error
	// Cancel stops any in-progress playback immediately.
	Cancel()
}
