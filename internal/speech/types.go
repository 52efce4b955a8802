package speech

import "time"

// SystemCharacter is the sentinel character for narrator lines that belong
// to no box. System utterances get no speaking cues.
const SystemCharacter = "system"

// Voice is one available synthesis voice.
type Voice struct {
	Name string
}

// VoiceParams are the resolved synthesis parameters for one utterance.
type VoiceParams struct {
	// Voice is the selected voice name, or empty for the engine default.
	Voice  string
	Pitch  float64
	Rate   float64
	Volume float64
}

// Options are per-request overrides. A zero field means "use the
// character's table-derived default".
type Options struct {
	Rate   float64
	Pitch  float64
	Volume float64
}

// Request is one queued narration request. It is consumed exactly once.
type Request struct {
	Text      string
	Character string
	Options   Options
}

// Synthesizer is the consumed speech-synthesis capability.
//
// Speak starts one asynchronous synthesis; exactly one of onEnd or onError
// fires when it resolves naturally. A Speak error returned synchronously
// means the utterance never started (neither callback will fire). Cancel
// suppresses the in-flight utterance's callbacks entirely; callers own any
// cleanup for a cancelled utterance.
type Synthesizer interface {
	Speak(text string, params VoiceParams, onEnd func(), onError func(err error)) error
	Voices() []Voice
	Cancel()
}

// CueSender delivers speaking cues to character devices.
// Satisfied by dispatch.Dispatcher.
type CueSender interface {
	SendAnimationCue(character, cueType, state string)
}

// Scheduler schedules delayed work. The production implementation is
// time.AfterFunc; tests substitute a manual scheduler.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

// realScheduler runs callbacks on standard library timers.
type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// Logger is the logging interface the queue needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
