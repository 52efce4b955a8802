package sequencer

import (
	"time"

	"github.com/hollyward/showbox-core/internal/script"
)

// Playback timing. Error recovery is slower than the line-to-line pause so
// listeners register that something was skipped rather than hearing an
// abrupt jump.
const (
	// interLinePause spaces consecutive script lines so dependent
	// animation cues settle between them.
	interLinePause = 300 * time.Millisecond

	// errorGrace is the delay before advancing past an item whose
	// playback failed mid-stream.
	errorGrace = 1000 * time.Millisecond

	// startFailureSkip is the delay before skipping an item whose
	// playback never started (missing or corrupt asset).
	startFailureSkip = 2000 * time.Millisecond
)

// cursorIdle is the cursor sentinel for "not started".
const cursorIdle = -1

// Event identifies one sequencer lifecycle event.
type Event string

const (
	// EventItemStart fires just before an item's media begins playing.
	EventItemStart Event = "onItemStart"
	// EventItemEnd fires after an item finishes or is skipped.
	EventItemEnd Event = "onItemEnd"
	// EventComplete fires once when the last item has ended.
	EventComplete Event = "onComplete"
)

// Handler receives a lifecycle event. For EventComplete the item argument
// is the zero value.
type Handler func(item script.Item)

// Player is the consumed media-playback capability.
//
// Play starts one asynchronous playback; exactly one of onEnd or onError
// fires when it resolves. A Play error returned synchronously means
// playback never started (neither callback will fire). Pause and Rewind
// halt and reset the transport; Resume reverses a suspension imposed by
// the audio subsystem (not by Pause).
type Player interface {
	Play(ref string, onEnd func(), onError func(err error)) error
	Pause()
	Rewind()
	Resume() error
	Suspended() bool
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

// Logger is the logging interface the sequencer needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
