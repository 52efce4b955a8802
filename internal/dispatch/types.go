package dispatch

import "time"

// State represents the dispatcher's connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnectPending
)

// String returns the lowercase state name for logging.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnectPending:
		return "reconnect_pending"
	default:
		return "unknown"
	}
}

// Channel is the messaging transport the dispatcher drives.
//
// A Dial is one asynchronous connection attempt; exactly one of the two
// callbacks fires. The dispatcher re-subscribes after every reconnect, so
// the channel does not need to restore subscriptions itself.
type Channel interface {
	Dial(onSuccess func(), onFailure func(err error)) error
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler func(topic string, payload []byte) error) error
	SetOnConnectionLost(callback func(err error))
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

// Logger is the logging interface the dispatcher needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
