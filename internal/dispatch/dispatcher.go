package dispatch

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/hollyward/showbox-core/internal/device"
)

// defaultRetryDelay is the fixed delay before a reconnect attempt.
// No backoff, no attempt limit: the channel must self-heal mid-show.
const defaultRetryDelay = 5 * time.Second

// Dispatcher resolves logical characters to device addresses and publishes
// typed commands over the messaging channel.
//
// There is exactly one live dispatcher per running show; the cardinality is
// upheld by construction in the wiring code, not enforced here.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Dispatcher struct {
	channel   Channel
	directory *device.Directory
	sched     Scheduler
	logger    Logger

	mu         sync.Mutex
	state      State
	status     map[string]any
	onStatus   func(map[string]any)
	onState    func(State)
	retryDelay time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithScheduler substitutes the timer implementation (used by tests).
func WithScheduler(s Scheduler) Option {
	return func(d *Dispatcher) { d.sched = s }
}

// WithRetryDelay overrides the fixed reconnect delay.
func WithRetryDelay(delay time.Duration) Option {
	return func(d *Dispatcher) { d.retryDelay = delay }
}

// WithLogger sets the dispatcher's logger.
func WithLogger(l Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// New creates a dispatcher over the given channel and device directory.
func New(channel Channel, directory *device.Directory, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		channel:    channel,
		directory:  directory,
		sched:      realScheduler{},
		logger:     noopLogger{},
		state:      StateDisconnected,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(d)
	}

	channel.SetOnConnectionLost(d.handleConnectionLost)
	return d
}

// State returns the current connection state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Status returns the last-known device status snapshot, or nil if none has
// arrived yet. The snapshot is replaced wholesale by each inbound message.
func (d *Dispatcher) Status() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// OnStatusChange registers the observer notified after each parsed inbound
// status message. Only one observer is supported; a second call replaces it.
func (d *Dispatcher) OnStatusChange(fn func(map[string]any)) {
	d.mu.Lock()
	d.onStatus = fn
	d.mu.Unlock()
}

// OnStateChange registers the observer notified after each connection state
// transition. Only one observer is supported; a second call replaces it.
func (d *Dispatcher) OnStateChange(fn func(State)) {
	d.mu.Lock()
	d.onState = fn
	d.mu.Unlock()
}

// notifyState delivers a state transition to the observer, if any.
// Callers must not hold d.mu.
func (d *Dispatcher) notifyState(next State) {
	d.mu.Lock()
	observer := d.onState
	d.mu.Unlock()

	if observer != nil {
		observer(next)
	}
}

// Connect starts the connection lifecycle.
//
// It is idempotent: a call while Connecting or Connected is a no-op. On
// failure the dispatcher moves to ReconnectPending and retries after the
// fixed delay, forever.
func (d *Dispatcher) Connect() {
	d.mu.Lock()
	if d.state == StateConnecting || d.state == StateConnected {
		d.mu.Unlock()
		return
	}
	d.state = StateConnecting
	d.mu.Unlock()

	d.notifyState(StateConnecting)
	d.logger.Info("connecting to command channel")

	err := d.channel.Dial(d.handleConnected, d.handleConnectFailed)
	if err != nil {
		d.handleConnectFailed(err)
	}
}

// handleConnected runs when a connection attempt succeeds.
//
// It subscribes to the status topic of the first configured device, the
// default status feed for simple consumers, before exposing the Connected
// state.
func (d *Dispatcher) handleConnected() {
	if dev, ok := d.directory.Get(0); ok {
		topic := dev.Topic + "/status"
		if err := d.channel.Subscribe(topic, d.handleStatusMessage); err != nil {
			d.logger.Warn("status subscription failed", "topic", topic, "error", err)
		}
	}

	d.mu.Lock()
	d.state = StateConnected
	d.mu.Unlock()

	d.notifyState(StateConnected)
	d.logger.Info("command channel connected")
}

// handleConnectFailed runs when a connection attempt fails.
func (d *Dispatcher) handleConnectFailed(err error) {
	d.logger.Warn("command channel connect failed", "error", err)
	d.scheduleReconnect()
}

// handleConnectionLost runs when an established connection drops.
func (d *Dispatcher) handleConnectionLost(err error) {
	d.logger.Warn("command channel connection lost", "error", err)
	d.scheduleReconnect()
}

// scheduleReconnect moves to ReconnectPending and arms the retry timer.
// A timer is armed only on the transition, so concurrent failures collapse
// into a single pending retry.
func (d *Dispatcher) scheduleReconnect() {
	d.mu.Lock()
	if d.state == StateReconnectPending {
		d.mu.Unlock()
		return
	}
	d.state = StateReconnectPending
	delay := d.retryDelay
	d.mu.Unlock()

	d.notifyState(StateReconnectPending)

	d.sched.AfterFunc(delay, func() {
		d.mu.Lock()
		if d.state != StateReconnectPending {
			// A newer transition superseded this retry.
			d.mu.Unlock()
			return
		}
		d.state = StateDisconnected
		d.mu.Unlock()
		d.notifyState(StateDisconnected)
		d.Connect()
	})
}

// Send publishes a typed command to the device at deviceIndex.
//
// The wire payload is a JSON object {"action": action, ...payload} published
// to <device topic>/cmd. The message is silently dropped when the channel is
// not Connected or the index is out of range: no queueing, no error. A
// publish failure triggers the reconnect cycle.
func (d *Dispatcher) Send(action string, payload map[string]any, deviceIndex int) {
	d.mu.Lock()
	connected := d.state == StateConnected
	d.mu.Unlock()

	if !connected {
		d.logger.Debug("command dropped, channel not connected", "action", action)
		return
	}

	dev, ok := d.directory.Get(deviceIndex)
	if !ok {
		d.logger.Warn("command dropped, device index out of range",
			"action", action,
			"device_index", deviceIndex,
		)
		return
	}

	msg := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		msg[k] = v
	}
	msg["action"] = action

	data, err := json.Marshal(msg)
	if err != nil {
		d.logger.Warn("command dropped, payload not serialisable", "action", action, "error", err)
		return
	}

	topic := dev.Topic + "/cmd"
	if err := d.channel.Publish(topic, data); err != nil {
		d.logger.Warn("publish failed", "topic", topic, "action", action, "error", err)
		d.scheduleReconnect()
		return
	}

	d.logger.Debug("command published", "topic", topic, "action", action)
}

// SendAnimationCue resolves a character name and sends an animation command.
//
// Example: SendAnimationCue("sam", "speaking", "on") publishes
// {"action":"anim","type":"speaking","state":"on"} to Sam's box.
func (d *Dispatcher) SendAnimationCue(character, cueType, state string) {
	index := d.directory.Resolve(character)
	d.Send("anim", map[string]any{"type": cueType, "state": state}, index)
}

// SendSolve reports a solved puzzle for the named kid.
func (d *Dispatcher) SendSolve(kid string) {
	d.Send("solve", map[string]any{"kid": kid}, 0)
}

// SendReady reports finale readiness for the named kid.
func (d *Dispatcher) SendReady(kid string, ready bool) {
	d.Send("finale_ready", map[string]any{"kid": kid, "ready": ready}, 0)
}

// SendUnlock commands the default box to unlock.
func (d *Dispatcher) SendUnlock() {
	d.Send("unlock", nil, 0)
}

// SendLock commands the default box to lock.
func (d *Dispatcher) SendLock() {
	d.Send("lock", nil, 0)
}

// SendReset commands the default box to reset.
func (d *Dispatcher) SendReset() {
	d.Send("reset", nil, 0)
}

// handleStatusMessage parses an inbound status payload.
//
// A successful parse replaces the snapshot and notifies the observer.
// Malformed payloads are logged and otherwise ignored: no state change,
// no reconnect.
func (d *Dispatcher) handleStatusMessage(topic string, payload []byte) error {
	var parsed map[string]any
	if err := json.Unmarshal(payload, &parsed); err != nil {
		d.logger.Warn("malformed status payload dropped", "topic", topic, "error", err)
		return nil
	}

	d.mu.Lock()
	d.status = parsed
	observer := d.onStatus
	d.mu.Unlock()

	if observer != nil {
		observer(parsed)
	}
	return nil
}
