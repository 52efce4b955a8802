package sequencer

import (
	"sync"

	"github.com/hollyward/showbox-core/internal/audio"
	"github.com/hollyward/showbox-core/internal/script"
)

// Sequencer advances through a loaded script item by item.
//
// There is exactly one live sequencer per running show (construction
// discipline, not enforcement). All methods are safe for concurrent use;
// handlers are invoked without internal locks held.
type Sequencer struct {
	player  Player
	sampler *audio.Sampler
	sched   Scheduler
	logger  Logger

	mu       sync.Mutex
	items    []script.Item
	cursor   int
	playing  bool
	handlers map[Event]Handler

	// generation invalidates stale playback callbacks and advance timers
	// after a Stop, Load, or Play reset. A continuation only acts if its
	// captured generation is current.
	generation uint64
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithScheduler substitutes the timer implementation (used by tests).
func WithScheduler(s Scheduler) Option {
	return func(seq *Sequencer) { seq.sched = s }
}

// WithLogger sets the sequencer's logger.
func WithLogger(l Logger) Option {
	return func(seq *Sequencer) { seq.logger = l }
}

// New creates a sequencer with no script loaded.
//
// Parameters:
//   - player: Media playback capability
//   - sampler: Amplitude sampler to wire into the playback chain on first
//     Play (may be nil when no visual consumer polls amplitude)
func New(player Player, sampler *audio.Sampler, opts ...Option) *Sequencer {
	s := &Sequencer{
		player:   player,
		sampler:  sampler,
		sched:    realScheduler{},
		logger:   noopLogger{},
		cursor:   cursorIdle,
		handlers: make(map[Event]Handler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// On registers a handler for one of the three lifecycle events. Unknown
// event names are ignored.
func (s *Sequencer) On(event Event, handler Handler) {
	switch event {
	case EventItemStart, EventItemEnd, EventComplete:
	default:
		s.logger.Debug("ignoring unknown sequencer event", "event", string(event))
		return
	}
	s.mu.Lock()
	s.handlers[event] = handler
	s.mu.Unlock()
}

// Load replaces the script. Loading is always a hard reset: any playback
// in progress is stopped and the cursor returns to idle.
func (s *Sequencer) Load(items []script.Item) {
	s.Stop()
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	s.logger.Debug("script loaded", "items", len(items))
}

// Play starts or restarts playback. No-op when the script is empty. If the
// cursor is idle or past the end, playback restarts from the first item.
func (s *Sequencer) Play() {
	// Wire the amplitude sampler into the playback chain once. Attach is
	// idempotent so repeated Play calls are harmless.
	if s.sampler != nil {
		if source, ok := s.player.(audio.SpectrumSource); ok {
			s.sampler.Attach(source)
		}
	}

	if s.player.Suspended() {
		if err := s.player.Resume(); err != nil {
			s.logger.Warn("audio resume failed", "error", err)
		}
	}

	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		return
	}
	if s.cursor < 0 || s.cursor >= len(s.items) {
		s.cursor = 0
	}
	s.playing = true
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	s.playCurrent(gen)
}

// Stop halts playback immediately and resets the cursor to idle. A stopped
// show never fires its pending onComplete.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	s.generation++
	s.playing = false
	s.cursor = cursorIdle
	s.mu.Unlock()

	s.player.Pause()
	s.player.Rewind()
}

// Playing reports whether a script is currently being played.
func (s *Sequencer) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Cursor returns the current item index, or -1 when idle.
func (s *Sequencer) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// playCurrent plays the item under the cursor, or completes the show when
// the cursor has moved past the last item.
func (s *Sequencer) playCurrent(gen uint64) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	if s.cursor >= len(s.items) {
		s.playing = false
		onComplete := s.handlers[EventComplete]
		s.mu.Unlock()

		s.logger.Debug("script complete")
		if onComplete != nil {
			onComplete(script.Item{})
		}
		return
	}
	item := s.items[s.cursor]
	index := s.cursor
	onStart := s.handlers[EventItemStart]
	s.mu.Unlock()

	s.logger.Debug("item start", "index", index, "character", item.Character, "media", item.MediaRef)
	if onStart != nil {
		onStart(item)
	}

	err := s.player.Play(item.MediaRef,
		func() { s.handlePlaybackEnd(gen) },
		func(playErr error) { s.handlePlaybackError(gen, playErr) },
	)
	if err != nil {
		// Asset never started. Skip it after a grace delay rather than
		// stalling the whole show.
		s.logger.Warn("playback failed to start", "media", item.MediaRef, "error", err)
		s.sched.AfterFunc(startFailureSkip, func() { s.next(gen) })
	}
}

// handlePlaybackEnd advances on a natural end-of-media notification.
func (s *Sequencer) handlePlaybackEnd(gen uint64) {
	s.next(gen)
}

// handlePlaybackError advances past a mid-stream failure after a grace
// delay.
func (s *Sequencer) handlePlaybackError(gen uint64, err error) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.logger.Warn("playback error", "error", err)
	s.sched.AfterFunc(errorGrace, func() { s.next(gen) })
}

// next fires the end event for the item under the cursor, advances, and
// schedules the inter-line pause before the following item.
func (s *Sequencer) next(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.cursor >= len(s.items) {
		s.mu.Unlock()
		return
	}
	item := s.items[s.cursor]
	s.cursor++
	onEnd := s.handlers[EventItemEnd]
	s.mu.Unlock()

	if onEnd != nil {
		onEnd(item)
	}

	s.sched.AfterFunc(interLinePause, func() { s.playCurrent(gen) })
}
