package speech

import (
	"strings"
	"sync"
	"time"

	"github.com/hollyward/showbox-core/internal/infrastructure/config"
)

// interUtterancePause spaces back-to-back utterances so narration reads
// naturally and box servos settle between lines.
const interUtterancePause = 250 * time.Millisecond

// Queue serializes narration requests.
//
// There is exactly one live queue per running show (construction
// discipline, not enforcement). All methods are safe for concurrent use.
type Queue struct {
	synth  Synthesizer
	cues   CueSender
	sched  Scheduler
	logger Logger
	cfg    config.SpeechConfig

	mu      sync.Mutex
	pending []Request
	busy    bool
	enabled bool

	// inFlight is the character of the utterance currently being
	// synthesized, empty when idle. Stop uses it to pair the off-cue for
	// an utterance whose callbacks the synthesizer will suppress.
	inFlight string

	// generation invalidates in-flight callbacks and pause timers after a
	// Stop. A continuation only acts if its captured generation is current.
	generation uint64
}

// Option configures a Queue.
type Option func(*Queue)

// WithScheduler substitutes the timer implementation (used by tests).
func WithScheduler(s Scheduler) Option {
	return func(q *Queue) { q.sched = s }
}

// WithLogger sets the queue's logger.
func WithLogger(l Logger) Option {
	return func(q *Queue) { q.logger = l }
}

// NewQueue creates a narration queue.
//
// Parameters:
//   - synth: Speech synthesis capability
//   - cues: Cue sender for speaking on/off signals (may be nil)
//   - cfg: Speech configuration (voice table, default rate, enabled flag)
func NewQueue(synth Synthesizer, cues CueSender, cfg config.SpeechConfig, opts ...Option) *Queue {
	q := &Queue{
		synth:   synth,
		cues:    cues,
		sched:   realScheduler{},
		logger:  noopLogger{},
		cfg:     cfg,
		enabled: cfg.Enabled,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// SetEnabled toggles narration globally. While disabled, Enqueue is a no-op;
// requests already queued still play out.
func (q *Queue) SetEnabled(enabled bool) {
	q.mu.Lock()
	q.enabled = enabled
	q.mu.Unlock()
}

// Len returns the number of requests waiting (not counting one in flight).
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Enqueue appends a narration request and starts processing if the queue is
// idle. Empty text and globally-disabled narration are silent no-ops.
func (q *Queue) Enqueue(text, character string, opts Options) {
	if text == "" {
		return
	}

	q.mu.Lock()
	if !q.enabled {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, Request{
		Text:      text,
		Character: character,
		Options:   opts,
	})
	q.mu.Unlock()

	q.processNext()
}

// Stop cancels the in-flight utterance and discards everything queued.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.generation++
	q.pending = nil
	q.busy = false
	speaking := q.inFlight
	q.inFlight = ""
	q.mu.Unlock()

	q.synth.Cancel()

	// Cancel suppresses the synthesizer's callbacks, so finish never runs
	// for the cancelled utterance. Pair its off-cue here: a Stop mid-line
	// must not leave a box stuck with its mouth open.
	if speaking != "" && speaking != SystemCharacter && q.cues != nil {
		q.cues.SendAnimationCue(speaking, "speaking", "off")
	}
}

// processNext dequeues and synthesizes one request if none is in flight.
func (q *Queue) processNext() {
	q.mu.Lock()
	if q.busy || len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}
	req := q.pending[0]
	q.pending = q.pending[1:]
	q.busy = true
	q.inFlight = req.Character
	gen := q.generation
	q.mu.Unlock()

	params := q.selectParams(req)

	q.logger.Debug("speaking",
		"character", req.Character,
		"voice", params.Voice,
		"text", req.Text,
	)

	// Bracket non-system utterances with speaking cues. The off-cue is
	// paired by finish on normal exits and by Stop for a cancelled
	// utterance.
	if req.Character != SystemCharacter && q.cues != nil {
		q.cues.SendAnimationCue(req.Character, "speaking", "on")
	}

	err := q.synth.Speak(req.Text, params,
		func() { q.finish(req, gen, nil) },
		func(speakErr error) { q.finish(req, gen, speakErr) },
	)
	if err != nil {
		q.finish(req, gen, err)
	}
}

// finish completes one utterance: pairs the speaking-off cue, then schedules
// the next dequeue after the inter-utterance pause. The queue stays busy
// through the pause so a request enqueued meanwhile cannot jump the gap.
func (q *Queue) finish(req Request, gen uint64, err error) {
	if err != nil {
		q.logger.Warn("synthesis failed", "character", req.Character, "error", err)
	}

	q.mu.Lock()
	if gen != q.generation {
		// Stop already paired this utterance's off-cue.
		q.mu.Unlock()
		return
	}
	q.inFlight = ""
	q.mu.Unlock()

	if req.Character != SystemCharacter && q.cues != nil {
		q.cues.SendAnimationCue(req.Character, "speaking", "off")
	}

	q.sched.AfterFunc(interUtterancePause, func() {
		q.mu.Lock()
		if gen != q.generation {
			q.mu.Unlock()
			return
		}
		q.busy = false
		q.mu.Unlock()
		q.processNext()
	})
}

// selectParams resolves voice parameters for a request: the character's
// profile supplies candidate voice names and a pitch, the config supplies
// the default rate, and any option explicitly set on the request wins.
func (q *Queue) selectParams(req Request) VoiceParams {
	params := VoiceParams{
		Pitch:  1.0,
		Rate:   q.cfg.DefaultRate,
		Volume: 1.0,
	}

	candidates := []string{q.cfg.DefaultVoice}
	if profile, ok := q.cfg.Voices[strings.ToLower(req.Character)]; ok {
		if len(profile.Names) > 0 {
			candidates = profile.Names
		}
		if profile.Pitch > 0 {
			params.Pitch = profile.Pitch
		}
	}

	params.Voice = q.resolveVoice(candidates)

	if req.Options.Pitch > 0 {
		params.Pitch = req.Options.Pitch
	}
	if req.Options.Rate > 0 {
		params.Rate = req.Options.Rate
	}
	if req.Options.Volume > 0 {
		params.Volume = req.Options.Volume
	}

	return params
}

// resolveVoice returns the name of the first available voice matching any
// candidate name, in candidate order. Matching is a case-insensitive
// substring test against the installed voice's name, for robustness across
// hosts with differing voice sets. Falls back to the first available voice;
// returns empty (engine default) when no voices are installed at all.
func (q *Queue) resolveVoice(candidates []string) string {
	voices := q.synth.Voices()

	for _, name := range candidates {
		if name == "" {
			continue
		}
		for _, v := range voices {
			if strings.Contains(strings.ToLower(v.Name), strings.ToLower(name)) {
				return v.Name
			}
		}
	}

	if len(voices) > 0 {
		return voices[0].Name
	}
	return ""
}
