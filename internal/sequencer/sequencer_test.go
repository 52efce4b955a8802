package sequencer

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/hollyward/showbox-core/internal/audio"
	"github.com/hollyward/showbox-core/internal/script"
)

// ─── Mock Dependencies ──────────────────────────────────────────────────────

// mockPlayer records playback requests and lets tests resolve them.
type mockPlayer struct {
	mu        sync.Mutex
	plays     []string
	errOn     map[string]error // synchronous Play failures by media ref
	onEnd     func()
	onError   func(error)
	paused    int
	rewound   int
	suspended bool
	resumed   int
}

func (m *mockPlayer) Play(ref string, onEnd func(), onError func(err error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.errOn[ref]; ok {
		return err
	}
	m.plays = append(m.plays, ref)
	m.onEnd = onEnd
	m.onError = onError
	return nil
}

func (m *mockPlayer) Pause()  { m.mu.Lock(); m.paused++; m.mu.Unlock() }
func (m *mockPlayer) Rewind() { m.mu.Lock(); m.rewound++; m.mu.Unlock() }

func (m *mockPlayer) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumed++
	m.suspended = false
	return nil
}

func (m *mockPlayer) Suspended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.suspended
}

// end resolves the playback in flight as a natural end.
func (m *mockPlayer) end() {
	m.mu.Lock()
	fn := m.onEnd
	m.mu.Unlock()
	fn()
}

// fail resolves the playback in flight as a mid-stream error.
func (m *mockPlayer) fail(err error) {
	m.mu.Lock()
	fn := m.onError
	m.mu.Unlock()
	fn(err)
}

func (m *mockPlayer) playCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.plays)
}

// spectrumPlayer is a mockPlayer that also exposes a frequency spectrum.
type spectrumPlayer struct {
	mockPlayer
}

func (p *spectrumPlayer) Spectrum() []byte { return []byte{128} }

// fakeScheduler collects scheduled callbacks for manual firing.
type fakeScheduler struct {
	mu      sync.Mutex
	pending []func()
}

func (s *fakeScheduler) AfterFunc(_ time.Duration, fn func()) {
	s.mu.Lock()
	s.pending = append(s.pending, fn)
	s.mu.Unlock()
}

func (s *fakeScheduler) fire() {
	s.mu.Lock()
	jobs := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, fn := range jobs {
		fn()
	}
}

// eventLog records lifecycle events in arrival order.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) record(kind string, item script.Item) {
	l.mu.Lock()
	if kind == "complete" {
		l.events = append(l.events, "complete")
	} else {
		l.events = append(l.events, fmt.Sprintf("%s:%s", kind, item.MediaRef))
	}
	l.mu.Unlock()
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	cpy := make([]string, len(l.events))
	copy(cpy, l.events)
	return cpy
}

func testScript(n int) []script.Item {
	items := make([]script.Item, n)
	for i := range items {
		items[i] = script.Item{
			Character: "sam",
			MediaRef:  fmt.Sprintf("clip%d.mp3", i),
			Text:      fmt.Sprintf("line %d", i),
		}
	}
	return items
}

func testSequencer(player Player) (*Sequencer, *eventLog, *fakeScheduler) {
	sched := &fakeScheduler{}
	log := &eventLog{}
	s := New(player, nil, WithScheduler(sched))
	s.On(EventItemStart, func(item script.Item) { log.record("start", item) })
	s.On(EventItemEnd, func(item script.Item) { log.record("end", item) })
	s.On(EventComplete, func(item script.Item) { log.record("complete", item) })
	return s, log, sched
}

// ─── Full Run ───────────────────────────────────────────────────────────────

func TestPlay_FullScriptFiresPairedEventsThenComplete(t *testing.T) {
	player := &mockPlayer{}
	s, log, sched := testSequencer(player)
	s.Load(testScript(3))

	s.Play()
	for i := 0; i < 3; i++ {
		player.end()
		sched.fire()
	}

	want := []string{
		"start:clip0.mp3", "end:clip0.mp3",
		"start:clip1.mp3", "end:clip1.mp3",
		"start:clip2.mp3", "end:clip2.mp3",
		"complete",
	}
	if got := log.all(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if s.Playing() {
		t.Error("Playing() = true after complete, want false")
	}
}

func TestPlay_SecondEndWaitsForPause(t *testing.T) {
	player := &mockPlayer{}
	s, _, sched := testSequencer(player)
	s.Load(testScript(2))

	s.Play()
	player.end()

	// The next item must not start until the inter-line pause elapses.
	if got := player.playCount(); got != 1 {
		t.Fatalf("plays before pause = %d, want 1", got)
	}
	sched.fire()
	if got := player.playCount(); got != 2 {
		t.Errorf("plays after pause = %d, want 2", got)
	}
}

func TestPlay_EmptyScriptIsNoop(t *testing.T) {
	player := &mockPlayer{}
	s, log, _ := testSequencer(player)

	s.Play()

	if got := player.playCount(); got != 0 {
		t.Errorf("plays = %d, want 0", got)
	}
	if got := log.all(); len(got) != 0 {
		t.Errorf("events = %v, want none", got)
	}
}

func TestPlay_RestartsAfterComplete(t *testing.T) {
	player := &mockPlayer{}
	s, _, sched := testSequencer(player)
	s.Load(testScript(1))

	s.Play()
	player.end()
	sched.fire()

	s.Play()
	if got := player.playCount(); got != 2 {
		t.Fatalf("plays = %d, want 2", got)
	}
	if got := s.Cursor(); got != 0 {
		t.Errorf("Cursor() after restart = %d, want 0", got)
	}
}

func TestPlay_ResumesSuspendedAudio(t *testing.T) {
	player := &mockPlayer{suspended: true}
	s, _, _ := testSequencer(player)
	s.Load(testScript(1))

	s.Play()

	if player.resumed != 1 {
		t.Errorf("Resume() called %d times, want 1", player.resumed)
	}
}

// ─── Failure Recovery ───────────────────────────────────────────────────────

func TestPlaybackError_AdvancesAfterGrace(t *testing.T) {
	player := &mockPlayer{}
	s, log, sched := testSequencer(player)
	s.Load(testScript(2))

	s.Play()
	player.fail(errors.New("decoder choked"))

	// Nothing advances until the grace delay fires.
	if got := log.all(); len(got) != 1 {
		t.Fatalf("events before grace = %v, want only start", got)
	}
	sched.fire() // grace delay: fires onItemEnd, schedules inter-line pause
	sched.fire() // inter-line pause: plays next item

	want := []string{"start:clip0.mp3", "end:clip0.mp3", "start:clip1.mp3"}
	if got := log.all(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestStartFailure_SkipsItem(t *testing.T) {
	player := &mockPlayer{errOn: map[string]error{"clip0.mp3": errors.New("no such file")}}
	s, log, sched := testSequencer(player)
	s.Load(testScript(2))

	s.Play()
	sched.fire() // skip delay: fires onItemEnd, schedules inter-line pause
	sched.fire() // inter-line pause: plays next item

	want := []string{"start:clip0.mp3", "end:clip0.mp3", "start:clip1.mp3"}
	if got := log.all(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

// ─── Stop and Load ──────────────────────────────────────────────────────────

func TestStop_SuppressesPendingComplete(t *testing.T) {
	player := &mockPlayer{}
	s, log, sched := testSequencer(player)
	s.Load(testScript(1))

	s.Play()
	player.end() // schedules the pause that would lead to complete
	s.Stop()
	sched.fire()

	for _, ev := range log.all() {
		if ev == "complete" {
			t.Fatal("onComplete fired after Stop")
		}
	}
	if got := s.Cursor(); got != -1 {
		t.Errorf("Cursor() after Stop = %d, want -1", got)
	}
	if player.paused == 0 || player.rewound == 0 {
		t.Error("Stop did not pause and rewind the transport")
	}
}

func TestStop_InvalidatesStalePlaybackEnd(t *testing.T) {
	player := &mockPlayer{}
	s, log, sched := testSequencer(player)
	s.Load(testScript(2))

	s.Play()
	s.Stop()
	player.end() // completion for a playback that was stopped
	sched.fire()

	want := []string{"start:clip0.mp3"}
	if got := log.all(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v (stale end must be ignored)", got, want)
	}
}

func TestLoad_IsAHardReset(t *testing.T) {
	player := &mockPlayer{}
	s, _, sched := testSequencer(player)
	s.Load(testScript(3))

	s.Play()
	s.Load(testScript(2))

	if s.Playing() {
		t.Error("Playing() = true after Load, want false")
	}
	if got := s.Cursor(); got != -1 {
		t.Errorf("Cursor() after Load = %d, want -1", got)
	}

	// The old show's end notification must not touch the new script.
	player.end()
	sched.fire()
	if got := player.playCount(); got != 1 {
		t.Errorf("plays = %d, want 1 (stale callback advanced new script)", got)
	}
}

// ─── Registration and Wiring ────────────────────────────────────────────────

func TestOn_UnknownEventIgnored(t *testing.T) {
	player := &mockPlayer{}
	s, log, sched := testSequencer(player)
	s.On(Event("onExplode"), func(script.Item) { t.Fatal("handler for unknown event invoked") })
	s.Load(testScript(1))

	s.Play()
	player.end()
	sched.fire()

	if got := log.all(); len(got) != 3 {
		t.Errorf("events = %v, want start/end/complete only", got)
	}
}

func TestPlay_AttachesSamplerOnce(t *testing.T) {
	player := &spectrumPlayer{}
	sampler := audio.NewSampler()
	s := New(player, sampler, WithScheduler(&fakeScheduler{}))
	s.Load(testScript(1))

	if sampler.Attached() {
		t.Fatal("sampler attached before first Play")
	}
	s.Play()
	if !sampler.Attached() {
		t.Fatal("sampler not attached by Play")
	}
	if got := sampler.Sample(); got == 0 {
		t.Errorf("Sample() = %v, want nonzero from attached source", got)
	}
}
