package playback

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"syscall"

	"github.com/hollyward/showbox-core/internal/speech"
)

// Baseline values the synthesis binary uses when no flag is given. Voice
// parameters are expressed as multipliers of these.
const (
	basePitch     = 50  // espeak pitch scale 0-99
	baseWordsPM   = 175 // words per minute
	baseAmplitude = 100 // amplitude scale 0-200
)

// SynthConfig describes the external synthesis binary and its voice set.
type SynthConfig struct {
	Binary string
	Args   []string

	// Voices lists the voice names the binary offers, in order. The
	// binary is not asked to enumerate them at runtime.
	Voices []string
}

// Synthesizer speaks one utterance at a time through an external synthesis
// process. Safe for concurrent use.
type Synthesizer struct {
	cfg    SynthConfig
	logger Logger

	mu         sync.Mutex
	cmd        *exec.Cmd
	generation uint64
}

// NewSynthesizer creates a synthesizer around the configured binary.
func NewSynthesizer(cfg SynthConfig) *Synthesizer {
	return &Synthesizer{cfg: cfg, logger: noopLogger{}}
}

// SetLogger sets the synthesizer's logger.
func (s *Synthesizer) SetLogger(logger Logger) {
	s.logger = logger
}

// Voices returns the configured voice set.
func (s *Synthesizer) Voices() []speech.Voice {
	voices := make([]speech.Voice, len(s.cfg.Voices))
	for i, name := range s.cfg.Voices {
		voices[i] = speech.Voice{Name: name}
	}
	return voices
}

// Speak synthesizes one utterance. Exactly one of onEnd or onError fires
// when the process exits, unless the utterance is cancelled first. A
// synchronous error means the process never started.
func (s *Synthesizer) Speak(text string, params speech.VoiceParams, onEnd func(), onError func(err error)) error {
	if text == "" {
		return errors.New("empty utterance")
	}

	cmd := exec.Command(s.cfg.Binary, s.buildArgs(text, params)...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	s.mu.Lock()
	s.cancelLocked()
	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("starting %s: %w", s.cfg.Binary, err)
	}
	s.cmd = cmd
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	s.logger.Debug("synthesis started", "voice", params.Voice, "pid", cmd.Process.Pid)

	go func() {
		err := cmd.Wait()

		s.mu.Lock()
		current := gen == s.generation
		if current {
			s.cmd = nil
		}
		s.mu.Unlock()

		if !current {
			return
		}
		if err != nil {
			onError(err)
			return
		}
		onEnd()
	}()

	return nil
}

// Cancel halts the utterance in flight. The cancelled utterance's
// callbacks never fire.
func (s *Synthesizer) Cancel() {
	s.mu.Lock()
	s.cancelLocked()
	s.mu.Unlock()
}

// buildArgs maps voice parameters onto the binary's flag conventions
// (espeak-ng style). The multipliers scale the binary's own baselines.
func (s *Synthesizer) buildArgs(text string, params speech.VoiceParams) []string {
	args := make([]string, 0, len(s.cfg.Args)+9)
	args = append(args, s.cfg.Args...)
	if params.Voice != "" {
		args = append(args, "-v", params.Voice)
	}
	if params.Pitch > 0 {
		args = append(args, "-p", strconv.Itoa(int(basePitch*params.Pitch)))
	}
	if params.Rate > 0 {
		args = append(args, "-s", strconv.Itoa(int(baseWordsPM*params.Rate)))
	}
	if params.Volume > 0 {
		args = append(args, "-a", strconv.Itoa(int(baseAmplitude*params.Volume)))
	}
	args = append(args, text)
	return args
}

// cancelLocked kills the current process group and invalidates its exit
// callbacks. Caller holds s.mu.
func (s *Synthesizer) cancelLocked() {
	if s.cmd == nil || s.cmd.Process == nil {
		return
	}
	s.generation++
	pid := s.cmd.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		s.logger.Warn("failed to cancel synthesis process", "pid", pid, "error", err)
	}
	s.cmd = nil
}
