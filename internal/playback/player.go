package playback

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"syscall"
)

// Logger defines the logging interface for playback processes.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// PlayerConfig describes the external player binary. The media reference is
// appended to Args on each invocation.
type PlayerConfig struct {
	Binary string
	Args   []string
}

// Player plays one media clip at a time through an external player process.
//
// Starting a new clip terminates any clip still playing. Safe for
// concurrent use.
type Player struct {
	cfg    PlayerConfig
	logger Logger

	mu  sync.Mutex
	cmd *exec.Cmd

	// generation invalidates the exit callbacks of a process that was
	// superseded or deliberately stopped.
	generation uint64
}

// NewPlayer creates a player around the configured binary.
func NewPlayer(cfg PlayerConfig) *Player {
	return &Player{cfg: cfg, logger: noopLogger{}}
}

// SetLogger sets the player's logger.
func (p *Player) SetLogger(logger Logger) {
	p.logger = logger
}

// Play starts playback of one media reference. Exactly one of onEnd or
// onError fires when the process exits, unless the playback is superseded
// by another Play or halted by Pause first. A synchronous error means the
// process never started.
func (p *Player) Play(ref string, onEnd func(), onError func(err error)) error {
	if ref == "" {
		return errors.New("empty media reference")
	}

	args := make([]string, 0, len(p.cfg.Args)+1)
	args = append(args, p.cfg.Args...)
	args = append(args, ref)

	cmd := exec.Command(p.cfg.Binary, args...)
	// New process group so a halt can signal the player and any children.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	p.mu.Lock()
	p.terminateLocked()
	if err := cmd.Start(); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("starting %s: %w", p.cfg.Binary, err)
	}
	p.cmd = cmd
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	p.logger.Debug("playback started", "media", ref, "pid", cmd.Process.Pid)

	go func() {
		err := cmd.Wait()

		p.mu.Lock()
		current := gen == p.generation
		if current {
			p.cmd = nil
		}
		p.mu.Unlock()

		if !current {
			return
		}
		if err != nil {
			p.logger.Warn("playback exited with error", "media", ref, "error", err)
			onError(err)
			return
		}
		p.logger.Debug("playback ended", "media", ref)
		onEnd()
	}()

	return nil
}

// Pause halts the clip in flight. The halted clip's callbacks never fire.
func (p *Player) Pause() {
	p.mu.Lock()
	p.terminateLocked()
	p.mu.Unlock()
}

// Rewind is a no-op: each Play starts its clip from the beginning.
func (p *Player) Rewind() {}

// Suspended always reports false: a subprocess player has no suspended
// transport state to resume.
func (p *Player) Suspended() bool { return false }

// Resume is a no-op counterpart to Suspended.
func (p *Player) Resume() error { return nil }

// Playing reports whether a clip is currently in flight.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd != nil
}

// terminateLocked kills the current process group and invalidates its exit
// callbacks. Caller holds p.mu.
func (p *Player) terminateLocked() {
	if p.cmd == nil || p.cmd.Process == nil {
		return
	}
	p.generation++
	pid := p.cmd.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		p.logger.Warn("failed to terminate player process", "pid", pid, "error", err)
	}
	p.cmd = nil
}
