package middleware

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/relayplane/gateway/internal/domain/service"
)

// SupervisorEventKind tags one child-process lifecycle event (spec 4.M).
type SupervisorEventKind string

const (
	EventStarted            SupervisorEventKind = "started"
	EventCrash              SupervisorEventKind = "crash"
	EventError              SupervisorEventKind = "error"
	EventStopped            SupervisorEventKind = "stopped"
	EventMaxRestartsExceeded SupervisorEventKind = "max-restarts-exceeded"
)

// SupervisorEvent is published to the supervisor's single observer.
type SupervisorEvent struct {
	Kind   SupervisorEventKind
	PID    int
	Code   int
	Signal string
	Err    error
}

// SupervisorObserver receives lifecycle events, invoked synchronously.
type SupervisorObserver func(SupervisorEvent)

// Supervisor spawns and restarts a launcher binary with inherited
// environment plus overrides, recording a breaker failure and applying
// exponential restart backoff on unexpected exit (component M).
type Supervisor struct {
	mu sync.Mutex

	launcherPath string
	args         []string
	envOverrides map[string]string

	breaker *Breaker
	clock   service.Clock
	logger  *zap.Logger

	observer SupervisorObserver

	baseDelay   time.Duration
	maxDelay    time.Duration
	currentDelay time.Duration
	maxAttempts int
	windowMillis int64

	restartTimestamps []int64

	cmd          *exec.Cmd
	restartTimer *time.Timer
	manualStop   bool
	destroyed    bool
}

// NewSupervisor builds a supervisor for launcherPath, restarting up to
// maxAttempts times within windowMillis, backing off from baseDelay up to
// maxDelay (doubling each unexpected exit).
func NewSupervisor(launcherPath string, args []string, envOverrides map[string]string, breaker *Breaker, clock service.Clock, logger *zap.Logger, maxAttempts int, windowMillis int64, baseDelay, maxDelay time.Duration) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if windowMillis <= 0 {
		windowMillis = 60_000
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	return &Supervisor{
		launcherPath: launcherPath,
		args:         args,
		envOverrides: envOverrides,
		breaker:      breaker,
		clock:        clock,
		logger:       logger,
		baseDelay:    baseDelay,
		maxDelay:     maxDelay,
		currentDelay: baseDelay,
		maxAttempts:  maxAttempts,
		windowMillis: windowMillis,
	}
}

// SetObserver installs the single lifecycle-event observer.
func (s *Supervisor) SetObserver(o SupervisorObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = o
}

func (s *Supervisor) emit(ev SupervisorEvent) {
	if s.observer != nil {
		s.observer(ev)
	}
}

// Start launches the child. Idempotent when the child is already alive.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked()
}

func (s *Supervisor) startLocked() error {
	if s.cmd != nil && s.cmd.Process != nil && !s.processExited() {
		return nil
	}

	cmd := exec.Command(s.launcherPath, s.args...)
	cmd.Env = s.buildEnv()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("supervisor: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("supervisor: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		s.emit(SupervisorEvent{Kind: EventError, Err: err})
		return fmt.Errorf("supervisor: start: %w", err)
	}

	s.cmd = cmd
	s.manualStop = false
	pid := cmd.Process.Pid

	go s.pipeLines(stdout, "stdout", pid)
	go s.pipeLines(stderr, "stderr", pid)
	go s.awaitExit(cmd, pid)

	s.emit(SupervisorEvent{Kind: EventStarted, PID: pid})
	s.logger.Info("supervisor: child started", zap.Int("pid", pid))
	return nil
}

func (s *Supervisor) processExited() bool {
	if s.cmd.ProcessState != nil {
		return true
	}
	return s.cmd.Process.Signal(syscall.Signal(0)) != nil
}

// buildEnv inherits the process environment plus configured overrides.
func (s *Supervisor) buildEnv() []string {
	env := os.Environ()
	for k, v := range s.envOverrides {
		env = append(env, k+"="+v)
	}
	return env
}

// pipeLines line-splits a child stream and forwards it to the host log,
// prefixed by stream name and pid (spec 4.M).
func (s *Supervisor) pipeLines(r io.Reader, stream string, pid int) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		s.logger.Info("supervisor: child output",
			zap.Int("pid", pid),
			zap.String("stream", stream),
			zap.String("line", scanner.Text()),
		)
	}
}

// awaitExit blocks on the child's exit and decides whether to restart.
func (s *Supervisor) awaitExit(cmd *exec.Cmd, pid int) {
	err := cmd.Wait()

	s.mu.Lock()
	manual := s.manualStop
	destroyed := s.destroyed
	s.mu.Unlock()

	if manual || destroyed {
		s.emit(SupervisorEvent{Kind: EventStopped, PID: pid})
		return
	}

	code, signal := exitDetails(err)
	s.emit(SupervisorEvent{Kind: EventCrash, PID: pid, Code: code, Signal: signal})
	s.logger.Warn("supervisor: child crashed", zap.Int("pid", pid), zap.Int("code", code), zap.String("signal", signal))

	if s.breaker != nil {
		s.breaker.RecordFailure()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.scheduleRestartLocked()
}

func exitDetails(err error) (code int, signal string) {
	if err == nil {
		return 0, ""
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				return -1, status.Signal().String()
			}
			return status.ExitStatus(), ""
		}
		return exitErr.ExitCode(), ""
	}
	return -1, ""
}

// scheduleRestartLocked prunes the restart-timestamp window and either
// schedules a restart at the current backoff delay (doubling it, capped at
// maxDelay) or, once maxAttempts is exceeded within the window, emits
// max-restarts-exceeded and stops trying (spec 4.M).
func (s *Supervisor) scheduleRestartLocked() {
	now := s.clock.NowMillis()
	s.restartTimestamps = pruneRestartWindow(s.restartTimestamps, now, s.windowMillis)

	if len(s.restartTimestamps) >= s.maxAttempts {
		s.emit(SupervisorEvent{Kind: EventMaxRestartsExceeded})
		s.logger.Error("supervisor: max restarts exceeded, giving up")
		return
	}

	s.restartTimestamps = append(s.restartTimestamps, now)
	delay := s.currentDelay
	s.currentDelay *= 2
	if s.currentDelay > s.maxDelay {
		s.currentDelay = s.maxDelay
	}

	s.restartTimer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.destroyed || s.manualStop {
			return
		}
		if err := s.startLocked(); err != nil {
			s.emit(SupervisorEvent{Kind: EventError, Err: err})
		}
	})
}

func pruneRestartWindow(timestamps []int64, now, windowMillis int64) []int64 {
	cutoff := now - windowMillis
	out := timestamps[:0]
	for _, t := range timestamps {
		if t >= cutoff {
			out = append(out, t)
		}
	}
	return out
}

// Stop manually terminates the child and resets the restart backoff.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *Supervisor) stopLocked() error {
	s.manualStop = true
	s.currentDelay = s.baseDelay
	if s.restartTimer != nil {
		s.restartTimer.Stop()
	}
	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}
	_ = syscall.Kill(-s.cmd.Process.Pid, syscall.SIGTERM)

	done := make(chan struct{})
	go func() { _, _ = s.cmd.Process.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		_ = syscall.Kill(-s.cmd.Process.Pid, syscall.SIGKILL)
	}
	return nil
}

// Restart stops and immediately restarts the child, resetting backoff.
func (s *Supervisor) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.stopLocked(); err != nil {
		return err
	}
	s.manualStop = false
	return s.startLocked()
}

// Destroy tears the supervisor down permanently; no timer survives it.
func (s *Supervisor) Destroy(ctx context.Context) error {
	s.mu.Lock()
	s.destroyed = true
	s.mu.Unlock()
	return s.Stop()
}
