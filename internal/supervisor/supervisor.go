package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Paintersrp/treekill/internal/killdomain"
)

// forceJoinBudget bounds the final unconditional wait for child exit after
// a forceful kill (spec.md §5's "≤ 2s poll budget"). A var, not a const, so
// tests can shrink it rather than waiting out the real budget.
var forceJoinBudget = 2 * time.Second

// Supervisor is the single public operation from spec.md §4.1: spawn one
// process tree, wait it out under a deadline, escalate to a forceful kill
// if needed, and guarantee every OS handle is released before returning.
//
// A Supervisor owns exactly one killdomain.Domain per call to
// RunWithTimeout and is reusable across sequential calls (spec.md §4.1's
// reuse rule), but rejects concurrent calls with ErrBusy — the single-writer
// discipline spec.md §5 requires of a kill domain.
type Supervisor struct {
	opts      Options
	newDomain func() killdomain.Domain
	events    chan<- Event

	mu      sync.Mutex
	running bool
}

// New constructs a Supervisor. events may be nil; when non-nil it receives a
// best-effort stream of state-machine notifications (see Event).
func New(opts Options, events chan<- Event) *Supervisor {
	return &Supervisor{
		opts:      opts.withDefaults(),
		newDomain: killdomain.New,
		events:    events,
	}
}

// RunWithTimeout implements spec.md §4.1's state machine verbatim:
// INIT -> SPAWNING -> WAITING -> {EXITED_NATURAL | KILLING_GRACEFUL ->
// KILLING_FORCE} -> RELEASE.
func (s *Supervisor) RunWithTimeout(ctx context.Context, req SpawnRequest, timeout time.Duration) (Outcome, error) {
	if timeout <= 0 {
		return Outcome{}, fmt.Errorf("%w: timeout must be positive", ErrInvalidArgument)
	}
	if req.Executable == "" {
		return Outcome{}, fmt.Errorf("%w: executable must not be empty", ErrInvalidArgument)
	}

	if !s.acquire() {
		return Outcome{}, ErrBusy
	}
	defer s.relinquish()

	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	domain := s.newDomain()

	// RELEASE is reached from every exit path — normal return, error
	// return, cancellation, or an unwinding panic — via this single
	// deferred call (spec.md §9's scoped-acquisition requirement).
	var releaseOnce sync.Once
	release := func() {
		releaseOnce.Do(func() {
			if err := domain.Release(); err != nil {
				sendEvent(s.events, EventError, "release failed", err)
			}
			sendEvent(s.events, EventReleased, "kill domain released", nil)
		})
	}
	defer release()

	sendEvent(s.events, EventSpawning, "spawning child", nil)
	child, err := domain.SpawnAndAttach(ctx, killdomain.SpawnRequest{
		Executable: req.Executable,
		Argv:       req.Argv,
		WorkingDir: req.WorkingDir,
		Env:        req.Env,
	})
	if err != nil {
		spawnErr := &SpawnError{Err: err}
		sendEvent(s.events, EventError, "spawn failed", spawnErr)
		return Outcome{}, spawnErr
	}

	sendEventPID(s.events, EventWaiting, "waiting for exit or deadline", nil, child.PID)
	outcome, joinErr := s.wait(ctx, domain, child, timeout)
	outcome.Elapsed = time.Since(start)
	if joinErr != nil {
		sendEvent(s.events, EventError, "run did not complete cleanly", joinErr)
	}
	return outcome, joinErr
}

func (s *Supervisor) wait(ctx context.Context, domain killdomain.Domain, child *killdomain.Child, timeout time.Duration) (Outcome, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	select {
	case <-child.Done():
		sendEvent(s.events, EventExitedNatural, "child exited before deadline", nil)
		return Outcome{ExitCode: child.ExitCode()}, nil

	case <-deadline.C:
		return s.escalate(ctx, domain, child, false)

	case <-ctx.Done():
		return s.escalate(ctx, domain, child, true)
	}
}

// escalate runs KILLING_GRACEFUL then, if needed, KILLING_FORCE.
// cancelled reports whether external cancellation (rather than the
// timeout) triggered escalation; per spec.md §5 that collapses the grace
// window to zero instead of skipping it outright, since the graceful
// signal is still worth sending once.
func (s *Supervisor) escalate(ctx context.Context, domain killdomain.Domain, child *killdomain.Child, cancelled bool) (Outcome, error) {
	sendEvent(s.events, EventKillingGraceful, "sending graceful termination", nil)
	if err := domain.SignalTerminate(); err != nil {
		sendEvent(s.events, EventError, "graceful signal failed", err)
	}

	graceWindow := s.opts.GracefulWait
	if cancelled {
		graceWindow = 0
	}

	graceStart := time.Now()
	graceTimer := time.NewTimer(graceWindow)
	defer graceTimer.Stop()

	select {
	case <-child.Done():
		return Outcome{
			ExitCode:           child.ExitCode(),
			TimedOut:           true,
			GracefulWindowUsed: time.Since(graceStart),
		}, nil

	case <-graceTimer.C:
		// Ordinary escalation: the grace window elapsed with no exit.

	case <-ctx.Done():
		// Cancellation firing again mid-grace-window collapses what's
		// left of it to zero; fall through to force immediately.
	}

	gracefulUsed := time.Since(graceStart)
	return s.force(domain, child, gracefulUsed)
}

// force runs KILLING_FORCE: an unconditional, unblockable kill followed by
// a bounded join. Once this has started the machine runs to RELEASE
// regardless of further cancellation (spec.md §5).
func (s *Supervisor) force(domain killdomain.Domain, child *killdomain.Child, gracefulUsed time.Duration) (Outcome, error) {
	sendEvent(s.events, EventKillingForce, "sending forceful termination", nil)
	if err := domain.TerminateNow(); err != nil {
		sendEvent(s.events, EventError, "forceful kill failed", err)
	}

	select {
	case <-child.Done():
		return Outcome{
			ExitCode:             child.ExitCode(),
			TimedOut:             true,
			GracefulWindowUsed:   gracefulUsed,
			KillEscalatedToForce: true,
		}, nil

	case <-time.After(forceJoinBudget):
		outcome := Outcome{
			TimedOut:             true,
			GracefulWindowUsed:   gracefulUsed,
			KillEscalatedToForce: true,
		}
		return outcome, ErrTerminationIncomplete
	}
}

func (s *Supervisor) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Supervisor) relinquish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}
