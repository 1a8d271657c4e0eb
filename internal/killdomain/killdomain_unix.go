//go:build !windows

package killdomain

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/Paintersrp/treekill/internal/descendants"
)

const (
	// forceKillPasses bounds the no-session fallback's repeated SIGKILL
	// sweeps; descendants can fork between one pass and the next, so a
	// single pass is not sufficient — see SPEC_FULL.md §4.2.
	forceKillPasses   = 5
	forceKillInterval = 150 * time.Millisecond
)

func newPlatformDomain() Domain {
	return &unixDomain{}
}

// unixDomain implements the session-leader strategy from SPEC_FULL.md §4.2:
// the child is started as a session leader (PGID == PID == SID) so that
// signalling the negated PGID reaches every process in the group, present
// and future, in one syscall. If session-leader setup is rejected by the
// kernel, it falls back to walking descendants.Of and signalling each
// process directly.
type unixDomain struct {
	mu          sync.Mutex
	cmd         *exec.Cmd
	child       *Child
	sessionMode bool
	released    bool
}

func (d *unixDomain) SpawnAndAttach(ctx context.Context, req SpawnRequest) (*Child, error) {
	cmd, sessionMode, err := startInSession(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("killdomain: spawn: %w", err)
	}

	child := NewChild(cmd.Process.Pid)

	d.mu.Lock()
	d.cmd = cmd
	d.child = child
	d.sessionMode = sessionMode
	d.mu.Unlock()

	go func() {
		err := cmd.Wait()
		child.MarkExited(exitCodeOf(cmd, err), err)
	}()

	return child, nil
}

// startInSession tries Setsid first (the strategy SPEC_FULL.md §4.2 names
// as the primary path — performed in-process, no external setsid(1)
// helper). If the kernel rejects it (observed under some container init
// configurations that already hold the session), it retries once without
// Setsid and the caller falls back to the descendant-walking kill path.
func startInSession(ctx context.Context, req SpawnRequest) (*exec.Cmd, bool, error) {
	cmd, err := buildCmd(ctx, req, true)
	if err == nil {
		if startErr := cmd.Start(); startErr == nil {
			return cmd, true, nil
		}
	}

	cmd, err = buildCmd(ctx, req, false)
	if err != nil {
		return nil, false, err
	}
	if err := cmd.Start(); err != nil {
		return nil, false, err
	}
	return cmd, false, nil
}

func buildCmd(ctx context.Context, req SpawnRequest, setsid bool) (*exec.Cmd, error) {
	cmd := exec.CommandContext(ctx, req.Executable, req.Argv...)
	cmd.Dir = req.WorkingDir
	cmd.Env = mergedEnv(req.Env)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: setsid}
	return cmd, nil
}

func (d *unixDomain) SignalTerminate() error {
	return d.signal(syscall.SIGTERM, 1)
}

func (d *unixDomain) TerminateNow() error {
	return d.signal(syscall.SIGKILL, forceKillPasses)
}

func (d *unixDomain) signal(sig syscall.Signal, passes int) error {
	d.mu.Lock()
	child := d.child
	sessionMode := d.sessionMode
	d.mu.Unlock()

	if child == nil {
		return ErrNotAttached
	}

	if sessionMode {
		// One signal to the negated PGID reaches the whole group,
		// including anything it spawns after this call — no repeat
		// passes needed.
		if err := kill(-child.PID, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("killdomain: signal group -%d: %w", child.PID, err)
		}
		return nil
	}

	// No-session fallback: walk descendants leaves-first, then the root
	// last, repeating to close the race against processes forking
	// between one enumeration and the next.
	var lastErr error
	for pass := 0; pass < passes; pass++ {
		victims, err := descendants.Of(child.PID)
		if err != nil {
			lastErr = err
		} else {
			for _, pid := range victims {
				if err := kill(pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
					lastErr = err
				}
			}
		}
		if err := kill(child.PID, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
			lastErr = err
		}

		if passes == 1 {
			break
		}
		if child.HasExited() {
			break
		}
		time.Sleep(forceKillInterval)
	}
	return lastErr
}

func (d *unixDomain) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil
	}
	d.released = true
	if d.cmd != nil && d.cmd.Process != nil {
		// The OS process has already been reaped by cmd.Wait(); Release
		// drops the last in-process reference to its resources.
		_ = d.cmd.Process.Release()
	}
	return nil
}

func kill(pid int, sig syscall.Signal) error {
	return syscall.Kill(pid, sig)
}

func exitCodeOf(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
