//go:build !windows

package killdomain

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestUnixDomainSpawnAndNaturalExit(t *testing.T) {
	d := New()
	t.Cleanup(func() { _ = d.Release() })

	child, err := d.SpawnAndAttach(context.Background(), SpawnRequest{
		Executable: "/bin/sh",
		Argv:       []string{"-c", "exit 0"},
	})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	select {
	case <-child.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for natural exit")
	}

	if child.ExitCode() != 0 {
		t.Fatalf("exit code = %d, want 0", child.ExitCode())
	}
	if err := d.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := d.Release(); err != nil {
		t.Fatalf("second release must be a no-op, got: %v", err)
	}
}

func TestUnixDomainSessionModeKillsGroup(t *testing.T) {
	d := New()
	t.Cleanup(func() { _ = d.Release() })

	// The child spawns a grandchild and both sleep far longer than the
	// test; SignalTerminate must reach both via the negated PGID.
	child, err := d.SpawnAndAttach(context.Background(), SpawnRequest{
		Executable: "/bin/sh",
		Argv:       []string{"-c", "sleep 300 & sleep 300"},
	})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	ud, ok := d.(*unixDomain)
	if !ok {
		t.Fatalf("expected *unixDomain, got %T", d)
	}
	if !ud.sessionMode {
		t.Skip("session-leader setup unavailable in this sandbox")
	}

	if err := d.SignalTerminate(); err != nil {
		t.Fatalf("signal terminate: %v", err)
	}

	select {
	case <-child.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("process group did not exit after SIGTERM")
	}
}

func TestUnixDomainForceKillAfterGracefulTimeout(t *testing.T) {
	d := New()
	t.Cleanup(func() { _ = d.Release() })

	// The shell creates ready only after installing its trap, so SIGTERM is
	// not sent before the process ignores it.
	ready := filepath.Join(t.TempDir(), "ready")
	child, err := d.SpawnAndAttach(context.Background(), SpawnRequest{
		Executable: "/bin/sh",
		// Ignore SIGTERM so the supervisor must escalate to SIGKILL.
		Argv: []string{"-c", `trap '' TERM; : > "$0"; sleep 300`, ready},
	})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	for deadline := time.Now().Add(2 * time.Second); ; time.Sleep(5 * time.Millisecond) {
		if _, err := os.Stat(ready); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("shell never signalled that its TERM trap was installed")
		}
	}

	if err := d.SignalTerminate(); err != nil {
		t.Fatalf("signal terminate: %v", err)
	}

	select {
	case <-child.Done():
		t.Fatal("process exited despite trapping SIGTERM; test is unsound")
	case <-time.After(200 * time.Millisecond):
	}

	if err := d.TerminateNow(); err != nil {
		t.Fatalf("terminate now: %v", err)
	}

	select {
	case <-child.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("process survived SIGKILL")
	}
}
