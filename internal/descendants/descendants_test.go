package descendants

import (
	"testing"

	"github.com/Paintersrp/treekill/internal/procinfo"
)

func TestOfSnapshotOrdersLeavesFirst(t *testing.T) {
	procs := []procinfo.Process{
		{PID: 1, PPID: 0},
		{PID: 100, PPID: 1},  // root
		{PID: 101, PPID: 100}, // child
		{PID: 102, PPID: 100}, // child
		{PID: 103, PPID: 101}, // grandchild via 101
	}

	got, err := ofSnapshot(100, procs)
	if err != nil {
		t.Fatalf("ofSnapshot: %v", err)
	}

	indexOf := func(pid int) int {
		for i, v := range got {
			if v == pid {
				return i
			}
		}
		t.Fatalf("pid %d missing from %v", pid, got)
		return -1
	}

	if indexOf(103) >= indexOf(101) {
		t.Fatalf("grandchild 103 must precede its parent 101: %v", got)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 descendants, got %v", got)
	}
}

func TestOfSnapshotExcludesUnrelatedProcesses(t *testing.T) {
	procs := []procinfo.Process{
		{PID: 1, PPID: 0},
		{PID: 100, PPID: 1},
		{PID: 200, PPID: 1}, // unrelated sibling tree
		{PID: 201, PPID: 200},
	}

	got, err := ofSnapshot(100, procs)
	if err != nil {
		t.Fatalf("ofSnapshot: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no descendants, got %v", got)
	}
}

func TestOfSnapshotCapsDeepChains(t *testing.T) {
	// A pathological chain deeper than maxDepth must not hang or panic.
	procs := make([]procinfo.Process, 0, maxDepth+10)
	procs = append(procs, procinfo.Process{PID: 1, PPID: 0})
	prev := 1
	for i := 0; i < maxDepth+10; i++ {
		pid := 1000 + i
		procs = append(procs, procinfo.Process{PID: pid, PPID: prev})
		prev = pid
	}

	got, err := ofSnapshot(1, procs)
	if err != nil {
		t.Fatalf("ofSnapshot: %v", err)
	}
	if len(got) == 0 || len(got) > maxDepth+10 {
		t.Fatalf("unexpected descendant count: %d", len(got))
	}
}
