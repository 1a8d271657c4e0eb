package watchtui

import (
	"testing"

	"github.com/Paintersrp/treekill/internal/procinfo"
)

func TestLiveSubtreeIncludesRootAndDescendantsOnly(t *testing.T) {
	procs := []procinfo.Process{
		{PID: 1, PPID: 0, Cmdline: "init"},
		{PID: 10, PPID: 1, Cmdline: "root payload"},
		{PID: 11, PPID: 10, Cmdline: "child a"},
		{PID: 12, PPID: 10, Cmdline: "child b"},
		{PID: 13, PPID: 11, Cmdline: "grandchild"},
		{PID: 99, PPID: 1, Cmdline: "unrelated"},
	}

	got := liveSubtree(procs, 10)

	pids := make(map[int]bool, len(got))
	for _, p := range got {
		pids[p.PID] = true
	}

	for _, want := range []int{10, 11, 12, 13} {
		if !pids[want] {
			t.Fatalf("expected pid %d in subtree, got %+v", want, got)
		}
	}
	if pids[1] || pids[99] {
		t.Fatalf("subtree leaked unrelated pids: %+v", got)
	}
}

func TestLiveSubtreeSortedByPID(t *testing.T) {
	procs := []procinfo.Process{
		{PID: 5, PPID: 1, Cmdline: "root"},
		{PID: 20, PPID: 5, Cmdline: "b"},
		{PID: 8, PPID: 5, Cmdline: "a"},
	}
	got := liveSubtree(procs, 5)
	for i := 1; i < len(got); i++ {
		if got[i-1].PID > got[i].PID {
			t.Fatalf("expected pid-sorted output, got %+v", got)
		}
	}
}

func TestLiveSubtreeMissingRootReturnsEmpty(t *testing.T) {
	procs := []procinfo.Process{{PID: 1, PPID: 0, Cmdline: "init"}}
	got := liveSubtree(procs, 404)
	if len(got) != 0 {
		t.Fatalf("expected no entries for a missing root, got %+v", got)
	}
}
