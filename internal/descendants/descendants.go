// Package descendants implements the read-only process-tree walk described
// in SPEC_FULL.md §4.4: given a root pid, find every process transitively
// spawned from it by following parent-pid pointers through a single
// procinfo.Snapshot of the OS process table.
//
// This is diagnostic, and the Unix no-session fallback kill path, only. It
// is never the primary kill mechanism on a platform with a kill-group
// primitive (process-group signal on Unix, Job Object on Windows) — a
// process-table walk races descendant creation, as SPEC_FULL.md §4.4 notes.
package descendants

import "github.com/Paintersrp/treekill/internal/procinfo"

// maxDepth caps the DFS so a cyclic or corrupted PPID chain in an untrusted
// process table cannot spin the walk forever.
const maxDepth = 64

// Of returns the pids of every live descendant of root (not including root
// itself), ordered leaves-first: a process always appears before its
// parent. That ordering lets callers signal children before the processes
// that might otherwise reap them.
func Of(root int) ([]int, error) {
	procs, err := procinfo.Snapshot()
	if err != nil {
		return nil, err
	}
	return ofSnapshot(root, procs)
}

func ofSnapshot(root int, procs []procinfo.Process) ([]int, error) {
	children := make(map[int][]int, len(procs))
	for _, p := range procs {
		if p.PID == p.PPID {
			// A kernel-reported self-parented entry (pid 0/1 on some
			// platforms); never a descendant edge worth following.
			continue
		}
		children[p.PPID] = append(children[p.PPID], p.PID)
	}

	var order []int
	seen := make(map[int]bool)
	var walk func(pid, depth int)
	walk = func(pid int, depth int) {
		if depth > maxDepth {
			return
		}
		for _, child := range children[pid] {
			if seen[child] {
				continue
			}
			seen[child] = true
			walk(child, depth+1)
			order = append(order, child)
		}
	}
	walk(root, 0)

	return order, nil
}
