// Package procinfo provides a read-only, cross-platform view of the OS
// process table: for every live process, its pid, parent pid, and the
// command line it was launched with. It is the single primitive that both
// internal/descendants (tree walks) and internal/verifier (tag scans) build
// on, so there is exactly one place per platform that knows how to read the
// process table.
package procinfo

import "errors"

// ErrUnsupported is returned by Snapshot on platforms without an
// implementation wired up.
var ErrUnsupported = errors.New("procinfo: unsupported platform")

// Process describes a single live OS process as seen by Snapshot.
type Process struct {
	PID     int
	PPID    int
	Cmdline string
}

// Snapshot enumerates every process currently visible to the caller. Callers
// that only need a subtree should filter the result rather than expect a
// cheaper partial query — the underlying OS primitives are table scans on
// every supported platform.
func Snapshot() ([]Process, error) {
	return snapshot()
}
