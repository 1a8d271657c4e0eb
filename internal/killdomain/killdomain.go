// Package killdomain implements the platform-specific kill-group primitive
// described in SPEC_FULL.md §4: a handle that groups a spawned root process
// together with every process it (or any of its descendants) transitively
// spawns, so that a single signal/termination call reaches the whole tree.
//
// Exactly one concrete implementation is compiled per platform — Unix
// process-session groups (killdomain_unix.go) or a Windows Job Object
// (killdomain_windows.go) — selected by build tag, never by runtime probing.
package killdomain

import (
	"context"
	"errors"
)

// SpawnRequest mirrors supervisor.SpawnRequest; it is redeclared here rather
// than imported so this package has no dependency on internal/supervisor —
// supervisor depends on killdomain, not the other way around.
type SpawnRequest struct {
	Executable string
	Argv       []string
	WorkingDir string
	Env        map[string]string
}

// ErrNotAttached is returned by the signal/terminate operations when called
// before SpawnAndAttach has succeeded.
var ErrNotAttached = errors.New("killdomain: no child attached")

// Domain is the platform abstraction from SPEC_FULL.md §4.1: create, attach,
// signal, terminate, release. A Domain has exactly one attached Child for
// its lifetime — it is not reusable across spawns.
type Domain interface {
	// SpawnAndAttach starts the root process and ensures every process it
	// (transitively) spawns belongs to this domain from the moment it
	// exists, happens-before any descendant can be observed.
	SpawnAndAttach(ctx context.Context, req SpawnRequest) (*Child, error)

	// SignalTerminate delivers the graceful step of the escalation
	// sequence. Errors are expected to be logged, not propagated, by the
	// caller — the child's own exit is authoritative.
	SignalTerminate() error

	// TerminateNow delivers the forceful, unblockable step.
	TerminateNow() error

	// Release drops every OS handle owned by the domain. Idempotent: a
	// second call is a no-op and never returns an error.
	Release() error
}

// New constructs the strongest kill-group primitive available on the
// current platform.
func New() Domain {
	return newPlatformDomain()
}
