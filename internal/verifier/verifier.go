// Package verifier implements VerifierProbe from spec.md §4.5: a read-only,
// external-boundary check over the OS process table, used by the runner to
// confirm that a supervised kill actually emptied the tree. It shares the
// procinfo.Snapshot primitive with internal/descendants but never signals
// anything — it only counts.
package verifier

import (
	"strings"

	"github.com/Paintersrp/treekill/internal/procinfo"
)

// PayloadMarker is the known substring every cmd/payload invocation carries
// in its argv, distinguishing tagged payload processes from an unrelated
// process that happens to have the tag string in its command line for some
// other reason. cmd/payload uses this same constant as its cobra Use string.
const PayloadMarker = "treekill-payload"

// CountByTag returns the number of currently live processes whose command
// line contains both PayloadMarker and tag.
func CountByTag(tag string) (int, error) {
	procs, err := procinfo.Snapshot()
	if err != nil {
		return 0, err
	}
	return countByTag(procs, tag), nil
}

// AnyLeft is equivalent to CountByTag(tag) > 0 but stops at the first match
// instead of scanning the whole table, per spec.md §4.5.
func AnyLeft(tag string) (bool, error) {
	procs, err := procinfo.Snapshot()
	if err != nil {
		return false, err
	}
	for _, p := range procs {
		if matchesTag(p.Cmdline, tag) {
			return true, nil
		}
	}
	return false, nil
}

func countByTag(procs []procinfo.Process, tag string) int {
	n := 0
	for _, p := range procs {
		if matchesTag(p.Cmdline, tag) {
			n++
		}
	}
	return n
}

func matchesTag(cmdline, tag string) bool {
	if tag == "" {
		return false
	}
	return strings.Contains(cmdline, PayloadMarker) && strings.Contains(cmdline, tag)
}
