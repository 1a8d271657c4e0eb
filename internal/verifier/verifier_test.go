package verifier

import (
	"testing"

	"github.com/Paintersrp/treekill/internal/procinfo"
)

func TestCountByTagMatchesMarkerAndTag(t *testing.T) {
	procs := []fakeProcess{
		{1, "treekill-payload --tag TEST_ab12cd34 --depth 2"},
		{2, "treekill-payload --tag TEST_ab12cd34 --depth 1"},
		{3, "treekill-payload --tag TEST_other --depth 1"},
		{4, "/usr/bin/unrelated --tag TEST_ab12cd34"},
	}

	got := countByTag(toProcs(procs), "TEST_ab12cd34")
	if got != 2 {
		t.Fatalf("expected 2 matches, got %d", got)
	}
}

func TestCountByTagEmptyTagNeverMatches(t *testing.T) {
	procs := []fakeProcess{{1, "treekill-payload --tag TEST_ab12cd34"}}
	if got := countByTag(toProcs(procs), ""); got != 0 {
		t.Fatalf("expected 0 for empty tag, got %d", got)
	}
}

func TestMatchesTagRequiresBothSubstrings(t *testing.T) {
	cases := []struct {
		cmdline string
		tag     string
		want    bool
	}{
		{"treekill-payload --tag TEST_x", "TEST_x", true},
		{"treekill-payload --tag TEST_xyz", "TEST_x", true},
		{"some-other-binary --tag TEST_x", "TEST_x", false},
		{"treekill-payload --tag TEST_y", "TEST_x", false},
	}
	for _, c := range cases {
		if got := matchesTag(c.cmdline, c.tag); got != c.want {
			t.Fatalf("matchesTag(%q, %q) = %v, want %v", c.cmdline, c.tag, got, c.want)
		}
	}
}

// fakeProcess is a minimal stand-in avoiding a procinfo.Process literal in
// every test table; toProcs converts to the real type the package operates
// on.
type fakeProcess struct {
	pid     int
	cmdline string
}

func toProcs(fakes []fakeProcess) []procinfo.Process {
	procs := make([]procinfo.Process, len(fakes))
	for i, f := range fakes {
		procs[i] = procinfo.Process{PID: f.pid, Cmdline: f.cmdline}
	}
	return procs
}
