package metrics

import "time"

// Document is the JSON object cmd/runner prints to stdout after the
// "=== METRICS ===" banner — the field list from spec.md §6, plus the
// optional run_error field.
type Document struct {
	StartedAt                 time.Time      `json:"started_at"`
	OS                        string         `json:"os"`
	Depth                     int            `json:"depth"`
	Breadth                   int            `json:"breadth"`
	TimeoutMs                 int            `json:"timeout_ms"`
	GracefulMs                int            `json:"graceful_ms"`
	Tag                       string         `json:"tag"`
	RunnerExitCode            int            `json:"runner_exit_code"`
	TotalElapsedMs            int64          `json:"total_elapsed_ms"`
	ProcessesSeenBeforeVerify int            `json:"processes_seen_before_verify"`
	ProcessesSeenAfterVerify  int            `json:"processes_seen_after_verify"`
	KilledTreeConfirmed       bool           `json:"killed_tree_confirmed"`
	OpenedTotal               int            `json:"opened_total"`
	OpenedByLevel             map[int]int    `json:"opened_by_level"`
	ClosedTotal               int            `json:"closed_total"`
	ClosedByLevel             map[int]int    `json:"closed_by_level"`
	// RunError carries a supervised-run failure (spawn failure, termination
	// incomplete, busy) that spec.md §7 requires be surfaced rather than
	// folded silently into a survivor-detected outcome. Empty when the run
	// completed without one, regardless of whether survivors were found.
	RunError string `json:"run_error,omitempty"`
}

// ExpectedOpenedByLevel computes spec.md §8 invariant 3's closed form: level
// k holds breadth^k processes, for k in [0, depth].
func ExpectedOpenedByLevel(depth, breadth int) map[int]int {
	byLevel := make(map[int]int, depth+1)
	count := 1
	for level := 0; level <= depth; level++ {
		byLevel[level] = count
		count *= breadth
	}
	return byLevel
}

// SumLevels totals a by-level mapping, used for opened_total/closed_total.
func SumLevels(byLevel map[int]int) int {
	total := 0
	for _, n := range byLevel {
		total += n
	}
	return total
}
