// Package metrics instruments one supervised run with the fields spec.md §6
// names for the metrics document, both as Prometheus series (for the
// optional --metrics-addr listener) and as the plain Document type
// cmd/runner marshals to JSON after the "=== METRICS ===" banner.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	processesSeen = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "treekill",
		Name:      "processes_seen",
		Help:      "Live tagged processes observed at a given verification phase.",
	}, []string{"phase"})

	killedTreeConfirmed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "treekill",
		Name:      "killed_tree_confirmed",
		Help:      "1 if the verifier found zero survivors for the most recent run, else 0.",
	})

	openedTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "treekill",
		Name:      "opened_total",
		Help:      "Total processes spawned by the most recent run's payload tree.",
	})

	openedByLevel = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "treekill",
		Name:      "opened_by_level",
		Help:      "Processes spawned at each tree depth of the most recent run.",
	}, []string{"level"})

	closedTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "treekill",
		Name:      "closed_total",
		Help:      "Total processes confirmed terminated after the most recent run, or 0 if survivors remained.",
	})

	runnerExitCode = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "treekill",
		Name:      "runner_exit_code",
		Help:      "Exit code of the supervised child process from the most recent run (e.g. -1 on Unix after a signal kill), not the runner process's own 0/2 exit status.",
	})

	registerOnce sync.Once
)

func init() {
	registerOnce.Do(func() {
		registry.MustRegister(processesSeen, killedTreeConfirmed, openedTotal, openedByLevel, closedTotal, runnerExitCode)
	})
}

// Registry returns the Prometheus registry backing the --metrics-addr
// listener.
func Registry() *prometheus.Registry {
	return registry
}

// SetProcessesSeen records CountByTag's result at a named verification
// phase ("before_verify" or "after_verify", per spec.md §6's field names).
func SetProcessesSeen(phase string, count int) {
	processesSeen.WithLabelValues(phase).Set(float64(count))
}

// SetKilledTreeConfirmed records whether the run's verification found zero
// survivors.
func SetKilledTreeConfirmed(confirmed bool) {
	value := 0.0
	if confirmed {
		value = 1.0
	}
	killedTreeConfirmed.Set(value)
}

// SetOpened records the total opened count and, when known, the
// opened-by-level breakdown (level 0 = root).
func SetOpened(total int, byLevel map[int]int) {
	openedTotal.Set(float64(total))
	for level, count := range byLevel {
		openedByLevel.WithLabelValues(levelLabel(level)).Set(float64(count))
	}
}

// SetClosed records the total confirmed-closed count, 0 when survivors
// remained.
func SetClosed(total int) {
	closedTotal.Set(float64(total))
}

// SetRunnerExitCode records the supervised child's exit code, per spec.md
// §6 — distinct from the runner process's own 0/2 exit status.
func SetRunnerExitCode(code int) {
	runnerExitCode.Set(float64(code))
}

func levelLabel(level int) string {
	return strconv.Itoa(level)
}
