package verifier

import "time"

// Result is the outcome the runner CLI reports after supervised
// termination: the minimum of two CountByTag samples taken delay apart
// (spec.md §4.5's "report the minimum" rule — the OS process table can lag
// briefly after a forceful kill, and the lower sample is the more honest
// one).
type Result struct {
	FirstCount  int
	SecondCount int
	Survivors   int
}

// Clean reports whether the probe found no survivors.
func (r Result) Clean() bool { return r.Survivors == 0 }

// Verify samples CountByTag twice, delay apart, and returns the minimum of
// the two as Survivors.
func Verify(tag string, delay time.Duration) (Result, error) {
	first, err := CountByTag(tag)
	if err != nil {
		return Result{}, err
	}

	if delay > 0 {
		time.Sleep(delay)
	}

	second, err := CountByTag(tag)
	if err != nil {
		return Result{}, err
	}

	survivors := first
	if second < survivors {
		survivors = second
	}

	return Result{FirstCount: first, SecondCount: second, Survivors: survivors}, nil
}
