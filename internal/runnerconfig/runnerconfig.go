// Package runnerconfig resolves cmd/runner's configuration from spec.md §6:
// environment variables first, with an optional YAML override file layered
// on top (defaults < env < file, the opposite precedence of the teacher's
// stack-manifest loader, since env is the documented primary channel here
// and the file is opt-in enrichment — see SPEC_FULL.md §4.7).
package runnerconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Config is the resolved set of inputs the runner needs to spawn and verify
// one payload tree.
type Config struct {
	Depth         int
	Breadth       int
	SleepMs       int
	TimeoutMs     int
	VerifyDelayMs int
	Tag           string

	// PayloadPath, if set, names the payload binary directly (TREE_DLL in
	// the environment-variable contract). Empty means "search".
	PayloadPath string

	// MetricsAddr, if set, serves /metrics and /healthz for the run's
	// duration. Supplemental to spec.md §6 (see SPEC_FULL.md §4.7).
	MetricsAddr string
}

// Defaults returns spec.md §6's documented defaults, generating a fresh
// random tag each call.
func Defaults() Config {
	return Config{
		Depth:         3,
		Breadth:       5,
		SleepMs:       300000,
		TimeoutMs:     5000,
		VerifyDelayMs: 1200,
		Tag:           randomTag(),
	}
}

// FromEnviron overlays environment variables named in spec.md §6 onto cfg,
// leaving any variable that is unset or fails to parse at its existing
// value.
func FromEnviron(cfg Config) Config {
	if v, ok := intEnv("DEPTH"); ok {
		cfg.Depth = v
	}
	if v, ok := intEnv("BREADTH"); ok {
		cfg.Breadth = v
	}
	if v, ok := intEnv("SLEEPMs"); ok {
		cfg.SleepMs = v
	}
	if v, ok := intEnv("TIMEOUTMs"); ok {
		cfg.TimeoutMs = v
	}
	if v, ok := intEnv("VERIFY_DELAYMs"); ok {
		cfg.VerifyDelayMs = v
	}
	if v := os.Getenv("TAG"); v != "" {
		cfg.Tag = v
	}
	if v := os.Getenv("TREE_DLL"); v != "" {
		cfg.PayloadPath = v
	}
	return cfg
}

// Timeout, VerifyDelay and SleepDuration convert the millisecond fields to
// durations for callers handing the config to a supervisor.Supervisor.
func (c Config) Timeout() time.Duration       { return time.Duration(c.TimeoutMs) * time.Millisecond }
func (c Config) VerifyDelay() time.Duration   { return time.Duration(c.VerifyDelayMs) * time.Millisecond }
func (c Config) SleepDuration() time.Duration { return time.Duration(c.SleepMs) * time.Millisecond }

func intEnv(name string) (int, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func randomTag() string {
	id := uuid.New().String()
	// spec.md's documented shape is TEST_<random-8-hex>; the first 8 hex
	// characters of a v4 UUID are as good a random source as any other.
	return fmt.Sprintf("TEST_%s", id[:8])
}
