// Package runnercli holds the non-trivial pieces of cmd/runner's
// implementation: payload binary location and argv construction. Split out
// from main.go so it's unit-testable without exec'ing a real binary.
package runnercli

import (
	"fmt"
	"os"
	"path/filepath"
)

// searchDirs are the conventional build-output locations checked when
// TREE_DLL is unset — the non-managed-port equivalent of spec.md §6's
// build-output search.
var searchDirs = []string{"./bin", "./dist"}

// payloadBinaryName is the filename LocatePayload looks for in searchDirs
// and $GOBIN.
const payloadBinaryName = "payload"

// LocatePayload resolves the payload executable: explicit takes precedence
// (TREE_DLL in the environment-variable contract), then a search of
// searchDirs and $GOBIN.
func LocatePayload(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("runnercli: TREE_DLL path %s: %w", explicit, err)
		}
		return explicit, nil
	}

	candidates := append([]string{}, searchDirs...)
	if gobin := os.Getenv("GOBIN"); gobin != "" {
		candidates = append(candidates, gobin)
	}

	for _, dir := range candidates {
		path := filepath.Join(dir, payloadBinaryName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	return "", fmt.Errorf("runnercli: payload binary not found: set TREE_DLL or build it into one of %v", candidates)
}

// BuildArgv constructs the payload's argv from the resolved configuration.
func BuildArgv(depth, breadth, sleepMs int, tag string) []string {
	return []string{
		"--depth", itoa(depth),
		"--breadth", itoa(breadth),
		"--sleepMs", itoa(sleepMs),
		"--tag", tag,
	}
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}
