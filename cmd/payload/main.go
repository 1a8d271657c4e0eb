// Command payload is the test fixture cmd/payload from SPEC_FULL.md §4.6: a
// process that recursively forks a breadth-wide, depth-deep descendant tree
// and sleeps, giving internal/supervisor something real to terminate.
package main

import (
	stdcontext "context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/treekill/internal/verifier"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var depth, breadth, sleepMs int
	var tag string

	cmd := &cobra.Command{
		Use:           verifier.PayloadMarker,
		Short:         "Recursive process-tree fixture for treekill",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(depth, breadth, sleepMs, tag)
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 0, "remaining levels of descendants to spawn")
	cmd.Flags().IntVar(&breadth, "breadth", 0, "children to spawn at this level")
	cmd.Flags().IntVar(&sleepMs, "sleepMs", 0, "milliseconds to sleep before exiting naturally")
	cmd.Flags().StringVar(&tag, "tag", "", "tag string embedded in argv for VerifierProbe")

	return cmd
}

func run(depth, breadth, sleepMs int, tag string) error {
	pid := os.Getpid()
	banner := func() {
		fmt.Printf("PID=%d depth=%d breadth=%d tag=%s\n", pid, depth, breadth, tag)
	}
	banner()
	defer banner()

	var children []*exec.Cmd
	if depth > 0 {
		self, err := os.Executable()
		if err != nil {
			return fmt.Errorf("payload: resolve self: %w", err)
		}
		for i := 0; i < breadth; i++ {
			c := exec.Command(self,
				"--depth", itoa(depth-1),
				"--breadth", itoa(breadth),
				"--sleepMs", itoa(sleepMs),
				"--tag", tag,
			)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			if err := c.Start(); err != nil {
				return fmt.Errorf("payload: spawn child: %w", err)
			}
			children = append(children, c)
		}
	}

	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	timer := time.NewTimer(time.Duration(sleepMs) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		// Graceful path: fall through to exit, letting our own children's
		// exec.Command.Wait calls below observe their natural shutdown
		// instead of us reaping them forcefully.
	}

	for _, c := range children {
		_ = c.Wait()
	}
	return nil
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}
