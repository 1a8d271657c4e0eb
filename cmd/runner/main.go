// Command runner is the runner/verifier CLI from spec.md §6: it resolves
// configuration, supervises one payload tree, verifies that termination was
// complete, and prints a metrics document.
package main

import (
	stdcontext "context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Paintersrp/treekill/internal/cliutil"
	"github.com/Paintersrp/treekill/internal/metrics"
	"github.com/Paintersrp/treekill/internal/runnercli"
	"github.com/Paintersrp/treekill/internal/runnerconfig"
	"github.com/Paintersrp/treekill/internal/supervisor"
	"github.com/Paintersrp/treekill/internal/verifier"
	"github.com/Paintersrp/treekill/internal/watchtui"
)

func main() {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, metricsAddr string
	var watch bool

	cmd := &cobra.Command{
		Use:           "runner",
		Short:         "Supervise a payload tree and verify it was fully terminated",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := runOnce(cmd.Context(), configPath, metricsAddr, watch)
			if err != nil {
				return err
			}
			os.Exit(code)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "optional YAML file overriding environment-derived configuration")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve /metrics and /healthz on this address for the run's duration")
	cmd.Flags().BoolVar(&watch, "watch", false, "render a live tview dashboard instead of plain stdout logs")

	return cmd
}

func runOnce(ctx stdcontext.Context, configPath, metricsAddr string, watch bool) (int, error) {
	cfg := runnerconfig.FromEnviron(runnerconfig.Defaults())
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if configPath != "" {
		var err error
		cfg, err = runnerconfig.LoadFile(configPath, cfg)
		if err != nil {
			return 0, err
		}
	}

	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := stdcontext.WithTimeout(stdcontext.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	payloadPath, err := runnercli.LocatePayload(cfg.PayloadPath)
	if err != nil {
		return 0, err
	}
	argv := runnercli.BuildArgv(cfg.Depth, cfg.Breadth, cfg.SleepMs, cfg.Tag)

	// --watch needs a real terminal to draw into; falling back to plain
	// logs when stdout is redirected (e.g. piped to a file in CI) avoids
	// tview spinning on a non-tty and producing garbled output.
	if watch && !term.IsTerminal(int(os.Stdout.Fd())) {
		watch = false
	}

	var dashboard *watchtui.UI
	var dashboardDone chan error

	events := make(chan supervisor.Event, 64)
	if watch {
		dashboard = watchtui.New()
		dashboardDone = make(chan error, 1)
		go func() { dashboardDone <- dashboard.Run(ctx) }()
		go drainIntoDashboard(events, dashboard, cfg.Tag)
	} else {
		enc := json.NewEncoder(os.Stdout)
		go func() {
			for evt := range events {
				cliutil.EncodeLogEvent(enc, os.Stderr, evt)
			}
		}()
	}

	sup := supervisor.New(supervisor.Options{}, events)

	start := time.Now()
	outcome, runErr := sup.RunWithTimeout(ctx, supervisor.SpawnRequest{
		Executable: payloadPath,
		Argv:       argv,
	}, cfg.Timeout())
	close(events)

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "runner: supervised run did not complete cleanly: %v\n", runErr)
	}

	beforeVerify, _ := verifier.CountByTag(cfg.Tag)
	metrics.SetProcessesSeen("before_verify", beforeVerify)

	result, verifyErr := verifier.Verify(cfg.Tag, cfg.VerifyDelay())
	if verifyErr != nil {
		return 0, verifyErr
	}
	metrics.SetProcessesSeen("after_verify", result.Survivors)
	metrics.SetKilledTreeConfirmed(result.Clean())

	byLevel := metrics.ExpectedOpenedByLevel(cfg.Depth, cfg.Breadth)
	opened := metrics.SumLevels(byLevel)
	metrics.SetOpened(opened, byLevel)

	closed := 0
	var closedByLevel map[int]int
	if result.Clean() {
		closed = opened
		closedByLevel = byLevel
	}
	metrics.SetClosed(closed)

	// runnerStatus is the runner process's own exit status (spec.md §7):
	// 0 clean, 2 if survivors remained or the supervised run errored. It is
	// distinct from the child's own exit code recorded in the metrics
	// document below — a nonzero child exit code (e.g. -1 on Unix after a
	// signal kill) is reported but never overrides this value.
	runnerStatus := 0
	if !result.Clean() || runErr != nil {
		runnerStatus = 2
	}
	metrics.SetRunnerExitCode(outcome.ExitCode)

	doc := metrics.Document{
		StartedAt:                 start.UTC(),
		OS:                        runtime.GOOS,
		Depth:                     cfg.Depth,
		Breadth:                   cfg.Breadth,
		TimeoutMs:                 cfg.TimeoutMs,
		GracefulMs:                int(supervisor.DefaultGracefulWait.Milliseconds()),
		Tag:                       cfg.Tag,
		RunnerExitCode:            outcome.ExitCode,
		TotalElapsedMs:            time.Since(start).Milliseconds(),
		ProcessesSeenBeforeVerify: beforeVerify,
		ProcessesSeenAfterVerify:  result.Survivors,
		KilledTreeConfirmed:       result.Clean(),
		OpenedTotal:               opened,
		OpenedByLevel:             byLevel,
		ClosedTotal:               closed,
		ClosedByLevel:             closedByLevel,
	}
	if runErr != nil {
		doc.RunError = runErr.Error()
	}

	fmt.Println("=== METRICS ===")
	if err := json.NewEncoder(os.Stdout).Encode(doc); err != nil {
		return 0, err
	}

	if dashboard != nil {
		dashboard.Stop()
		<-dashboardDone
	}

	return runnerStatus, nil
}

// drainIntoDashboard forwards every event from src to the dashboard,
// dropping it rather than blocking if the dashboard's buffer is full, and
// latches the root pid the first time it appears on an event (the
// EventWaiting event is the one that carries it).
func drainIntoDashboard(src <-chan supervisor.Event, dashboard *watchtui.UI, tag string) {
	pidKnown := false
	for evt := range src {
		if !pidKnown && evt.ChildPID != 0 {
			dashboard.WatchRoot(evt.ChildPID, tag)
			pidKnown = true
		}
		select {
		case dashboard.EventSink() <- evt:
		default:
		}
	}
}
