// Package watchtui implements the --watch live dashboard: a table of the
// payload tree's currently live processes plus a scrolling log of
// supervisor state-machine events, refreshed on a timer. Adapted from the
// teacher's internal/tui package — same tview.Application/Pages/Table/
// TextView skeleton and event-consumption loop, repointed at one process
// tree instead of a multi-service stack.
package watchtui

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/Paintersrp/treekill/internal/cliutil"
	"github.com/Paintersrp/treekill/internal/procinfo"
	"github.com/Paintersrp/treekill/internal/supervisor"
)

const (
	tableTitle        = "Process Tree"
	logsTitle         = "Events"
	defaultRefresh    = 500 * time.Millisecond
	defaultLogHistory = 200
)

// Option configures a UI.
type Option func(*UI)

// WithRefreshInterval overrides the default 500ms table refresh cadence.
func WithRefreshInterval(d time.Duration) Option {
	return func(u *UI) {
		if d > 0 {
			u.refresh = d
		}
	}
}

// UI is the --watch dashboard. Construct with New, feed it a root pid with
// WatchRoot, feed supervisor events to EventSink, then call Run.
type UI struct {
	app   *tview.Application
	pages *tview.Pages
	table *tview.Table
	logs  *tview.TextView

	events chan supervisor.Event

	mu      sync.Mutex
	rootPID int
	tag     string
	history []cliutil.LogRecord
	refresh time.Duration

	cancelMu sync.Mutex
	cancel   context.CancelFunc

	wg       sync.WaitGroup
	stopOnce sync.Once
	done     chan struct{}
}

// New constructs a dashboard. It does nothing until Run is called.
func New(opts ...Option) *UI {
	app := tview.NewApplication()

	table := tview.NewTable().SetFixed(1, 1).SetSelectable(false, false)
	table.SetBorder(true).SetTitle(tableTitle)

	logs := tview.NewTextView().SetDynamicColors(false).SetWrap(false)
	logs.SetBorder(true).SetTitle(logsTitle)
	logs.SetChangedFunc(func() { app.Draw() })

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(table, 0, 3, false).
		AddItem(logs, 0, 2, false)

	pages := tview.NewPages().AddPage("main", flex, true, true)

	u := &UI{
		app:     app,
		pages:   pages,
		table:   table,
		logs:    logs,
		events:  make(chan supervisor.Event, 64),
		refresh: defaultRefresh,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(u)
	}

	app.SetRoot(pages, true)
	app.SetInputCapture(u.handleKey)

	u.renderHeaderRow()

	return u
}

// WatchRoot tells the dashboard which process tree to poll and which tag to
// label it with.
func (u *UI) WatchRoot(pid int, tag string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rootPID = pid
	u.tag = tag
}

// EventSink is where the runner forwards supervisor.Event notifications.
func (u *UI) EventSink() chan<- supervisor.Event {
	return u.events
}

// Done reports when the dashboard loop has exited.
func (u *UI) Done() <-chan struct{} {
	return u.done
}

// Run drives the tview application until ctx is cancelled or the user
// presses q.
func (u *UI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	u.cancelMu.Lock()
	u.cancel = cancel
	u.cancelMu.Unlock()

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		u.loop(ctx)
	}()

	go func() {
		<-ctx.Done()
		u.Stop()
	}()

	err := u.app.Run()

	u.cancelMu.Lock()
	if u.cancel != nil {
		u.cancel()
		u.cancel = nil
	}
	u.cancelMu.Unlock()

	u.wg.Wait()
	u.Stop()
	return err
}

// Stop terminates the dashboard.
func (u *UI) Stop() {
	u.stopOnce.Do(func() {
		u.cancelMu.Lock()
		cancel := u.cancel
		u.cancel = nil
		u.cancelMu.Unlock()
		if cancel != nil {
			cancel()
		}
		u.app.Stop()
		close(u.done)
	})
}

func (u *UI) loop(ctx context.Context) {
	ticker := time.NewTicker(u.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-u.events:
			if !ok {
				return
			}
			u.appendEvent(evt)
		case <-ticker.C:
			u.refreshTable()
		}
	}
}

func (u *UI) appendEvent(evt supervisor.Event) {
	record := cliutil.NewLogRecord(evt)

	u.mu.Lock()
	u.history = append(u.history, record)
	if len(u.history) > defaultLogHistory {
		u.history = u.history[len(u.history)-defaultLogHistory:]
	}
	history := append([]cliutil.LogRecord(nil), u.history...)
	u.mu.Unlock()

	u.app.QueueUpdateDraw(func() {
		u.logs.Clear()
		for _, r := range history {
			fmt.Fprintf(u.logs, "%s [%s] %s %s\n", r.Timestamp.Format(time.RFC3339), r.Level, r.Message, r.Err)
		}
	})
}

func (u *UI) refreshTable() {
	u.mu.Lock()
	root := u.rootPID
	tag := u.tag
	u.mu.Unlock()

	if root == 0 {
		return
	}

	procs, err := procinfo.Snapshot()
	tree := liveSubtree(procs, root)

	u.app.QueueUpdateDraw(func() {
		u.table.Clear()
		u.renderHeaderRow()
		if err != nil {
			u.table.SetCell(1, 0, tview.NewTableCell(fmt.Sprintf("snapshot error: %v", err)).SetExpansion(1))
			return
		}
		for i, p := range tree {
			row := i + 1
			u.table.SetCell(row, 0, tview.NewTableCell(fmt.Sprint(p.PID)))
			u.table.SetCell(row, 1, tview.NewTableCell(fmt.Sprint(p.PPID)))
			u.table.SetCell(row, 2, tview.NewTableCell(p.Cmdline).SetExpansion(1))
		}
		u.table.SetTitle(fmt.Sprintf("%s (tag=%s, live=%d)", tableTitle, tag, len(tree)))
	})
}

func (u *UI) renderHeaderRow() {
	u.table.SetCell(0, 0, tview.NewTableCell("PID").SetSelectable(false).SetAttributes(tcell.AttrBold))
	u.table.SetCell(0, 1, tview.NewTableCell("PPID").SetSelectable(false).SetAttributes(tcell.AttrBold))
	u.table.SetCell(0, 2, tview.NewTableCell("CMDLINE").SetSelectable(false).SetAttributes(tcell.AttrBold).SetExpansion(1))
}

func (u *UI) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyRune && (event.Rune() == 'q' || event.Rune() == 'Q') {
		go u.Stop()
		return nil
	}
	return event
}

// liveSubtree returns root plus every descendant currently in procs,
// sorted by pid for stable rendering.
func liveSubtree(procs []procinfo.Process, root int) []procinfo.Process {
	byPID := make(map[int]procinfo.Process, len(procs))
	for _, p := range procs {
		byPID[p.PID] = p
	}

	var out []procinfo.Process
	if p, ok := byPID[root]; ok {
		out = append(out, p)
	}

	children := make(map[int][]int, len(procs))
	for _, p := range procs {
		if p.PID != p.PPID {
			children[p.PPID] = append(children[p.PPID], p.PID)
		}
	}

	seen := map[int]bool{root: true}
	var walk func(pid int)
	walk = func(pid int) {
		for _, child := range children[pid] {
			if seen[child] {
				continue
			}
			seen[child] = true
			if p, ok := byPID[child]; ok {
				out = append(out, p)
			}
			walk(child)
		}
	}
	walk(root)

	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}
