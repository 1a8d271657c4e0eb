//go:build windows

package killdomain

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

func newPlatformDomain() Domain {
	return &windowsDomain{}
}

// windowsDomain implements the Job Object strategy from SPEC_FULL.md §4.3:
// a Job Object with KILL_ON_JOB_CLOSE groups the child and everything it
// spawns, so releasing (or force-terminating) the job tears down the whole
// tree in one kernel call.
//
// The child is started suspended (CREATE_SUSPENDED) and assigned to the job
// before its first instruction runs, resolving Open Question (a) from
// spec.md §9 in favor of eliminating the assign-vs-first-grandchild race —
// see SPEC_FULL.md §9. That requires driving CreateProcess directly rather
// than through os/exec, which has no way to surface the thread handle
// CREATE_SUSPENDED needs for ResumeThread.
type windowsDomain struct {
	mu       sync.Mutex
	job      windows.Handle
	hasJob   bool
	process  windows.Handle
	thread   windows.Handle
	child    *Child
	released bool
	rootPID  uint32
}

func (d *windowsDomain) SpawnAndAttach(ctx context.Context, req SpawnRequest) (*Child, error) {
	job, jobErr := createKillOnCloseJob()

	procInfo, err := createSuspendedProcess(req)
	if err != nil {
		if jobErr == nil {
			windows.CloseHandle(job)
		}
		return nil, fmt.Errorf("killdomain: CreateProcess: %w", err)
	}

	d.mu.Lock()
	d.process = procInfo.Process
	d.thread = procInfo.Thread
	d.rootPID = procInfo.ProcessId
	if jobErr == nil {
		if assignErr := windows.AssignProcessToJobObject(job, procInfo.Process); assignErr == nil {
			d.job = job
			d.hasJob = true
		} else {
			windows.CloseHandle(job)
		}
	}
	d.mu.Unlock()

	// Resume the thread now that the job assignment (if any) is in place;
	// every process the child spawns from here on is born inside the job.
	if _, err := windows.ResumeThread(procInfo.Thread); err != nil {
		return nil, fmt.Errorf("killdomain: ResumeThread: %w", err)
	}

	child := NewChild(int(procInfo.ProcessId))
	d.mu.Lock()
	d.child = child
	d.mu.Unlock()

	go d.waitForExit(child)

	return child, nil
}

func (d *windowsDomain) waitForExit(child *Child) {
	d.mu.Lock()
	process := d.process
	d.mu.Unlock()

	windows.WaitForSingleObject(process, windows.INFINITE)

	var code uint32
	err := windows.GetExitCodeProcess(process, &code)
	if err != nil {
		child.MarkExited(-1, err)
		return
	}
	child.MarkExited(int(code), nil)
}

func (d *windowsDomain) SignalTerminate() error {
	d.mu.Lock()
	hasJob := d.hasJob
	job := d.job
	process := d.process
	rootPID := d.rootPID
	d.mu.Unlock()

	if process == 0 {
		return ErrNotAttached
	}

	// The "soft" step on Windows: drop the job handle. KILL_ON_JOB_CLOSE
	// causes the OS to terminate every jobbed process once the last job
	// handle closes, preserving the escalation contract even though the
	// mechanism is not signal-based (SPEC_FULL.md §4.3).
	if hasJob {
		d.mu.Lock()
		d.hasJob = false
		d.mu.Unlock()
		if err := windows.CloseHandle(job); err != nil {
			return fmt.Errorf("killdomain: close job handle: %w", err)
		}
		return nil
	}

	return taskkill(rootPID, false)
}

func (d *windowsDomain) TerminateNow() error {
	d.mu.Lock()
	hasJob := d.hasJob
	job := d.job
	process := d.process
	rootPID := d.rootPID
	d.mu.Unlock()

	if process == 0 {
		return ErrNotAttached
	}

	if hasJob {
		if err := windows.TerminateJobObject(job, 1); err != nil {
			return fmt.Errorf("killdomain: TerminateJobObject: %w", err)
		}
		return nil
	}
	return taskkill(rootPID, true)
}

func (d *windowsDomain) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil
	}
	d.released = true

	if d.hasJob {
		windows.CloseHandle(d.job)
		d.hasJob = false
	}
	if d.thread != 0 {
		windows.CloseHandle(d.thread)
		d.thread = 0
	}
	if d.process != 0 {
		windows.CloseHandle(d.process)
		d.process = 0
	}
	return nil
}

// createKillOnCloseJob creates an anonymous Job Object whose sole limit is
// KILL_ON_JOB_CLOSE: every process assigned to it dies the moment the last
// handle to the job closes.
func createKillOnCloseJob() (windows.Handle, error) {
	job, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return 0, err
	}

	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{
		BasicLimitInformation: windows.JOBOBJECT_BASIC_LIMIT_INFORMATION{
			LimitFlags: windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE,
		},
	}
	if _, err := windows.SetInformationJobObject(
		job,
		windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	); err != nil {
		windows.CloseHandle(job)
		return 0, err
	}
	return job, nil
}

// createSuspendedProcess drives CreateProcess directly (bypassing os/exec)
// so the primary thread handle is available for ResumeThread after the job
// assignment.
func createSuspendedProcess(req SpawnRequest) (*windows.ProcessInformation, error) {
	cmdLine, err := windows.UTF16PtrFromString(buildCommandLine(req))
	if err != nil {
		return nil, err
	}

	var dir *uint16
	if req.WorkingDir != "" {
		dir, err = windows.UTF16PtrFromString(req.WorkingDir)
		if err != nil {
			return nil, err
		}
	}

	var envBlock *uint16
	if len(req.Env) > 0 {
		envBlock, err = buildEnvBlock(req.Env)
		if err != nil {
			return nil, err
		}
	}

	si := &windows.StartupInfo{Cb: uint32(unsafe.Sizeof(windows.StartupInfo{}))}
	pi := &windows.ProcessInformation{}

	flags := uint32(windows.CREATE_SUSPENDED | windows.CREATE_NEW_PROCESS_GROUP)

	err = windows.CreateProcess(
		nil,
		cmdLine,
		nil,
		nil,
		false,
		flags,
		envBlock,
		dir,
		si,
		pi,
	)
	if err != nil {
		return nil, err
	}
	return pi, nil
}

// buildCommandLine joins argv into a single Windows command line, quoting
// each argument with the same backslash/quote escaping CreateProcess
// expects (the algorithm os/exec uses internally via syscall.EscapeArg).
func buildCommandLine(req SpawnRequest) string {
	args := append([]string{req.Executable}, req.Argv...)
	line := ""
	for i, a := range args {
		if i > 0 {
			line += " "
		}
		line += syscall.EscapeArg(a)
	}
	return line
}

func buildEnvBlock(extra map[string]string) (*uint16, error) {
	base := mergedEnv(extra)
	var block []uint16
	for _, kv := range base {
		block = append(block, windows.StringToUTF16(kv)...)
	}
	block = append(block, 0)
	return &block[0], nil
}

// taskkill is the fallback used when Job Object setup or assignment failed
// after spawn — spec.md §4.3's documented degraded path.
func taskkill(pid uint32, force bool) error {
	args := []string{"/T", "/PID", fmt.Sprint(pid)}
	if force {
		args = append([]string{"/F"}, args...)
	}
	cmd := exec.Command("taskkill", args...)
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 128 {
			return nil // already gone
		}
		return fmt.Errorf("killdomain: taskkill: %w", err)
	}
	return nil
}
