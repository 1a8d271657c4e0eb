//go:build windows

package procinfo

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// snapshot walks the process table via CreateToolhelp32Snapshot, the native
// process-snapshot primitive, instead of shelling to tasklist/wmic.
//
// Cmdline on Windows is not the command line: it is the full executable
// image path (QueryFullProcessImageName), or the bare executable filename
// from the snapshot when the process cannot be opened. Arguments are not
// recovered, so a tag passed in argv is not visible to the verifier's
// substring match on this platform.
func snapshot() ([]Process, error) {
	handle, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("procinfo: CreateToolhelp32Snapshot: %w", err)
	}
	defer windows.CloseHandle(handle)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	if err := windows.Process32First(handle, &entry); err != nil {
		return nil, fmt.Errorf("procinfo: Process32First: %w", err)
	}

	var procs []Process
	for {
		pid := int(entry.ProcessID)
		procs = append(procs, Process{
			PID:     pid,
			PPID:    int(entry.ParentProcessID),
			Cmdline: commandLine(pid, windows.UTF16ToString(entry.ExeFile[:])),
		})

		if err := windows.Process32Next(handle, &entry); err != nil {
			break
		}
	}
	return procs, nil
}

// commandLine returns the full executable image path for pid, falling back
// to the bare executable name from the snapshot entry when the process
// cannot be opened or queried (access denied, already exited). It does not
// return the process's arguments.
func commandLine(pid int, exeFile string) string {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return exeFile
	}
	defer windows.CloseHandle(handle)

	buf := make([]uint16, windows.MAX_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(handle, 0, &buf[0], &size); err != nil {
		return exeFile
	}
	return windows.UTF16ToString(buf[:size])
}
