//go:build darwin

package procinfo

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// sysctl mib components for KERN_PROCARGS2, which golang.org/x/sys/unix does
// not expose a named constant for (it only wraps the common name-keyed
// sysctls). The values are the stable BSD sysctl.h constants.
const (
	ctlKern       = 1
	kernProcArgs2 = 49
)

// snapshot walks kern.proc.all via the KERN_PROC sysctl family, the same
// syscall-level primitive process-listing tools use on Darwin, then recovers
// each process's argv via KERN_PROCARGS2. No /bin/ps or pgrep shell-outs.
func snapshot() ([]Process, error) {
	kinfos, err := unix.SysctlKinfoProcSlice("kern.proc.all")
	if err != nil {
		return nil, fmt.Errorf("procinfo: sysctl kern.proc.all: %w", err)
	}

	procs := make([]Process, 0, len(kinfos))
	for _, k := range kinfos {
		pid := int(k.Proc.P_pid)
		if pid <= 0 {
			continue
		}
		procs = append(procs, Process{
			PID:     pid,
			PPID:    int(k.Eproc.Ppid),
			Cmdline: procArgs(pid),
		})
	}
	return procs, nil
}

// procArgs recovers a process's command line via the KERN_PROCARGS2 sysctl.
// The kernel buffer layout is: a leading int32 argc, the executable path
// (NUL terminated), then argc NUL-terminated argv strings, padded with extra
// NULs. A process we don't have permission to inspect simply yields "".
func procArgs(pid int) string {
	mib := []int32{ctlKern, kernProcArgs2, int32(pid)}
	buf, err := unix.SysctlRaw("", mib...)
	if err != nil || len(buf) < 4 {
		return ""
	}

	argc := int(binary.LittleEndian.Uint32(buf[:4]))
	rest := buf[4:]

	// Skip the executable path (NUL terminated), then any extra NUL padding.
	if idx := bytes.IndexByte(rest, 0); idx >= 0 {
		rest = rest[idx:]
	}
	for len(rest) > 0 && rest[0] == 0 {
		rest = rest[1:]
	}

	parts := make([]string, 0, argc)
	for argc > 0 && len(rest) > 0 {
		idx := bytes.IndexByte(rest, 0)
		if idx < 0 {
			parts = append(parts, string(rest))
			break
		}
		parts = append(parts, string(rest[:idx]))
		rest = rest[idx+1:]
		argc--
	}
	return joinArgs(parts)
}

func joinArgs(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}
