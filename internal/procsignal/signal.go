// Package procsignal provides the liveness-check and kill-escalation
// helpers the control loop uses against PIDs it does not own an
// *os.Process handle for (the PID came from an agent's report, not from
// a local fork/exec).
package procsignal

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// Signal mirrors the small set of signals the control loop issues.
type Signal int

const (
	SIGTERM Signal = Signal(syscall.SIGTERM)
	SIGKILL Signal = Signal(syscall.SIGKILL)
)

// String returns the name of the given signal, e.g. "SIGTERM".
func String(s syscall.Signal) string {
	name := unix.SignalName(s)
	if name == "" {
		return fmt.Sprintf("%d", int(s))
	}
	return name
}

// Alive reports whether pid refers to a live process, via the classic
// kill(pid, 0) liveness probe: no signal is delivered, only the error
// return is inspected.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}

// Send delivers sig to pid. ESRCH (no such process) is not treated as an
// error by the caller's logic but is returned so Phase T can log it.
func Send(pid int, sig Signal) error {
	return syscall.Kill(pid, syscall.Signal(sig))
}
