// Command agent is the short-lived helper the supervisor's spawner
// execs for every launch attempt. It reports its own PID
// back to the supervisor over the control port, waits for permission,
// and then execs the real target so the reported PID remains valid
// for the lifetime of the supervised process.
package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"syscall"

	"github.com/opslane/supervisor/internal/wire"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: agent <port> <name> [arg...]")
		os.Exit(1)
	}

	port, err := strconv.Atoi(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "agent: invalid port %q: %v\n", os.Args[1], err)
		os.Exit(1)
	}
	name := os.Args[2]
	targetArgs := os.Args[3:]

	proceed, err := report(port, name, os.Getpid(), 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agent: reporting to supervisor: %v\n", err)
		os.Exit(1)
	}
	if !proceed {
		// The supervisor no longer wants this process (e.g. it was
		// stopped before we finished launching). Exit quietly.
		os.Exit(0)
	}

	argv := append([]string{name}, targetArgs...)
	execErr := syscall.Exec(name, argv, os.Environ())
	// syscall.Exec only returns on failure; on success this process
	// image is gone and the reported PID now belongs to the target.
	if _, err := report(port, name, os.Getpid(), errnoOf(execErr)); err != nil {
		fmt.Fprintf(os.Stderr, "agent: reporting exec failure: %v\n", err)
	}
	os.Exit(1)
}

func report(port int, name string, pid int, errCode int32) (bool, error) {
	nc, err := net.Dial("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false, err
	}
	defer nc.Close()

	c := wire.Wrap(nc)
	if err := wire.WriteInt32(c.Writer(), int32(wire.RoleAgent)); err != nil {
		return false, err
	}
	if err := wire.WriteAgentReport(c.Writer(), wire.AgentReport{
		Name:  name,
		Pid:   int32(pid),
		Error: errCode,
	}); err != nil {
		return false, err
	}
	return wire.ReadBool(c.Reader())
}

func errnoOf(err error) int32 {
	if errno, ok := err.(syscall.Errno); ok {
		return int32(errno)
	}
	return 1
}
