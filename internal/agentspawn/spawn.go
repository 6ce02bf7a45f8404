// Package agentspawn implements the supervisor side of launching a
// child: constructing and detaching the short-lived agent helper
// process that will report its own PID back over the control
// connection and then exec the real target binary in place.
//
// The spawn call itself never blocks on the agent's outcome. Success
// here only means "the OS accepted the spawn request". Correlation with
// the resulting PID happens later, asynchronously, via the agent's own
// report message.
package agentspawn

import (
	"fmt"
	"os/exec"
	"strconv"
	"syscall"

	"github.com/opslane/supervisor/internal/table"
	"github.com/opslane/supervisor/logger"
)

// Spawner launches the agent helper binary for a given port.
type Spawner struct {
	AgentBinary string
	Port        int
	Logger      logger.Logger
}

// SendRun builds `agentBinary port name arg1 arg2 ...` and starts it
// detached from the supervisor's own process group, so it survives
// independently of the spawning process.
func (s *Spawner) SendRun(name table.BinName, cfg table.ProcessConfig) error {
	args := append([]string{strconv.Itoa(s.Port), string(name)}, cfg.Args...)
	cmd := exec.Command(s.AgentBinary, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    0,
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("agentspawn: starting agent for %s: %w", name, err)
	}

	s.Logger.Debug("[agentspawn] spawned agent pid=%d for %s %v", cmd.Process.Pid, name, cfg.Args)

	// Detach: reap the agent in the background via Wait so it does not
	// linger as a zombie, without blocking on it; its exit status is
	// ignored. The agent's own report message is the only thing we
	// correlate on.
	go func() {
		_ = cmd.Wait()
	}()

	return nil
}
