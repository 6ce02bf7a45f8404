package supervisor

import (
	"errors"
	"time"

	"github.com/opslane/supervisor/internal/table"
	"github.com/opslane/supervisor/internal/wire"
)

// acceptLoop accepts one connection at a time, and detaches a
// worker goroutine to read its role tag and route it.
func (s *Supervisor) acceptLoop() {
	defer close(s.acceptorDone)

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, wire.ErrConnectionBreak) {
				return
			}
			s.logger.Warn("[acceptor] accept error: %v", err)
			continue
		}
		go s.routeConnection(conn)
	}
}

func (s *Supervisor) routeConnection(conn *wire.Conn) {
	roleTag, err := wire.ReadInt32(conn.Reader())
	if err != nil {
		conn.Close()
		return
	}

	switch wire.Role(roleTag) {
	case wire.RoleClient:
		s.clientsMu.Lock()
		h := s.nextHandle
		s.nextHandle++
		s.clients[h] = newClientEntry(conn)
		s.clientsMu.Unlock()
	case wire.RoleAgent:
		s.handleAgentReport(conn)
	default:
		conn.Close()
	}
}

// handleAgentReport implements the agent handshake: record the
// reported pid (or note the failure) and tell the agent whether to
// proceed with its exec.
func (s *Supervisor) handleAgentReport(conn *wire.Conn) {
	defer conn.Close()

	rep, err := wire.ReadAgentReport(conn.Reader())
	if err != nil {
		return
	}
	name := table.BinName(rep.Name)

	s.run.Lock()
	var shouldExec bool
	entry, ok := s.run.Entries[name]
	switch {
	case !ok && rep.Error == 0:
		// Unwanted: already stopped or never requested. Tell the agent
		// to abort its exec.
		shouldExec = false
	case rep.Error == 0:
		entry.PID = int(rep.Pid)
		shouldExec = true
	default:
		// Post-exec failure report: clear the pid this same entry's
		// first report set and reset LastRun, so Phase R sees it as
		// never having run and reruns it. There is nothing useful to
		// tell the agent at this point; it has already failed to exec.
		if ok {
			entry.PID = 0
			entry.LastRun = time.Time{}
		}
		shouldExec = false
	}
	s.run.Unlock()

	_ = wire.WriteBool(conn.Writer(), shouldExec)
}
