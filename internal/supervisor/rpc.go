package supervisor

import (
	"time"

	"github.com/google/uuid"
	"github.com/opslane/supervisor/internal/table"
	"github.com/opslane/supervisor/internal/wire"
)

// handleCommand implements the fixed dispatch table: read one
// command code, read its request record, perform the action, write
// exactly one response record. It returns true if the connection
// should be dropped (a transport break occurred).
func (s *Supervisor) handleCommand(c *wire.Conn) bool {
	codeRaw, err := wire.ReadInt32(c.Reader())
	if err != nil {
		return true
	}

	switch wire.Command(codeRaw) {
	case wire.CmdLoad:
		req, err := wire.ReadLoadRequest(c.Reader())
		if err != nil {
			return true
		}
		return wire.WriteBool(c.Writer(), s.handleLoad(req)) != nil

	case wire.CmdStop:
		req, err := wire.ReadStopRequest(c.Reader())
		if err != nil {
			return true
		}
		return wire.WriteInt32(c.Writer(), int32(s.handleStop(req))) != nil

	case wire.CmdRerun:
		req, err := wire.ReadNameWaitRequest(c.Reader())
		if err != nil {
			return true
		}
		return wire.WriteBool(c.Writer(), s.handleRerun(req)) != nil

	case wire.CmdIsRunning:
		req, err := wire.ReadNameRequest(c.Reader())
		if err != nil {
			return true
		}
		return wire.WriteBool(c.Writer(), s.handleIsRunning(req)) != nil

	case wire.CmdGetPid:
		req, err := wire.ReadNameRequest(c.Reader())
		if err != nil {
			return true
		}
		return wire.WriteInt32(c.Writer(), s.handleGetPid(req)) != nil

	case wire.CmdGetConfig, wire.CmdSetConfig:
		// Reserved; reply deterministically rather than stall the client.
		return wire.WriteBool(c.Writer(), false) != nil

	default:
		return true
	}
}

func (s *Supervisor) handleLoad(req wire.LoadRequest) bool {
	name := table.BinName(req.Name)
	cfg := table.ProcessConfig{
		Args:         req.Args,
		LaunchOnBoot: req.LaunchOnBoot,
		TermRerun:    req.TermRerun,
		TimeToStop:   time.Duration(req.TimeToStopMs) * time.Millisecond,
	}

	s.main.Lock()
	s.run.Lock()
	table.AssertOrder("main", "run")
	if table.IsActive(s.run, s.main, name) {
		s.run.Unlock()
		s.main.Unlock()
		return false
	}

	var waiter *table.Waiter[bool]
	var corrID string
	if req.Wait {
		waiter = table.NewWaiter[bool]()
		corrID = uuid.NewString()
		s.logger.Debug("[rpc] Load(%s) waiting, correlation %s", name, corrID)
	}
	s.run.Entries[name] = &table.RunEntry{Config: cfg, Waiter: waiter}
	s.run.Unlock()
	s.main.Unlock()

	if err := s.persistBootConfig(); err != nil {
		s.logger.Warn("[rpc] failed to persist boot config after Load(%s): %v", name, err)
	}

	if waiter == nil {
		return true
	}
	ok := <-waiter.Channel()
	s.logger.Debug("[rpc] Load(%s) resolved %v, correlation %s", name, ok, corrID)
	return ok
}

func (s *Supervisor) handleStop(req wire.StopRequest) table.TerminationOutcome {
	name := table.BinName(req.Name)

	s.term.Lock()
	if _, exists := s.term.Entries[name]; exists {
		s.term.Unlock()
		return table.AlreadyTerminating
	}
	var waiter *table.Waiter[table.TerminationOutcome]
	var corrID string
	if req.Wait {
		waiter = table.NewWaiter[table.TerminationOutcome]()
		corrID = uuid.NewString()
		s.logger.Debug("[rpc] Stop(%s) waiting, correlation %s", name, corrID)
	}
	s.term.Entries[name] = &table.TermEntry{Waiter: waiter}
	s.term.Unlock()

	// Clear launch_on_boot on whichever table currently holds the
	// target, so the next persisted snapshot drops it.
	s.main.Lock()
	s.run.Lock()
	table.AssertOrder("main", "run")
	if me, ok := s.main.Entries[name]; ok {
		me.Config.LaunchOnBoot = false
	}
	if re, ok := s.run.Entries[name]; ok {
		re.Config.LaunchOnBoot = false
	}
	s.run.Unlock()
	s.main.Unlock()

	if err := s.persistBootConfig(); err != nil {
		s.logger.Warn("[rpc] failed to persist boot config after Stop(%s): %v", name, err)
	}

	if waiter == nil {
		return table.NotResolved
	}
	outcome := <-waiter.Channel()
	s.logger.Debug("[rpc] Stop(%s) resolved %v, correlation %s", name, outcome, corrID)
	return outcome
}

func (s *Supervisor) handleRerun(req wire.NameWaitRequest) bool {
	name := table.BinName(req.Name)

	s.main.Lock()
	me, ok := s.main.Entries[name]
	var cfg table.ProcessConfig
	if ok {
		cfg = me.Config
	}
	s.main.Unlock()
	if !ok {
		return false
	}

	s.handleStop(wire.StopRequest{Name: req.Name, Wait: true})

	return s.handleLoad(wire.LoadRequest{
		Name:         req.Name,
		LaunchOnBoot: cfg.LaunchOnBoot,
		TermRerun:    cfg.TermRerun,
		TimeToStopMs: int32(cfg.TimeToStop / time.Millisecond),
		Wait:         req.Wait,
		Args:         cfg.Args,
	})
}

func (s *Supervisor) handleIsRunning(req wire.NameRequest) bool {
	name := table.BinName(req.Name)
	s.main.Lock()
	s.run.Lock()
	table.AssertOrder("main", "run")
	result := table.IsActive(s.run, s.main, name)
	s.run.Unlock()
	s.main.Unlock()
	return result
}

func (s *Supervisor) handleGetPid(req wire.NameRequest) int32 {
	name := table.BinName(req.Name)
	s.main.Lock()
	defer s.main.Unlock()
	if me, ok := s.main.Entries[name]; ok {
		return int32(me.PID)
	}
	return 0
}
