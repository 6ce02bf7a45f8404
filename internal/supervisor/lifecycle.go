package supervisor

import "github.com/opslane/supervisor/internal/table"

// Shutdown runs the eight-step graceful shutdown sequence. It is
// idempotent: a second call blocks until the first completes and
// then returns immediately.
func (s *Supervisor) Shutdown() {
	s.shutdownOnce.Do(s.shutdown)
}

func (s *Supervisor) shutdown() {
	// 1. Stop accepting new work.
	s.activeMu.Lock()
	s.active = false
	s.activeMu.Unlock()

	// 2. Join the receiver loop.
	<-s.receiverDone

	// 3. Close the listener and join the acceptor loop.
	if err := s.listener.Close(); err != nil {
		s.logger.Warn("[supervisor] closing listener: %v", err)
	}
	<-s.acceptorDone

	// 4. Persist boot config.
	if err := s.persistBootConfig(); err != nil {
		s.logger.Warn("[supervisor] failed to persist boot config on shutdown: %v", err)
	}

	// 5. Insert a non-blocking Stop for every entry in Main. This goes
	// straight into Term rather than through handleStop, which also
	// clears launch_on_boot. Shutdown is not a user request to
	// permanently retire these entries, only to stop the processes for
	// this daemon's own exit, so the boot config persisted in step 4
	// must stand.
	s.main.Lock()
	names := make([]table.BinName, 0, len(s.main.Entries))
	for name := range s.main.Entries {
		names = append(names, name)
	}
	s.main.Unlock()

	s.term.Lock()
	for _, name := range names {
		if _, exists := s.term.Entries[name]; !exists {
			s.term.Entries[name] = &table.TermEntry{}
		}
	}
	s.term.Unlock()

	// 6. Wait for the control loop to drain Main and join it.
	<-s.controlDone

	// 7. Signal every still-pending Run waiter with failure and every
	// Term waiter with TermError.
	s.run.Lock()
	for _, e := range s.run.Entries {
		e.Waiter.Signal(false)
	}
	s.run.Unlock()

	s.term.Lock()
	for _, t := range s.term.Entries {
		t.Waiter.Signal(table.TermError)
	}
	s.term.Unlock()

	// 8. Close and join all client handler threads.
	s.closeAllClients()
}
