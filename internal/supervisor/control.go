package supervisor

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/opslane/supervisor/internal/procsignal"
	"github.com/opslane/supervisor/internal/table"
)

// controlLoop runs three fixed-order phases per tick, while the
// daemon is active or Main still has entries to drain.
func (s *Supervisor) controlLoop() {
	defer close(s.controlDone)

	for {
		s.phaseR()
		s.phaseT()
		s.phaseM()

		if !s.isActive() && s.mainEmpty() {
			return
		}
		time.Sleep(LoopWait)
	}
}

func (s *Supervisor) mainEmpty() bool {
	s.main.Lock()
	defer s.main.Unlock()
	return len(s.main.Entries) == 0
}

// phaseR drives Run forward. The documented order is Main then Run:
// promotion needs both tables, and holding Main for the phase's
// duration (rather than dropping it between Run entries) avoids a
// lock-order inversion against any concurrent reader that correctly
// acquires Main before Run (e.g. IsRunning), since Phase R never does
// blocking I/O while holding these locks.
func (s *Supervisor) phaseR() {
	s.main.Lock()
	s.run.Lock()
	table.AssertOrder("main", "run")
	defer s.run.Unlock()
	defer s.main.Unlock()

	now := time.Now()
	for name, e := range s.run.Entries {
		switch {
		case e.PID != 0:
			s.main.Entries[name] = &table.MainEntry{Config: e.Config, PID: e.PID}
			if e.Waiter != nil {
				e.Waiter.Signal(true)
			}
			if !e.LastRun.IsZero() {
				s.logger.Debug("[control] %s reported pid %d, %s after spawn", name, e.PID, humanize.RelTime(e.LastRun, now, "", ""))
			}
			delete(s.run.Entries, name)

		case !e.LastRun.IsZero() && now.Sub(e.LastRun) >= WaitToRerun:
			e.LastRun = time.Time{}

		case e.LastRun.IsZero() && s.isActive():
			if err := s.spawner.SendRun(name, e.Config); err != nil {
				s.logger.Warn("[control] spawn failed for %s: %v", name, err)
			} else {
				e.LastRun = now
			}
		}
	}
}

// phaseT processes Term, holding Main, then Run, then Term, matching
// the declared lock order exactly.
func (s *Supervisor) phaseT() {
	s.main.Lock()
	s.run.Lock()
	table.AssertOrder("main", "run")
	s.term.Lock()
	table.AssertOrder("run", "term")
	defer s.term.Unlock()
	defer s.run.Unlock()
	defer s.main.Unlock()

	now := time.Now()
	for name, t := range s.term.Entries {
		if me, ok := s.main.Entries[name]; ok {
			s.resolveTermAgainstMain(name, t, me, now)
			continue
		}
		if re, ok := s.run.Entries[name]; ok {
			if re.PID == 0 {
				delete(s.run.Entries, name)
				t.Waiter.Signal(table.NotRun)
				delete(s.term.Entries, name)
			}
			// Else: pid is set but Phase R (earlier this tick) hasn't
			// promoted it yet only because the agent's report arrived
			// after Phase R ran; leave it for the next tick.
			continue
		}
		t.Waiter.Signal(table.NotRunning)
		delete(s.term.Entries, name)
	}
}

func (s *Supervisor) resolveTermAgainstMain(name table.BinName, t *table.TermEntry, me *table.MainEntry, now time.Time) {
	if !procsignal.Alive(me.PID) {
		delete(s.main.Entries, name)
		t.Waiter.Signal(table.SigTerm)
		delete(s.term.Entries, name)
		return
	}

	switch {
	case t.TermSent.IsZero():
		if err := procsignal.Send(me.PID, procsignal.SIGTERM); err != nil {
			s.logger.Warn("[control] SIGTERM to %s (pid %d): %v", name, me.PID, err)
		}
		if me.Config.TimeToStop == 0 {
			delete(s.main.Entries, name)
			t.Waiter.Signal(table.NoCheck)
			delete(s.term.Entries, name)
			return
		}
		t.TermSent = now

	case now.Sub(t.TermSent) > me.Config.TimeToStop:
		if err := procsignal.Send(me.PID, procsignal.SIGKILL); err != nil {
			s.logger.Warn("[control] SIGKILL to %s (pid %d): %v", name, me.PID, err)
		}
		delete(s.main.Entries, name)
		t.Waiter.Signal(table.SigKill)
		delete(s.term.Entries, name)

	default:
		// Waiting for the escalation deadline.
	}
}

// phaseM reaps dead Main entries, holding Main and (nested, per the
// table package's documented lock order) Term to check
// ownership, then re-queuing any term_rerun survivors to Run after
// releasing Main.
func (s *Supervisor) phaseM() {
	s.main.Lock()
	s.term.Lock()
	table.AssertOrder("main", "term")

	type survivor struct {
		name table.BinName
		cfg  table.ProcessConfig
	}
	var rerun []survivor

	for name, e := range s.main.Entries {
		if _, inTerm := s.term.Entries[name]; inTerm {
			continue
		}
		if !procsignal.Alive(e.PID) {
			if e.Config.TermRerun {
				rerun = append(rerun, survivor{name, e.Config})
			}
			delete(s.main.Entries, name)
		}
	}

	s.term.Unlock()
	s.main.Unlock()

	if len(rerun) == 0 {
		return
	}

	s.run.Lock()
	for _, sv := range rerun {
		if _, exists := s.run.Entries[sv.name]; !exists {
			s.run.Entries[sv.name] = &table.RunEntry{Config: sv.cfg}
		}
	}
	s.run.Unlock()
}
