package supervisor

import (
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/opslane/supervisor/internal/procsignal"
	"github.com/opslane/supervisor/internal/table"
	"github.com/opslane/supervisor/logger"
)

// newTestSupervisor builds a Supervisor with initialized tables but no
// listener or worker loops, so individual control-loop phases and RPC
// handlers can be exercised directly and deterministically.
func newTestSupervisor(t *testing.T) *Supervisor {
	t.Helper()
	return &Supervisor{
		logger:     logger.Discard,
		configPath: t.TempDir() + "/boot-config",
		run:        table.NewRunTable(),
		main:       table.NewMainTable(),
		term:       table.NewTermTable(),
		boot:       &table.BootLock{},
		active:     true,
	}
}

func TestPhaseRPromotesReportedEntry(t *testing.T) {
	s := newTestSupervisor(t)
	waiter := table.NewWaiter[bool]()

	s.run.Lock()
	s.run.Entries["/bin/sleep"] = &table.RunEntry{PID: 4242, Waiter: waiter}
	s.run.Unlock()

	s.phaseR()

	s.run.Lock()
	if _, ok := s.run.Entries["/bin/sleep"]; ok {
		t.Errorf("Run still contains /bin/sleep after promotion")
	}
	s.run.Unlock()

	s.main.Lock()
	me, ok := s.main.Entries["/bin/sleep"]
	s.main.Unlock()
	if !ok {
		t.Fatalf("Main does not contain /bin/sleep after promotion")
	}
	if me.PID != 4242 {
		t.Errorf("Main[/bin/sleep].PID = %d, want 4242", me.PID)
	}

	select {
	case got := <-waiter.Channel():
		if !got {
			t.Errorf("waiter signaled %v, want true", got)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter was never signaled")
	}
}

func TestPhaseTSendsSigTermAndReportsNoCheck(t *testing.T) {
	cmd := exec.Command("sleep", "5")
	if err := cmd.Start(); err != nil {
		t.Skipf("could not start sleep: %v", err)
	}
	t.Cleanup(func() { cmd.Process.Kill(); cmd.Wait() }) //nolint:errcheck

	s := newTestSupervisor(t)
	s.main.Lock()
	s.main.Entries["target"] = &table.MainEntry{PID: cmd.Process.Pid, Config: table.ProcessConfig{TimeToStop: 0}}
	s.main.Unlock()

	waiter := table.NewWaiter[table.TerminationOutcome]()
	s.term.Lock()
	s.term.Entries["target"] = &table.TermEntry{Waiter: waiter}
	s.term.Unlock()

	s.phaseT()

	select {
	case outcome := <-waiter.Channel():
		if outcome != table.NoCheck {
			t.Errorf("waiter signaled %v, want NoCheck", outcome)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter was never signaled")
	}

	s.main.Lock()
	_, stillMain := s.main.Entries["target"]
	s.main.Unlock()
	if stillMain {
		t.Errorf("Main still contains target after NoCheck stop")
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("process was never terminated by SIGTERM")
	}
}

func TestPhaseMReapsDeadEntryAndRerunsIfConfigured(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		t.Skipf("could not start true: %v", err)
	}
	cmd.Wait() //nolint:errcheck // we want this pid to already be dead

	s := newTestSupervisor(t)
	s.main.Lock()
	s.main.Entries["flaky"] = &table.MainEntry{
		PID:    cmd.Process.Pid,
		Config: table.ProcessConfig{TermRerun: true},
	}
	s.main.Unlock()

	s.phaseM()

	s.main.Lock()
	_, stillMain := s.main.Entries["flaky"]
	s.main.Unlock()
	if stillMain {
		t.Errorf("Main still contains flaky after Phase M reap")
	}

	s.run.Lock()
	_, inRun := s.run.Entries["flaky"]
	s.run.Unlock()
	if !inRun {
		t.Errorf("Run does not contain flaky after term_rerun reap")
	}
}

func TestProcsignalAliveOfSelf(t *testing.T) {
	if !procsignal.Alive(os.Getpid()) {
		t.Errorf("Alive(os.Getpid()) = false, want true")
	}
}
