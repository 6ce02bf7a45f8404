// Package supervisor implements the daemon core: the acceptor and
// receiver loops that service the control connection, and the
// control loop that drives the Run/Main/Term tables forward each
// tick.
package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/buildkite/roko"
	"github.com/opslane/supervisor/internal/agentspawn"
	"github.com/opslane/supervisor/internal/config"
	"github.com/opslane/supervisor/internal/table"
	"github.com/opslane/supervisor/internal/wire"
	"github.com/opslane/supervisor/logger"
)

// LoopWait is the control loop's and the receiver loop's tick period.
const LoopWait = 100 * time.Millisecond

// WaitToRerun is how long a Run entry waits for its agent's report
// before Phase R resets it to NeedsLaunch and tries again.
const WaitToRerun = 100 * time.Millisecond

// Config configures a new Supervisor.
type Config struct {
	Port        int
	ConfigPath  string
	AgentBinary string
	Logger      logger.Logger
}

// Supervisor owns every table, the control connection listener, and
// the three worker loops (acceptor, receiver, control). Exactly one
// Supervisor exists per process, constructed and held by cmd/supervisor's
// main rather than a package-level variable, so signal handling has
// something concrete to close over instead of reaching for a global.
type Supervisor struct {
	logger      logger.Logger
	configPath  string
	agentBinary string

	listener *wire.Listener
	spawner  *agentspawn.Spawner

	run  *table.RunTable
	main *table.MainTable
	term *table.TermTable
	boot *table.BootLock

	clientsMu  sync.Mutex
	clients    map[int]*clientEntry
	nextHandle int

	activeMu sync.Mutex
	active   bool

	acceptorDone chan struct{}
	receiverDone chan struct{}
	controlDone  chan struct{}

	shutdownOnce sync.Once
}

// New opens the control listener, replays the persisted boot config
// into Run, and starts the acceptor, receiver and control loops.
func New(cfg Config) (*Supervisor, error) {
	ln, err := wire.Listen(cfg.Port)
	if err != nil {
		return nil, err
	}

	s := &Supervisor{
		logger:      cfg.Logger,
		configPath:  cfg.ConfigPath,
		agentBinary: cfg.AgentBinary,
		listener:    ln,
		spawner: &agentspawn.Spawner{
			AgentBinary: cfg.AgentBinary,
			Port:        cfg.Port,
			Logger:      cfg.Logger,
		},
		run:          table.NewRunTable(),
		main:         table.NewMainTable(),
		term:         table.NewTermTable(),
		boot:         &table.BootLock{},
		clients:      make(map[int]*clientEntry),
		active:       true,
		acceptorDone: make(chan struct{}),
		receiverDone: make(chan struct{}),
		controlDone:  make(chan struct{}),
	}

	entries, err := config.Load(cfg.ConfigPath)
	if err != nil {
		s.logger.Warn("[supervisor] failed to load boot config %s: %v", cfg.ConfigPath, err)
	}
	if len(entries) > 0 {
		s.run.Lock()
		for _, e := range entries {
			s.run.Entries[e.Name] = &table.RunEntry{Config: e.Config}
		}
		s.run.Unlock()
		s.logger.Info("[supervisor] replayed %d boot-config entr(y/ies) from %s", len(entries), cfg.ConfigPath)
	}

	go s.acceptLoop()
	go s.receiveLoop()
	go s.controlLoop()

	return s, nil
}

// Addr returns the control listener's bound address.
func (s *Supervisor) Addr() interface{ String() string } { return s.listener.Addr() }

func (s *Supervisor) isActive() bool {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	return s.active
}

// persistBootConfig recomputes the boot-config snapshot under Main
// then Run (in that order, per table.order's Main<Run<Term<Boot rule)
// and writes it under the Boot lock. The write is retried a few times
// with a short constant backoff before being treated as a ConfigIoError
// (logged at Warning by the caller), since a save racing a transient
// "too many open files" or similar condition shouldn't be fatal to the
// request that triggered it.
func (s *Supervisor) persistBootConfig() error {
	s.main.Lock()
	s.run.Lock()
	table.AssertOrder("main", "run")
	snap := config.Snapshot(s.run, s.main)
	s.run.Unlock()
	s.main.Unlock()

	s.boot.Lock()
	table.AssertOrder("run", "boot")
	defer s.boot.Unlock()

	r := roko.NewRetrier(
		roko.WithMaxAttempts(3),
		roko.WithStrategy(roko.Constant(20*time.Millisecond)),
	)
	_, err := roko.DoFunc(context.Background(), r, func(r *roko.Retrier) (struct{}, error) {
		err := config.Save(s.configPath, snap)
		if err != nil {
			s.logger.Warn("[supervisor] saving boot config (%s): %v", r, err)
		}
		return struct{}{}, err
	})
	return err
}
