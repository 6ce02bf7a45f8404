// Command supervisor is the process launcher daemon: it listens on a
// TCP control port, accepts Load/Stop/Rerun/IsRunning/GetPid requests
// from clients, and drives supervised binaries through an agent helper
// that reports its PID back and then execs the target in place.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/opslane/supervisor/internal/statuspage"
	"github.com/opslane/supervisor/internal/supervisor"
	"github.com/opslane/supervisor/logger"
	"github.com/opslane/supervisor/signalwatcher"
	"github.com/opslane/supervisor/version"
	"github.com/urfave/cli"
)

const description = `Usage:

    supervisor <port> <config_file> <agent_binary>

Description:

Starts the supervisor daemon listening on <port>. <config_file> is the
boot-config record file to replay on start and persist to on every
Load/Stop. <agent_binary> is the helper executable used to fork and
exec supervised processes.

The daemon exits 0 on a clean SIGTERM shutdown, nonzero if it could
not be constructed (e.g. the port is already in use).`

func main() {
	app := cli.NewApp()
	app.Name = "supervisor"
	app.Usage = "launch and supervise child processes over a TCP control channel"
	app.Description = description
	app.Version = version.FullVersion()
	app.ErrWriter = os.Stderr
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "status-addr",
			Usage: "optional host:port to serve a read-only JSON status page on",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 3 {
		return cli.NewExitError("usage: supervisor <port> <config_file> <agent_binary>", 1)
	}

	port, err := strconv.Atoi(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("invalid port %q: %v", c.Args().Get(0), err), 1)
	}
	configPath := c.Args().Get(1)
	agentBinary := c.Args().Get(2)

	l := logger.NewConsoleLogger(logger.NewTextPrinter(os.Stderr), os.Exit)

	startedAt := time.Now()
	sup, err := supervisor.New(supervisor.Config{
		Port:        port,
		ConfigPath:  configPath,
		AgentBinary: agentBinary,
		Logger:      l,
	})
	if err != nil {
		l.Error("[supervisor] construction failed: %v", err)
		return cli.NewExitError(err.Error(), 1)
	}

	if addr := c.String("status-addr"); addr != "" {
		srv := &http.Server{Addr: addr, Handler: statuspage.New(sup, startedAt)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				l.Warn("[supervisor] status page stopped: %v", err)
			}
		}()
		l.Info("[supervisor] status page on %s", addr)
	}

	shutdown := make(chan struct{})
	var once sync.Once
	signalwatcher.Watch(func(sig signalwatcher.Signal) {
		l.Notice("[supervisor] received signal %s, shutting down", sig)
		sup.Shutdown()
		once.Do(func() { close(shutdown) })
	})

	l.Info("[supervisor] listening on port %d, config %s, agent %s", port, configPath, agentBinary)
	<-shutdown
	return nil
}
