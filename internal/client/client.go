// Package client is a small Go client library for the supervisor's
// control protocol: dial once, tag the connection as a client, then
// issue any number of Load/Stop/Rerun/IsRunning/GetPid calls over it.
// Each call is synchronous: it writes one request record and blocks
// for the matching response record.
package client

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/opslane/supervisor/internal/table"
	"github.com/opslane/supervisor/internal/wire"
)

// Client is a single control connection to a supervisor instance. It
// is safe for concurrent use; calls are serialized, matching the
// protocol's one-response-per-request framing.
type Client struct {
	mu   sync.Mutex
	conn *wire.Conn
}

// Dial connects to a supervisor listening at addr (host:port or
// :port) and performs the client handshake.
func Dial(addr string) (*Client, error) {
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dialing %s: %w", addr, err)
	}
	c := &Client{conn: wire.Wrap(nc)}
	if err := wire.WriteInt32(c.conn.Writer(), int32(wire.RoleClient)); err != nil {
		nc.Close()
		return nil, fmt.Errorf("client: sending handshake: %w", err)
	}
	return c, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// LoadOptions mirrors the fields a Load request carries, named for
// clarity at call sites instead of a long positional argument list.
type LoadOptions struct {
	LaunchOnBoot bool
	TermRerun    bool
	TimeToStop   time.Duration
	Wait         bool
	Args         []string
}

// Load asks the supervisor to launch name. It returns false without
// inserting anything if name is already in Run or Main.
func (c *Client) Load(name string, opts LoadOptions) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := wire.WriteInt32(c.conn.Writer(), int32(wire.CmdLoad)); err != nil {
		return false, err
	}
	req := wire.LoadRequest{
		Name:         name,
		LaunchOnBoot: opts.LaunchOnBoot,
		TermRerun:    opts.TermRerun,
		TimeToStopMs: int32(opts.TimeToStop / time.Millisecond),
		Wait:         opts.Wait,
		Args:         opts.Args,
	}
	if err := wire.WriteLoadRequest(c.conn.Writer(), req); err != nil {
		return false, err
	}
	return wire.ReadBool(c.conn.Reader())
}

// Stop asks the supervisor to terminate name.
func (c *Client) Stop(name string, wait bool) (table.TerminationOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := wire.WriteInt32(c.conn.Writer(), int32(wire.CmdStop)); err != nil {
		return table.NotResolved, err
	}
	if err := wire.WriteStopRequest(c.conn.Writer(), wire.StopRequest{Name: name, Wait: wait}); err != nil {
		return table.NotResolved, err
	}
	code, err := wire.ReadInt32(c.conn.Reader())
	return table.TerminationOutcome(code), err
}

// Rerun stops and reloads a running process with its existing config.
func (c *Client) Rerun(name string, wait bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := wire.WriteInt32(c.conn.Writer(), int32(wire.CmdRerun)); err != nil {
		return false, err
	}
	if err := wire.WriteNameWaitRequest(c.conn.Writer(), wire.NameWaitRequest{Name: name, Wait: wait}); err != nil {
		return false, err
	}
	return wire.ReadBool(c.conn.Reader())
}

// IsRunning reports whether name is in Run or Main.
func (c *Client) IsRunning(name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := wire.WriteInt32(c.conn.Writer(), int32(wire.CmdIsRunning)); err != nil {
		return false, err
	}
	if err := wire.WriteNameRequest(c.conn.Writer(), wire.NameRequest{Name: name}); err != nil {
		return false, err
	}
	return wire.ReadBool(c.conn.Reader())
}

// GetPid returns the supervised PID for name, or 0 if it is not in Main.
func (c *Client) GetPid(name string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := wire.WriteInt32(c.conn.Writer(), int32(wire.CmdGetPid)); err != nil {
		return 0, err
	}
	if err := wire.WriteNameRequest(c.conn.Writer(), wire.NameRequest{Name: name}); err != nil {
		return 0, err
	}
	pid, err := wire.ReadInt32(c.conn.Reader())
	return int(pid), err
}
