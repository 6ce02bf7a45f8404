package wire

import (
	"bufio"
	"errors"
	"net"
	"time"
)

// Conn wraps a net.Conn with a buffered reader so IsAvailable can peek
// without consuming, and every record send/receive goes through the
// same reader/writer pair.
type Conn struct {
	nc net.Conn
	r  *bufio.Reader
}

// Wrap adapts an accepted net.Conn into a Conn.
func Wrap(nc net.Conn) *Conn {
	return &Conn{nc: nc, r: bufio.NewReader(nc)}
}

// Reader returns the buffered reader records are decoded from.
func (c *Conn) Reader() *bufio.Reader { return c.r }

// Writer returns the underlying net.Conn records are encoded to.
func (c *Conn) Writer() net.Conn { return c.nc }

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.nc.Close() }

// IsAvailable reports, without blocking, whether at least one byte of a
// new record is readable. It is used by the receiver loop's poll of
// idle client connections.
func (c *Conn) IsAvailable() (bool, error) {
	if c.r.Buffered() > 0 {
		return true, nil
	}

	// Briefly arm a read deadline one millisecond from now, peek one
	// byte, then disarm. This is the standard idiomatic way to do a
	// non-blocking readability check on a net.Conn without a separate
	// poller goroutine per connection.
	if err := c.nc.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return false, err
	}
	defer c.nc.SetReadDeadline(time.Time{}) //nolint:errcheck

	_, err := c.r.Peek(1)
	if err == nil {
		return true, nil
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return false, nil
	}
	return false, wrapShortRead(err)
}

// Listener accepts Connections, returning ErrConnectionBreak once the
// underlying listener has been closed, so the acceptor loop can exit
// cleanly on shutdown.
type Listener struct {
	ln net.Listener
}

// Listen opens a TCP listener on the given port.
func Listen(port int) (*Listener, error) {
	ln, err := net.Listen("tcp", portAddr(port))
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln}, nil
}

// Accept blocks until a peer connects, or returns ErrConnectionBreak if
// the listener has been closed.
func (l *Listener) Accept() (*Conn, error) {
	nc, err := l.ln.Accept()
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, ErrConnectionBreak
		}
		return nil, err
	}
	return Wrap(nc), nil
}

// Close closes the listener, causing any blocked Accept to return
// ErrConnectionBreak.
func (l *Listener) Close() error { return l.ln.Close() }

// Addr returns the listener's bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }
