package supervisor

import "github.com/opslane/supervisor/internal/wire"

// clientEntry tracks one accepted client connection. Entries are
// referenced only by their map key (a stable integer handle assigned at
// accept time), never by a shared iterator or pointer passed loosely
// between goroutines, per DESIGN NOTES' guidance against exposing raw
// iterators across threads.
type clientEntry struct {
	conn    *wire.Conn
	running bool
	// done carries whether the connection should be dropped once the
	// in-flight handler (if any) finishes serving one command.
	done chan bool
}

func newClientEntry(c *wire.Conn) *clientEntry {
	return &clientEntry{conn: c, done: make(chan bool, 1)}
}
