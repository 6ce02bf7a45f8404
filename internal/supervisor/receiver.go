package supervisor

import "time"

// receiveLoop polls, every LoopWait, each idle client
// connection and spawn a one-command handler for any that have data
// ready. A client entry is referenced only by its map handle; the
// handler goroutine communicates completion back via its done channel
// rather than anything the receiver loop shares by reference across
// ticks, so no raw table iterator is ever shared across goroutines.
func (s *Supervisor) receiveLoop() {
	defer close(s.receiverDone)

	for {
		if !s.isActive() {
			return
		}
		s.pollClients()
		time.Sleep(LoopWait)
	}
}

func (s *Supervisor) pollClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for h, ce := range s.clients {
		if ce.running {
			select {
			case dead := <-ce.done:
				ce.running = false
				if dead {
					ce.conn.Close()
					delete(s.clients, h)
				}
			default:
				// Still in flight; check again next tick.
			}
			continue
		}

		avail, err := ce.conn.IsAvailable()
		if err != nil {
			ce.conn.Close()
			delete(s.clients, h)
			continue
		}
		if !avail {
			continue
		}

		ce.running = true
		go func(ce *clientEntry) {
			ce.done <- s.handleCommand(ce.conn)
		}(ce)
	}
}

// closeAllClients is used during shutdown to close and drop every
// remaining client connection once the receiver loop has stopped
// polling them.
func (s *Supervisor) closeAllClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for h, ce := range s.clients {
		if ce.running {
			<-ce.done
		}
		ce.conn.Close()
		delete(s.clients, h)
	}
}
