package wire_test

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/opslane/supervisor/internal/wire"
)

func TestListenerAcceptAndConnRoundTrip(t *testing.T) {
	ln, err := wire.Listen(0)
	if err != nil {
		t.Fatalf("wire.Listen(0) = error %v", err)
	}
	t.Cleanup(func() { ln.Close() }) //nolint:errcheck // best-effort cleanup

	accepted := make(chan *wire.Conn, 1)
	acceptErr := make(chan error, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			acceptErr <- err
			return
		}
		accepted <- c
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	nc, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("net.Dial(%d) = error %v", port, err)
	}
	t.Cleanup(func() { nc.Close() }) //nolint:errcheck

	client := wire.Wrap(nc)
	if err := wire.WriteInt32(client.Writer(), int32(wire.RoleClient)); err != nil {
		t.Fatalf("WriteInt32(RoleClient) = %v", err)
	}

	var server *wire.Conn
	select {
	case server = <-accepted:
	case err := <-acceptErr:
		t.Fatalf("Accept() = error %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("Accept() never returned")
	}
	t.Cleanup(func() { server.Close() }) //nolint:errcheck

	role, err := wire.ReadInt32(server.Reader())
	if err != nil {
		t.Fatalf("ReadInt32(role) = %v", err)
	}
	if wire.Role(role) != wire.RoleClient {
		t.Errorf("role = %d, want RoleClient", role)
	}

	if err := wire.WriteString(client.Writer(), "hello"); err != nil {
		t.Fatalf("WriteString(hello) = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		avail, err := server.IsAvailable()
		if err != nil {
			t.Fatalf("IsAvailable() = error %v", err)
		}
		if avail {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("IsAvailable() never became true")
		}
		time.Sleep(time.Millisecond)
	}

	got, err := wire.ReadString(server.Reader())
	if err != nil {
		t.Fatalf("ReadString() = error %v", err)
	}
	if got != "hello" {
		t.Errorf("ReadString() = %q, want %q", got, "hello")
	}
}

func TestListenerCloseBreaksAccept(t *testing.T) {
	ln, err := wire.Listen(0)
	if err != nil {
		t.Fatalf("wire.Listen(0) = error %v", err)
	}

	acceptErr := make(chan error, 1)
	go func() {
		_, err := ln.Accept()
		acceptErr <- err
	}()

	// Give Accept a moment to block before closing.
	time.Sleep(10 * time.Millisecond)
	if err := ln.Close(); err != nil {
		t.Fatalf("ln.Close() = %v", err)
	}

	select {
	case err := <-acceptErr:
		if !errors.Is(err, wire.ErrConnectionBreak) {
			t.Errorf("Accept() after Close() = %v, want ErrConnectionBreak", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Accept() never returned after Close()")
	}
}
