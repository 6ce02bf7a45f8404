package supervisor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opslane/supervisor/internal/client"
	"github.com/opslane/supervisor/logger"
)

// TestHappyLoadEndToEnd exercises scenario 1 from the end-to-end
// scenario list: a waiting Load resolves true once the (simulated)
// agent reports a pid, and GetPid/IsRunning reflect the promotion.
func TestHappyLoadEndToEnd(t *testing.T) {
	if os.Getenv("TEST_MAIN") == "agent" {
		t.Skip("this process is acting as the test agent helper")
	}

	port := freeTCPPort(t)
	configPath := filepath.Join(t.TempDir(), "boot-config")

	os.Setenv("TEST_MAIN", "agent")
	t.Cleanup(func() { os.Unsetenv("TEST_MAIN") })

	sup, err := New(Config{
		Port:        port,
		ConfigPath:  configPath,
		AgentBinary: os.Args[0],
		Logger:      logger.Discard,
	})
	if err != nil {
		t.Fatalf("New(...) = error %v", err)
	}
	t.Cleanup(sup.Shutdown)

	cl, err := client.Dial(addr(port))
	if err != nil {
		t.Fatalf("client.Dial(%s) = error %v", addr(port), err)
	}
	t.Cleanup(func() { cl.Close() }) //nolint:errcheck

	loadDone := make(chan bool, 1)
	loadErr := make(chan error, 1)
	go func() {
		ok, err := cl.Load("happy-load-target", client.LoadOptions{Wait: true})
		if err != nil {
			loadErr <- err
			return
		}
		loadDone <- ok
	}()

	select {
	case ok := <-loadDone:
		if !ok {
			t.Fatalf("Load(wait=true) = false, want true")
		}
	case err := <-loadErr:
		t.Fatalf("Load(wait=true) = error %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("Load(wait=true) never resolved")
	}

	pid, err := cl.GetPid("happy-load-target")
	if err != nil {
		t.Fatalf("GetPid(...) = error %v", err)
	}
	if pid <= 0 {
		t.Errorf("GetPid(...) = %d, want a positive pid", pid)
	}

	running, err := cl.IsRunning("happy-load-target")
	if err != nil {
		t.Fatalf("IsRunning(...) = error %v", err)
	}
	if !running {
		t.Errorf("IsRunning(...) = false, want true")
	}

	outcome, err := cl.Stop("happy-load-target", true)
	if err != nil {
		t.Fatalf("Stop(wait=true) = error %v", err)
	}
	t.Logf("Stop outcome: %v", outcome)

	running, err = cl.IsRunning("happy-load-target")
	if err != nil {
		t.Fatalf("IsRunning(...) after Stop = error %v", err)
	}
	if running {
		t.Errorf("IsRunning(...) after Stop = true, want false")
	}
}
