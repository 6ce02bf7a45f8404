package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/opslane/supervisor/internal/config"
	"github.com/opslane/supervisor/internal/table"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist")

	entries, err := config.Load(path)
	if err != nil {
		t.Fatalf("config.Load(%q) = error %v", path, err)
	}
	if len(entries) != 0 {
		t.Errorf("config.Load(%q) = %v, want empty", path, entries)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boot-config")

	want := []config.Entry{
		{
			Name: "/bin/sleep",
			Config: table.ProcessConfig{
				Args:         []string{"10"},
				LaunchOnBoot: true,
				TermRerun:    true,
				TimeToStop:   250 * time.Millisecond,
			},
		},
		{
			Name: "/usr/bin/echo",
			Config: table.ProcessConfig{
				Args:         nil,
				LaunchOnBoot: true,
				TermRerun:    false,
				TimeToStop:   0,
			},
		},
	}

	if err := config.Save(path, want); err != nil {
		t.Fatalf("config.Save(%q, entries) = %v", path, err)
	}

	got, err := config.Load(path)
	if err != nil {
		t.Fatalf("config.Load(%q) = error %v", path, err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config.Load(%q) round-trip mismatch (-want +got):\n%s", path, diff)
	}
}

func TestSaveRejectsWhitespaceInArgs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boot-config")

	entries := []config.Entry{
		{
			Name: "/bin/sh",
			Config: table.ProcessConfig{
				Args:         []string{"hello world"},
				LaunchOnBoot: true,
			},
		},
	}

	if err := config.Save(path, entries); err == nil {
		t.Errorf("config.Save(entries with whitespace arg) = nil error, want error")
	}
}

func TestSnapshotOnlyIncludesLaunchOnBoot(t *testing.T) {
	run := table.NewRunTable()
	main := table.NewMainTable()

	run.Lock()
	run.Entries["/bin/a"] = &table.RunEntry{Config: table.ProcessConfig{LaunchOnBoot: true}}
	run.Entries["/bin/b"] = &table.RunEntry{Config: table.ProcessConfig{LaunchOnBoot: false}}
	run.Unlock()

	main.Lock()
	main.Entries["/bin/c"] = &table.MainEntry{PID: 1, Config: table.ProcessConfig{LaunchOnBoot: true}}
	main.Unlock()

	run.Lock()
	main.Lock()
	snap := config.Snapshot(run, main)
	main.Unlock()
	run.Unlock()

	if len(snap) != 2 {
		t.Fatalf("len(Snapshot()) = %d, want 2", len(snap))
	}
	names := map[table.BinName]bool{}
	for _, e := range snap {
		names[e.Name] = true
	}
	if !names["/bin/a"] || !names["/bin/c"] || names["/bin/b"] {
		t.Errorf("Snapshot() = %v, want only /bin/a and /bin/c", snap)
	}
}
