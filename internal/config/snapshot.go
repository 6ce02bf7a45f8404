package config

import "github.com/opslane/supervisor/internal/table"

// Snapshot computes the boot-config entry set:
//
//	BootConfig == { (name, e.config) : e in Run ∪ Main, e.config.LaunchOnBoot }
//
// Callers must hold both main's and run's locks (Main first, per the
// table package's lock order) for the duration of the call.
func Snapshot(run *table.RunTable, main *table.MainTable) []Entry {
	entries := make([]Entry, 0, len(run.Entries)+len(main.Entries))
	for name, e := range run.Entries {
		if e.Config.LaunchOnBoot {
			entries = append(entries, Entry{Name: name, Config: e.Config})
		}
	}
	for name, e := range main.Entries {
		if e.Config.LaunchOnBoot {
			entries = append(entries, Entry{Name: name, Config: e.Config})
		}
	}
	return entries
}
