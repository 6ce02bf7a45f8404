// Package config persists the boot-time launch list: the set of
// (BinName, ProcessConfig) pairs whose LaunchOnBoot is true, replayed
// into the Run table when the supervisor starts.
//
// The on-disk format is deliberately simple: tab-separated tokens, one
// record per line, with an integer header giving the record count.
// Arguments containing whitespace are not representable; this is a
// known limitation of the format (see SPEC_FULL.md §9).
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/opslane/supervisor/internal/table"
	"github.com/opslane/supervisor/lockfile"
)

// Entry is one persisted boot-config record.
type Entry struct {
	Name   table.BinName
	Config table.ProcessConfig
}

// Load reads the boot-config file at path. A missing file is treated as
// an empty list rather than an error, since a daemon's first run has
// no boot config yet. Every loaded entry has LaunchOnBoot forced true,
// since only LaunchOnBoot entries are ever persisted.
//
// Load takes its own advisory lock (via flock, on a path distinct from
// Save's) for the duration of the read, guarding against concurrent
// Load calls. It does not mutually exclude against Save: Save's
// temp-file-then-rename means Load either opens the old file complete
// or the new one complete, never a partial write, so this is safe
// without a shared lock.
func Load(path string) ([]Entry, error) {
	fl := flock.New(path + ".lock")
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("config: locking %s for read: %w", path, err)
	}
	defer fl.Unlock() //nolint:errcheck

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		// Empty file: no header, no records.
		return nil, nil
	}
	count, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return nil, fmt.Errorf("config: parsing record count in %s: %w", path, err)
	}

	entries := make([]Entry, 0, count)
	for i := 0; i < count && scanner.Scan(); i++ {
		entry, err := parseLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("config: parsing record %d in %s: %w", i+1, path, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	return entries, nil
}

// parseLine parses one tab-separated record:
//
//	name  argc  arg1 ... argN  term_rerun(0/1)  time_to_stop_ms
func parseLine(line string) (Entry, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		return Entry{}, fmt.Errorf("malformed record: %q", line)
	}

	name := fields[0]
	argc, err := strconv.Atoi(fields[1])
	if err != nil {
		return Entry{}, fmt.Errorf("malformed argc: %w", err)
	}
	if len(fields) != 3+argc+1 {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", 3+argc+1, len(fields))
	}

	args := append([]string(nil), fields[2:2+argc]...)
	termRerunStr := fields[2+argc]
	ttsStr := fields[3+argc]

	termRerun, err := strconv.Atoi(termRerunStr)
	if err != nil {
		return Entry{}, fmt.Errorf("malformed term_rerun flag: %w", err)
	}
	ttsMs, err := strconv.Atoi(ttsStr)
	if err != nil {
		return Entry{}, fmt.Errorf("malformed time_to_stop: %w", err)
	}

	return Entry{
		Name: table.BinName(name),
		Config: table.ProcessConfig{
			Args:         args,
			LaunchOnBoot: true,
			TermRerun:    termRerun != 0,
			TimeToStop:   msToDuration(ttsMs),
		},
	}, nil
}

// Save overwrites path with entries, writing to a temp file in the same
// directory and renaming over the original so a crash mid-write leaves
// the old file (or, at worst, a truncated *new* file that is never
// linked in) rather than a half-written boot config.
//
// Save additionally holds an exclusive, process-and-thread-safe lock
// (this module's own lockfile package) for the duration of the write,
// so two racing Save calls (e.g. a Load RPC's boot-config update
// racing with Shutdown's persistence step) never interleave: the lock
// is taken with TryLock, so a Save that finds it held returns an error
// at once instead of waiting for it.
func Save(path string, entries []Entry) error {
	lf, err := lockfile.New(path + ".save-lock")
	if err != nil {
		return fmt.Errorf("config: creating save lock for %s: %w", path, err)
	}
	if err := lf.TryLock(); err != nil {
		return fmt.Errorf("config: acquiring save lock for %s: %w", path, err)
	}
	defer lf.Unlock() //nolint:errcheck

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".boot-config-*.tmp")
	if err != nil {
		return fmt.Errorf("config: creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	// Best-effort cleanup if we fail before the rename.
	defer os.Remove(tmpPath) //nolint:errcheck

	w := bufio.NewWriter(tmp)
	fmt.Fprintln(w, len(entries))
	for _, e := range entries {
		if err := writeLine(w, e); err != nil {
			tmp.Close()
			return fmt.Errorf("config: writing record for %s: %w", e.Name, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("config: flushing %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: closing %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("config: renaming %s to %s: %w", tmpPath, path, err)
	}
	return nil
}

func writeLine(w *bufio.Writer, e Entry) error {
	for _, a := range e.Config.Args {
		if strings.ContainsAny(a, " \t\n") {
			return fmt.Errorf("argument %q contains whitespace, which is not representable in the config file format", a)
		}
	}

	fields := make([]string, 0, 4+len(e.Config.Args))
	fields = append(fields, string(e.Name), strconv.Itoa(len(e.Config.Args)))
	fields = append(fields, e.Config.Args...)
	fields = append(fields, boolToFlag(e.Config.TermRerun), strconv.Itoa(durationToMs(e.Config.TimeToStop)))

	_, err := fmt.Fprintln(w, strings.Join(fields, "\t"))
	return err
}

func boolToFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// durationToMs converts a TimeToStop duration to the on-disk integer
// millisecond representation, where 0 denotes "absent".
func durationToMs(d time.Duration) int {
	return int(d / time.Millisecond)
}

// msToDuration is the inverse of durationToMs.
func msToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
