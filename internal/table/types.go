// Package table implements the three keyed process tables (Run, Main,
// Term) that the supervisor's control loop drives, plus the boot-config
// mirror lock. See the lock ordering documented in order.go.
package table

import "time"

// BinName is the primary key shared across Run, Main and Term. It is a
// defined type, not a bare string, so a table key can't be silently
// confused with an argument or path elsewhere in the codebase.
type BinName string

// ProcessConfig describes how to launch and, optionally, how to stop a
// supervised binary.
type ProcessConfig struct {
	// Args are passed to the child after the binary path.
	Args []string

	// LaunchOnBoot marks this entry for persistence in the boot config
	// and replay at daemon start.
	LaunchOnBoot bool

	// TermRerun causes an unexpected exit (no pending Term request) to
	// trigger an automatic re-launch via Run.
	TermRerun bool

	// TimeToStop is the SIGTERM-to-SIGKILL escalation deadline. Zero
	// means "fire SIGTERM and consider done" (no escalation).
	TimeToStop time.Duration
}

// RunEntry represents a launch intent awaiting agent confirmation.
type RunEntry struct {
	Config ProcessConfig

	// PID is 0 until the agent reports success.
	PID int

	// LastRun is the zero Time when the entry needs to be (re)launched
	// on the next tick, and non-zero meaning "agent was spawned at this
	// time, awaiting its report".
	LastRun time.Time

	// Waiter is non-nil if the originating Load RPC asked to block.
	Waiter *Waiter[bool]
}

// NeedsLaunch reports whether this entry is waiting to be spawned
// (never spawned, or its spawn attempt has timed out and been reset).
func (e *RunEntry) NeedsLaunch() bool {
	return e.PID == 0 && e.LastRun.IsZero()
}

// AwaitingReport reports whether an agent has been spawned for this
// entry and the control loop is waiting on its report.
func (e *RunEntry) AwaitingReport() bool {
	return e.PID == 0 && !e.LastRun.IsZero()
}

// MainEntry represents a live, confirmed child.
type MainEntry struct {
	Config ProcessConfig
	PID    int // always non-zero
}

// TerminationOutcome is the result reported back to a blocking Stop RPC.
type TerminationOutcome int

const (
	// NotResolved is the zero value, returned to a Stop caller that did
	// not ask to wait for the outcome.
	NotResolved TerminationOutcome = iota
	SigTerm
	SigKill
	NoCheck
	NotRun
	NotRunning
	AlreadyTerminating
	TermError
)

func (o TerminationOutcome) String() string {
	switch o {
	case SigTerm:
		return "SigTerm"
	case SigKill:
		return "SigKill"
	case NoCheck:
		return "NoCheck"
	case NotRun:
		return "NotRun"
	case NotRunning:
		return "NotRunning"
	case AlreadyTerminating:
		return "AlreadyTerminating"
	case TermError:
		return "TermError"
	default:
		return "NotResolved"
	}
}

// TermEntry represents a termination intent, with or without an
// escalation timer.
type TermEntry struct {
	// TermSent is the zero Time until the first SIGTERM has been issued.
	TermSent time.Time

	// Waiter is non-nil if the originating Stop RPC asked to block.
	Waiter *Waiter[TerminationOutcome]
}
