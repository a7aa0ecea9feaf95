package actor

import "fmt"

// ExitReason is a u32 code describing why an actor terminated (spec §3
// Data Model). Values below 0x10000 are reserved for the system; user code
// defines its own reasons at or above that boundary via NewExitReason.
type ExitReason uint32

const (
	// ExitNotExited is the zero value: the actor has not terminated.
	ExitNotExited ExitReason = 0

	// ExitNormal means the actor's behavior stack ran out voluntarily
	// (e.g. Quit() or the last behavior popped with no replacement).
	ExitNormal ExitReason = 1

	// ExitUnhandledException means a handler panicked and the panic was
	// converted into a termination instead of propagating to the
	// scheduler worker.
	ExitUnhandledException ExitReason = 2

	// ExitUserShutdown means the actor was asked to stop by its
	// supervisor/owner (runtime.Shutdown, or an explicit Stop call).
	ExitUserShutdown ExitReason = 3

	// userExitReasonBase is the first value user code may define its own
	// reasons at (spec §3: "user-defined ≥ 0x10000").
	userExitReasonBase ExitReason = 0x10000
)

// NewExitReason builds a user-defined ExitReason. code is added to the
// reserved user-defined base so callers can use small, readable enums
// (0, 1, 2, ...) without colliding with the system-reserved range.
func NewExitReason(code uint32) ExitReason {
	return userExitReasonBase + ExitReason(code)
}

// IsUserDefined reports whether r is in the user-defined range.
func (r ExitReason) IsUserDefined() bool {
	return r >= userExitReasonBase
}

// IsNormal reports whether r represents a clean, non-error termination.
func (r ExitReason) IsNormal() bool {
	return r == ExitNormal
}

func (r ExitReason) String() string {
	switch r {
	case ExitNotExited:
		return "not_exited"
	case ExitNormal:
		return "normal"
	case ExitUnhandledException:
		return "unhandled_exception"
	case ExitUserShutdown:
		return "user_shutdown"
	default:
		if r.IsUserDefined() {
			return fmt.Sprintf("user_defined(%d)", uint32(r-userExitReasonBase))
		}
		return fmt.Sprintf("reserved(%d)", uint32(r))
	}
}
