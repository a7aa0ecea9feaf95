package actor

import "sync/atomic"

// ActorID is a process-wide unique, monotonically increasing identifier
// (spec §3 Data Model). IDs are never reused within a process lifetime,
// which is what makes it safe to hold an ActorID around after its actor
// has terminated (e.g. in a Down message or a stale link) without risking
// it silently referring to a different actor later.
type ActorID uint64

// NoActor is the zero ActorID, used as a sentinel for "no sender" (system
// messages, timeouts) the way CAF uses a null actor_addr.
const NoActor ActorID = 0

var nextActorID atomic.Uint64

// newActorID returns the next process-wide unique ActorID. IDs start at 1
// so the zero value stays reserved for NoActor.
func newActorID() ActorID {
	return ActorID(nextActorID.Add(1))
}
