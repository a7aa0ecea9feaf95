package actor

import "errors"

var (
	// ErrActorTerminated is returned (or used to fail pending requests)
	// when an operation targets an actor that has already terminated.
	ErrActorTerminated = errors.New("actor: actor terminated")

	// ErrMailboxClosed is returned when a Send targets a mailbox that has
	// already been closed as part of shutdown.
	ErrMailboxClosed = errors.New("actor: mailbox closed")

	// ErrRequestTimeout is used to fail a pending request's Future when
	// its response does not arrive within the configured timeout.
	ErrRequestTimeout = errors.New("actor: request timed out waiting for response")

	// ErrBrokenPromise is used to fail a Future whose Promise was dropped
	// (e.g. the actor holding it terminated) without ever completing it.
	ErrBrokenPromise = errors.New("actor: promise broken, actor terminated before completing it")

	// ErrUnknownActor is returned when an operation names an ActorID that
	// the registry has no record of.
	ErrUnknownActor = errors.New("actor: no such actor")
)
