package actor

// Message is an envelope carrying a dynamically-typed payload between
// actors (spec §3 Data Model: "a Message is an ordered tuple of
// dynamically-typed fields"). This module represents that tuple as a
// single Go value (Payload), which is Go's idiomatic equivalent of a CAF
// message: handlers dispatch on it via BehaviorStack's generic Case[T]
// matcher rather than C++'s template-based tuple unpacking.
type Message struct {
	// Payload is the message body. Concrete call sites define their own
	// payload struct types and match on them with Case[T].
	Payload any

	// Sender is the ActorID that sent this message, or NoActor for
	// messages injected by the runtime (e.g. a Down notification has no
	// conventional sender other than the watched actor).
	Sender ActorID

	// RequestID is set when this message is part of a request/response
	// exchange: non-zero on both the outgoing request (so the receiver's
	// reply can be correlated) and the reply itself.
	RequestID RequestID

	// Priority marks this message for priority-queue delivery ahead of
	// any non-priority message already queued (spec §4.1).
	Priority bool
}

// NewMessage builds a non-priority Message with no request correlation.
func NewMessage(payload any, sender ActorID) Message {
	return Message{Payload: payload, Sender: sender}
}

// NewPriorityMessage builds a Message that jumps ahead of non-priority
// traffic in the mailbox.
func NewPriorityMessage(payload any, sender ActorID) Message {
	return Message{Payload: payload, Sender: sender, Priority: true}
}

// IsRequest reports whether this message expects (or is) a correlated
// response.
func (m Message) IsRequest() bool {
	return m.RequestID != 0
}
