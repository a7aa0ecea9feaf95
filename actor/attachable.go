package actor

import "sync/atomic"

// Attachable is a one-shot callback fired exactly once when the owning
// actor terminates (spec §4.3, Design Notes). Attachables are the
// building block linking and monitoring are implemented on top of.
type Attachable interface {
	// ActorExited is called once, after the owning actor has fully
	// terminated, with the reason it exited for.
	ActorExited(reason ExitReason)
}

// AttachableFunc adapts a plain func into an Attachable.
type AttachableFunc func(reason ExitReason)

// ActorExited implements Attachable.
func (f AttachableFunc) ActorExited(reason ExitReason) { f(reason) }

// AttachmentID identifies one Attach call so it can later be Detach'd.
// Attachments are stored by ID rather than by direct reference so that
// detaching never requires comparing closures for equality.
type AttachmentID uint64

var nextAttachmentID atomic.Uint64

func newAttachmentID() AttachmentID {
	return AttachmentID(nextAttachmentID.Add(1))
}

// attachmentEntry pairs an Attachable with the ID used to Detach it.
type attachmentEntry struct {
	id  AttachmentID
	att Attachable
}

// linkAttachable fires an exit signal at a linked peer when this actor
// terminates abnormally (spec §4.3: "linking... propagates non-normal exit
// reasons"). It stores only the peer's ActorID, not a pointer to the peer
// actor, so that two mutually linked actors never hold strong references
// to each other (Design Notes: avoid cyclic strong refs) — the peer is
// looked up in the registry at fire time, and a missing peer (already
// gone) is silently ignored.
type linkAttachable struct {
	peer   ActorID
	lookup func(ActorID) (*Actor, bool)
}

// ActorExited implements Attachable. A normal exit is not propagated: only
// non-normal reasons travel across a link (spec §4.3).
func (l *linkAttachable) ActorExited(reason ExitReason) {
	if reason.IsNormal() {
		return
	}
	peer, ok := l.lookup(l.peer)
	if !ok {
		return
	}
	peer.receiveExitSignal(reason)
}

// monitorAttachable sends a unidirectional "down" notification to a
// watcher when the watched actor terminates, for any reason (spec §4.3).
type monitorAttachable struct {
	watcher ActorID
	watched ActorID
	lookup  func(ActorID) (*Actor, bool)
}

// Down is the payload delivered to a monitor's mailbox when the watched
// actor terminates.
type Down struct {
	Watched ActorID
	Reason  ExitReason
}

// ActorExited implements Attachable.
func (m *monitorAttachable) ActorExited(reason ExitReason) {
	watcher, ok := m.lookup(m.watcher)
	if !ok {
		return
	}
	watcher.Enqueue(Message{
		Payload: Down{Watched: m.watched, Reason: reason},
		Sender:  m.watched,
	})
}
