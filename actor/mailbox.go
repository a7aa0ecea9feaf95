package actor

import (
	"iter"
	"sync"
)

// Mailbox is a priority-aware FIFO message queue (spec §3, §4.1). Unlike a
// channel-backed mailbox that blocks a dedicated goroutine on a receive,
// this Mailbox is polled cooperatively by the scheduler:
// TryDequeue never blocks, which is what lets many actors share a small
// worker pool (spec §4.4). Priority messages are kept in their own FIFO
// and always drain ahead of normal-priority messages, but are never
// reordered relative to each other (spec §8: "FIFO-within-priority").
type Mailbox struct {
	mu       sync.Mutex
	priority []Message
	normal   []Message
	closed   bool
}

// NewMailbox constructs an empty, open Mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Enqueue appends msg to the appropriate internal queue. It returns false
// if the mailbox is already closed, in which case the caller (typically
// the actor runtime) is responsible for routing msg to a dead-letter
// sink instead.
func (m *Mailbox) Enqueue(msg Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	if msg.Priority {
		m.priority = append(m.priority, msg)
	} else {
		m.normal = append(m.normal, msg)
	}
	return true
}

// TryDequeue pops the oldest priority message if any are queued, else the
// oldest normal message. It never blocks; an empty mailbox returns
// ok=false immediately so the caller can drive the §4.1 suspension
// protocol itself.
func (m *Mailbox) TryDequeue() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.priority) > 0 {
		msg := m.priority[0]
		m.priority = m.priority[1:]
		return msg, true
	}
	if len(m.normal) > 0 {
		msg := m.normal[0]
		m.normal = m.normal[1:]
		return msg, true
	}
	return Message{}, false
}

// RequeueFront pushes msg back onto the front of its priority tier's
// queue, so it is the next message TryDequeue returns. Used to implement
// the default skip policy (spec §4.2): a message no case in the current
// Behavior matches is stashed and retried the moment Become/Unbecome
// changes the active frame.
func (m *Mailbox) RequeueFront(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.Priority {
		m.priority = append([]Message{msg}, m.priority...)
	} else {
		m.normal = append([]Message{msg}, m.normal...)
	}
}

// Len reports the total number of queued messages across both priority
// tiers, used for the about_to_block double-check (spec §4.1).
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.priority) + len(m.normal)
}

// Close marks the mailbox closed; subsequent Enqueue calls fail.
// Already-queued messages remain available via TryDequeue and Drain.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// IsClosed reports whether Close has been called.
func (m *Mailbox) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Drain yields every still-queued message, priority first, removing them
// from the mailbox as it goes. Used during actor shutdown to route
// abandoned messages to the dead-letter sink (spec §4.3).
func (m *Mailbox) Drain() iter.Seq[Message] {
	return func(yield func(Message) bool) {
		for {
			msg, ok := m.TryDequeue()
			if !ok {
				return
			}
			if !yield(msg) {
				return
			}
		}
	}
}
