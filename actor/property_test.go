package actor

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestMailboxDequeueOrderHoldsForArbitraryPriorityMix checks spec §8's
// mailbox ordering guarantees together: for any arbitrary interleaving of
// priority and normal Enqueue calls, TryDequeue drains every priority
// message (in the order they were enqueued) before any normal message (also
// in the order they were enqueued), matching "FIFO-within-priority" and
// "priority precedence".
func TestMailboxDequeueOrderHoldsForArbitraryPriorityMix(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 64).Draw(rt, "n")

		m := NewMailbox()
		var wantPriority, wantNormal []int
		for i := 0; i < n; i++ {
			isPriority := rapid.Bool().Draw(rt, "is_priority")
			if isPriority {
				wantPriority = append(wantPriority, i)
				m.Enqueue(Message{Payload: i, Priority: true})
			} else {
				wantNormal = append(wantNormal, i)
				m.Enqueue(Message{Payload: i})
			}
		}

		var gotPriority, gotNormal []int
		seenNormal := false
		for {
			msg, ok := m.TryDequeue()
			if !ok {
				break
			}
			if msg.Priority {
				require.Falsef(t, seenNormal,
					"priority message %d dequeued after a normal message", msg.Payload)
				gotPriority = append(gotPriority, msg.Payload.(int))
			} else {
				seenNormal = true
				gotNormal = append(gotNormal, msg.Payload.(int))
			}
		}

		require.Equal(t, wantPriority, gotPriority)
		require.Equal(t, wantNormal, gotNormal)
	})
}

// TestMailboxRequeueFrontIsNextOut checks that RequeueFront always makes
// msg the very next message TryDequeue returns within its priority tier,
// regardless of how many other messages of that tier are already queued.
func TestMailboxRequeueFrontIsNextOut(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 16).Draw(rt, "n")
		priority := rapid.Bool().Draw(rt, "priority")

		m := NewMailbox()
		for i := 0; i < n; i++ {
			m.Enqueue(Message{Payload: i, Priority: priority})
		}

		stashed := Message{Payload: -1, Priority: priority}
		m.RequeueFront(stashed)

		msg, ok := m.TryDequeue()
		require.True(t, ok)
		require.Equal(t, -1, msg.Payload)
	})
}
