package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestTestSchedulerFIFOOrderHoldsForArbitrarySequences checks spec §8's
// FIFO ordering guarantee against arbitrarily-sized, arbitrarily-batched
// action sequences: however many actions are scheduled and however many
// are drained per RunOnce/Run call, the ones that do run must come out in
// the order they were scheduled in.
func TestTestSchedulerFIFOOrderHoldsForArbitrarySequences(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 64).Draw(rt, "n")

		s := NewTestScheduler()
		var ran []int
		for i := 0; i < n; i++ {
			i := i
			s.ScheduleAction(func() { ran = append(ran, i) })
		}

		for len(ran) < n {
			batch := rapid.IntRange(1, 8).Draw(rt, "batch")
			s.Run(batch)
		}

		want := make([]int, n)
		for i := range want {
			want[i] = i
		}
		require.Equal(t, want, ran)
	})
}

// TestTestSchedulerAdvanceTimeFiresInNonDecreasingDueOrder checks that
// whatever random set of delays a test schedules, a single AdvanceTime
// call spanning all of them fires each one in non-decreasing due-time
// order (spec §8, CAF's advance_time contract), never in scheduling
// order when that differs from due order.
func TestTestSchedulerAdvanceTimeFiresInNonDecreasingDueOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 32).Draw(rt, "n")

		s := NewTestScheduler()
		delays := make([]time.Duration, n)
		for i := range delays {
			ms := rapid.IntRange(0, 1000).Draw(rt, "delay_ms")
			delays[i] = time.Duration(ms) * time.Millisecond
		}

		var fired []time.Duration
		for _, d := range delays {
			d := d
			s.DelayAction(func() { fired = append(fired, d) }, d)
		}

		s.AdvanceTime(time.Second)
		require.Len(t, fired, n)
		for i := 1; i < len(fired); i++ {
			require.LessOrEqualf(t, fired[i-1], fired[i],
				"fired[%d]=%v must not exceed fired[%d]=%v", i-1, fired[i-1], i, fired[i])
		}
	})
}

// TestTestSchedulerReadyAlwaysRequeuesUntilDone checks that a Resumable
// reporting Ready is re-run on every subsequent Run call and never
// silently dropped, for an arbitrary number of Ready responses before it
// finally reports Done.
func TestTestSchedulerReadyAlwaysRequeuesUntilDone(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		readyCount := rapid.IntRange(0, 20).Draw(rt, "ready_count")

		s := NewTestScheduler()
		calls := 0
		r := &sequencedResumable{
			results: append(repeat(Ready, readyCount), Done),
			onCall:  func() { calls++ },
		}
		s.Schedule(r)

		for i := 0; i < readyCount+1; i++ {
			n := s.Run(1)
			require.Equal(t, 1, n, "iteration %d should have one job ready", i)
		}

		require.Equal(t, readyCount+1, calls)
		require.Equal(t, 0, s.Pending(), "a Done result must not leave anything queued")
	})
}

type sequencedResumable struct {
	results []ResumeResult
	idx     int
	onCall  func()
}

func (r *sequencedResumable) Resume(budget int) ResumeResult {
	r.onCall()
	res := r.results[r.idx]
	r.idx++
	return res
}

func repeat(r ResumeResult, n int) []ResumeResult {
	out := make([]ResumeResult, n)
	for i := range out {
		out[i] = r
	}
	return out
}
