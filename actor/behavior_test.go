package actor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowkit/actorflow/scheduler"
)

func TestBehaviorStackBecomeReplaceCollapsesStackToOne(t *testing.T) {
	base := NewBehavior()
	stack := NewBehaviorStack(base)

	stack.Become(NewBehavior(), Keep)
	stack.Become(NewBehavior(), Keep)
	require.Equal(t, 3, stack.Depth())

	replacement := NewBehavior()
	stack.Become(replacement, Replace)

	require.Equal(t, 1, stack.Depth())
	require.Same(t, replacement, stack.Current())
}

func TestBehaviorStackBecomeKeepPushesOnTop(t *testing.T) {
	base := NewBehavior()
	stack := NewBehaviorStack(base)

	nested := NewBehavior()
	stack.Become(nested, Keep)

	require.Equal(t, 2, stack.Depth())
	require.Same(t, nested, stack.Current())
}

func TestBehaviorStackUnbecomeRestoresFrameBeneath(t *testing.T) {
	base := NewBehavior()
	stack := NewBehaviorStack(base)
	stack.Become(NewBehavior(), Keep)

	ok := stack.Unbecome()
	require.True(t, ok)
	require.Equal(t, 1, stack.Depth())
	require.Same(t, base, stack.Current())
}

func TestBehaviorStackUnbecomeCanEmptyTheStack(t *testing.T) {
	base := NewBehavior()
	stack := NewBehaviorStack(base)

	ok := stack.Unbecome()
	require.True(t, ok)
	require.Equal(t, 0, stack.Depth())
	require.Nil(t, stack.Current())

	ok = stack.Unbecome()
	require.False(t, ok)
	require.Equal(t, 0, stack.Depth())
}

func TestActorUnbecomeOfLastFrameTerminatesNormally(t *testing.T) {
	sched := scheduler.NewTestScheduler()
	reg := newTestRegistry()

	base := NewBehavior(Case(func(ctx *Context, _ string) {
		ctx.Unbecome()
	}))

	a := newTestActor(t, sched, reg, base)
	a.Enqueue(NewMessage("quit-via-unbecome", NoActor))
	sched.RunAll()

	require.True(t, a.isDone())
	require.Equal(t, ExitNormal, a.exitReason)
}
