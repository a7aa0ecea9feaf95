package actorutil

import (
	"sync/atomic"
	"time"

	"github.com/flowkit/actorflow/actor"
	"github.com/flowkit/actorflow/runtime"
)

// Pool distributes messages across multiple actor instances using
// round-robin scheduling, enabling horizontal scaling of actor workloads.
// Members are addressed by ActorID, and a Pool holds a front *actor.Actor
// purely to originate the Tell/Ask calls round-robined across its workers
// (every Tell/Ask here needs a sending actor identity, the same way a CAF
// actor always sends "as" itself).
type Pool struct {
	id string

	rt         *runtime.Runtime
	front      *actor.Actor
	workers    []actor.ActorID
	rawActors  []*actor.Actor
	askTimeout time.Duration

	next atomic.Uint64
}

// PoolConfig holds configuration for creating a new actor pool.
type PoolConfig struct {
	// ID is the identifier for the pool.
	ID string

	// Size is the number of actor instances to create.
	Size int

	// Factory builds the Behavior for the pool member at idx.
	Factory func(idx int) *actor.Behavior

	// AskTimeout bounds every Ask issued through the pool; zero means no
	// timeout.
	AskTimeout time.Duration
}

// NewPool creates a pool with the specified number of actor instances,
// spawned on rt and started immediately.
func NewPool(rt *runtime.Runtime, cfg PoolConfig) *Pool {
	if cfg.Size <= 0 {
		cfg.Size = 1
	}

	p := &Pool{
		id:         cfg.ID,
		rt:         rt,
		front:      rt.Spawn(actor.NewBehavior(), actor.SpawnOptions{}),
		workers:    make([]actor.ActorID, cfg.Size),
		rawActors:  make([]*actor.Actor, cfg.Size),
		askTimeout: cfg.AskTimeout,
	}

	for i := 0; i < cfg.Size; i++ {
		a := rt.Spawn(cfg.Factory(i), actor.SpawnOptions{})
		p.rawActors[i] = a
		p.workers[i] = a.ID()
	}

	return p
}

// ID returns the identifier for this pool.
func (p *Pool) ID() string {
	return p.id
}

func (p *Pool) pick() actor.ActorID {
	idx := p.next.Add(1) % uint64(len(p.workers))
	return p.workers[idx]
}

// Ask sends a message to the next worker in round-robin order and returns
// a Future for the response.
func (p *Pool) Ask(payload any) actor.Future[any] {
	return p.front.Ask(p.pick(), payload, p.askTimeout)
}

// Tell sends a fire-and-forget message to the next worker in round-robin
// order.
func (p *Pool) Tell(payload any) {
	p.front.Tell(p.pick(), payload)
}

// Broadcast sends payload to every worker in the pool, useful for cache
// invalidation, configuration updates, or graceful shutdown signals.
func (p *Pool) Broadcast(payload any) {
	for _, w := range p.workers {
		p.front.Tell(w, payload)
	}
}

// BroadcastAsk sends payload to every worker and returns one Future per
// worker, in pool order.
func (p *Pool) BroadcastAsk(payload any) []actor.Future[any] {
	futures := make([]actor.Future[any], len(p.workers))
	for i, w := range p.workers {
		futures[i] = p.front.Ask(w, payload, p.askTimeout)
	}
	return futures
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Workers returns a copy of the pool's member ActorIDs.
func (p *Pool) Workers() []actor.ActorID {
	workers := make([]actor.ActorID, len(p.workers))
	copy(workers, p.workers)
	return workers
}

// Stop asks every worker and the pool's front actor to terminate with
// reason. It does not block for termination to complete; callers that need
// that should use runtime.Runtime.Shutdown instead, which waits for every
// registered actor.
func (p *Pool) Stop(reason actor.ExitReason) {
	for _, a := range p.rawActors {
		a.Quit(reason)
	}
	p.front.Quit(reason)
}
