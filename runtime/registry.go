package runtime

import (
	"sync"

	"github.com/flowkit/actorflow/actor"
)

// Registry is the process-wide ActorID -> *actor.Actor directory (spec §3:
// actors are looked up by ActorID everywhere — Tell, Ask, Link, Monitor).
// A single lock keeps Spawn/Remove/Lookup linearizable with respect to
// each other; this module has at most a few thousand live actors at once,
// so a single mutex is simpler and plenty fast than a sharded map.
type Registry struct {
	mu     sync.RWMutex
	actors map[actor.ActorID]*actor.Actor
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{actors: make(map[actor.ActorID]*actor.Actor)}
}

// Lookup resolves id to its live *actor.Actor. This is the function value
// handed to actor.NewActorConfig.Lookup so the actor package never needs
// to import this one.
func (r *Registry) Lookup(id actor.ActorID) (*actor.Actor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actors[id]
	return a, ok
}

// add registers a newly spawned actor. Called by Runtime.Spawn once
// actor.NewActor has returned.
func (r *Registry) add(a *actor.Actor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actors[a.ID()] = a
}

// remove drops an actor from the registry, called from its OnTerminate
// hook so a terminated ActorID is never resolved to a stale *actor.Actor.
func (r *Registry) remove(id actor.ActorID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.actors, id)
}

// Len reports how many actors are currently registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actors)
}

// Snapshot returns every currently registered ActorID, for Shutdown to
// iterate over without holding the lock across each Quit call.
func (r *Registry) Snapshot() []actor.ActorID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]actor.ActorID, 0, len(r.actors))
	for id := range r.actors {
		ids = append(ids, id)
	}
	return ids
}
