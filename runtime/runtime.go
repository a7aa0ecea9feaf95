// Package runtime wires together the scheduler and actor packages into the
// process-wide facility spec §4.4's "Start/Shutdown" and §3's ActorID
// registry describe: a single Registry resolving ActorID -> *actor.Actor,
// a Scheduler driving every spawned actor, and graceful shutdown that
// waits for every actor to finish terminating before returning.
package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/flowkit/actorflow/actor"
	"github.com/flowkit/actorflow/internal/build"
	"github.com/flowkit/actorflow/scheduler"
)

// LoggingDeadLetters is the default actor.DeadLetterSink: it logs every
// dropped message via this package's logger. Embedders that need to
// observe dead letters programmatically should call SetDeadLetterSink
// with their own sink before Start.
type LoggingDeadLetters struct{}

// DeadLetter implements actor.DeadLetterSink.
func (LoggingDeadLetters) DeadLetter(msg actor.Message, target actor.ActorID) {
	log.WarnS(context.Background(), "Dead letter",
		"target_actor_id", target, "sender_actor_id", msg.Sender)
}

// Runtime is the top-level facility embedders construct once per process
// (or once per isolated test). It owns the Registry, the Scheduler chosen
// by Config.SchedulerPolicy, and the dead-letter sink every spawned actor
// shares.
type Runtime struct {
	cfg      Config
	registry *Registry
	sched    scheduler.Scheduler
	dlo      actor.DeadLetterSink

	liveActors   sync.WaitGroup
	shutdownOnce sync.Once
	logWriter    *build.RotatingLogWriter
}

// New constructs a Runtime from DefaultConfig plus any Options, without
// starting its scheduler.
func New(opts ...Option) *Runtime {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var sched scheduler.Scheduler
	switch cfg.SchedulerPolicy {
	case PolicyDeterministic:
		sched = scheduler.NewTestScheduler()
	default:
		sched = scheduler.NewProductionScheduler(
			scheduler.WithWorkers(cfg.SchedulerMaxThreads),
		)
	}

	return &Runtime{
		cfg:      cfg,
		registry: NewRegistry(),
		sched:    sched,
		dlo:      LoggingDeadLetters{},
	}
}

// SetDeadLetterSink replaces the dead-letter sink used by actors spawned
// after this call. Existing actors keep whatever sink they were spawned
// with.
func (rt *Runtime) SetDeadLetterSink(sink actor.DeadLetterSink) {
	rt.dlo = sink
}

// Scheduler exposes the underlying Scheduler, e.g. so a caller running in
// PolicyDeterministic mode can drive it with RunOnce/AdvanceTime between
// assertions.
func (rt *Runtime) Scheduler() scheduler.Scheduler { return rt.sched }

// Registry exposes the ActorID -> *actor.Actor directory.
func (rt *Runtime) Registry() *Registry { return rt.registry }

// Config returns the resolved configuration this Runtime was built with.
func (rt *Runtime) Config() Config { return rt.cfg }

// Now returns the runtime's current notion of time, via its Scheduler's
// Clock.
func (rt *Runtime) Now() time.Time { return rt.sched.Now() }

// Start begins processing: for PolicyProduction this launches the
// work-sharing worker pool; for PolicyDeterministic this is a no-op, since
// a TestScheduler is always driven by explicit calls. If Config.LogDir is
// set, this also points every subsystem logger at a gzip-rotated file
// under it, in addition to the console.
func (rt *Runtime) Start() {
	rt.sched.Start()

	if rt.cfg.LogDir != "" {
		rotCfg := build.DefaultLogRotatorConfig()
		rotCfg.LogDir = rt.cfg.LogDir
		writer, err := build.InitFileLogging(rotCfg)
		if err != nil {
			log.WarnS(context.Background(), "Failed to init file logging",
				"log_dir", rt.cfg.LogDir, "err", err)
		} else {
			rt.logWriter = writer
		}
	}

	log.InfoS(context.Background(), "Runtime started",
		"policy", rt.cfg.SchedulerPolicy, "max_threads", rt.cfg.SchedulerMaxThreads)
}

// Spawn constructs a new actor running behavior, registers it, and honors
// opts.LinkedTo if set. The returned *actor.Actor is immediately live:
// messages Enqueued to it may run as soon as the scheduler gets to them.
func (rt *Runtime) Spawn(behavior *actor.Behavior, opts actor.SpawnOptions) *actor.Actor {
	rt.liveActors.Add(1)

	a := actor.NewActor(actor.NewActorConfig{
		Scheduler:   rt.sched,
		Behavior:    behavior,
		Lookup:      rt.registry.Lookup,
		DeadLetters: rt.dlo,
		OnTerminate: func(id actor.ActorID, reason actor.ExitReason) {
			rt.registry.remove(id)
			rt.liveActors.Done()
		},
	})
	rt.registry.add(a)

	opts.LinkedTo.WhenSome(func(peer actor.ActorID) {
		a.Link(peer)
	})

	return a
}

// SpawnChild is Spawn plus opts.Monitored support: when set, parent
// receives a Down message when the new actor terminates. SpawnOptions has
// no room for a parent ActorID (Monitor is normally called from within a
// handler via Context.Monitor), so top-level callers that want it use this
// variant instead.
func (rt *Runtime) SpawnChild(parent actor.ActorID, behavior *actor.Behavior, opts actor.SpawnOptions) *actor.Actor {
	child := rt.Spawn(behavior, opts)
	if opts.Monitored {
		if p, ok := rt.registry.Lookup(parent); ok {
			p.Monitor(child.ID())
		}
	}
	return child
}

// Shutdown asks every live actor to quit with actor.ExitUserShutdown and
// blocks until they have all finished terminating, or ctx is done first.
// Safe to call once; subsequent calls are no-ops returning nil.
//
// In PolicyDeterministic mode this will only return once something drives
// the TestScheduler to actually process the quit messages — typically the
// caller runs Shutdown from a separate goroutine while driving RunOnce /
// RunAll from the test goroutine, or simply calls RunAll before Shutdown's
// ctx deadline.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	var shutdownErr error

	rt.shutdownOnce.Do(func() {
		for _, id := range rt.registry.Snapshot() {
			if a, ok := rt.registry.Lookup(id); ok {
				a.Quit(actor.ExitUserShutdown)
			}
		}

		done := make(chan struct{})
		go func() {
			rt.liveActors.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			shutdownErr = ctx.Err()
		}

		rt.sched.Stop()
		if rt.logWriter != nil {
			_ = rt.logWriter.Close()
		}
		log.InfoS(context.Background(), "Runtime stopped")
	})

	return shutdownErr
}
