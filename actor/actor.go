package actor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/flowkit/actorflow/scheduler"
)

// actorState is the §4.1 resume/suspend state machine: ready (queued,
// waiting for a worker), running (a worker is inside Resume), about to
// block (mailbox looked empty, double-checking before committing), blocked
// (suspended, woken only by the next Enqueue), done (terminated).
type actorState int32

const (
	stateReady actorState = iota
	stateRunning
	stateAboutToBlock
	stateBlocked
	stateDone
)

// DeadLetterSink receives messages that could not be delivered: a closed
// or missing mailbox, or a message left in the mailbox when its actor
// terminated (spec §4.3).
type DeadLetterSink interface {
	DeadLetter(msg Message, target ActorID)
}

// lookupFunc resolves an ActorID to its live *Actor, the seam the registry
// (in package runtime) injects so this package never imports it.
type lookupFunc func(ActorID) (*Actor, bool)

// SpawnOptions mirrors spec §6's capability-flavored spawn flags as a flat
// struct of fields rather than a mixin/inheritance lattice (Design Notes).
type SpawnOptions struct {
	// PriorityAware is accepted for call-site compatibility with spec
	// §6's spawn flags; this module's Mailbox is always priority-aware,
	// so this flag is currently a no-op.
	PriorityAware bool

	// Detached marks the actor as wanting its own dedicated worker rather
	// than sharing the cooperative pool. Not implemented by
	// ProductionScheduler's work-sharing pool; stored so callers can still
	// express the intent.
	Detached bool

	// BlockingAPI marks the actor as expected to perform blocking calls
	// from within handlers. Named-only, same reasoning as Detached.
	BlockingAPI bool

	// Monitored, if true, has the spawning actor monitor the new actor
	// (receiving a Down message when it terminates).
	Monitored bool

	// LinkedTo, if set, links the new actor to the given peer at spawn
	// time, atomically with construction.
	LinkedTo fn.Option[ActorID]
}

// pendingRequest tracks one outstanding Ask call made by this actor.
type pendingRequest struct {
	promise       Promise[any]
	cancelTimeout scheduler.DelayedAction
}

// quitSignal is an internal system message that forces termination; it
// never reaches user Behavior cases.
type quitSignal struct {
	reason ExitReason
}

// behaviorTimeoutSignal is the internal system message a scheduled
// behavior timeout fires through the normal mailbox, so it is still
// subject to FIFO ordering relative to real messages.
type behaviorTimeoutSignal struct {
	handler func(ctx *Context)
}

// ExitSignal is delivered to an actor's mailbox in place of outright
// termination when it has TrapExit enabled and a link fires (spec §4.3).
type ExitSignal struct {
	From   ActorID
	Reason ExitReason
}

// Actor is one cooperatively-scheduled actor: a mailbox, a behavior stack,
// and the bookkeeping for links, monitors, attachments, and pending
// requests (spec §3, §4.1-§4.3). It implements scheduler.Resumable so the
// Scheduler can drive it without depending on this package.
type Actor struct {
	id      ActorID
	mailbox *Mailbox
	stack   *BehaviorStack
	sched   scheduler.Scheduler
	lookup  lookupFunc
	dlo     DeadLetterSink

	onTerminate func(id ActorID, reason ExitReason)

	state atomic.Int32

	mu              sync.Mutex
	links           map[ActorID]struct{}
	watching        map[ActorID]AttachmentID
	attachments     []attachmentEntry
	trapExit        bool
	pendingRequests map[RequestID]*pendingRequest

	skipped     []Message
	behaviorGen uint64
	exitReason  ExitReason

	behaviorTimeoutCancel scheduler.DelayedAction

	ctx    context.Context
	cancel context.CancelFunc
}

// NewActorConfig configures a new Actor. Scheduler, Behavior, and Lookup
// are required; DeadLetters and OnTerminate are optional hooks the
// runtime package wires in.
type NewActorConfig struct {
	Scheduler   scheduler.Scheduler
	Behavior    *Behavior
	Lookup      func(ActorID) (*Actor, bool)
	DeadLetters DeadLetterSink
	OnTerminate func(id ActorID, reason ExitReason)
}

// NewActor constructs an Actor registered with cfg.Scheduler but not yet
// scheduled: it only runs once something Enqueues a message.
func NewActor(cfg NewActorConfig) *Actor {
	ctx, cancel := context.WithCancel(context.Background())

	a := &Actor{
		id:              newActorID(),
		mailbox:         NewMailbox(),
		stack:           NewBehaviorStack(cfg.Behavior),
		sched:           cfg.Scheduler,
		lookup:          cfg.Lookup,
		dlo:             cfg.DeadLetters,
		onTerminate:     cfg.OnTerminate,
		links:           make(map[ActorID]struct{}),
		watching:        make(map[ActorID]AttachmentID),
		pendingRequests: make(map[RequestID]*pendingRequest),
		ctx:             ctx,
		cancel:          cancel,
	}
	a.state.Store(int32(stateBlocked))
	cfg.Scheduler.RegisterResumable(a)

	log.DebugS(a.ctx, "Spawned actor", "actor_id", a.id)

	return a
}

// ID returns the actor's process-wide unique identifier.
func (a *Actor) ID() ActorID { return a.id }

// Enqueue delivers msg to this actor's mailbox and, if necessary, wakes it
// (spec §4.1). Messages delivered after termination are routed to the
// dead-letter sink.
func (a *Actor) Enqueue(msg Message) {
	if actorState(a.state.Load()) == stateDone {
		a.deadLetter(msg)
		return
	}
	if !a.mailbox.Enqueue(msg) {
		a.deadLetter(msg)
		return
	}
	a.wake()
}

// wake transitions a suspended actor back to ready and, if it was fully
// blocked, re-schedules it. If it was only about_to_block, Resume's own
// double-check will observe the Ready state itself (spec §4.1) with no
// extra Schedule call needed.
func (a *Actor) wake() {
	for {
		switch actorState(a.state.Load()) {
		case stateBlocked:
			if a.state.CompareAndSwap(int32(stateBlocked), int32(stateReady)) {
				a.sched.Schedule(a)
				return
			}
		case stateAboutToBlock:
			if a.state.CompareAndSwap(int32(stateAboutToBlock), int32(stateReady)) {
				return
			}
		default:
			return
		}
	}
}

// Resume implements scheduler.Resumable. It processes up to budget
// messages, then either reports Ready (more work queued), AwaitingMessage
// (suspended via the §4.1 double-check protocol), or Done (terminated).
func (a *Actor) Resume(budget int) scheduler.ResumeResult {
	if !a.state.CompareAndSwap(int32(stateReady), int32(stateRunning)) {
		if actorState(a.state.Load()) == stateDone {
			return scheduler.Done
		}
	}

	processed := 0
	for processed < budget {
		msg, ok := a.mailbox.TryDequeue()
		if !ok {
			break
		}
		a.handle(msg)
		processed++
		if a.isDone() {
			a.finalize()
			return scheduler.Done
		}
	}

	if a.mailbox.Len() > 0 {
		a.state.Store(int32(stateReady))
		return scheduler.Ready
	}

	a.state.Store(int32(stateAboutToBlock))
	if a.mailbox.Len() > 0 {
		a.state.CompareAndSwap(int32(stateAboutToBlock), int32(stateReady))
		return scheduler.Ready
	}
	if a.state.CompareAndSwap(int32(stateAboutToBlock), int32(stateBlocked)) {
		return scheduler.AwaitingMessage
	}
	return scheduler.Ready
}

func (a *Actor) isDone() bool {
	return actorState(a.state.Load()) == stateDone
}

func (a *Actor) markDone(reason ExitReason) {
	a.exitReason = reason
	a.state.Store(int32(stateDone))
}

// handle dispatches one message: system messages (quit, behavior timeout,
// request replies) are handled directly; everything else goes through the
// active Behavior's cases, falling back to the skip/stash policy (spec
// §4.2) when nothing matches.
func (a *Actor) handle(msg Message) {
	if a.behaviorTimeoutCancel != nil {
		a.behaviorTimeoutCancel.Cancel()
		a.behaviorTimeoutCancel = nil
	}

	switch payload := msg.Payload.(type) {
	case quitSignal:
		a.markDone(payload.reason)
		return

	case behaviorTimeoutSignal:
		ctx := &Context{actor: a, msg: msg}
		genBefore := a.behaviorGen
		payload.handler(ctx)
		if a.behaviorGen != genBefore {
			a.flushSkipped()
		}
		if a.isDone() {
			return
		}
		a.scheduleBehaviorTimeout()
		return
	}

	if msg.RequestID != 0 && a.hasPendingRequest(msg.RequestID) {
		if err, isErr := msg.Payload.(error); isErr {
			a.completeRequest(msg.RequestID, fn.Err[any](err))
		} else {
			a.completeRequest(msg.RequestID, fn.Ok[any](msg.Payload))
		}
		return
	}

	ctx := &Context{actor: a, msg: msg}
	genBefore := a.behaviorGen
	cur := a.stack.Current()
	handled := cur != nil && cur.handle(ctx, msg)
	if !handled {
		a.skipped = append(a.skipped, msg)
	} else if a.behaviorGen != genBefore {
		a.flushSkipped()
	}

	if a.isDone() {
		return
	}
	a.scheduleBehaviorTimeout()
}

func (a *Actor) flushSkipped() {
	if len(a.skipped) == 0 {
		return
	}
	skipped := a.skipped
	a.skipped = nil
	for i := len(skipped) - 1; i >= 0; i-- {
		a.mailbox.RequeueFront(skipped[i])
	}
}

func (a *Actor) scheduleBehaviorTimeout() {
	cur := a.stack.Current()
	if cur == nil || !cur.hasTimeout {
		return
	}
	onTimeout := cur.onTimeout
	a.behaviorTimeoutCancel = a.sched.DelayAction(func() {
		a.Enqueue(Message{Payload: behaviorTimeoutSignal{handler: onTimeout}, Priority: true})
	}, cur.timeout)
}

// finalize runs the shutdown sequence (spec §4.3): cancel the behavior
// timeout, fail every pending request, drain the mailbox to dead letters,
// fire every attachment (links and monitors included), then notify the
// owning registry.
func (a *Actor) finalize() {
	a.mailbox.Close()
	if a.behaviorTimeoutCancel != nil {
		a.behaviorTimeoutCancel.Cancel()
	}

	reason := a.exitReason
	if reason == ExitNotExited {
		reason = ExitNormal
	}

	a.mu.Lock()
	pending := a.pendingRequests
	a.pendingRequests = nil
	attachments := a.attachments
	a.attachments = nil
	a.mu.Unlock()

	for _, pr := range pending {
		if pr.cancelTimeout != nil {
			pr.cancelTimeout.Cancel()
		}
		pr.promise.Complete(fn.Err[any](ErrBrokenPromise))
	}

	for msg := range a.mailbox.Drain() {
		a.deadLetter(msg)
	}

	for _, entry := range attachments {
		entry.att.ActorExited(reason)
	}

	if a.onTerminate != nil {
		a.onTerminate(a.id, reason)
	}

	log.DebugS(a.ctx, "Actor terminated", "actor_id", a.id, "reason", reason.String())
	a.cancel()
}

func (a *Actor) deadLetter(msg Message) {
	if a.dlo != nil {
		a.dlo.DeadLetter(msg, a.id)
		return
	}
	log.WarnS(a.ctx, "Dropped message, no dead-letter sink configured", "actor_id", a.id)
}

// Tell sends a fire-and-forget message to target, attributed to a as the
// sender. Delivery to a terminated or unknown target is routed to the
// dead-letter sink.
func (a *Actor) Tell(target ActorID, payload any) {
	if peer, ok := a.lookup(target); ok {
		peer.Enqueue(Message{Payload: payload, Sender: a.id})
		return
	}
	a.deadLetter(Message{Payload: payload, Sender: a.id})
}

func (a *Actor) reply(to ActorID, reqID RequestID, payload any) {
	msg := Message{Payload: payload, Sender: a.id, RequestID: reqID}
	if peer, ok := a.lookup(to); ok {
		peer.Enqueue(msg)
		return
	}
	a.deadLetter(msg)
}

// Ask sends payload to target and returns a Future for its reply,
// correlated via a fresh RequestID (spec §4.3). If timeout is positive and
// no reply arrives within it, the Future resolves to ErrRequestTimeout.
func (a *Actor) Ask(target ActorID, payload any, timeout time.Duration) Future[any] {
	reqID := NewRequestID()
	promise, future := NewPromise[any]()

	a.mu.Lock()
	a.pendingRequests[reqID] = &pendingRequest{promise: promise}
	a.mu.Unlock()

	peer, ok := a.lookup(target)
	if !ok {
		a.completeRequest(reqID, fn.Err[any](ErrActorTerminated))
		return future
	}

	if timeout > 0 {
		cancel := a.sched.DelayAction(func() {
			a.completeRequest(reqID, fn.Err[any](ErrRequestTimeout))
		}, timeout)
		a.mu.Lock()
		if pr, ok := a.pendingRequests[reqID]; ok {
			pr.cancelTimeout = cancel
		}
		a.mu.Unlock()
	}

	peer.Enqueue(Message{Payload: payload, Sender: a.id, RequestID: reqID})
	return future
}

func (a *Actor) hasPendingRequest(id RequestID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.pendingRequests[id]
	return ok
}

func (a *Actor) completeRequest(id RequestID, r fn.Result[any]) {
	a.mu.Lock()
	pr, ok := a.pendingRequests[id]
	if ok {
		delete(a.pendingRequests, id)
	}
	a.mu.Unlock()
	if !ok {
		return
	}
	if pr.cancelTimeout != nil {
		pr.cancelTimeout.Cancel()
	}
	pr.promise.Complete(r)
}

// Quit forces this actor to terminate with reason, after finishing the
// message currently being handled (it is delivered as a high-priority
// system message, not executed inline).
func (a *Actor) Quit(reason ExitReason) {
	a.Enqueue(Message{Payload: quitSignal{reason: reason}, Priority: true})
}

func (a *Actor) become(b *Behavior, policy BecomePolicy) {
	a.stack.Become(b, policy)
	a.behaviorGen++
}

func (a *Actor) unbecome() bool {
	ok := a.stack.Unbecome()
	if !ok {
		return false
	}
	a.behaviorGen++
	if a.stack.Depth() == 0 {
		a.markDone(ExitNormal)
	}
	return true
}

// Link establishes a bidirectional link with peer (spec §4.3): a
// non-normal exit on either side propagates to the other, unless the
// receiving side has TrapExit enabled.
func (a *Actor) Link(peer ActorID) {
	peerActor, ok := a.lookup(peer)
	if !ok {
		return
	}

	a.mu.Lock()
	_, already := a.links[peer]
	if !already {
		a.links[peer] = struct{}{}
	}
	a.mu.Unlock()
	if !already {
		a.attach(&linkAttachable{peer: peer, lookup: a.lookup})
	}

	peerActor.mu.Lock()
	_, peerAlready := peerActor.links[a.id]
	if !peerAlready {
		peerActor.links[a.id] = struct{}{}
	}
	peerActor.mu.Unlock()
	if !peerAlready {
		peerActor.attach(&linkAttachable{peer: a.id, lookup: peerActor.lookup})
	}
}

// Unlink removes a link previously established with Link, in both
// directions. It is not an error to unlink a peer that was never linked.
func (a *Actor) Unlink(peer ActorID) {
	a.mu.Lock()
	delete(a.links, peer)
	a.mu.Unlock()

	if peerActor, ok := a.lookup(peer); ok {
		peerActor.mu.Lock()
		delete(peerActor.links, a.id)
		peerActor.mu.Unlock()
	}
}

// Monitor makes a receive a Down message when peer terminates, for any
// reason (spec §4.3). Unlike Link this is unidirectional.
func (a *Actor) Monitor(peer ActorID) {
	peerActor, ok := a.lookup(peer)
	if !ok {
		a.Enqueue(Message{Payload: Down{Watched: peer, Reason: ExitUnhandledException}})
		return
	}
	id := peerActor.attach(&monitorAttachable{watcher: a.id, watched: peer, lookup: a.lookup})
	a.mu.Lock()
	a.watching[peer] = id
	a.mu.Unlock()
}

// Demonitor cancels a previous Monitor call. Not an error if peer was
// never monitored.
func (a *Actor) Demonitor(peer ActorID) {
	a.mu.Lock()
	id, ok := a.watching[peer]
	delete(a.watching, peer)
	a.mu.Unlock()
	if !ok {
		return
	}
	if peerActor, found := a.lookup(peer); found {
		peerActor.detach(id)
	}
}

// SetTrapExit toggles whether a non-normal exit from a linked peer is
// delivered as an ExitSignal message (enabled) or kills this actor
// outright (disabled, the default).
func (a *Actor) SetTrapExit(enable bool) {
	a.mu.Lock()
	a.trapExit = enable
	a.mu.Unlock()
}

func (a *Actor) receiveExitSignal(reason ExitReason) {
	a.mu.Lock()
	trap := a.trapExit
	a.mu.Unlock()
	if trap {
		a.Enqueue(Message{Payload: ExitSignal{Reason: reason}})
		return
	}
	a.Quit(reason)
}

// Attach registers att to fire exactly once when this actor terminates,
// returning an AttachmentID that Detach can later use to cancel it.
func (a *Actor) Attach(att Attachable) AttachmentID {
	return a.attach(att)
}

func (a *Actor) attach(att Attachable) AttachmentID {
	id := newAttachmentID()
	a.mu.Lock()
	a.attachments = append(a.attachments, attachmentEntry{id: id, att: att})
	a.mu.Unlock()
	return id
}

// Detach cancels a previously-registered Attachable. Returns false if id
// is unknown (already fired, or never existed).
func (a *Actor) Detach(id AttachmentID) bool {
	return a.detach(id)
}

func (a *Actor) detach(id AttachmentID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, e := range a.attachments {
		if e.id == id {
			a.attachments = append(a.attachments[:i], a.attachments[i+1:]...)
			return true
		}
	}
	return false
}

// Context is the per-message handle passed to every Behavior case,
// bundling the actor's self-reference with the message being handled
// (spec §4.2).
type Context struct {
	actor *Actor
	msg   Message
}

// Self returns the current actor's ID.
func (c *Context) Self() ActorID { return c.actor.id }

// Sender returns the ID of the actor that sent the message being handled.
func (c *Context) Sender() ActorID { return c.msg.Sender }

// Message returns the raw envelope currently being handled.
func (c *Context) Message() Message { return c.msg }

// Context returns the actor's lifecycle context.Context, cancelled once it
// terminates; handlers that start blocking work should select on it.
func (c *Context) Context() context.Context { return c.actor.ctx }

// Become changes the active Behavior per policy (spec §4.2).
func (c *Context) Become(b *Behavior, policy BecomePolicy) { c.actor.become(b, policy) }

// Unbecome pops back to the Behavior beneath the current one.
func (c *Context) Unbecome() bool { return c.actor.unbecome() }

// Tell sends payload to target, attributed to the current actor.
func (c *Context) Tell(target ActorID, payload any) { c.actor.Tell(target, payload) }

// Reply sends payload back to the sender of the message being handled,
// correlated with its RequestID. A no-op if the message was not a
// request.
func (c *Context) Reply(payload any) {
	if c.msg.RequestID == 0 {
		return
	}
	c.actor.reply(c.msg.Sender, c.msg.RequestID, payload)
}

// Ask sends payload to target and returns a Future for its reply.
func (c *Context) Ask(target ActorID, payload any, timeout time.Duration) Future[any] {
	return c.actor.Ask(target, payload, timeout)
}

// Quit terminates the current actor with reason once this message
// finishes processing.
func (c *Context) Quit(reason ExitReason) { c.actor.Quit(reason) }

// Link establishes a bidirectional link with peer.
func (c *Context) Link(peer ActorID) { c.actor.Link(peer) }

// Unlink removes a link with peer.
func (c *Context) Unlink(peer ActorID) { c.actor.Unlink(peer) }

// Monitor starts watching peer for termination.
func (c *Context) Monitor(peer ActorID) { c.actor.Monitor(peer) }

// Demonitor stops watching peer.
func (c *Context) Demonitor(peer ActorID) { c.actor.Demonitor(peer) }

// TrapExit toggles whether link exit signals arrive as messages.
func (c *Context) TrapExit(enable bool) { c.actor.SetTrapExit(enable) }

// Attach registers att to fire once this actor terminates.
func (c *Context) Attach(att Attachable) AttachmentID { return c.actor.Attach(att) }

// Detach cancels a previously-registered Attachable.
func (c *Context) Detach(id AttachmentID) bool { return c.actor.Detach(id) }
