package actor

import "time"

// BecomePolicy controls how Context.Become changes the BehaviorStack (spec
// §4.2): Replace clears every frame and leaves the new one as the only
// frame, Keep pushes a new frame on top so Unbecome can later return to the
// frame underneath.
type BecomePolicy int

const (
	// Replace clears the stack and pushes the new frame as its only entry.
	Replace BecomePolicy = iota

	// Keep pushes a new frame on top of the current one.
	Keep
)

// caseHandler is one type-matched arm of a Behavior, built by Case[T].
type caseHandler struct {
	match  func(msg Message) (any, bool)
	invoke func(ctx *Context, payload any)
}

// Case builds a Behavior arm that fires handler when a message's Payload
// is exactly type T. This is the Go-idiomatic replacement for CAF's
// template-based tuple-shape matching (spec §4.2): instead of matching a
// C++ parameter-pack shape, handlers match on the dynamic Go type of the
// payload.
func Case[T any](handler func(ctx *Context, msg T)) caseHandler {
	return caseHandler{
		match: func(msg Message) (any, bool) {
			v, ok := msg.Payload.(T)
			return v, ok
		},
		invoke: func(ctx *Context, payload any) {
			handler(ctx, payload.(T))
		},
	}
}

// CaseIf builds a Behavior arm like Case, but additionally requires pred to
// hold for the typed payload before the handler fires. Messages that match
// the type but fail pred fall through to later arms, matching CAF's guard
// expressions.
func CaseIf[T any](pred func(T) bool, handler func(ctx *Context, msg T)) caseHandler {
	return caseHandler{
		match: func(msg Message) (any, bool) {
			v, ok := msg.Payload.(T)
			if !ok || !pred(v) {
				return nil, false
			}
			return v, ok
		},
		invoke: func(ctx *Context, payload any) {
			handler(ctx, payload.(T))
		},
	}
}

// Behavior is one handler-set frame (spec §4.2): an ordered list of typed
// cases tried in declaration order, plus an optional inactivity timeout
// that fires if no message matches within the window.
type Behavior struct {
	cases       []caseHandler
	timeout     time.Duration
	hasTimeout  bool
	onTimeout   func(ctx *Context)
}

// NewBehavior builds a Behavior from an ordered list of Case/CaseIf arms.
func NewBehavior(cases ...caseHandler) *Behavior {
	return &Behavior{cases: cases}
}

// WithTimeout attaches an inactivity timeout to b: if no message is
// handled by b within d, onTimeout fires (spec §4.2). The timeout resets
// whenever a message is consumed, and is cancelled entirely if b is popped
// off the stack before it fires.
func (b *Behavior) WithTimeout(d time.Duration, onTimeout func(ctx *Context)) *Behavior {
	b.timeout = d
	b.hasTimeout = true
	b.onTimeout = onTimeout
	return b
}

// handle tries each case in order and returns true if one matched and ran.
func (b *Behavior) handle(ctx *Context, msg Message) bool {
	for _, c := range b.cases {
		if v, ok := c.match(msg); ok {
			c.invoke(ctx, v)
			return true
		}
	}
	return false
}

// BehaviorStack is the actor's stack of active Behavior frames (spec
// §4.2). Only the top frame's cases are tried; Context.Become/Unbecome
// push and pop frames according to BecomePolicy.
type BehaviorStack struct {
	frames []*Behavior
}

// NewBehaviorStack creates a stack with initial as its sole frame.
func NewBehaviorStack(initial *Behavior) *BehaviorStack {
	return &BehaviorStack{frames: []*Behavior{initial}}
}

// Current returns the top-of-stack Behavior, the only one consulted for
// incoming messages.
func (s *BehaviorStack) Current() *Behavior {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Become pushes or replaces the frame stack according to policy. Replace
// clears every existing frame first, so the stack collapses to depth 1
// regardless of how many Keep frames were pushed before it.
func (s *BehaviorStack) Become(b *Behavior, policy BecomePolicy) {
	if policy == Replace {
		s.frames = s.frames[:0]
	}
	s.frames = append(s.frames, b)
}

// Unbecome pops the top frame, returning to the one beneath it. Unlike a
// fixed base behavior, the last frame can also be popped: the stack is then
// empty and Current returns nil, signalling the caller to route the actor
// to normal termination. Returns false only if the stack was already empty.
func (s *BehaviorStack) Unbecome() bool {
	if len(s.frames) == 0 {
		return false
	}
	s.frames = s.frames[:len(s.frames)-1]
	return true
}

// Depth returns the number of frames currently on the stack.
func (s *BehaviorStack) Depth() int {
	return len(s.frames)
}
