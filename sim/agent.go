package sim

import "github.com/recycle-sim/recycle-sim/sim/market"

// Agent is a facility taking part in the simulation.
type Agent interface {
	market.Manager
	Archetype() string
	Lifetime() int
	EnterTime() int
	ExitTime() int

	// Bind assigns the agent id and entry step; called once by Deploy.
	Bind(id, enterTime int)
	// EnterNotify runs when the agent joins, before its first Tick.
	EnterNotify() error
	Tick() error
	Tock() error
	// Drained reports whether the agent holds no material and may leave.
	Drained() bool
	Decommission()
}

// Base carries the identity and lifetime bookkeeping shared by all agents.
// Facilities embed it and implement the rest of Agent.
type Base struct {
	ctx       *Context
	prototype string
	archetype string
	lifetime  int // steps; -1 is infinite
	id        int
	enter     int
}

// NewBase creates the shared agent state. A lifetime <= 0 means infinite.
func NewBase(ctx *Context, prototype, archetype string, lifetime int) Base {
	if ctx == nil {
		panic("NewBase: ctx must not be nil")
	}
	if lifetime <= 0 {
		lifetime = -1
	}
	return Base{ctx: ctx, prototype: prototype, archetype: archetype, lifetime: lifetime, id: -1}
}

// Context returns the simulation context.
func (b *Base) Context() *Context { return b.ctx }

// ID returns the agent id, or -1 before deployment.
func (b *Base) ID() int { return b.id }

// Prototype returns the configured facility name.
func (b *Base) Prototype() string { return b.prototype }

// Archetype returns the facility kind.
func (b *Base) Archetype() string { return b.archetype }

// Lifetime returns the operating lifetime in steps, -1 if infinite.
func (b *Base) Lifetime() int { return b.lifetime }

// EnterTime returns the step the agent joined.
func (b *Base) EnterTime() int { return b.enter }

// ExitTime returns the last operating step, or -1 for an infinite lifetime.
func (b *Base) ExitTime() int {
	if b.lifetime < 0 {
		return -1
	}
	return b.enter + b.lifetime - 1
}

// Bind assigns the agent id and entry step.
func (b *Base) Bind(id, enterTime int) {
	b.id = id
	b.enter = enterTime
}
