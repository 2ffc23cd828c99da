package sim

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/recycle-sim/recycle-sim/sim/market"
	"github.com/recycle-sim/recycle-sim/sim/record"
)

type deployment struct {
	agent Agent
	enter int
}

// Simulator advances all agents through the fixed per-step order described
// in the package documentation.
type Simulator struct {
	ctx     *Context
	pending []deployment // not yet entered, deploy order
	agents  []Agent      // active, entry order
	nextID  int
	hasRun  bool
}

// NewSimulator creates a simulator writing records to rec.
func NewSimulator(cfg Config, rec record.Recorder) *Simulator {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("NewSimulator: %v", err))
	}
	if rec == nil {
		panic("NewSimulator: recorder must not be nil")
	}
	if cfg.Dt == 0 {
		cfg.Dt = DefaultDt
	}
	if cfg.SimID == uuid.Nil {
		cfg.SimID = uuid.New()
	}
	return &Simulator{
		ctx: &Context{
			simID:    cfg.SimID,
			dt:       cfg.Dt,
			duration: cfg.Duration,
			recipes:  NewRecipeRegistry(),
			exchange: market.NewExchange(),
			rec:      rec,
		},
	}
}

// Context returns the context agents must be built with.
func (s *Simulator) Context() *Context { return s.ctx }

// Deploy schedules a to enter at enterTime and assigns its id.
func (s *Simulator) Deploy(a Agent, enterTime int) error {
	if s.hasRun {
		return fmt.Errorf("deploy %s: simulation already ran", a.Prototype())
	}
	if enterTime < 0 || enterTime >= s.ctx.duration {
		return fmt.Errorf("deploy %s: enter time %d outside [0,%d)", a.Prototype(), enterTime, s.ctx.duration)
	}
	a.Bind(s.nextID, enterTime)
	s.nextID++
	s.pending = append(s.pending, deployment{agent: a, enter: enterTime})
	return nil
}

// Agents returns the agents currently in the simulation.
func (s *Simulator) Agents() []Agent {
	return append([]Agent(nil), s.agents...)
}

// Run executes every step. A fatal error stops the run and is returned as a
// *StepError.
func (s *Simulator) Run() error {
	if s.hasRun {
		panic("Simulator.Run() called more than once")
	}
	s.hasRun = true

	for t := 0; t < s.ctx.duration; t++ {
		s.ctx.time = t
		logrus.Infof("[t %04d] step start, %d agents", t, len(s.agents))

		if err := s.enter(t); err != nil {
			return err
		}
		for _, a := range s.agents {
			if err := a.Tick(); err != nil {
				return &StepError{Prototype: a.Prototype(), AgentID: a.ID(), Time: t, Phase: "tick", Err: err}
			}
		}
		txs, err := s.ctx.exchange.Run(t)
		if err != nil {
			return &StepError{Prototype: "exchange", AgentID: -1, Time: t, Phase: "trade", Err: err}
		}
		s.ctx.recordTransactions(txs)
		for _, a := range s.agents {
			if err := a.Tock(); err != nil {
				return &StepError{Prototype: a.Prototype(), AgentID: a.ID(), Time: t, Phase: "tock", Err: err}
			}
		}
		s.decommission(t)
	}
	logrus.Infof("[t %04d] simulation ended", s.ctx.duration)
	return nil
}

func (s *Simulator) enter(t int) error {
	rest := s.pending[:0]
	var entering []Agent
	for _, d := range s.pending {
		if d.enter == t {
			entering = append(entering, d.agent)
		} else {
			rest = append(rest, d)
		}
	}
	s.pending = rest

	for _, a := range entering {
		if err := a.EnterNotify(); err != nil {
			return &StepError{Prototype: a.Prototype(), AgentID: a.ID(), Time: t, Phase: "enter", Err: err}
		}
		s.agents = append(s.agents, a)
		s.ctx.rec.RecordAgentEntry(record.AgentEntry{
			SimID:     s.ctx.simID,
			AgentID:   a.ID(),
			Prototype: a.Prototype(),
			Archetype: a.Archetype(),
			Lifetime:  a.Lifetime(),
			EnterTime: t,
		})
		logrus.Infof("[t %04d] %s (id %d) entered", t, a.Prototype(), a.ID())
	}
	return nil
}

// decommission removes agents past their exit time once they hold nothing.
// An agent still holding material keeps trading until drained.
func (s *Simulator) decommission(t int) {
	kept := s.agents[:0]
	for _, a := range s.agents {
		exit := a.ExitTime()
		if exit < 0 || t < exit {
			kept = append(kept, a)
			continue
		}
		if !a.Drained() {
			logrus.Debugf("[t %04d] %s (id %d) past exit time, still draining", t, a.Prototype(), a.ID())
			kept = append(kept, a)
			continue
		}
		a.Decommission()
		s.ctx.rec.RecordAgentExit(record.AgentExit{SimID: s.ctx.simID, AgentID: a.ID(), ExitTime: t})
		logrus.Infof("[t %04d] %s (id %d) decommissioned", t, a.Prototype(), a.ID())
	}
	s.agents = kept
}
