package facility

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/recycle-sim/recycle-sim/sim"
	"github.com/recycle-sim/recycle-sim/sim/market"
	"github.com/recycle-sim/recycle-sim/sim/material"
	"github.com/recycle-sim/recycle-sim/sim/separation"
	"github.com/recycle-sim/recycle-sim/sim/tank"
)

// ErrInsufficientFill is returned when the fill tank cannot replace the mass
// a reprocessing cycle removed from the core.
var ErrInsufficientFill = errors.New("insufficient fill material")

// ReactorConfig configures a Reactor.
type ReactorConfig struct {
	FuelCommods     []string                      `yaml:"fuel_commods"`
	FuelPrefs       []float64                     `yaml:"fuel_prefs"`
	FuelRecipe      string                        `yaml:"fuel_recipe"`
	FillCommods     []string                      `yaml:"fill_commods"`
	FillPrefs       []float64                     `yaml:"fill_prefs"`
	FillRecipe      string                        `yaml:"fill_recipe"`
	CoreSize        float64                       `yaml:"core_size"`
	FillSize        float64                       `yaml:"fill_size"` // <= 0 is unbounded
	RepFrac         float64                       `yaml:"rep_frac"`
	DepletionPeriod int64                         `yaml:"depletion_period"` // seconds; 0 is once per step
	DepletedRecipe  string                        `yaml:"depleted_recipe"`
	Depletion       map[string]map[string]float64 `yaml:"depletion"`
	Streams         []StreamConfig                `yaml:"streams"`
	DischargeCommod string                        `yaml:"discharge_commod"`
	DischargeRecipe string                        `yaml:"discharge_recipe"`
	FillDischarge   string                        `yaml:"fill_discharge_commod"` // default discharge_commod
	PowerCap        float64                       `yaml:"power_cap"` // MWe
}

// ReactorPhase is the lifecycle state of a Reactor.
type ReactorPhase int

const (
	Loading ReactorPhase = iota
	Operating
	Discharging
	Retired
)

func (p ReactorPhase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Operating:
		return "operating"
	case Discharging:
		return "discharging"
	case Retired:
		return "retired"
	}
	return fmt.Sprintf("ReactorPhase(%d)", int(p))
}

var legalTransitions = map[ReactorPhase][]ReactorPhase{
	Loading:     {Operating, Discharging, Retired},
	Operating:   {Discharging, Retired},
	Discharging: {Retired},
}

// Reactor is a liquid-fuel core with online reprocessing. It loads fuel
// until the core is full, then every depletion period extracts rep_frac of
// the core, separates it into waste and byproduct streams, returns the
// unseparated remainder and refills the core from its fill tank. At its exit
// time the whole core is discharged and sold, and unused fill is sold as is.
type Reactor struct {
	sim.Base
	mv       mover
	repFrac  float64
	powerCap float64
	cycles   int // reprocessing cycles per step

	table     *separation.StreamTable
	depletion Depletion
	discharge *material.Composition // nil keeps the core composition

	core, fill, rep, spent *tank.Tank
	streams                []*tank.Tank

	fuelPolicy  *market.BuyPolicy
	fillPolicy  *market.BuyPolicy
	sellers     []*market.SellPolicy
	spentSeller *market.SellPolicy
	fillSeller  *market.SellPolicy

	phase ReactorPhase
}

// NewReactor validates cfg and builds the facility.
func NewReactor(ctx *sim.Context, prototype string, lifetime int, cfg ReactorConfig) (*Reactor, error) {
	if len(cfg.FuelCommods) == 0 {
		return nil, sim.ConfigErrorf(prototype, "fuel_commods must not be empty")
	}
	fuelPrefs, err := prefs(prototype, "fuel_prefs", cfg.FuelCommods, cfg.FuelPrefs)
	if err != nil {
		return nil, err
	}
	fillPrefs, err := prefs(prototype, "fill_prefs", cfg.FillCommods, cfg.FillPrefs)
	if err != nil {
		return nil, err
	}
	if cfg.CoreSize <= 0 || cfg.CoreSize >= tank.Unbounded {
		return nil, sim.ConfigErrorf(prototype, "core_size must be positive and finite, got %v", cfg.CoreSize)
	}
	if cfg.RepFrac < 0 || cfg.RepFrac > 1 {
		return nil, sim.ConfigErrorf(prototype, "rep_frac must be in [0,1], got %v", cfg.RepFrac)
	}
	if cfg.RepFrac > 0 && len(cfg.FillCommods) == 0 {
		return nil, sim.ConfigErrorf(prototype, "fill_commods required when rep_frac > 0")
	}
	if cfg.DepletionPeriod < 0 || cfg.DepletionPeriod > ctx.Dt() {
		return nil, sim.ConfigErrorf(prototype, "depletion_period must be in [0,%d] seconds, got %d", ctx.Dt(), cfg.DepletionPeriod)
	}
	if cfg.DischargeCommod == "" {
		return nil, sim.ConfigErrorf(prototype, "discharge_commod must not be empty")
	}
	for _, sc := range cfg.Streams {
		if sc.Commod == cfg.DischargeCommod {
			return nil, sim.ConfigErrorf(prototype, "stream %q collides with the discharge commodity", sc.Commod)
		}
	}
	table, err := buildStreams(prototype, cfg.Streams)
	if err != nil {
		return nil, err
	}

	fuelComp, err := recipe(ctx, prototype, "fuel_recipe", cfg.FuelRecipe)
	if err != nil {
		return nil, err
	}
	fillComp, err := recipe(ctx, prototype, "fill_recipe", cfg.FillRecipe)
	if err != nil {
		return nil, err
	}
	var depleted, discharge *material.Composition
	if cfg.DepletedRecipe != "" {
		if depleted, err = recipe(ctx, prototype, "depleted_recipe", cfg.DepletedRecipe); err != nil {
			return nil, err
		}
	}
	if cfg.DischargeRecipe != "" {
		if discharge, err = recipe(ctx, prototype, "discharge_recipe", cfg.DischargeRecipe); err != nil {
			return nil, err
		}
	}
	depletion, err := newDepletion(depleted, cfg.Depletion)
	if err != nil {
		return nil, &sim.ConfigError{Prototype: prototype, Err: err}
	}

	cycles := 1
	if cfg.DepletionPeriod > 0 {
		cycles = int(ctx.Dt() / cfg.DepletionPeriod)
	}

	r := &Reactor{
		Base:      sim.NewBase(ctx, prototype, "reactor", lifetime),
		repFrac:   cfg.RepFrac,
		powerCap:  cfg.PowerCap,
		cycles:    cycles,
		table:     table,
		depletion: depletion,
		discharge: discharge,
		core:      tank.New("core", cfg.CoreSize),
		fill:      tank.New("fill", bufSize(cfg.FillSize)),
		rep:       tank.New("rep", tank.Unbounded),
		spent:     tank.New("discharge", tank.Unbounded),
	}
	r.mv = mover{ctx: ctx, owner: r}

	x := ctx.Exchange()
	r.fuelPolicy = market.NewBuyPolicy(x, r, r.core, "core")
	for i, c := range cfg.FuelCommods {
		r.fuelPolicy.Set(c, fuelComp, fuelPrefs[i])
	}
	r.fillPolicy = market.NewBuyPolicy(x, r, r.fill, "fill")
	for i, c := range cfg.FillCommods {
		r.fillPolicy.Set(c, fillComp, fillPrefs[i])
	}
	for _, st := range table.Streams() {
		buf := tank.New(st.Name, st.Capacity)
		r.streams = append(r.streams, buf)
		r.sellers = append(r.sellers, market.NewSellPolicy(x, r, buf, st.Name).Set(st.Name))
	}
	r.spentSeller = market.NewSellPolicy(x, r, r.spent, "discharge").Set(cfg.DischargeCommod)
	if cfg.FillDischarge == "" {
		cfg.FillDischarge = cfg.DischargeCommod
	}
	r.fillSeller = market.NewSellPolicy(x, r, r.fill, "fill").Set(cfg.FillDischarge)
	return r, nil
}

// EnterNotify starts loading fuel and offering the separated streams.
func (r *Reactor) EnterNotify() error {
	r.phase = Loading
	r.fuelPolicy.Start()
	for _, p := range r.sellers {
		p.Start()
	}
	return nil
}

// Tick discharges the core once the exit time is reached.
func (r *Reactor) Tick() error {
	exit := r.ExitTime()
	if exit >= 0 && r.Context().Time() >= exit && (r.phase == Loading || r.phase == Operating) {
		return r.transition(Discharging)
	}
	return nil
}

// Tock runs the reprocessing cycles, detects a newly full core and records
// power while the core is full.
func (r *Reactor) Tock() error {
	switch r.phase {
	case Operating:
		for i := 0; i < r.cycles; i++ {
			if err := r.reprocess(); err != nil {
				return err
			}
		}
	case Loading:
		if r.core.IsFull() {
			if err := r.transition(Operating); err != nil {
				return err
			}
		}
	}
	if r.core.IsFull() {
		r.Context().RecordPower(r, r.powerCap)
	}
	return nil
}

// transition moves the reactor to phase to, performing that phase's entry
// actions. Each phase is entered at most once.
func (r *Reactor) transition(to ReactorPhase) error {
	legal := false
	for _, p := range legalTransitions[r.phase] {
		legal = legal || p == to
	}
	if !legal {
		return fmt.Errorf("illegal transition %s -> %s", r.phase, to)
	}
	t := r.Context().Time()
	logrus.Infof("[t %04d] %s (id %d) %s -> %s", t, r.Prototype(), r.ID(), r.phase, to)

	switch to {
	case Operating:
		r.fuelPolicy.SetPreferences(0)
		r.fuelPolicy.Stop()
		r.fillPolicy.Start()
	case Discharging:
		r.fuelPolicy.Stop()
		r.fillPolicy.Stop()
		if err := r.dischargeCore(); err != nil {
			return err
		}
		r.spentSeller.Start()
		r.fillSeller.Start()
	case Retired:
		r.fuelPolicy.Stop()
		r.fillPolicy.Stop()
		for _, p := range r.sellers {
			p.Stop()
		}
		r.spentSeller.Stop()
		r.fillSeller.Stop()
	}
	r.phase = to
	return nil
}

// dischargeCore moves the whole core to the discharge tank as one batch.
// Unused fill keeps its composition and is sold from the fill tank.
func (r *Reactor) dischargeCore() error {
	m := r.core.PopAll()
	if r.discharge != nil {
		m.Transmute(r.discharge)
	}
	return r.mv.place(r.core.Name(), m, r.spent)
}

// reprocess runs one depletion period: deplete, extract, separate, return
// the remainder and refill. Every quantity is checked before the core is
// touched; a missing fill is fatal, a full output tank defers the cycle.
func (r *Reactor) reprocess() error {
	held := r.core.Contents()
	depleted, err := r.depletion.Apply(held.Comp())
	if err != nil {
		return err
	}
	exQty := held.Quantity() * r.repFrac

	var res separation.Result
	if exQty > material.Eps {
		res = r.table.Split(material.New(exQty, depleted))
		need := res.Separated()
		if need-r.fill.Quantity() > material.Eps {
			return fmt.Errorf("%w: need %.6g kg, fill tank holds %.6g kg", ErrInsufficientFill, need, r.fill.Quantity())
		}
		for i, out := range res.Outputs {
			if out.Quantity()-r.streams[i].Space() > material.Eps {
				logrus.Warnf("[t %04d] %s (id %d) stream %s full, reprocessing deferred",
					r.Context().Time(), r.Prototype(), r.ID(), r.streams[i].Name())
				return nil
			}
		}
	}

	core := r.core.PopAll()
	core.Transmute(depleted)
	if err := r.core.Push(core); err != nil {
		return err
	}
	if exQty <= material.Eps {
		return nil
	}

	if err := r.mv.transfer(r.core, r.rep, exQty); err != nil {
		return err
	}
	batch := r.rep.PopAll()
	for i, out := range res.Outputs {
		if out.Quantity() <= 0 {
			continue
		}
		part, err := batch.ExtractComp(out.Quantity(), out.Comp())
		if err != nil {
			return fmt.Errorf("stream %s: %w", r.streams[i].Name(), err)
		}
		if err := r.mv.place(r.rep.Name(), part, r.streams[i]); err != nil {
			return err
		}
	}
	if err := r.mv.place(r.rep.Name(), batch, r.core); err != nil {
		return err
	}
	return r.mv.transfer(r.fill, r.core, held.Quantity()-r.core.Quantity())
}

// Drained reports whether every tank is empty.
func (r *Reactor) Drained() bool {
	for _, tk := range append([]*tank.Tank{r.core, r.fill, r.rep, r.spent}, r.streams...) {
		if !tk.Empty() {
			return false
		}
	}
	return true
}

// Decommission retires the reactor and withdraws its remaining policies.
func (r *Reactor) Decommission() {
	if err := r.transition(Retired); err != nil {
		logrus.Errorf("[t %04d] %s (id %d) decommission: %v", r.Context().Time(), r.Prototype(), r.ID(), err)
	}
}

// Phase returns the lifecycle state.
func (r *Reactor) Phase() ReactorPhase { return r.phase }

// Core returns the core tank.
func (r *Reactor) Core() *tank.Tank { return r.core }

// Fill returns the fill tank.
func (r *Reactor) Fill() *tank.Tank { return r.fill }

// Discharge returns the tank holding the discharged core.
func (r *Reactor) Discharge() *tank.Tank { return r.spent }

// Stream returns the tank of the named stream, or nil.
func (r *Reactor) Stream(name string) *tank.Tank {
	for _, st := range r.streams {
		if st.Name() == name {
			return st
		}
	}
	return nil
}
