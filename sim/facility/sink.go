package facility

import (
	"github.com/recycle-sim/recycle-sim/sim"
	"github.com/recycle-sim/recycle-sim/sim/market"
	"github.com/recycle-sim/recycle-sim/sim/tank"
)

// SinkConfig configures a Sink.
type SinkConfig struct {
	InCommods  []string  `yaml:"in_commods"`
	InPrefs    []float64 `yaml:"in_commod_prefs"`
	Recipe     string    `yaml:"recipe_name"`
	Capacity   float64   `yaml:"capacity"`     // kg per step; <= 0 is unbounded
	MaxInvSize float64   `yaml:"max_inv_size"` // <= 0 is unbounded
}

// Sink buys material on its commodities and keeps it.
type Sink struct {
	sim.Base
	inventory *tank.Tank
	policy    *market.BuyPolicy
}

// NewSink validates cfg and builds the facility.
func NewSink(ctx *sim.Context, prototype string, lifetime int, cfg SinkConfig) (*Sink, error) {
	if len(cfg.InCommods) == 0 {
		return nil, sim.ConfigErrorf(prototype, "in_commods must not be empty")
	}
	inPrefs, err := prefs(prototype, "in_commod_prefs", cfg.InCommods, cfg.InPrefs)
	if err != nil {
		return nil, err
	}
	comp, err := recipe(ctx, prototype, "recipe_name", cfg.Recipe)
	if err != nil {
		return nil, err
	}
	s := &Sink{
		Base:      sim.NewBase(ctx, prototype, "sink", lifetime),
		inventory: tank.New("inventory", bufSize(cfg.MaxInvSize)),
	}
	s.policy = market.NewBuyPolicy(ctx.Exchange(), s, s.inventory, "inventory")
	s.policy.SetThroughput(bufSize(cfg.Capacity))
	for i, c := range cfg.InCommods {
		s.policy.Set(c, comp, inPrefs[i])
	}
	return s, nil
}

// EnterNotify starts buying.
func (s *Sink) EnterNotify() error {
	s.policy.Start()
	return nil
}

func (s *Sink) Tick() error { return nil }
func (s *Sink) Tock() error { return nil }

// Drained is always true; a sink is the final owner of what it buys.
func (s *Sink) Drained() bool { return true }

// Decommission stops buying.
func (s *Sink) Decommission() { s.policy.Stop() }

// Inventory returns the tank holding everything received.
func (s *Sink) Inventory() *tank.Tank { return s.inventory }
