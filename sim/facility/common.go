// Package facility implements the simulation archetypes: the multi-stream
// separations plant, the reprocessing reactor, and the source and sink
// facilities that feed and drain them.
package facility

import (
	"fmt"
	"math"

	"github.com/recycle-sim/recycle-sim/sim"
	"github.com/recycle-sim/recycle-sim/sim/material"
	"github.com/recycle-sim/recycle-sim/sim/nuc"
	"github.com/recycle-sim/recycle-sim/sim/separation"
	"github.com/recycle-sim/recycle-sim/sim/tank"
)

// StreamConfig describes one separated output stream.
type StreamConfig struct {
	Commod       string             `yaml:"commod"`
	BufSize      float64            `yaml:"buf_size"`     // <= 0 is unbounded
	Efficiencies map[string]float64 `yaml:"efficiencies"` // nuclide or element name → fraction
}

// buildStreams parses the efficiency tables and validates the stream table.
func buildStreams(prototype string, cfgs []StreamConfig) (*separation.StreamTable, error) {
	streams := make([]separation.Stream, 0, len(cfgs))
	for _, sc := range cfgs {
		effs, err := nuc.ParseMap(sc.Efficiencies)
		if err != nil {
			return nil, sim.ConfigErrorf(prototype, "stream %q: %w", sc.Commod, err)
		}
		streams = append(streams, separation.Stream{
			Name:     sc.Commod,
			Capacity: bufSize(sc.BufSize),
			Effs:     separation.EffTable(effs),
		})
	}
	st, err := separation.NewStreamTable(streams)
	if err != nil {
		return nil, &sim.ConfigError{Prototype: prototype, Err: err}
	}
	return st, nil
}

// prefs fills in default preferences (1.0 each) or checks the lengths match.
func prefs(prototype, field string, commods []string, given []float64) ([]float64, error) {
	if len(given) == 0 {
		out := make([]float64, len(commods))
		for i := range out {
			out[i] = 1.0
		}
		return out, nil
	}
	if len(given) != len(commods) {
		return nil, sim.ConfigErrorf(prototype, "%s has %d entries for %d commodities", field, len(given), len(commods))
	}
	return given, nil
}

func bufSize(v float64) float64 {
	if v <= 0 || math.IsInf(v, 1) {
		return tank.Unbounded
	}
	return v
}

func recipe(ctx *sim.Context, prototype, field, name string) (*material.Composition, error) {
	c, err := ctx.Recipe(name)
	if err != nil {
		return nil, sim.ConfigErrorf(prototype, "%s: %w", field, err)
	}
	return c, nil
}

// mover performs audited moves between one agent's tanks.
type mover struct {
	ctx   *sim.Context
	owner interface {
		ID() int
		Prototype() string
	}
}

// transfer moves exactly qty kg from one tank to another. Both ends are
// checked before either is touched.
func (mv mover) transfer(from, to *tank.Tank, qty float64) error {
	if qty <= 0 {
		return nil
	}
	if qty-from.Quantity() > material.Eps {
		return fmt.Errorf("move %s -> %s: %w: need %.6g kg, have %.6g kg", from.Name(), to.Name(), tank.ErrInsufficient, qty, from.Quantity())
	}
	if qty-to.Space() > material.Eps {
		return fmt.Errorf("move %s -> %s: %w: need %.6g kg, space %.6g kg", from.Name(), to.Name(), tank.ErrOverCapacity, qty, to.Space())
	}
	m, err := from.Pop(qty)
	if err != nil {
		return err
	}
	return mv.place(from.Name(), m, to)
}

// place pushes a material taken from sender into to.
func (mv mover) place(sender string, m *material.Material, to *tank.Tank) error {
	return mv.push(sender, m, to, to.Push)
}

// restore puts a material taken from sender back at the front of to, ahead
// of anything that arrived since.
func (mv mover) restore(sender string, m *material.Material, to *tank.Tank) error {
	return mv.push(sender, m, to, to.PushFront)
}

func (mv mover) push(sender string, m *material.Material, to *tank.Tank, push func(*material.Material) error) error {
	if m.Quantity() <= 0 {
		return nil
	}
	if err := push(m); err != nil {
		return fmt.Errorf("move %s -> %s: %w", sender, to.Name(), err)
	}
	mv.ctx.RecordTransfer(mv.owner, sender, to.Name(), m.Quantity())
	return nil
}
