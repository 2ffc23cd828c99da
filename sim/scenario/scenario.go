// Package scenario loads simulation scenarios from YAML and builds
// ready-to-run simulators from them.
package scenario

import (
	"bytes"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/recycle-sim/recycle-sim/sim"
	"github.com/recycle-sim/recycle-sim/sim/facility"
	"github.com/recycle-sim/recycle-sim/sim/material"
	"github.com/recycle-sim/recycle-sim/sim/nuc"
	"github.com/recycle-sim/recycle-sim/sim/record"
)

// Scenario is the top-level scenario configuration.
// Loaded from YAML via LoadScenario(path).
type Scenario struct {
	Simulation SimulationSpec `yaml:"simulation"`
	Recipes    []RecipeSpec   `yaml:"recipes"`
	Facilities []FacilitySpec `yaml:"facilities"`
}

// SimulationSpec holds run-level parameters.
type SimulationSpec struct {
	Duration int    `yaml:"duration"`
	Dt       int64  `yaml:"dt,omitempty"`     // seconds per step; 0 = one month
	SimID    string `yaml:"sim_id,omitempty"` // empty = random
}

// RecipeSpec is a named composition.
type RecipeSpec struct {
	Name     string             `yaml:"name"`
	Basis    string             `yaml:"basis"` // mass (default) or atom
	Nuclides map[string]float64 `yaml:"nuclides"`
}

// FacilitySpec deploys one facility.
type FacilitySpec struct {
	Name      string    `yaml:"name"`
	Archetype string    `yaml:"archetype"`
	Lifetime  int       `yaml:"lifetime,omitempty"` // steps; <= 0 = infinite
	EnterTime int       `yaml:"enter_time,omitempty"`
	Config    yaml.Node `yaml:"config"`
}

var validBases = map[string]bool{"": true, "mass": true, "atom": true}

// LoadScenario reads and parses a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scenario, rejecting unknown fields.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &sc, nil
}

// Validate checks everything that can be checked without building facilities.
func (sc *Scenario) Validate() error {
	if sc.Simulation.Duration <= 0 {
		return fmt.Errorf("simulation duration must be positive, got %d", sc.Simulation.Duration)
	}
	if sc.Simulation.Dt < 0 {
		return fmt.Errorf("simulation dt must be non-negative, got %d", sc.Simulation.Dt)
	}
	if sc.Simulation.SimID != "" {
		if _, err := uuid.Parse(sc.Simulation.SimID); err != nil {
			return fmt.Errorf("sim_id: %w", err)
		}
	}
	recipes := make(map[string]bool, len(sc.Recipes))
	for _, r := range sc.Recipes {
		if r.Name == "" {
			return fmt.Errorf("recipe with empty name")
		}
		if recipes[r.Name] {
			return fmt.Errorf("recipe %q defined twice", r.Name)
		}
		recipes[r.Name] = true
		if !validBases[r.Basis] {
			return fmt.Errorf("recipe %q: unknown basis %q; valid: mass, atom", r.Name, r.Basis)
		}
	}
	if len(sc.Facilities) == 0 {
		return fmt.Errorf("at least one facility required")
	}
	names := make(map[string]bool, len(sc.Facilities))
	for _, f := range sc.Facilities {
		if f.Name == "" {
			return fmt.Errorf("facility with empty name")
		}
		if names[f.Name] {
			return fmt.Errorf("facility %q defined twice", f.Name)
		}
		names[f.Name] = true
		if !facility.IsValidArchetype(f.Archetype) {
			return fmt.Errorf("facility %q: unknown archetype %q; valid: %v", f.Name, f.Archetype, facility.Archetypes())
		}
		if f.EnterTime < 0 || f.EnterTime >= sc.Simulation.Duration {
			return fmt.Errorf("facility %q: enter_time %d outside [0,%d)", f.Name, f.EnterTime, sc.Simulation.Duration)
		}
	}
	return nil
}

// Build validates the scenario, registers its recipes and constructs every
// facility. Configuration errors surface here, before any step runs.
func (sc *Scenario) Build(rec record.Recorder) (*sim.Simulator, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	cfg := sim.Config{Duration: sc.Simulation.Duration, Dt: sc.Simulation.Dt}
	if sc.Simulation.SimID != "" {
		cfg.SimID = uuid.MustParse(sc.Simulation.SimID)
	}
	s := sim.NewSimulator(cfg, rec)
	ctx := s.Context()

	for _, r := range sc.Recipes {
		comp, err := r.composition()
		if err != nil {
			return nil, fmt.Errorf("recipe %q: %w", r.Name, err)
		}
		if err := ctx.Recipes().Add(r.Name, comp); err != nil {
			return nil, err
		}
	}

	for i := range sc.Facilities {
		f := &sc.Facilities[i]
		a, err := facility.Build(ctx, f.Archetype, f.Name, f.Lifetime, &f.Config)
		if err != nil {
			return nil, err
		}
		if err := s.Deploy(a, f.EnterTime); err != nil {
			return nil, err
		}
		logrus.Debugf("deployed %s (%s) id %d at t=%d", f.Name, f.Archetype, a.ID(), f.EnterTime)
	}
	return s, nil
}

func (r RecipeSpec) composition() (*material.Composition, error) {
	fracs, err := nuc.ParseMap(r.Nuclides)
	if err != nil {
		return nil, err
	}
	if r.Basis == "atom" {
		return material.FromAtom(fracs)
	}
	return material.FromMass(fracs)
}
