package facility

import (
	"bytes"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/recycle-sim/recycle-sim/sim"
)

// Builder constructs an agent from its YAML configuration block.
type Builder func(ctx *sim.Context, prototype string, lifetime int, config *yaml.Node) (sim.Agent, error)

// archetypes is the set of recognized archetype names.
var archetypes = map[string]Builder{
	"separations": func(ctx *sim.Context, proto string, life int, n *yaml.Node) (sim.Agent, error) {
		var cfg SeparationsConfig
		if err := decodeStrict(n, &cfg); err != nil {
			return nil, &sim.ConfigError{Prototype: proto, Err: err}
		}
		a, err := NewSeparations(ctx, proto, life, cfg)
		if err != nil {
			return nil, err
		}
		return a, nil
	},
	"reactor": func(ctx *sim.Context, proto string, life int, n *yaml.Node) (sim.Agent, error) {
		var cfg ReactorConfig
		if err := decodeStrict(n, &cfg); err != nil {
			return nil, &sim.ConfigError{Prototype: proto, Err: err}
		}
		a, err := NewReactor(ctx, proto, life, cfg)
		if err != nil {
			return nil, err
		}
		return a, nil
	},
	"source": func(ctx *sim.Context, proto string, life int, n *yaml.Node) (sim.Agent, error) {
		var cfg SourceConfig
		if err := decodeStrict(n, &cfg); err != nil {
			return nil, &sim.ConfigError{Prototype: proto, Err: err}
		}
		a, err := NewSource(ctx, proto, life, cfg)
		if err != nil {
			return nil, err
		}
		return a, nil
	},
	"sink": func(ctx *sim.Context, proto string, life int, n *yaml.Node) (sim.Agent, error) {
		var cfg SinkConfig
		if err := decodeStrict(n, &cfg); err != nil {
			return nil, &sim.ConfigError{Prototype: proto, Err: err}
		}
		a, err := NewSink(ctx, proto, life, cfg)
		if err != nil {
			return nil, err
		}
		return a, nil
	},
}

// IsValidArchetype returns true if name is a recognized archetype.
func IsValidArchetype(name string) bool {
	_, ok := archetypes[name]
	return ok
}

// Archetypes returns the recognized archetype names in sorted order.
func Archetypes() []string {
	names := make([]string, 0, len(archetypes))
	for n := range archetypes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build constructs a facility of the named archetype.
func Build(ctx *sim.Context, archetype, prototype string, lifetime int, config *yaml.Node) (sim.Agent, error) {
	b, ok := archetypes[archetype]
	if !ok {
		return nil, sim.ConfigErrorf(prototype, "unknown archetype %q (valid: %v)", archetype, Archetypes())
	}
	return b(ctx, prototype, lifetime, config)
}

// decodeStrict decodes a config block, rejecting unknown fields.
func decodeStrict(n *yaml.Node, out any) error {
	if n == nil || n.Kind == 0 {
		return nil
	}
	raw, err := yaml.Marshal(n)
	if err != nil {
		return fmt.Errorf("re-encoding config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}
