package facility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/recycle-sim/recycle-sim/sim"
)

func node(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	return doc.Content[0]
}

func TestBuild_SeparationsFromYAML(t *testing.T) {
	s, _ := newSim(t, 1)
	a, err := Build(s.Context(), "separations", "sep", 4, node(t, `
feed_commods: [feed]
feedbuf_size: 100
throughput: 50
streams:
  - commod: pu
    efficiencies: {Pu: 0.99}
`))
	require.NoError(t, err)

	sep, ok := a.(*Separations)
	require.True(t, ok)
	assert.Equal(t, "separations", sep.Archetype())
	assert.Equal(t, 4, sep.Lifetime())
	assert.NotNil(t, sep.Stream("pu"))
	assert.Equal(t, 2, sep.drainSteps())
}

func TestBuild_UnknownFieldRejected(t *testing.T) {
	s, _ := newSim(t, 1)
	_, err := Build(s.Context(), "sink", "snk", -1, node(t, `
in_commods: [u]
capacty: 3
`))
	assert.ErrorIs(t, err, sim.ErrConfig)
}

func TestBuild_UnknownArchetypeRejected(t *testing.T) {
	s, _ := newSim(t, 1)
	_, err := Build(s.Context(), "enrichment", "enr", -1, nil)
	assert.ErrorIs(t, err, sim.ErrConfig)
	assert.False(t, IsValidArchetype("enrichment"))
	assert.Equal(t, []string{"reactor", "separations", "sink", "source"}, Archetypes())
}
