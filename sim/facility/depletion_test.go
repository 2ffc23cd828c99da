package facility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recycle-sim/recycle-sim/sim/material"
	"github.com/recycle-sim/recycle-sim/sim/nuc"
)

func TestDepletion_MatrixRedistributesMass(t *testing.T) {
	d, err := newDepletion(nil, map[string]map[string]float64{"U235": {"U235": 0.9, "Xe135": 0.1}})
	require.NoError(t, err)
	c, err := material.FromMass(map[nuc.Nuc]float64{u235: 0.05, u238: 0.95})
	require.NoError(t, err)

	out, err := d.Apply(c)
	require.NoError(t, err)

	assert.InDelta(t, 0.045, out.MassFrac(u235), 1e-12)
	assert.InDelta(t, 0.005, out.MassFrac(xe135), 1e-12)
	assert.InDelta(t, 0.95, out.MassFrac(u238), 1e-12)
}

func TestDepletion_RecipeReplacesComposition(t *testing.T) {
	fixed, err := material.FromMass(map[nuc.Nuc]float64{xe135: 1})
	require.NoError(t, err)
	d, err := newDepletion(fixed, nil)
	require.NoError(t, err)

	out, err := d.Apply(material.Empty())
	require.NoError(t, err)
	assert.Same(t, fixed, out)
}

func TestDepletion_EmptyIsIdentity(t *testing.T) {
	d, err := newDepletion(nil, nil)
	require.NoError(t, err)
	c, err := material.FromMass(map[nuc.Nuc]float64{u235: 1})
	require.NoError(t, err)

	out, err := d.Apply(c)
	require.NoError(t, err)
	assert.Same(t, c, out)
}

func TestDepletion_RejectsRowsNotSummingToOne(t *testing.T) {
	_, err := newDepletion(nil, map[string]map[string]float64{"Pu239": {"Pu240": 0.5}})
	assert.Error(t, err)

	_, err = newDepletion(nil, map[string]map[string]float64{"Pu239": {"Pu240": 1.5, "Pu239": -0.5}})
	assert.Error(t, err)
}

func TestDepletion_MatrixOnEmptyCore(t *testing.T) {
	d, err := newDepletion(nil, map[string]map[string]float64{"Pu239": {"Pu240": 1}})
	require.NoError(t, err)

	out, err := d.Apply(material.Empty())
	require.NoError(t, err)
	assert.True(t, out.IsEmpty())
}

func TestDepletion_ChainConservesMass(t *testing.T) {
	// GIVEN a matrix moving all Pu239 to Pu240 and half of Pu240 to Xe135
	d, err := newDepletion(nil, map[string]map[string]float64{
		"Pu239": {"Pu240": 1},
		"Pu240": {"Pu240": 0.5, "Xe135": 0.5},
	})
	require.NoError(t, err)
	c, err := material.FromMass(map[nuc.Nuc]float64{pu239: 0.5, pu240: 0.5})
	require.NoError(t, err)

	// WHEN applied once
	out, err := d.Apply(c)
	require.NoError(t, err)

	// THEN each period is a single matrix application
	assert.InDelta(t, 0, out.MassFrac(pu239), 1e-12)
	assert.InDelta(t, 0.75, out.MassFrac(pu240), 1e-12)
	assert.InDelta(t, 0.25, out.MassFrac(xe135), 1e-12)
}
