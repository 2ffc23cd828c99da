package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recycle-sim/recycle-sim/sim/nuc"
)

const (
	u235  nuc.Nuc = 922350000
	u238  nuc.Nuc = 922380000
	pu239 nuc.Nuc = 942390000
)

func mustComp(t *testing.T, m map[nuc.Nuc]float64) *Composition {
	t.Helper()
	c, err := FromMass(m)
	require.NoError(t, err)
	return c
}

func TestFromMass_NormalizesAndDropsZeros(t *testing.T) {
	c := mustComp(t, map[nuc.Nuc]float64{u235: 1, u238: 3, pu239: 0})

	assert.InDelta(t, 0.25, c.MassFrac(u235), 1e-12)
	assert.InDelta(t, 0.75, c.MassFrac(u238), 1e-12)
	assert.Equal(t, []nuc.Nuc{u235, u238}, c.Nuclides())
}

func TestFromMass_AllZeroIsEmptyDummy(t *testing.T) {
	c := mustComp(t, map[nuc.Nuc]float64{u235: 0})
	assert.True(t, c.IsEmpty())
}

func TestFromMass_NegativeRejected(t *testing.T) {
	_, err := FromMass(map[nuc.Nuc]float64{u235: -1})
	assert.Error(t, err)
}

func TestFromAtom_WeightsByMassNumber(t *testing.T) {
	// GIVEN equal atom counts of U235 and U238
	c, err := FromAtom(map[nuc.Nuc]float64{u235: 1, u238: 1})
	require.NoError(t, err)

	// THEN mass fractions follow mass numbers
	assert.InDelta(t, 235.0/473.0, c.MassFrac(u235), 1e-12)
	assert.InDelta(t, 0.5, c.AtomFracs()[u238], 1e-12)
}

func TestExtractQty_ConservesMass(t *testing.T) {
	m := New(100, mustComp(t, map[nuc.Nuc]float64{u235: 0.1, u238: 0.9}))

	out, err := m.ExtractQty(30)
	require.NoError(t, err)

	assert.InDelta(t, 30, out.Quantity(), 1e-12)
	assert.InDelta(t, 70, m.Quantity(), 1e-12)
	assert.InDelta(t, 10, out.Mass(u235)+m.Mass(u235), 1e-9)
}

func TestExtractQty_OverdrawFails(t *testing.T) {
	m := New(10, mustComp(t, map[nuc.Nuc]float64{u235: 1}))
	_, err := m.ExtractQty(11)
	assert.ErrorIs(t, err, ErrOverdraw)
	assert.Equal(t, 10.0, m.Quantity())
}

func TestExtractComp_PerNuclideConservation(t *testing.T) {
	// GIVEN 100 kg of 10% U235
	m := New(100, mustComp(t, map[nuc.Nuc]float64{u235: 0.1, u238: 0.9}))

	// WHEN all the U235 is pulled out
	out, err := m.ExtractComp(10, mustComp(t, map[nuc.Nuc]float64{u235: 1}))
	require.NoError(t, err)

	// THEN the remainder is pure U238
	assert.InDelta(t, 10, out.Mass(u235), 1e-9)
	assert.InDelta(t, 90, m.Quantity(), 1e-9)
	assert.InDelta(t, 0, m.Mass(u235), 1e-9)
	assert.InDelta(t, 90, m.Mass(u238), 1e-9)
}

func TestExtractComp_ShortNuclideLeavesSourceUntouched(t *testing.T) {
	m := New(100, mustComp(t, map[nuc.Nuc]float64{u235: 0.1, u238: 0.9}))

	_, err := m.ExtractComp(20, mustComp(t, map[nuc.Nuc]float64{u235: 1}))

	assert.ErrorIs(t, err, ErrOverdraw)
	assert.Equal(t, 100.0, m.Quantity())
	assert.InDelta(t, 10, m.Mass(u235), 1e-12)
}

func TestAbsorb_MixesByMass(t *testing.T) {
	a := New(10, mustComp(t, map[nuc.Nuc]float64{u235: 1}))
	b := New(30, mustComp(t, map[nuc.Nuc]float64{u238: 1}))

	a.Absorb(b)

	assert.InDelta(t, 40, a.Quantity(), 1e-12)
	assert.InDelta(t, 0.25, a.Comp().MassFrac(u235), 1e-12)
	assert.Equal(t, 0.0, b.Quantity())
}

func TestTransmute_KeepsMass(t *testing.T) {
	m := New(5, mustComp(t, map[nuc.Nuc]float64{u235: 1}))
	m.Transmute(mustComp(t, map[nuc.Nuc]float64{pu239: 1}))

	assert.Equal(t, 5.0, m.Quantity())
	assert.InDelta(t, 5, m.Mass(pu239), 1e-12)
}

func TestElemMass_SumsIsotopes(t *testing.T) {
	m := New(100, mustComp(t, map[nuc.Nuc]float64{u235: 0.1, u238: 0.8, pu239: 0.1}))
	assert.InDelta(t, 90, m.ElemMass(92), 1e-9)
}

func TestNew_NegativeQuantityPanics(t *testing.T) {
	assert.Panics(t, func() { New(-1, nil) })
}

func TestAlmostEqual_Tolerance(t *testing.T) {
	assert.True(t, AlmostEqual(1, 1+1e-7))
	assert.False(t, AlmostEqual(1, 1.001))
}

func TestAbsorb_UntypedMassConserved(t *testing.T) {
	// GIVEN 10 kg of empty-recipe material and 10 kg of U235
	m := New(10, nil)
	fresh := New(10, mustComp(t, map[nuc.Nuc]float64{u235: 1}))

	// WHEN merged
	m.Absorb(fresh)

	// THEN each part keeps its own mass
	assert.InDelta(t, 20, m.Quantity(), 1e-12)
	assert.InDelta(t, 10, m.Mass(u235), 1e-12)
	assert.InDelta(t, 10, m.Mass(nuc.Untyped), 1e-12)
	assert.False(t, m.Comp().IsEmpty())

	// WHEN the U235 is extracted again
	out, err := m.ExtractComp(10, mustComp(t, map[nuc.Nuc]float64{u235: 1}))
	require.NoError(t, err)

	// THEN only untyped mass remains
	assert.InDelta(t, 10, out.Mass(u235), 1e-9)
	assert.InDelta(t, 10, m.Quantity(), 1e-9)
	assert.True(t, m.Comp().IsEmpty())
}

func TestExtractComp_CannotTakeTypedMassFromUntyped(t *testing.T) {
	m := New(10, nil)

	_, err := m.ExtractComp(5, mustComp(t, map[nuc.Nuc]float64{u235: 1}))

	assert.ErrorIs(t, err, ErrOverdraw)
	assert.Equal(t, 10.0, m.Quantity())
}

func TestEmpty_AllMassUntyped(t *testing.T) {
	c := Empty()
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 1.0, c.MassFrac(nuc.Untyped))
	assert.Equal(t, "{untyped:1}", c.String())

	_, err := FromAtom(map[nuc.Nuc]float64{nuc.Untyped: 1})
	assert.Error(t, err)
}
