package tank

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recycle-sim/recycle-sim/sim/material"
	"github.com/recycle-sim/recycle-sim/sim/nuc"
)

const (
	u235 nuc.Nuc = 922350000
	u238 nuc.Nuc = 922380000
)

func batch(t *testing.T, qty float64, n nuc.Nuc) *material.Material {
	t.Helper()
	c, err := material.FromMass(map[nuc.Nuc]float64{n: 1})
	require.NoError(t, err)
	return material.New(qty, c)
}

func TestNew_NegativeCapacityIsUnbounded(t *testing.T) {
	assert.Equal(t, Unbounded, New("feed", -1).Capacity())
}

func TestPush_OverCapacityRejectedWithoutChange(t *testing.T) {
	// GIVEN a tank with 10 kg of space left
	tk := New("core", 50)
	require.NoError(t, tk.Push(batch(t, 40, u235)))

	// WHEN 11 kg are pushed
	err := tk.Push(batch(t, 11, u235))

	// THEN the push fails and the tank is unchanged
	assert.ErrorIs(t, err, ErrOverCapacity)
	assert.Equal(t, 40.0, tk.Quantity())
	assert.Equal(t, 1, tk.Count())
}

func TestPushAll_AllOrNothing(t *testing.T) {
	tk := New("fill", 10)
	err := tk.PushAll([]*material.Material{batch(t, 6, u235), batch(t, 6, u238)})
	assert.ErrorIs(t, err, ErrOverCapacity)
	assert.True(t, tk.Empty())
}

func TestPop_FIFOSplitsLastBatch(t *testing.T) {
	// GIVEN 10 kg U235 followed by 10 kg U238
	tk := New("feed", -1)
	require.NoError(t, tk.Push(batch(t, 10, u235)))
	require.NoError(t, tk.Push(batch(t, 10, u238)))

	// WHEN 15 kg are popped
	out, err := tk.Pop(15)
	require.NoError(t, err)

	// THEN all U235 and 5 kg U238 leave, 5 kg U238 remain
	assert.InDelta(t, 10, out.Mass(u235), 1e-9)
	assert.InDelta(t, 5, out.Mass(u238), 1e-9)
	assert.InDelta(t, 5, tk.Quantity(), 1e-9)
	assert.InDelta(t, 5, tk.Peek().Mass(u238), 1e-9)
}

func TestPop_InsufficientRejectedWithoutChange(t *testing.T) {
	tk := New("fill", -1)
	require.NoError(t, tk.Push(batch(t, 3, u235)))

	_, err := tk.Pop(4)

	assert.ErrorIs(t, err, ErrInsufficient)
	assert.Equal(t, 3.0, tk.Quantity())
}

func TestPop_WithinToleranceTakesEverything(t *testing.T) {
	tk := New("fill", -1)
	require.NoError(t, tk.Push(batch(t, 3, u235)))

	out, err := tk.Pop(3 + 1e-8)

	require.NoError(t, err)
	assert.Equal(t, 3.0, out.Quantity())
	assert.Equal(t, 0, tk.Count())
}

func TestSetCapacity_BelowHeldRejected(t *testing.T) {
	tk := New("core", 100)
	require.NoError(t, tk.Push(batch(t, 60, u235)))
	assert.ErrorIs(t, tk.SetCapacity(50), ErrOverCapacity)
	assert.NoError(t, tk.SetCapacity(60))
	assert.True(t, tk.IsFull())
}

func TestTank_RandomSequencesKeepInvariants(t *testing.T) {
	// GIVEN a bounded tank and a fixed pseudo-random sequence of operations
	rng := rand.New(rand.NewSource(7))
	tk := New("random", 100)
	var in, out float64

	for i := 0; i < 2000; i++ {
		if rng.Intn(2) == 0 {
			m := batch(t, rng.Float64()*30, u235)
			if err := tk.Push(m); err == nil {
				in += m.Quantity()
			} else {
				assert.ErrorIs(t, err, ErrOverCapacity)
			}
		} else {
			q := rng.Float64() * 30
			if m, err := tk.Pop(q); err == nil {
				out += m.Quantity()
			} else {
				assert.ErrorIs(t, err, ErrInsufficient)
			}
		}

		// THEN capacity and non-negativity hold after every operation
		require.LessOrEqual(t, tk.Quantity(), tk.Capacity()+material.Eps)
		require.GreaterOrEqual(t, tk.Quantity(), 0.0)
	}

	// THEN mass is conserved across the whole sequence
	assert.InDelta(t, in-out, tk.Quantity(), 1e-6)
}

func TestPushFront_PoppedFirst(t *testing.T) {
	// GIVEN a tank holding U238 and a U235 batch put back at the front
	tk := New("feed", 30)
	require.NoError(t, tk.Push(batch(t, 10, u238)))
	require.NoError(t, tk.PushFront(batch(t, 10, u235)))

	// WHEN one batch worth is popped
	out, err := tk.Pop(10)
	require.NoError(t, err)

	// THEN the returned batch comes out ahead of the older one
	assert.InDelta(t, 10, out.Mass(u235), 1e-9)
	assert.Equal(t, 0.0, out.Mass(u238))
}

func TestPushFront_OverCapacityRejected(t *testing.T) {
	tk := New("feed", 10)
	require.NoError(t, tk.Push(batch(t, 5, u238)))

	assert.ErrorIs(t, tk.PushFront(batch(t, 6, u235)), ErrOverCapacity)
	assert.Equal(t, 1, tk.Count())
}

func TestPopAll_UntypedMassStaysUntyped(t *testing.T) {
	// GIVEN 10 kg of empty-recipe material and 10 kg of U235 in one tank
	tk := New("inventory", -1)
	require.NoError(t, tk.Push(material.New(10, nil)))
	require.NoError(t, tk.Push(batch(t, 10, u235)))

	// WHEN the tank is emptied into one material
	out := tk.PopAll()

	// THEN U235 mass is not inflated by the untyped batch
	assert.InDelta(t, 20, out.Quantity(), 1e-9)
	assert.InDelta(t, 10, out.Mass(u235), 1e-9)
	assert.InDelta(t, 10, out.Mass(nuc.Untyped), 1e-9)
}
