// Package material models quantities of nuclear material and the
// mass-conserving operations that split and merge them.
package material

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/recycle-sim/recycle-sim/sim/nuc"
)

// Eps is the absolute mass tolerance (kg) used for resource comparisons.
const Eps = 1e-6

// relEps bounds relative rounding error on large quantities.
const relEps = 1e-9

// ErrOverdraw is returned when an extraction asks for more mass than the
// material holds (in total or for a single nuclide).
var ErrOverdraw = errors.New("extraction exceeds available mass")

// AlmostEqual reports whether two quantities agree within the resource tolerance.
func AlmostEqual(a, b float64) bool {
	return scalar.EqualWithinAbsOrRel(a, b, Eps, relEps)
}

// Material is a quantity (kg) of some composition. Operations that split a
// material conserve total and per-nuclide mass.
type Material struct {
	qty  float64
	comp *Composition
}

// New creates a material. A nil composition means the empty dummy one.
func New(qty float64, comp *Composition) *Material {
	if qty < 0 || math.IsNaN(qty) || math.IsInf(qty, 0) {
		panic(fmt.Sprintf("material.New: invalid quantity %v", qty))
	}
	if comp == nil {
		comp = Empty()
	}
	return &Material{qty: qty, comp: comp}
}

// FromMasses creates a material whose per-nuclide masses are given.
func FromMasses(masses map[nuc.Nuc]float64) (*Material, error) {
	comp, err := FromMass(masses)
	if err != nil {
		return nil, err
	}
	vals := make([]float64, 0, len(masses))
	for _, n := range sortedKeys(masses) {
		vals = append(vals, masses[n])
	}
	return New(floats.Sum(vals), comp), nil
}

// Quantity returns the mass in kg.
func (m *Material) Quantity() float64 { return m.qty }

// Comp returns the composition.
func (m *Material) Comp() *Composition { return m.comp }

// Mass returns the mass of nuclide n.
func (m *Material) Mass(n nuc.Nuc) float64 {
	return m.qty * m.comp.MassFrac(n)
}

// ElemMass returns the summed mass of every nuclide of atomic number z.
func (m *Material) ElemMass(z int) float64 {
	var vals []float64
	for _, n := range m.comp.nucs {
		if n.Z() == z {
			vals = append(vals, m.Mass(n))
		}
	}
	return floats.Sum(vals)
}

// Masses returns per-nuclide masses.
func (m *Material) Masses() map[nuc.Nuc]float64 {
	out := make(map[nuc.Nuc]float64, len(m.comp.nucs))
	for _, n := range m.comp.nucs {
		out[n] = m.Mass(n)
	}
	return out
}

// Clone returns an independent copy.
func (m *Material) Clone() *Material {
	return &Material{qty: m.qty, comp: m.comp}
}

// ExtractQty removes qty kg of m's own composition and returns it.
func (m *Material) ExtractQty(qty float64) (*Material, error) {
	if qty < 0 {
		return nil, fmt.Errorf("negative extraction quantity %v", qty)
	}
	if qty > m.qty+Eps {
		return nil, fmt.Errorf("%w: want %.6g kg, have %.6g kg", ErrOverdraw, qty, m.qty)
	}
	qty = math.Min(qty, m.qty)
	m.qty -= qty
	if m.qty < Eps {
		m.qty = 0
	}
	return New(qty, m.comp), nil
}

// ExtractComp removes qty kg of composition comp from m and returns it.
// Per-nuclide remainders that fall below zero by rounding are clamped;
// a genuine shortfall of any nuclide is an ErrOverdraw and leaves m untouched.
func (m *Material) ExtractComp(qty float64, comp *Composition) (*Material, error) {
	if qty < 0 {
		return nil, fmt.Errorf("negative extraction quantity %v", qty)
	}
	if qty > m.qty+Eps {
		return nil, fmt.Errorf("%w: want %.6g kg, have %.6g kg", ErrOverdraw, qty, m.qty)
	}
	remaining := m.Masses()
	for _, n := range comp.nucs {
		r := remaining[n] - qty*comp.frac[n]
		if r < -Eps {
			return nil, fmt.Errorf("%w: nuclide %s short by %.6g kg", ErrOverdraw, n, -r)
		}
		remaining[n] = math.Max(r, 0)
	}
	rest, err := FromMass(remaining)
	if err != nil {
		return nil, err
	}
	qty = math.Min(qty, m.qty)
	m.qty -= qty
	if m.qty < Eps {
		m.qty = 0
		rest = Empty()
	}
	m.comp = rest
	return New(qty, comp), nil
}

// Absorb merges other into m; other is left with zero quantity.
func (m *Material) Absorb(other *Material) {
	if other == m || other.qty == 0 {
		return
	}
	masses := m.Masses()
	for n, v := range other.Masses() {
		masses[n] += v
	}
	comp, err := FromMass(masses)
	if err != nil {
		panic(fmt.Sprintf("Absorb: %v", err))
	}
	m.qty += other.qty
	m.comp = comp
	other.qty = 0
}

// Transmute changes the composition while keeping the mass.
func (m *Material) Transmute(comp *Composition) {
	if comp == nil {
		comp = Empty()
	}
	m.comp = comp
}

func (m *Material) String() string {
	return fmt.Sprintf("%.6g kg %s", m.qty, m.comp)
}
