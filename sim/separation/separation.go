// Package separation splits materials into product streams by per-nuclide or
// per-element efficiency.
package separation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/recycle-sim/recycle-sim/sim/material"
	"github.com/recycle-sim/recycle-sim/sim/nuc"
)

// EffTable maps a nuclide or element id to the fraction of its mass that a
// stream extracts.
type EffTable map[nuc.Nuc]float64

// Resolve returns the efficiency for n: an exact nuclide entry wins over the
// entry for its element; with neither the efficiency is 0.
func Resolve(effs EffTable, n nuc.Nuc) float64 {
	if e, ok := effs[n]; ok {
		return e
	}
	if e, ok := effs[n.Elem()]; ok {
		return e
	}
	return 0
}

// SepMaterial returns the part of mat a stream with efficiencies effs would
// extract. mat is not modified and repeated calls give identical results.
func SepMaterial(effs EffTable, mat *material.Material) *material.Material {
	masses := make(map[nuc.Nuc]float64)
	for _, n := range mat.Comp().Nuclides() {
		eff := Resolve(effs, n)
		if eff == 0 {
			continue
		}
		masses[n] = mat.Comp().MassFrac(n) * mat.Quantity() * eff
	}
	out, err := material.FromMasses(masses)
	if err != nil {
		// efficiencies are validated non-negative and finite
		panic(fmt.Sprintf("SepMaterial: %v", err))
	}
	return out
}

// Leftover returns the per-nuclide mass of src not claimed by outputs,
// clamped at zero. Untyped mass is never claimed and always lands here.
func Leftover(src *material.Material, outputs []*material.Material) *material.Material {
	masses := make(map[nuc.Nuc]float64)
	for _, n := range src.Comp().Nuclides() {
		claimed := make([]float64, len(outputs))
		for i, o := range outputs {
			claimed[i] = o.Mass(n)
		}
		masses[n] = math.Max(0, src.Mass(n)-floats.Sum(claimed))
	}
	out, err := material.FromMasses(masses)
	if err != nil {
		panic(fmt.Sprintf("Leftover: %v", err))
	}
	return out
}
