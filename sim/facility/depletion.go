package facility

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/recycle-sim/recycle-sim/sim/material"
	"github.com/recycle-sim/recycle-sim/sim/nuc"
)

// Depletion is the fixed composition change applied to the core once per
// depletion period. It stands in for a burnup calculation: either the core
// is transmuted to a fixed recipe, or each nuclide's mass is redistributed
// by a constant transfer matrix. Nuclides without a matrix row are unchanged.
type Depletion struct {
	recipe *material.Composition
	matrix map[nuc.Nuc]map[nuc.Nuc]float64
}

// newDepletion parses a name-keyed matrix. Rows must be non-negative and sum to 1.
func newDepletion(recipe *material.Composition, rows map[string]map[string]float64) (Depletion, error) {
	d := Depletion{recipe: recipe, matrix: make(map[nuc.Nuc]map[nuc.Nuc]float64, len(rows))}
	for from, row := range rows {
		n, err := nuc.Parse(from)
		if err != nil {
			return Depletion{}, err
		}
		parsed, err := nuc.ParseMap(row)
		if err != nil {
			return Depletion{}, fmt.Errorf("depletion row %s: %w", from, err)
		}
		fracs := make([]float64, 0, len(parsed))
		for to, f := range parsed {
			if f < 0 || math.IsNaN(f) {
				return Depletion{}, fmt.Errorf("depletion row %s: negative fraction for %s", from, to)
			}
			fracs = append(fracs, f)
		}
		total := floats.Sum(fracs)
		if math.Abs(total-1) > 1e-9 {
			return Depletion{}, fmt.Errorf("depletion row %s sums to %.9g, want 1", from, total)
		}
		d.matrix[n] = parsed
	}
	return d, nil
}

// Apply returns the depleted form of c.
func (d Depletion) Apply(c *material.Composition) (*material.Composition, error) {
	if d.recipe != nil {
		return d.recipe, nil
	}
	if len(d.matrix) == 0 || c.IsEmpty() {
		return c, nil
	}

	// Dense transfer matrix over every nuclide in c or reachable from it,
	// columns are sources and rows destinations.
	idx := make(map[nuc.Nuc]int)
	var order []nuc.Nuc
	add := func(n nuc.Nuc) {
		if _, ok := idx[n]; !ok {
			idx[n] = -1
			order = append(order, n)
		}
	}
	for _, n := range c.Nuclides() {
		add(n)
		for to := range d.matrix[n] {
			add(to)
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	for i, n := range order {
		idx[n] = i
	}

	size := len(order)
	m := mat.NewDense(size, size, nil)
	x := mat.NewVecDense(size, nil)
	for _, n := range c.Nuclides() {
		j := idx[n]
		x.SetVec(j, c.MassFrac(n))
		row, ok := d.matrix[n]
		if !ok {
			m.Set(j, j, 1)
			continue
		}
		for to, f := range row {
			m.Set(idx[to], j, f)
		}
	}
	var y mat.VecDense
	y.MulVec(m, x)

	out := make(map[nuc.Nuc]float64, size)
	for i, n := range order {
		if v := y.AtVec(i); v > 0 {
			out[n] = v
		}
	}
	return material.FromMass(out)
}
