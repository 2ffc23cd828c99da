package material

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/recycle-sim/recycle-sim/sim/nuc"
)

// Composition is an immutable, normalized nuclide → mass fraction table.
// Mass of unknown composition is kept under nuc.Untyped, so merging it with
// real material never reassigns it to real nuclides.
type Composition struct {
	frac map[nuc.Nuc]float64
	nucs []nuc.Nuc // ascending ids; fixes summation order
}

// Empty returns the dummy composition used for empty recipes: all mass untyped.
func Empty() *Composition {
	return &Composition{frac: map[nuc.Nuc]float64{nuc.Untyped: 1}, nucs: []nuc.Nuc{nuc.Untyped}}
}

// FromMass builds a composition from (unnormalized) masses or mass fractions.
// Zero entries are dropped; negative or non-finite entries are rejected.
// An all-zero table yields the dummy composition.
func FromMass(masses map[nuc.Nuc]float64) (*Composition, error) {
	nucs := sortedKeys(masses)
	vals := make([]float64, 0, len(nucs))
	for _, n := range nucs {
		v := masses[n]
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, fmt.Errorf("invalid fraction %v for nuclide %s", v, n)
		}
		vals = append(vals, v)
	}
	total := floats.Sum(vals)
	if total == 0 {
		return Empty(), nil
	}
	c := &Composition{frac: make(map[nuc.Nuc]float64, len(nucs))}
	for i, n := range nucs {
		if vals[i] == 0 {
			continue
		}
		c.frac[n] = vals[i] / total
		c.nucs = append(c.nucs, n)
	}
	return c, nil
}

// FromAtom builds a composition from atom fractions, using each nuclide's
// mass number as its molar mass. Element entries have no mass number and are
// rejected.
func FromAtom(atoms map[nuc.Nuc]float64) (*Composition, error) {
	masses := make(map[nuc.Nuc]float64, len(atoms))
	for n, v := range atoms {
		if n.IsElement() {
			return nil, fmt.Errorf("atom basis needs specific nuclides, got element %s", n)
		}
		masses[n] = v * float64(n.A())
	}
	return FromMass(masses)
}

// Nuclides returns the nuclides present, in ascending id order.
func (c *Composition) Nuclides() []nuc.Nuc {
	out := make([]nuc.Nuc, len(c.nucs))
	copy(out, c.nucs)
	return out
}

// MassFrac returns the mass fraction of n (0 if absent).
func (c *Composition) MassFrac(n nuc.Nuc) float64 {
	return c.frac[n]
}

// MassFracs returns a copy of the mass fraction table.
func (c *Composition) MassFracs() map[nuc.Nuc]float64 {
	out := make(map[nuc.Nuc]float64, len(c.frac))
	for n, f := range c.frac {
		out[n] = f
	}
	return out
}

// AtomFracs returns normalized atom fractions. Element and untyped entries
// are skipped since they carry no mass number.
func (c *Composition) AtomFracs() map[nuc.Nuc]float64 {
	out := make(map[nuc.Nuc]float64, len(c.frac))
	vals := make([]float64, 0, len(c.nucs))
	for _, n := range c.nucs {
		if n.A() == 0 {
			continue
		}
		v := c.frac[n] / float64(n.A())
		out[n] = v
		vals = append(vals, v)
	}
	total := floats.Sum(vals)
	for n := range out {
		out[n] /= total
	}
	return out
}

// IsEmpty reports whether c is the dummy composition, with no typed nuclides.
func (c *Composition) IsEmpty() bool {
	return len(c.nucs) == 0 || (len(c.nucs) == 1 && c.nucs[0] == nuc.Untyped)
}

func (c *Composition) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, n := range c.nucs {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%s:%.6g", n, c.frac[n])
	}
	sb.WriteString("}")
	return sb.String()
}

func sortedKeys(m map[nuc.Nuc]float64) []nuc.Nuc {
	keys := make([]nuc.Nuc, 0, len(m))
	for n := range m {
		keys = append(keys, n)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
