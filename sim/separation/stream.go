package separation

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/recycle-sim/recycle-sim/sim/material"
	"github.com/recycle-sim/recycle-sim/sim/nuc"
)

// Tolerance on the cumulative efficiency of one nuclide across streams.
const effEps = 1e-9

// ErrOverAllocated is returned when the streams together claim more than
// 100% of some nuclide.
var ErrOverAllocated = errors.New("cumulative separation efficiency exceeds 1")

// Stream is one named output of a separation: the commodity it is sold as,
// the capacity of its holding tank and its efficiency table.
type Stream struct {
	Name     string
	Capacity float64
	Effs     EffTable
}

// StreamTable is an ordered, validated set of streams.
type StreamTable struct {
	streams []Stream
}

// NewStreamTable validates streams and returns the table.
func NewStreamTable(streams []Stream) (*StreamTable, error) {
	st := &StreamTable{streams: append([]Stream(nil), streams...)}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return st, nil
}

// Streams returns the streams in table order.
func (st *StreamTable) Streams() []Stream {
	return append([]Stream(nil), st.streams...)
}

// Len returns the number of streams.
func (st *StreamTable) Len() int { return len(st.streams) }

// Validate checks names, individual efficiencies and, for every nuclide or
// element named in any table, that the efficiencies resolved across all
// streams sum to at most 1.
func (st *StreamTable) Validate() error {
	seen := make(map[string]bool, len(st.streams))
	keys := make(map[nuc.Nuc]bool)
	for _, s := range st.streams {
		if s.Name == "" {
			return fmt.Errorf("stream with empty name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate stream %q", s.Name)
		}
		seen[s.Name] = true
		for n, e := range s.Effs {
			if n == nuc.Untyped {
				return fmt.Errorf("stream %q: untyped mass cannot be separated", s.Name)
			}
			if math.IsNaN(e) || e < 0 || e > 1+effEps {
				return fmt.Errorf("stream %q: efficiency %v for %s outside [0,1]", s.Name, e, n)
			}
			keys[n] = true
		}
	}

	sorted := make([]nuc.Nuc, 0, len(keys))
	for n := range keys {
		sorted = append(sorted, n)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for _, n := range sorted {
		total := 0.0
		for _, s := range st.streams {
			if n.IsElement() {
				// an isotope of n with no nuclide-level entries anywhere
				total += s.Effs[n]
			} else {
				total += Resolve(s.Effs, n)
			}
		}
		if total > 1+effEps {
			return fmt.Errorf("%w: %s sums to %.6g across streams", ErrOverAllocated, n, total)
		}
	}
	return nil
}

// Result is the outcome of splitting one material across a stream table.
type Result struct {
	Outputs  []*material.Material // one per stream, table order
	Leftover *material.Material
}

// Separated returns the total mass of all stream outputs.
func (r Result) Separated() float64 {
	total := 0.0
	for _, o := range r.Outputs {
		total += o.Quantity()
	}
	return total
}

// Split computes every stream's output and the unclaimed leftover without
// modifying mat.
func (st *StreamTable) Split(mat *material.Material) Result {
	outs := make([]*material.Material, len(st.streams))
	for i, s := range st.streams {
		outs[i] = SepMaterial(s.Effs, mat)
	}
	return Result{Outputs: outs, Leftover: Leftover(mat, outs)}
}
