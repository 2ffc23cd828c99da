// Package tank implements the inventory tank: a capacity-bounded FIFO of
// material batches. Batches enter at the back and are popped from the front,
// with the last popped batch split when a pop ends inside it.
package tank

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/recycle-sim/recycle-sim/sim/material"
)

// Unbounded is the capacity of a tank with no configured limit.
const Unbounded = 1e299

var (
	// ErrOverCapacity is returned when a push would exceed the tank capacity.
	ErrOverCapacity = errors.New("tank capacity exceeded")
	// ErrInsufficient is returned when a pop asks for more than the tank holds.
	ErrInsufficient = errors.New("insufficient material in tank")
)

// Tank holds material batches in arrival order.
type Tank struct {
	name     string
	capacity float64
	batches  []*material.Material // FIFO
}

// New creates an empty tank. A negative capacity means Unbounded.
func New(name string, capacity float64) *Tank {
	if capacity < 0 || capacity > Unbounded || math.IsNaN(capacity) {
		capacity = Unbounded
	}
	return &Tank{name: name, capacity: capacity}
}

// Name returns the tank's role name used in audit records.
func (t *Tank) Name() string { return t.name }

// Capacity returns the maximum quantity the tank may hold.
func (t *Tank) Capacity() float64 { return t.capacity }

// SetCapacity changes the capacity. It fails if the tank already holds more.
func (t *Tank) SetCapacity(c float64) error {
	if c < 0 {
		c = Unbounded
	}
	if t.Quantity()-c > material.Eps {
		return fmt.Errorf("tank %s: %w: new capacity %.6g below held %.6g", t.name, ErrOverCapacity, c, t.Quantity())
	}
	t.capacity = c
	return nil
}

// Quantity returns the total mass held.
func (t *Tank) Quantity() float64 {
	qtys := make([]float64, len(t.batches))
	for i, b := range t.batches {
		qtys[i] = b.Quantity()
	}
	return floats.Sum(qtys)
}

// Space returns the remaining capacity, never negative.
func (t *Tank) Space() float64 {
	return math.Max(0, t.capacity-t.Quantity())
}

// Count returns the number of batches held.
func (t *Tank) Count() int { return len(t.batches) }

// Empty reports whether the tank holds no mass (within tolerance).
func (t *Tank) Empty() bool {
	return t.Quantity() <= material.Eps
}

// IsFull reports whether the tank is at capacity (within tolerance).
func (t *Tank) IsFull() bool {
	return material.AlmostEqual(t.Quantity(), t.capacity)
}

// Push appends a batch. Zero-quantity batches are ignored. A push that
// would exceed capacity fails without changing the tank.
func (t *Tank) Push(m *material.Material) error {
	if m == nil {
		panic("Push: material must not be nil")
	}
	if m.Quantity() == 0 {
		return nil
	}
	if m.Quantity()-t.Space() > material.Eps {
		return fmt.Errorf("tank %s: %w: push %.6g kg into %.6g kg of space", t.name, ErrOverCapacity, m.Quantity(), t.Space())
	}
	t.batches = append(t.batches, m)
	logrus.Debugf("tank %s: pushed %.6g kg (now %.6g kg)", t.name, m.Quantity(), t.Quantity())
	return nil
}

// PushFront inserts a batch at the head of the tank, so it is popped next.
// Capacity is checked as for Push.
func (t *Tank) PushFront(m *material.Material) error {
	if m == nil {
		panic("PushFront: material must not be nil")
	}
	if m.Quantity() == 0 {
		return nil
	}
	if m.Quantity()-t.Space() > material.Eps {
		return fmt.Errorf("tank %s: %w: push %.6g kg into %.6g kg of space", t.name, ErrOverCapacity, m.Quantity(), t.Space())
	}
	t.batches = append([]*material.Material{m}, t.batches...)
	logrus.Debugf("tank %s: returned %.6g kg to front (now %.6g kg)", t.name, m.Quantity(), t.Quantity())
	return nil
}

// PushAll appends batches in order, all or none.
func (t *Tank) PushAll(ms []*material.Material) error {
	qtys := make([]float64, len(ms))
	for i, m := range ms {
		qtys[i] = m.Quantity()
	}
	if total := floats.Sum(qtys); total-t.Space() > material.Eps {
		return fmt.Errorf("tank %s: %w: push %.6g kg into %.6g kg of space", t.name, ErrOverCapacity, total, t.Space())
	}
	for _, m := range ms {
		if m.Quantity() > 0 {
			t.batches = append(t.batches, m)
		}
	}
	return nil
}

// Pop removes exactly qty kg from the front of the tank and returns it as a
// single material. Batches are consumed whole in FIFO order; the last one is
// split if needed. Asking for more than the tank holds fails without changing it.
func (t *Tank) Pop(qty float64) (*material.Material, error) {
	if qty < 0 {
		return nil, fmt.Errorf("tank %s: negative pop quantity %v", t.name, qty)
	}
	held := t.Quantity()
	if qty-held > material.Eps {
		return nil, fmt.Errorf("tank %s: %w: pop %.6g kg of %.6g kg", t.name, ErrInsufficient, qty, held)
	}
	if held-qty <= material.Eps {
		return t.PopAll(), nil
	}

	out := material.New(0, nil)
	left := qty
	for left > 0 && len(t.batches) > 0 {
		front := t.batches[0]
		if front.Quantity() <= left+material.Eps {
			left -= front.Quantity()
			out.Absorb(front)
			t.batches = t.batches[1:]
			continue
		}
		part, err := front.ExtractQty(left)
		if err != nil {
			return nil, fmt.Errorf("tank %s: %w", t.name, err)
		}
		out.Absorb(part)
		left = 0
	}
	logrus.Debugf("tank %s: popped %.6g kg (now %.6g kg)", t.name, out.Quantity(), t.Quantity())
	return out, nil
}

// PopAll removes every batch and returns them merged. An empty tank yields a
// zero-quantity material.
func (t *Tank) PopAll() *material.Material {
	out := material.New(0, nil)
	for _, b := range t.batches {
		out.Absorb(b)
	}
	t.batches = nil
	return out
}

// PopBatch removes the front batch. Returns nil if the tank is empty.
func (t *Tank) PopBatch() *material.Material {
	if len(t.batches) == 0 {
		return nil
	}
	b := t.batches[0]
	t.batches = t.batches[1:]
	return b
}

// Contents returns a merged copy of everything held, leaving the tank unchanged.
func (t *Tank) Contents() *material.Material {
	out := material.New(0, nil)
	for _, b := range t.batches {
		out.Absorb(b.Clone())
	}
	return out
}

// Peek returns the front batch without removing it, or nil when empty.
func (t *Tank) Peek() *material.Material {
	if len(t.batches) == 0 {
		return nil
	}
	return t.batches[0]
}

func (t *Tank) String() string {
	var sb strings.Builder
	sb.WriteString(t.name + "[")
	for i, b := range t.batches {
		sb.WriteString(fmt.Sprintf("%.6g", b.Quantity()))
		if i < len(t.batches)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
