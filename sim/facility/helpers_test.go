package facility

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/recycle-sim/recycle-sim/sim"
	"github.com/recycle-sim/recycle-sim/sim/material"
	"github.com/recycle-sim/recycle-sim/sim/nuc"
	"github.com/recycle-sim/recycle-sim/sim/record"
)

const (
	u235  nuc.Nuc = 922350000
	u238  nuc.Nuc = 922380000
	pu239 nuc.Nuc = 942390000
	pu240 nuc.Nuc = 942400000
	xe135 nuc.Nuc = 541350000
)

func newSim(t *testing.T, duration int) (*sim.Simulator, *record.Trace) {
	t.Helper()
	tr := record.NewTrace()
	return sim.NewSimulator(sim.Config{Duration: duration}, tr), tr
}

func addRecipe(t *testing.T, s *sim.Simulator, name string, fracs map[string]float64) {
	t.Helper()
	parsed, err := nuc.ParseMap(fracs)
	require.NoError(t, err)
	c, err := material.FromMass(parsed)
	require.NoError(t, err)
	require.NoError(t, s.Context().Recipes().Add(name, c))
}

func deploy(t *testing.T, s *sim.Simulator, a sim.Agent, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NoError(t, s.Deploy(a, 0))
}

func addSource(t *testing.T, s *sim.Simulator, name, commod, recipeName string, throughput float64) *Source {
	t.Helper()
	src, err := NewSource(s.Context(), name, -1, SourceConfig{OutCommod: commod, OutRecipe: recipeName, Throughput: throughput})
	deploy(t, s, src, err)
	return src
}

func addSink(t *testing.T, s *sim.Simulator, name string, capacity float64, commods ...string) *Sink {
	t.Helper()
	snk, err := NewSink(s.Context(), name, -1, SinkConfig{InCommods: commods, Capacity: capacity})
	deploy(t, s, snk, err)
	return snk
}

// received sums market receipts and counts the transactions for agent id.
func received(tr *record.Trace, id int) (qty float64, n int) {
	for _, tx := range tr.Transactions {
		if tx.ReceiverID == id {
			qty += tx.Quantity
			n++
		}
	}
	return qty, n
}

func sent(tr *record.Trace, id int) (qty float64, n int) {
	for _, tx := range tr.Transactions {
		if tx.SenderID == id {
			qty += tx.Quantity
			n++
		}
	}
	return qty, n
}
