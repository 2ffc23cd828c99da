package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recycle-sim/recycle-sim/sim/material"
	"github.com/recycle-sim/recycle-sim/sim/nuc"
	"github.com/recycle-sim/recycle-sim/sim/tank"
)

type agent struct {
	id    int
	proto string
}

func (a agent) ID() int           { return a.id }
func (a agent) Prototype() string { return a.proto }

func fuel(t *testing.T) *material.Composition {
	t.Helper()
	c, err := material.FromMass(map[nuc.Nuc]float64{922350000: 0.05, 922380000: 0.95})
	require.NoError(t, err)
	return c
}

func stocked(t *testing.T, name string, qty float64) *tank.Tank {
	t.Helper()
	tk := tank.New(name, -1)
	require.NoError(t, tk.Push(material.New(qty, fuel(t))))
	return tk
}

func TestExchange_SellerFillsBuyerUpToSpace(t *testing.T) {
	// GIVEN a seller holding 100 kg and a buyer with 40 kg of space
	x := NewExchange()
	supply := stocked(t, "out", 100)
	seller := NewSellPolicy(x, agent{1, "seller"}, supply, "out").Set("fuel")
	seller.Start()
	dest := tank.New("in", 40)
	buyer := NewBuyPolicy(x, agent{2, "buyer"}, dest, "in").Set("fuel", fuel(t), 1)
	buyer.Start()

	// WHEN the exchange runs
	txs, err := x.Run(0)
	require.NoError(t, err)

	// THEN 40 kg move from seller to buyer
	require.Len(t, txs, 1)
	assert.Equal(t, Transaction{Time: 0, SenderID: 1, ReceiverID: 2, Commodity: "fuel", Quantity: 40}, txs[0])
	assert.InDelta(t, 40, dest.Quantity(), 1e-9)
	assert.InDelta(t, 60, supply.Quantity(), 1e-9)
}

func TestExchange_HigherPreferenceServedFirst(t *testing.T) {
	// GIVEN 50 kg supply and two buyers wanting 50 kg each
	x := NewExchange()
	supply := stocked(t, "out", 50)
	NewSellPolicy(x, agent{1, "seller"}, supply, "out").Set("fuel").Start()
	low := tank.New("low", 50)
	high := tank.New("high", 50)
	NewBuyPolicy(x, agent{2, "low"}, low, "low").Set("fuel", fuel(t), 0.5).Start()
	NewBuyPolicy(x, agent{3, "high"}, high, "high").Set("fuel", fuel(t), 2).Start()

	// WHEN the exchange runs
	_, err := x.Run(0)
	require.NoError(t, err)

	// THEN the preferred buyer gets everything
	assert.InDelta(t, 50, high.Quantity(), 1e-9)
	assert.True(t, low.Empty())
}

func TestExchange_ZeroPreferenceNeverRequested(t *testing.T) {
	x := NewExchange()
	NewSellPolicy(x, agent{1, "seller"}, stocked(t, "out", 50), "out").Set("fuel").Start()
	dest := tank.New("in", 50)
	buy := NewBuyPolicy(x, agent{2, "buyer"}, dest, "in").Set("fuel", fuel(t), 1)
	buy.Start()
	buy.SetPreferences(0)

	txs, err := x.Run(0)

	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.True(t, dest.Empty())
}

func TestExchange_NoSelfTrades(t *testing.T) {
	// GIVEN one agent both buying and selling the same commodity
	x := NewExchange()
	self := agent{1, "loop"}
	NewSellPolicy(x, self, stocked(t, "out", 50), "out").Set("fuel").Start()
	NewBuyPolicy(x, self, tank.New("in", 50), "in").Set("fuel", fuel(t), 1).Start()

	txs, err := x.Run(0)

	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestExchange_StoppedPolicyIgnored(t *testing.T) {
	x := NewExchange()
	NewSellPolicy(x, agent{1, "seller"}, stocked(t, "out", 50), "out").Set("fuel").Start()
	buy := NewBuyPolicy(x, agent{2, "buyer"}, tank.New("in", 50), "in").Set("fuel", fuel(t), 1)
	buy.Start()
	buy.Stop()

	assert.False(t, buy.Active())
	txs, err := x.Run(0)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestExchange_SellerThroughputBoundsAllBids(t *testing.T) {
	// GIVEN a seller limited to 30 kg per step and two hungry buyers
	x := NewExchange()
	sell := NewSellPolicy(x, agent{1, "seller"}, stocked(t, "out", 100), "out").Set("fuel")
	sell.SetThroughput(30)
	sell.Start()
	a := tank.New("a", -1)
	b := tank.New("b", -1)
	NewBuyPolicy(x, agent{2, "a"}, a, "a").Set("fuel", fuel(t), 1).Start()
	NewBuyPolicy(x, agent{3, "b"}, b, "b").Set("fuel", fuel(t), 1).Start()

	_, err := x.Run(0)
	require.NoError(t, err)

	// THEN the portfolio capacity caps the total sold
	assert.InDelta(t, 30, a.Quantity()+b.Quantity(), 1e-9)
}

func TestBuyPolicy_AcceptOverflowIsError(t *testing.T) {
	dest := tank.New("in", 10)
	buy := NewBuyPolicy(NewExchange(), agent{2, "buyer"}, dest, "in")

	err := buy.AcceptMatlTrades([]Response{{Material: material.New(11, fuel(t))}})

	assert.ErrorIs(t, err, tank.ErrOverCapacity)
}

func TestExchange_ExclusiveRequestFilledWholeOrNot(t *testing.T) {
	x := NewExchange()
	NewSellPolicy(x, agent{1, "seller"}, stocked(t, "out", 5), "out").Set("fuel").Start()
	buyer := &fixedRequester{mgr: agent{2, "buyer"}, qty: 10, commod: "fuel"}
	x.Register(buyer)

	txs, err := x.Run(0)

	require.NoError(t, err)
	assert.Empty(t, txs)
}

type fixedRequester struct {
	mgr    agent
	qty    float64
	commod string
}

func (f *fixedRequester) Manager() Manager { return f.mgr }
func (f *fixedRequester) MatlRequests() []*RequestPortfolio {
	port := &RequestPortfolio{Requester: f, Capacity: f.qty}
	port.AddRequest(material.New(f.qty, nil), f.commod, 1, true)
	return []*RequestPortfolio{port}
}
func (f *fixedRequester) MatlBids(map[string][]*Request) []*BidPortfolio { return nil }
func (f *fixedRequester) MatlTrades([]Trade) ([]Response, error)         { return nil, nil }
func (f *fixedRequester) AcceptMatlTrades([]Response) error              { return nil }
