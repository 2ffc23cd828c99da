package market

import (
	"fmt"
	"math"

	"github.com/recycle-sim/recycle-sim/sim/material"
	"github.com/recycle-sim/recycle-sim/sim/tank"
)

type buyTarget struct {
	commod string
	comp   *material.Composition
	pref   float64
}

// BuyPolicy requests material into a tank until the tank is full.
// The owning facility only starts, stops and retargets it.
type BuyPolicy struct {
	name       string
	manager    Manager
	x          *Exchange
	buf        *tank.Tank
	throughput float64
	targets    []buyTarget
}

// NewBuyPolicy creates a stopped policy filling buf.
func NewBuyPolicy(x *Exchange, manager Manager, buf *tank.Tank, name string) *BuyPolicy {
	if x == nil || buf == nil {
		panic("NewBuyPolicy: exchange and tank must not be nil")
	}
	return &BuyPolicy{name: name, manager: manager, x: x, buf: buf, throughput: tank.Unbounded}
}

// Set adds or replaces the request for commod.
func (p *BuyPolicy) Set(commod string, comp *material.Composition, pref float64) *BuyPolicy {
	for i := range p.targets {
		if p.targets[i].commod == commod {
			p.targets[i] = buyTarget{commod, comp, pref}
			return p
		}
	}
	p.targets = append(p.targets, buyTarget{commod, comp, pref})
	return p
}

// SetPreferences overrides the preference of every commodity.
func (p *BuyPolicy) SetPreferences(pref float64) {
	for i := range p.targets {
		p.targets[i].pref = pref
	}
}

// SetThroughput bounds the quantity requested per step.
func (p *BuyPolicy) SetThroughput(q float64) { p.throughput = q }

// Start registers the policy with the exchange.
func (p *BuyPolicy) Start() { p.x.Register(p) }

// Stop withdraws the policy from the exchange.
func (p *BuyPolicy) Stop() { p.x.Unregister(p) }

// Active reports whether the policy is registered.
func (p *BuyPolicy) Active() bool { return p.x.Registered(p) }

// Manager returns the agent the policy buys for.
func (p *BuyPolicy) Manager() Manager { return p.manager }

// MatlRequests asks for the tank's free space (bounded by throughput) on
// every commodity with a positive preference. All requests share one
// capacity, so they are alternatives to each other.
func (p *BuyPolicy) MatlRequests() []*RequestPortfolio {
	qty := math.Min(p.buf.Space(), p.throughput)
	if qty <= material.Eps {
		return nil
	}
	port := &RequestPortfolio{Requester: p, Capacity: qty}
	for _, tg := range p.targets {
		if tg.pref <= 0 {
			continue
		}
		port.AddRequest(material.New(qty, tg.comp), tg.commod, tg.pref, false)
	}
	if len(port.Requests) == 0 {
		return nil
	}
	return []*RequestPortfolio{port}
}

// MatlBids returns nothing; a buy policy never sells.
func (p *BuyPolicy) MatlBids(map[string][]*Request) []*BidPortfolio { return nil }

// MatlTrades is never called for a buy policy.
func (p *BuyPolicy) MatlTrades([]Trade) ([]Response, error) { return nil, nil }

// AcceptMatlTrades pushes received material into the tank.
func (p *BuyPolicy) AcceptMatlTrades(responses []Response) error {
	for _, r := range responses {
		if err := p.buf.Push(r.Material); err != nil {
			return fmt.Errorf("buy policy %s: %w", p.name, err)
		}
	}
	return nil
}

// SellPolicy offers a tank's contents on one or more commodities.
type SellPolicy struct {
	name       string
	manager    Manager
	x          *Exchange
	buf        *tank.Tank
	throughput float64
	commods    []string
}

// NewSellPolicy creates a stopped policy offering buf.
func NewSellPolicy(x *Exchange, manager Manager, buf *tank.Tank, name string) *SellPolicy {
	if x == nil || buf == nil {
		panic("NewSellPolicy: exchange and tank must not be nil")
	}
	return &SellPolicy{name: name, manager: manager, x: x, buf: buf, throughput: tank.Unbounded}
}

// Set adds commod to the commodities offered.
func (p *SellPolicy) Set(commod string) *SellPolicy {
	for _, c := range p.commods {
		if c == commod {
			return p
		}
	}
	p.commods = append(p.commods, commod)
	return p
}

// SetThroughput bounds the quantity offered per step.
func (p *SellPolicy) SetThroughput(q float64) { p.throughput = q }

// Start registers the policy with the exchange.
func (p *SellPolicy) Start() { p.x.Register(p) }

// Stop withdraws the policy from the exchange.
func (p *SellPolicy) Stop() { p.x.Unregister(p) }

// Active reports whether the policy is registered.
func (p *SellPolicy) Active() bool { return p.x.Registered(p) }

// Manager returns the agent the policy sells for.
func (p *SellPolicy) Manager() Manager { return p.manager }

// MatlRequests returns nothing; a sell policy never buys.
func (p *SellPolicy) MatlRequests() []*RequestPortfolio { return nil }

// MatlBids offers up to the tank quantity against every matching request.
func (p *SellPolicy) MatlBids(requests map[string][]*Request) []*BidPortfolio {
	if p.buf.Empty() {
		return nil
	}
	avail := math.Min(p.buf.Quantity(), p.throughput)
	comp := p.buf.Peek().Comp()
	port := &BidPortfolio{Bidder: p, Capacity: avail}
	for _, commod := range p.commods {
		for _, r := range requests[commod] {
			if r.Requester().Manager().ID() == p.manager.ID() {
				continue
			}
			port.AddBid(r, material.New(math.Min(r.Target.Quantity(), avail), comp))
		}
	}
	if len(port.Bids) == 0 {
		return nil
	}
	return []*BidPortfolio{port}
}

// MatlTrades pops exactly the traded amount for each trade.
func (p *SellPolicy) MatlTrades(trades []Trade) ([]Response, error) {
	out := make([]Response, 0, len(trades))
	for _, t := range trades {
		m, err := p.buf.Pop(t.Amount)
		if err != nil {
			return nil, fmt.Errorf("sell policy %s: %w", p.name, err)
		}
		out = append(out, Response{Trade: t, Material: m})
	}
	return out, nil
}

// AcceptMatlTrades is never called for a sell policy.
func (p *SellPolicy) AcceptMatlTrades([]Response) error { return nil }
