package market

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/recycle-sim/recycle-sim/sim/material"
)

// Exchange matches the requests and bids of registered traders once per step.
// Matching is greedy: requests in descending preference (ties keep request
// order), each filled from its bids in bid order.
type Exchange struct {
	traders []Trader
}

// NewExchange creates an exchange with no traders.
func NewExchange() *Exchange {
	return &Exchange{}
}

// Register adds t; registering twice is a no-op.
func (x *Exchange) Register(t Trader) {
	for _, have := range x.traders {
		if have == t {
			return
		}
	}
	x.traders = append(x.traders, t)
}

// Unregister removes t if present.
func (x *Exchange) Unregister(t Trader) {
	for i, have := range x.traders {
		if have == t {
			x.traders = append(x.traders[:i], x.traders[i+1:]...)
			return
		}
	}
}

// Registered reports whether t currently takes part in the exchange.
func (x *Exchange) Registered(t Trader) bool {
	for _, have := range x.traders {
		if have == t {
			return true
		}
	}
	return false
}

// Run performs one full request, bid, trade and acceptance round.
func (x *Exchange) Run(time int) ([]Transaction, error) {
	traders := append([]Trader(nil), x.traders...)

	var requests []*Request
	byCommod := make(map[string][]*Request)
	reqLeft := make(map[*RequestPortfolio]float64)
	for _, t := range traders {
		for _, port := range t.MatlRequests() {
			port.Requester = t
			reqLeft[port] = port.Capacity
			for _, r := range port.Requests {
				r.Portfolio = port
				requests = append(requests, r)
				byCommod[r.Commodity] = append(byCommod[r.Commodity], r)
			}
		}
	}
	if len(requests) == 0 {
		return nil, nil
	}

	bidsFor := make(map[*Request][]*Bid)
	bidLeft := make(map[*Bid]float64)
	bidPortLeft := make(map[*BidPortfolio]float64)
	for _, t := range traders {
		for _, port := range t.MatlBids(byCommod) {
			port.Bidder = t
			bidPortLeft[port] = port.Capacity
			for _, b := range port.Bids {
				b.Portfolio = port
				bidsFor[b.Request] = append(bidsFor[b.Request], b)
				bidLeft[b] = b.Offer.Quantity()
			}
		}
	}

	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].Preference > requests[j].Preference
	})

	var trades []Trade
	for _, r := range requests {
		if r.Preference <= 0 {
			continue
		}
		need := math.Min(r.Target.Quantity(), reqLeft[r.Portfolio])
		for _, b := range bidsFor[r] {
			if need <= material.Eps {
				break
			}
			if b.Bidder() == r.Requester() || b.Bidder().Manager().ID() == r.Requester().Manager().ID() {
				continue
			}
			amt := math.Min(need, math.Min(bidLeft[b], bidPortLeft[b.Portfolio]))
			if amt <= material.Eps {
				continue
			}
			if r.Exclusive && amt < r.Target.Quantity()-material.Eps {
				continue
			}
			trades = append(trades, Trade{Request: r, Bid: b, Amount: amt})
			need -= amt
			reqLeft[r.Portfolio] -= amt
			bidLeft[b] -= amt
			bidPortLeft[b.Portfolio] -= amt
		}
	}

	return x.execute(time, traders, trades)
}

func (x *Exchange) execute(time int, traders []Trader, trades []Trade) ([]Transaction, error) {
	byBidder := make(map[Trader][]Trade)
	for _, tr := range trades {
		byBidder[tr.Bid.Bidder()] = append(byBidder[tr.Bid.Bidder()], tr)
	}

	byRequester := make(map[Trader][]Response)
	for _, t := range traders {
		ts := byBidder[t]
		if len(ts) == 0 {
			continue
		}
		resps, err := t.MatlTrades(ts)
		if err != nil {
			return nil, fmt.Errorf("%s (id %d) supplying trades: %w", t.Manager().Prototype(), t.Manager().ID(), err)
		}
		if len(resps) != len(ts) {
			return nil, fmt.Errorf("%s (id %d) answered %d of %d trades", t.Manager().Prototype(), t.Manager().ID(), len(resps), len(ts))
		}
		for _, resp := range resps {
			req := resp.Trade.Request.Requester()
			byRequester[req] = append(byRequester[req], resp)
		}
	}

	var txs []Transaction
	for _, t := range traders {
		resps := byRequester[t]
		if len(resps) == 0 {
			continue
		}
		if err := t.AcceptMatlTrades(resps); err != nil {
			return nil, fmt.Errorf("%s (id %d) accepting trades: %w", t.Manager().Prototype(), t.Manager().ID(), err)
		}
		for _, resp := range resps {
			tx := Transaction{
				Time:       time,
				SenderID:   resp.Trade.Bid.Bidder().Manager().ID(),
				ReceiverID: t.Manager().ID(),
				Commodity:  resp.Trade.Request.Commodity,
				Quantity:   resp.Material.Quantity(),
			}
			logrus.Debugf("[t %04d] %s: %d -> %d %.6g kg", time, tx.Commodity, tx.SenderID, tx.ReceiverID, tx.Quantity)
			txs = append(txs, tx)
		}
	}
	return txs, nil
}
