// Package market implements the request/bid/trade protocol facilities use
// to move material between each other, and the policies that bind that
// protocol to inventory tanks.
package market

import (
	"github.com/recycle-sim/recycle-sim/sim/material"
)

// Manager identifies the agent a trader acts for.
type Manager interface {
	ID() int
	Prototype() string
}

// Trader takes part in the exchange. Every phase is optional: a trader that
// only buys returns no bids and is never asked for trades.
type Trader interface {
	Manager() Manager
	MatlRequests() []*RequestPortfolio
	MatlBids(requests map[string][]*Request) []*BidPortfolio
	MatlTrades(trades []Trade) ([]Response, error)
	AcceptMatlTrades(responses []Response) error
}

// Request asks for Target.Quantity() kg of a commodity, ideally of
// Target's composition.
type Request struct {
	Target     *material.Material
	Commodity  string
	Preference float64
	Exclusive  bool // only fill whole
	Portfolio  *RequestPortfolio
}

// Requester returns the trader that issued r.
func (r *Request) Requester() Trader { return r.Portfolio.Requester }

// RequestPortfolio groups alternative requests sharing one quantity constraint.
type RequestPortfolio struct {
	Requester Trader
	Requests  []*Request
	Capacity  float64
}

// AddRequest appends a request to the portfolio and returns it.
func (p *RequestPortfolio) AddRequest(target *material.Material, commod string, pref float64, exclusive bool) *Request {
	r := &Request{Target: target, Commodity: commod, Preference: pref, Exclusive: exclusive, Portfolio: p}
	p.Requests = append(p.Requests, r)
	return r
}

// Bid offers material against one request.
type Bid struct {
	Request   *Request
	Offer     *material.Material
	Portfolio *BidPortfolio
}

// Bidder returns the trader that made b.
func (b *Bid) Bidder() Trader { return b.Portfolio.Bidder }

// BidPortfolio groups bids sharing one supply constraint.
type BidPortfolio struct {
	Bidder   Trader
	Bids     []*Bid
	Capacity float64
}

// AddBid appends a bid to the portfolio and returns it.
func (p *BidPortfolio) AddBid(r *Request, offer *material.Material) *Bid {
	b := &Bid{Request: r, Offer: offer, Portfolio: p}
	p.Bids = append(p.Bids, b)
	return b
}

// Trade is a matched request and bid for Amount kg.
type Trade struct {
	Request *Request
	Bid     *Bid
	Amount  float64
}

// Response carries the material a bidder hands over for a trade.
type Response struct {
	Trade    Trade
	Material *material.Material
}

// Transaction is the record of one completed trade.
type Transaction struct {
	Time       int
	SenderID   int
	ReceiverID int
	Commodity  string
	Quantity   float64
}
