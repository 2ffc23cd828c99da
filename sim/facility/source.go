package facility

import (
	"math"

	"github.com/recycle-sim/recycle-sim/sim"
	"github.com/recycle-sim/recycle-sim/sim/market"
	"github.com/recycle-sim/recycle-sim/sim/material"
	"github.com/recycle-sim/recycle-sim/sim/tank"
)

// SourceConfig configures a Source.
type SourceConfig struct {
	OutCommod     string  `yaml:"outcommod"`
	OutRecipe     string  `yaml:"outrecipe"`
	Throughput    float64 `yaml:"throughput"`     // kg per step; <= 0 is unbounded
	InventorySize float64 `yaml:"inventory_size"` // kg over the whole life; <= 0 is unbounded
}

// Source creates material of one recipe and offers it on one commodity.
type Source struct {
	sim.Base
	commod     string
	comp       *material.Composition
	throughput float64
	remaining  float64
}

// NewSource validates cfg and builds the facility.
func NewSource(ctx *sim.Context, prototype string, lifetime int, cfg SourceConfig) (*Source, error) {
	if cfg.OutCommod == "" {
		return nil, sim.ConfigErrorf(prototype, "outcommod must not be empty")
	}
	comp, err := recipe(ctx, prototype, "outrecipe", cfg.OutRecipe)
	if err != nil {
		return nil, err
	}
	return &Source{
		Base:       sim.NewBase(ctx, prototype, "source", lifetime),
		commod:     cfg.OutCommod,
		comp:       comp,
		throughput: bufSize(cfg.Throughput),
		remaining:  bufSize(cfg.InventorySize),
	}, nil
}

// Manager returns the source itself.
func (s *Source) Manager() market.Manager { return s }

// EnterNotify registers the source with the exchange.
func (s *Source) EnterNotify() error {
	s.Context().Exchange().Register(s)
	return nil
}

func (s *Source) Tick() error { return nil }
func (s *Source) Tock() error { return nil }

// Drained is always true; a source holds no inventory.
func (s *Source) Drained() bool { return true }

// Decommission withdraws the source from the exchange.
func (s *Source) Decommission() { s.Context().Exchange().Unregister(s) }

// Remaining returns how much the source may still supply.
func (s *Source) Remaining() float64 { return s.remaining }

// MatlRequests returns nothing; a source never buys.
func (s *Source) MatlRequests() []*market.RequestPortfolio { return nil }

// MatlBids offers up to one throughput against every request for the commodity.
func (s *Source) MatlBids(requests map[string][]*market.Request) []*market.BidPortfolio {
	avail := math.Min(s.throughput, s.remaining)
	if avail <= material.Eps || len(requests[s.commod]) == 0 {
		return nil
	}
	port := &market.BidPortfolio{Bidder: s, Capacity: avail}
	for _, r := range requests[s.commod] {
		port.AddBid(r, material.New(math.Min(r.Target.Quantity(), avail), s.comp))
	}
	return []*market.BidPortfolio{port}
}

// MatlTrades creates the traded material.
func (s *Source) MatlTrades(trades []market.Trade) ([]market.Response, error) {
	out := make([]market.Response, 0, len(trades))
	for _, t := range trades {
		if s.remaining < tank.Unbounded {
			s.remaining = math.Max(0, s.remaining-t.Amount)
		}
		out = append(out, market.Response{Trade: t, Material: material.New(t.Amount, s.comp)})
	}
	return out, nil
}

// AcceptMatlTrades is never called for a source.
func (s *Source) AcceptMatlTrades([]market.Response) error { return nil }
