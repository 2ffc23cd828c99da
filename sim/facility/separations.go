package facility

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/recycle-sim/recycle-sim/sim"
	"github.com/recycle-sim/recycle-sim/sim/market"
	"github.com/recycle-sim/recycle-sim/sim/material"
	"github.com/recycle-sim/recycle-sim/sim/separation"
	"github.com/recycle-sim/recycle-sim/sim/tank"
)

// DefaultLeftoverCommod is the commodity unclaimed feed is sold as.
const DefaultLeftoverCommod = "default-waste-stream"

// processName is the audit sender for popped feed a truncated step returns.
const processName = "process"

// SeparationsConfig configures a Separations facility.
type SeparationsConfig struct {
	FeedCommods     []string       `yaml:"feed_commods"`
	FeedPrefs       []float64      `yaml:"feed_commod_prefs"`
	FeedRecipe      string         `yaml:"feed_recipe"`
	FeedbufSize     float64        `yaml:"feedbuf_size"` // <= 0 is unbounded
	Throughput      float64        `yaml:"throughput"`   // kg per step; <= 0 is unbounded
	LeftoverCommod  string         `yaml:"leftover_commod"`
	LeftoverbufSize float64        `yaml:"leftoverbuf_size"` // <= 0 is unbounded
	Streams         []StreamConfig `yaml:"streams"`
}

// SepPhase is the lifecycle state of a Separations facility.
type SepPhase int

const (
	AwaitingFeed SepPhase = iota
	Processing
	Retiring
	Decommissioned
)

func (p SepPhase) String() string {
	switch p {
	case AwaitingFeed:
		return "awaiting-feed"
	case Processing:
		return "processing"
	case Retiring:
		return "retiring"
	case Decommissioned:
		return "decommissioned"
	}
	return fmt.Sprintf("SepPhase(%d)", int(p))
}

// Separations buys feed, splits it once per step into its configured
// streams and sells every stream plus the unclaimed leftover.
//
// When a stream (or the leftover) tank lacks room for its full share, the
// whole step is scaled down to what the most constrained tank accepts and
// the unprocessed feed goes back into the feed tank.
type Separations struct {
	sim.Base
	mv         mover
	throughput float64
	table      *separation.StreamTable

	feed     *tank.Tank
	leftover *tank.Tank
	streams  []*tank.Tank // table order

	feedPolicy *market.BuyPolicy
	sellers    []*market.SellPolicy

	phase SepPhase
}

// NewSeparations validates cfg and builds the facility.
func NewSeparations(ctx *sim.Context, prototype string, lifetime int, cfg SeparationsConfig) (*Separations, error) {
	if len(cfg.FeedCommods) == 0 {
		return nil, sim.ConfigErrorf(prototype, "feed_commods must not be empty")
	}
	feedPrefs, err := prefs(prototype, "feed_commod_prefs", cfg.FeedCommods, cfg.FeedPrefs)
	if err != nil {
		return nil, err
	}
	if cfg.LeftoverCommod == "" {
		cfg.LeftoverCommod = DefaultLeftoverCommod
	}
	for _, sc := range cfg.Streams {
		if sc.Commod == cfg.LeftoverCommod {
			return nil, sim.ConfigErrorf(prototype, "stream %q collides with the leftover commodity", sc.Commod)
		}
	}
	table, err := buildStreams(prototype, cfg.Streams)
	if err != nil {
		return nil, err
	}
	feedComp, err := recipe(ctx, prototype, "feed_recipe", cfg.FeedRecipe)
	if err != nil {
		return nil, err
	}

	s := &Separations{
		Base:       sim.NewBase(ctx, prototype, "separations", lifetime),
		throughput: bufSize(cfg.Throughput),
		table:      table,
		feed:       tank.New("feed", bufSize(cfg.FeedbufSize)),
		leftover:   tank.New("leftover", bufSize(cfg.LeftoverbufSize)),
	}
	s.mv = mover{ctx: ctx, owner: s}

	s.feedPolicy = market.NewBuyPolicy(ctx.Exchange(), s, s.feed, "feed")
	for i, c := range cfg.FeedCommods {
		s.feedPolicy.Set(c, feedComp, feedPrefs[i])
	}
	for _, st := range table.Streams() {
		buf := tank.New(st.Name, st.Capacity)
		s.streams = append(s.streams, buf)
		s.sellers = append(s.sellers, market.NewSellPolicy(ctx.Exchange(), s, buf, st.Name).Set(st.Name))
	}
	s.sellers = append(s.sellers, market.NewSellPolicy(ctx.Exchange(), s, s.leftover, "leftover").Set(cfg.LeftoverCommod))
	return s, nil
}

// EnterNotify starts buying feed and offering every output.
func (s *Separations) EnterNotify() error {
	s.feedPolicy.Start()
	for _, p := range s.sellers {
		p.Start()
	}
	s.phase = AwaitingFeed
	return nil
}

// drainSteps is the number of steps needed to process a full feed tank.
func (s *Separations) drainSteps() int {
	if s.feed.Capacity() >= tank.Unbounded {
		return 1
	}
	return max(1, int(math.Ceil(s.feed.Capacity()/s.throughput-1e-9)))
}

// Tick stops feed purchases once the remaining lifetime is too short to
// process a full feed tank.
func (s *Separations) Tick() error {
	exit := s.ExitTime()
	t := s.Context().Time()
	if exit >= 0 && t > exit-s.drainSteps() && s.phase != Retiring {
		s.phase = Retiring
		s.feedPolicy.Stop()
		logrus.Infof("[t %04d] %s (id %d) retiring, feed purchases stopped", t, s.Prototype(), s.ID())
	}
	return nil
}

// Tock separates up to one throughput of feed.
func (s *Separations) Tock() error {
	if err := s.separate(); err != nil {
		return err
	}
	if s.phase != Retiring {
		if s.feed.Empty() {
			s.phase = AwaitingFeed
		} else {
			s.phase = Processing
		}
	}
	return nil
}

func (s *Separations) separate() error {
	if s.feed.Empty() {
		return nil
	}
	mat, err := s.feed.Pop(math.Min(s.throughput, s.feed.Quantity()))
	if err != nil {
		return err
	}
	orig := mat.Quantity()

	res := s.table.Split(mat)
	frac := 1.0
	for i, out := range res.Outputs {
		if out.Quantity() > 0 {
			frac = math.Min(frac, s.streams[i].Space()/out.Quantity())
		}
	}
	// the leftover tank receives whatever the streams do not claim
	if rest := orig - res.Separated(); rest > material.Eps {
		frac = math.Min(frac, s.leftover.Space()/rest)
	}

	if frac < 1 {
		logrus.Warnf("[t %04d] %s (id %d) output tanks full, processing %.4g of %.6g kg",
			s.Context().Time(), s.Prototype(), s.ID(), frac, orig)
		back, err := mat.ExtractQty((1 - frac) * orig)
		if err != nil {
			return err
		}
		if err := s.mv.restore(processName, back, s.feed); err != nil {
			return err
		}
		if mat.Quantity() <= material.Eps {
			return nil
		}
	}

	for i, out := range res.Outputs {
		q := out.Quantity() * frac
		if q <= 0 {
			continue
		}
		part, err := mat.ExtractComp(q, out.Comp())
		if err != nil {
			return fmt.Errorf("stream %s: %w", s.streams[i].Name(), err)
		}
		if err := s.mv.place(s.feed.Name(), part, s.streams[i]); err != nil {
			return err
		}
	}
	return s.mv.place(s.feed.Name(), mat, s.leftover)
}

// Drained reports whether every tank is empty.
func (s *Separations) Drained() bool {
	if !s.feed.Empty() || !s.leftover.Empty() {
		return false
	}
	for _, st := range s.streams {
		if !st.Empty() {
			return false
		}
	}
	return true
}

// Decommission withdraws every policy from the market.
func (s *Separations) Decommission() {
	s.feedPolicy.Stop()
	for _, p := range s.sellers {
		p.Stop()
	}
	s.phase = Decommissioned
}

// Phase returns the lifecycle state.
func (s *Separations) Phase() SepPhase { return s.phase }

// Feed returns the feed tank.
func (s *Separations) Feed() *tank.Tank { return s.feed }

// Leftover returns the tank holding unclaimed feed.
func (s *Separations) Leftover() *tank.Tank { return s.leftover }

// Stream returns the tank of the named stream, or nil.
func (s *Separations) Stream(name string) *tank.Tank {
	for _, st := range s.streams {
		if st.Name() == name {
			return st
		}
	}
	return nil
}
