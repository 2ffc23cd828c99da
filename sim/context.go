package sim

import (
	"github.com/google/uuid"

	"github.com/recycle-sim/recycle-sim/sim/market"
	"github.com/recycle-sim/recycle-sim/sim/material"
	"github.com/recycle-sim/recycle-sim/sim/record"
)

// Context is the per-run state shared with agents.
type Context struct {
	simID    uuid.UUID
	time     int
	dt       int64
	duration int
	recipes  *RecipeRegistry
	exchange *market.Exchange
	rec      record.Recorder
	nextTxID int
}

// SimID identifies this run in recorded output.
func (c *Context) SimID() uuid.UUID { return c.simID }

// Time returns the current step.
func (c *Context) Time() int { return c.time }

// Dt returns the length of one step in seconds.
func (c *Context) Dt() int64 { return c.dt }

// Duration returns the number of steps in the run.
func (c *Context) Duration() int { return c.duration }

// Exchange returns the market agents trade on.
func (c *Context) Exchange() *market.Exchange { return c.exchange }

// Recipes returns the recipe registry.
func (c *Context) Recipes() *RecipeRegistry { return c.recipes }

// Recipe looks up a recipe by name; see RecipeRegistry.Get.
func (c *Context) Recipe(name string) (*material.Composition, error) {
	return c.recipes.Get(name)
}

// RecordPower adds one sample to the power time series.
func (c *Context) RecordPower(a market.Manager, value float64) {
	c.rec.RecordPower(record.PowerRecord{SimID: c.simID, AgentID: a.ID(), Time: c.time, Value: value})
}

// RecordTransfer audits a move between two of an agent's tanks.
func (c *Context) RecordTransfer(a market.Manager, sender, receiver string, qty float64) {
	c.rec.RecordTransfer(record.TransferRecord{
		SimID:    c.simID,
		AgentID:  a.ID(),
		Time:     c.time,
		Sender:   sender,
		Receiver: receiver,
		Quantity: qty,
	})
}

func (c *Context) recordTransactions(txs []market.Transaction) {
	for _, tx := range txs {
		c.nextTxID++
		c.rec.RecordTransaction(record.TransactionRecord{
			SimID:         c.simID,
			TransactionID: c.nextTxID,
			SenderID:      tx.SenderID,
			ReceiverID:    tx.ReceiverID,
			Commodity:     tx.Commodity,
			Time:          tx.Time,
			Quantity:      tx.Quantity,
		})
	}
}
