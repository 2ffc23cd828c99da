package record

import (
	"context"
	"sync"
)

// Recorder receives records as the simulation produces them.
// Recording never fails at the call site; backends that can fail report the
// first error from Close.
type Recorder interface {
	RecordAgentEntry(AgentEntry)
	RecordAgentExit(AgentExit)
	RecordPower(PowerRecord)
	RecordTransfer(TransferRecord)
	RecordTransaction(TransactionRecord)
	Close(ctx context.Context) error
}

// Trace collects records in memory.
type Trace struct {
	mu           sync.Mutex
	Entries      []AgentEntry
	Exits        []AgentExit
	Power        []PowerRecord
	Transfers    []TransferRecord
	Transactions []TransactionRecord
}

// NewTrace creates a Trace ready for recording.
func NewTrace() *Trace {
	return &Trace{
		Entries:      make([]AgentEntry, 0),
		Exits:        make([]AgentExit, 0),
		Power:        make([]PowerRecord, 0),
		Transfers:    make([]TransferRecord, 0),
		Transactions: make([]TransactionRecord, 0),
	}
}

// RecordAgentEntry appends an agent entry record.
func (tr *Trace) RecordAgentEntry(r AgentEntry) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.Entries = append(tr.Entries, r)
}

// RecordAgentExit appends an agent exit record.
func (tr *Trace) RecordAgentExit(r AgentExit) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.Exits = append(tr.Exits, r)
}

// RecordPower appends a power sample.
func (tr *Trace) RecordPower(r PowerRecord) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.Power = append(tr.Power, r)
}

// RecordTransfer appends a tank transfer record.
func (tr *Trace) RecordTransfer(r TransferRecord) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.Transfers = append(tr.Transfers, r)
}

// RecordTransaction appends a transaction record.
func (tr *Trace) RecordTransaction(r TransactionRecord) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.Transactions = append(tr.Transactions, r)
}

// Len returns the total number of records held.
func (tr *Trace) Len() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.Entries) + len(tr.Exits) + len(tr.Power) + len(tr.Transfers) + len(tr.Transactions)
}

// Close is a no-op for the in-memory trace.
func (tr *Trace) Close(context.Context) error { return nil }

// snapshot returns a copy of the records held, leaving the trace unchanged.
func (tr *Trace) snapshot() *Trace {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return &Trace{
		Entries:      append([]AgentEntry(nil), tr.Entries...),
		Exits:        append([]AgentExit(nil), tr.Exits...),
		Power:        append([]PowerRecord(nil), tr.Power...),
		Transfers:    append([]TransferRecord(nil), tr.Transfers...),
		Transactions: append([]TransactionRecord(nil), tr.Transactions...),
	}
}

// discard drops the leading records a previous snapshot returned. Records
// added since that snapshot are kept.
func (tr *Trace) discard(done *Trace) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.Entries = tr.Entries[len(done.Entries):]
	tr.Exits = tr.Exits[len(done.Exits):]
	tr.Power = tr.Power[len(done.Power):]
	tr.Transfers = tr.Transfers[len(done.Transfers):]
	tr.Transactions = tr.Transactions[len(done.Transactions):]
}
