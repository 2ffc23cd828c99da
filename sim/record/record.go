// Package record holds the audit and telemetry records a simulation emits
// and the recorders that keep them.
// This package has no dependencies on sim/; it stores pure data types.
package record

import "github.com/google/uuid"

// AgentEntry marks an agent joining the simulation.
type AgentEntry struct {
	SimID     uuid.UUID
	AgentID   int
	Prototype string
	Archetype string
	Lifetime  int
	EnterTime int
}

// AgentExit marks an agent leaving the simulation.
type AgentExit struct {
	SimID    uuid.UUID
	AgentID  int
	ExitTime int
}

// PowerRecord is one sample of the power time series.
type PowerRecord struct {
	SimID   uuid.UUID
	AgentID int
	Time    int
	Value   float64 // MWe
}

// TransferRecord audits one move between two tanks of the same agent.
type TransferRecord struct {
	SimID    uuid.UUID
	AgentID  int
	Time     int
	Sender   string
	Receiver string
	Quantity float64
}

// TransactionRecord audits one market trade between agents.
type TransactionRecord struct {
	SimID         uuid.UUID
	TransactionID int
	SenderID      int
	ReceiverID    int
	Commodity     string
	Time          int
	Quantity      float64
}
