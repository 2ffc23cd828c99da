// Package sim provides the discrete-time kernel for fuel-cycle facility
// simulations.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - agent.go: the Agent lifecycle (deploy, enter, tick, tock, decommission)
//   - context.go: per-run state shared with agents (time, recipes, exchange, recorder)
//   - simulator.go: the step loop
//
// # Architecture
//
// The sim package defines the kernel and its error taxonomy; everything
// else lives in sub-packages:
//   - sim/nuc/: nuclide and element ids
//   - sim/material/: compositions and mass-conserving materials
//   - sim/tank/: capacity-bounded FIFO inventory tanks
//   - sim/separation/: efficiency tables, stream tables, multi-stream splits
//   - sim/market/: request/bid/trade exchange and buy/sell policies
//   - sim/record/: audit and telemetry records, memory and SQLite recorders
//   - sim/facility/: separations, reactor, source and sink archetypes
//   - sim/scenario/: YAML scenario loading
//
// # Step Order
//
// Each step runs: agent entry, Tick for every agent, one exchange round
// (requests, bids, trades, acceptance), Tock for every agent, then
// decommissioning of agents past their exit time that hold no material.
package sim
