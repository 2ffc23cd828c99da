package record

// AgentFlows aggregates one agent's material movement.
type AgentFlows struct {
	Received     float64 // kg bought on the market
	Sent         float64 // kg sold on the market
	ReceivedFrom int     // transactions received
	SentTo       int     // transactions sent
	PowerSteps   int     // steps with a power sample
	Internal     float64 // kg moved between the agent's own tanks
}

// Summary aggregates statistics from a Trace.
type Summary struct {
	Agents       int
	Decommission int
	Transactions int
	Traded       float64
	PowerTotal   float64
	Flows        map[int]*AgentFlows // agent id → flows
}

// Summarize computes aggregate statistics from a Trace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(tr *Trace) *Summary {
	s := &Summary{Flows: make(map[int]*AgentFlows)}
	if tr == nil {
		return s
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()

	flows := func(id int) *AgentFlows {
		f, ok := s.Flows[id]
		if !ok {
			f = &AgentFlows{}
			s.Flows[id] = f
		}
		return f
	}

	s.Agents = len(tr.Entries)
	s.Decommission = len(tr.Exits)
	for _, e := range tr.Entries {
		flows(e.AgentID)
	}
	s.Transactions = len(tr.Transactions)
	for _, t := range tr.Transactions {
		s.Traded += t.Quantity
		flows(t.SenderID).Sent += t.Quantity
		flows(t.SenderID).SentTo++
		flows(t.ReceiverID).Received += t.Quantity
		flows(t.ReceiverID).ReceivedFrom++
	}
	for _, p := range tr.Power {
		s.PowerTotal += p.Value
		flows(p.AgentID).PowerSteps++
	}
	for _, t := range tr.Transfers {
		flows(t.AgentID).Internal += t.Quantity
	}
	return s
}
