package orchestrator

import (
	"fmt"

	"github.com/inscope-ai/ragcore/schema"
)

// State is one node of the turn pipeline.
type State int

const (
	StateWebSearch State = iota
	StateSearch
	StateRankFilter
	StateVerifyRefine
	StateAnswer
	StateQualityGate
	StateReplan
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateWebSearch:
		return "web_search"
	case StateSearch:
		return "search"
	case StateRankFilter:
		return "rank_filter"
	case StateVerifyRefine:
		return "verify_refine"
	case StateAnswer:
		return "answer"
	case StateQualityGate:
		return "quality_gate"
	case StateReplan:
		return "replan"
	case StateTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Edge is one row of the transition table. A nil When is unconditional and
// must terminate its edge list.
type Edge struct {
	When func(*schema.TurnState) bool
	To   State
}

// Machine is a compiled transition table. Build with Compile so dangling
// edges fail at startup, not mid-turn.
type Machine struct {
	edges map[State][]Edge
}

// Compile validates the table: every non-terminal state has edges, every
// edge list ends with an unconditional edge, and every target is defined.
func Compile(edges map[State][]Edge) (*Machine, error) {
	for state, list := range edges {
		if len(list) == 0 {
			return nil, fmt.Errorf("state %s: empty edge list", state)
		}
		for i, e := range list {
			if _, ok := edges[e.To]; !ok && e.To != StateTerminal {
				return nil, fmt.Errorf("state %s: edge %d targets undefined state %s", state, i, e.To)
			}
			if i == len(list)-1 && e.When != nil {
				return nil, fmt.Errorf("state %s: final edge must be unconditional", state)
			}
		}
	}
	return &Machine{edges: edges}, nil
}

// Next returns the successor of state for the given turn.
func (m *Machine) Next(state State, turn *schema.TurnState) (State, error) {
	list, ok := m.edges[state]
	if !ok {
		return StateTerminal, fmt.Errorf("no edges for state %s", state)
	}
	for _, e := range list {
		if e.When == nil || e.When(turn) {
			return e.To, nil
		}
	}
	return StateTerminal, fmt.Errorf("state %s: no edge matched", state)
}
