package engine

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Phase tracks a vehicle's progress relative to the core intersection.
// It only ever advances: Before -> Inside -> After.
type Phase uint8

const (
	PhaseBefore Phase = iota
	PhaseInside
	PhaseAfter
)

var phaseNames = map[Phase]string{
	PhaseBefore: "before",
	PhaseInside: "inside",
	PhaseAfter:  "after",
}

var phaseTransitions = map[Phase][]Phase{
	PhaseBefore: {PhaseInside},
	PhaseInside: {PhaseAfter},
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// CanAdvance reports whether the transition p -> next is allowed.
func (p Phase) CanAdvance(next Phase) bool {
	return lo.Contains(phaseTransitions[p], next)
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if strings.EqualFold(name, string(text)) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// TurnState is the one-shot turn latch of a vehicle. Straight-through codes
// stay in TurnStraight for their whole life; turning codes start in
// TurnPending and latch to TurnDone exactly once.
type TurnState uint8

const (
	TurnStraight TurnState = iota
	TurnPending
	TurnDone
)

var turnStateNames = map[TurnState]string{
	TurnStraight: "straight",
	TurnPending:  "pending",
	TurnDone:     "turned",
}

var turnTransitions = map[TurnState][]TurnState{
	TurnPending: {TurnDone},
}

func initialTurnState(b Behavior) TurnState {
	if b.Turns() {
		return TurnPending
	}
	return TurnStraight
}

func (t TurnState) String() string {
	if name, ok := turnStateNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TurnState(%d)", uint8(t))
}

// CanAdvance reports whether the transition t -> next is allowed.
func (t TurnState) CanAdvance(next TurnState) bool {
	return lo.Contains(turnTransitions[t], next)
}

func (t TurnState) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TurnState) UnmarshalText(text []byte) error {
	for state, name := range turnStateNames {
		if strings.EqualFold(name, string(text)) {
			*t = state
			return nil
		}
	}
	return fmt.Errorf("unknown turn state %q", text)
}
