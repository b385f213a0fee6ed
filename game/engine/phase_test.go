package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseTransitions(t *testing.T) {
	assert.True(t, PhaseBefore.CanAdvance(PhaseInside))
	assert.True(t, PhaseInside.CanAdvance(PhaseAfter))

	assert.False(t, PhaseBefore.CanAdvance(PhaseAfter))
	assert.False(t, PhaseInside.CanAdvance(PhaseBefore))
	assert.False(t, PhaseAfter.CanAdvance(PhaseInside))
	assert.False(t, PhaseAfter.CanAdvance(PhaseAfter))
}

func TestTurnStateTransitions(t *testing.T) {
	assert.True(t, TurnPending.CanAdvance(TurnDone))
	assert.False(t, TurnStraight.CanAdvance(TurnDone))
	assert.False(t, TurnDone.CanAdvance(TurnPending))

	assert.Equal(t, TurnPending, initialTurnState(BehaviorRU))
	assert.Equal(t, TurnStraight, initialTurnState(BehaviorRL))
}

func TestVehicleLatches(t *testing.T) {
	v := &Vehicle{Behavior: BehaviorUR, Turn: TurnPending}
	assert.True(t, v.latchTurn())
	assert.False(t, v.latchTurn())
	assert.True(t, v.HasTurned())

	straight := &Vehicle{Behavior: BehaviorUD, Turn: TurnStraight}
	assert.False(t, straight.latchTurn())

	assert.False(t, v.advancePhase(PhaseAfter))
	assert.True(t, v.advancePhase(PhaseInside))
	assert.True(t, v.advancePhase(PhaseAfter))
	assert.Equal(t, PhaseAfter, v.Phase)
}

func TestPhaseText(t *testing.T) {
	var p Phase
	require.NoError(t, p.UnmarshalText([]byte("Inside")))
	assert.Equal(t, PhaseInside, p)
	assert.Error(t, p.UnmarshalText([]byte("gone")))

	var s TurnState
	require.NoError(t, s.UnmarshalText([]byte("turned")))
	assert.Equal(t, TurnDone, s)
	assert.Equal(t, "Phase(7)", Phase(7).String())
}
