package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/smartroad/game/geom"
)

func TestTurnDestinations(t *testing.T) {
	w := newTestWorld(t)

	tests := []struct {
		code Behavior
		body geom.Rect // just past the trigger line
		want geom.Rect
	}{
		{BehaviorRU, geom.NewRect(524, 240, 43, 33), geom.NewRect(525, 230, 33, 43)},
		{BehaviorRD, geom.NewRect(353, 354, 43, 33), geom.NewRect(354, 354, 33, 43)},
		{BehaviorLU, geom.NewRect(412, 411, 43, 33), geom.NewRect(411, 401, 33, 43)},
		{BehaviorLD, geom.NewRect(241, 525, 43, 33), geom.NewRect(240, 525, 33, 43)},
		{BehaviorUR, geom.NewRect(354, 412, 33, 43), geom.NewRect(354, 411, 43, 33)},
		{BehaviorUL, geom.NewRect(240, 241, 33, 43), geom.NewRect(230, 240, 43, 33)},
		{BehaviorDR, geom.NewRect(525, 524, 33, 43), geom.NewRect(525, 525, 43, 33)},
		{BehaviorDL, geom.NewRect(411, 353, 33, 43), geom.NewRect(401, 354, 43, 33)},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			rule := w.layout.lanes[tt.code].turn
			require.NotNil(t, rule)
			assert.True(t, rule.reached(tt.body))
			assert.Equal(t, tt.want, rule.destination(tt.body, 43, 33))
			assert.Equal(t, tt.code.Exit(), rule.to)
		})
	}
}

func TestStraightCodesHaveNoTurn(t *testing.T) {
	w := newTestWorld(t)
	for _, code := range []Behavior{BehaviorRL, BehaviorDU, BehaviorLR, BehaviorUD} {
		assert.Nil(t, w.layout.lanes[code].turn, code.String())
		assert.False(t, code.Turns())
	}
}

func TestTurnCommit(t *testing.T) {
	w := newTestWorld(t)
	v := place(w, BehaviorRU, West, geom.NewRect(524, 240, 43, 33))

	w.turn(w.snapshot())

	assert.Equal(t, North, v.Heading)
	assert.Equal(t, geom.NewRect(525, 230, 33, 43), v.Body)
	assert.True(t, v.HasTurned())
	assert.False(t, v.Waiting)

	// a second pass is a no-op
	before := *v
	w.turn(w.snapshot())
	assert.Equal(t, before, *v)
}

func TestTurnBeforeTriggerLine(t *testing.T) {
	w := newTestWorld(t)
	v := place(w, BehaviorRU, West, geom.NewRect(530, 240, 43, 33))

	w.turn(w.snapshot())

	assert.Equal(t, West, v.Heading)
	assert.Equal(t, TurnPending, v.Turn)
	assert.False(t, v.Waiting)
}

func TestBlockedTurnWaitsAndRetries(t *testing.T) {
	w := newTestWorld(t)
	v := place(w, BehaviorRU, West, geom.NewRect(524, 240, 43, 33))
	// northbound vehicle sitting where the turn would land
	blocker := place(w, BehaviorDU, North, geom.NewRect(525, 200, 33, 35))

	w.turn(w.snapshot())
	assert.True(t, v.Waiting)
	assert.Equal(t, West, v.Heading)
	assert.Equal(t, TurnPending, v.Turn)

	blocker.Body = geom.NewRect(525, 100, 33, 43)
	w.turn(w.snapshot())
	assert.False(t, v.Waiting)
	assert.Equal(t, North, v.Heading)
	assert.True(t, v.HasTurned())
}

func TestTurnChecksEarlierCommitsInSamePass(t *testing.T) {
	w := newTestWorld(t)
	// first lands on (525, 550, 33, 43); second would land on (500, 525, 43, 33),
	// which is clear of every pre-turn body but not of first's new one
	first := place(w, BehaviorRU, West, geom.NewRect(524, 560, 43, 33))
	second := place(w, BehaviorDR, North, geom.NewRect(500, 505, 33, 43))

	w.turn(w.snapshot())

	assert.True(t, first.HasTurned())
	assert.False(t, second.HasTurned())
	assert.True(t, second.Waiting)
	assert.False(t, first.Body.Overlaps(second.Body))
}
