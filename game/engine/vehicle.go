package engine

import (
	"time"

	"github.com/wricardo/smartroad/game/geom"
)

// Vehicle is one autonomous car. Values returned by World are copies and
// may be read freely; only the World mutates its own vehicles.
type Vehicle struct {
	ID          uint64    `json:"id"`
	Behavior    Behavior  `json:"behavior"`
	Heading     Heading   `json:"heading"`
	SpawnPoint  geom.Vec2 `json:"spawn_point"`
	Destination geom.Vec2 `json:"destination"`
	CreatedAt   time.Time `json:"created_at"`

	// Body has its long edge along the direction of travel.
	Body  geom.Rect `json:"body"`
	Radar geom.Rect `json:"radar"`

	Speed     float64 `json:"speed"`
	BaseSpeed float64 `json:"base_speed"`
	Waiting   bool    `json:"waiting"`

	Turn  TurnState `json:"turn"`
	Phase Phase     `json:"phase"`
}

// HasTurned reports whether the one-shot turn latch has fired.
func (v *Vehicle) HasTurned() bool {
	return v.Turn == TurnDone
}

// Position is the top-left corner of the body.
func (v *Vehicle) Position() geom.Vec2 {
	return v.Body.Origin()
}

// DistanceToDestination is measured from the top-left corner of the body.
func (v *Vehicle) DistanceToDestination() float64 {
	return v.Position().Distance(v.Destination)
}

func (v *Vehicle) advancePhase(next Phase) bool {
	if !v.Phase.CanAdvance(next) {
		return false
	}
	v.Phase = next
	return true
}

func (v *Vehicle) latchTurn() bool {
	if !v.Turn.CanAdvance(TurnDone) {
		return false
	}
	v.Turn = TurnDone
	return true
}
