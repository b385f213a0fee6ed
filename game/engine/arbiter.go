package engine

import "github.com/samber/lo"

// holdRule says when an approaching vehicle must wait outside the core.
type holdRule struct {
	// congestion applies the cap on congestionCodes inside the core.
	congestion bool
	// conflicts are the codes whose presence inside the core holds the
	// approaching vehicle.
	conflicts []Behavior
	// leftTurn admits the vehicle only while no other left turner is inside
	// the core or already cleared earlier in the same pass.
	leftTurn bool
}

// congestionCodes are counted against Config.CongestionThreshold.
var congestionCodes = []Behavior{BehaviorLR, BehaviorUR, BehaviorDR}

// leftTurnCodes cross the opposing flow and turn onto a lane another left
// turner uses before its own turn. Four of them inside at once can wait on
// each other in a circle, so they enter one at a time.
var leftTurnCodes = []Behavior{BehaviorUR, BehaviorDL, BehaviorRD, BehaviorLU}

var holdRules = [behaviorCount]holdRule{
	BehaviorLR: {congestion: true, conflicts: []Behavior{BehaviorLR}},
	BehaviorUR: {congestion: true, conflicts: []Behavior{BehaviorUR, BehaviorRL}, leftTurn: true},
	BehaviorDL: {congestion: true, conflicts: []Behavior{BehaviorDL, BehaviorUR}, leftTurn: true},

	BehaviorLU: {conflicts: []Behavior{BehaviorLU}, leftTurn: true},
	BehaviorRD: {conflicts: []Behavior{BehaviorRD}, leftTurn: true},
	BehaviorRL: {conflicts: []Behavior{BehaviorRL}},
	BehaviorUD: {conflicts: []Behavior{BehaviorUD, BehaviorRL}},
	BehaviorDU: {conflicts: []Behavior{BehaviorDU, BehaviorLR}},

	BehaviorRU: {conflicts: []Behavior{BehaviorRU}},
	BehaviorDR: {conflicts: []Behavior{BehaviorDR}},
	BehaviorLD: {conflicts: []Behavior{BehaviorLD}},
	BehaviorUL: {conflicts: []Behavior{BehaviorUL}},
}

// arbitrate recomputes every waiting flag from scratch. Only vehicles whose
// radar reaches the core while their body is still outside it are held.
// Left turners are admitted in insertion order, one at a time.
func (w *World) arbitrate(snap []Vehicle) {
	core := w.layout.core
	leftCleared := false
	for i, v := range w.vehicles {
		v.Waiting = false
		if !v.Radar.Overlaps(core) || v.Body.Overlaps(core) {
			continue
		}

		inside := make([]Behavior, 0, len(snap))
		for j := range snap {
			if j != i && snap[j].Body.Overlaps(core) {
				inside = append(inside, snap[j].Behavior)
			}
		}

		rule := holdRules[v.Behavior]
		if rule.congestion {
			n := lo.CountBy(inside, func(b Behavior) bool { return lo.Contains(congestionCodes, b) })
			if n >= w.cfg.CongestionThreshold {
				v.Waiting = true
				continue
			}
		}
		if lo.Some(inside, rule.conflicts) {
			v.Waiting = true
			continue
		}
		if rule.leftTurn {
			if leftCleared || lo.Some(inside, leftTurnCodes) {
				v.Waiting = true
				continue
			}
			leftCleared = true
		}
	}
}
