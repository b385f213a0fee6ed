package engine

// turn runs the turn latch of every pending vehicle. A vehicle at its turn
// line waits until the destination rectangle is clear, then snaps into the
// exit lane in one step.
func (w *World) turn(snap []Vehicle) {
	for i, v := range w.vehicles {
		if v.Turn != TurnPending {
			continue
		}
		rule := w.layout.lanes[v.Behavior].turn
		if rule == nil || !rule.reached(v.Body) {
			continue
		}

		v.Waiting = true
		dest := rule.destination(v.Body, w.cfg.LongEdge, w.cfg.ShortEdge)
		if !w.clear(i, dest, snap) {
			continue
		}

		v.Body = dest
		v.Heading = rule.to
		v.Waiting = false
		v.latchTurn()
		log.Debugf("vehicle %d (%s) turned %s at %.1f", v.ID, v.Behavior, v.Heading, rule.trigger)
	}
}
