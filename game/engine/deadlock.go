package engine

// deadlocked reports whether a and b are stopped on perpendicular axes
// after both have left their approach.
func deadlocked(a, b *Vehicle) bool {
	return a.Heading.Perpendicular(b.Heading) &&
		a.Speed == 0 && b.Speed == 0 &&
		a.Phase != PhaseBefore && b.Phase != PhaseBefore
}

// breakDeadlocks nudges the lower-indexed vehicle of every deadlocked pair
// back by Config.DeadlockNudge against its heading. A vehicle is nudged at
// most once per tick, and a nudge that would overlap another body is
// skipped until a later tick.
func (w *World) breakDeadlocks(snap []Vehicle) {
	for i, a := range w.vehicles {
		for j := i + 1; j < len(w.vehicles); j++ {
			if !deadlocked(a, w.vehicles[j]) {
				continue
			}
			back := a.Body.Translate(a.Heading.Opposite().Delta(w.cfg.DeadlockNudge))
			if !w.clear(i, back, snap) {
				continue
			}
			a.Body = back
			log.Debugf("deadlock: nudged vehicle %d (%s) back from vehicle %d (%s)",
				a.ID, a.Behavior, w.vehicles[j].ID, w.vehicles[j].Behavior)
			break
		}
	}
}
