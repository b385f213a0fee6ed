package engine

// move advances every vehicle that is not waiting by its speed, all or
// nothing. A move is committed only when the new body overlaps neither the
// pre-move bodies nor the bodies already moved earlier in this pass.
func (w *World) move(snap []Vehicle) {
	core := w.layout.core
	for i, v := range w.vehicles {
		if v.Waiting || v.Speed <= 0 {
			continue
		}

		next := v.Body.Translate(v.Heading.Delta(v.Speed))
		if !w.clear(i, next, snap) {
			continue
		}
		v.Body = next

		inside := v.Body.Overlaps(core)
		switch {
		case v.Phase == PhaseBefore && inside:
			v.advancePhase(PhaseInside)
		case v.Phase == PhaseInside && !inside:
			v.advancePhase(PhaseAfter)
		}
	}
}
