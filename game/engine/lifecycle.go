package engine

// retireArrived removes vehicles within Config.ArrivalRadius of their
// destination and reports their trip duration. Survivors keep their order.
func (w *World) retireArrived() {
	now := w.now()
	kept := w.vehicles[:0]
	for _, v := range w.vehicles {
		if v.DistanceToDestination() < w.cfg.ArrivalRadius {
			trip := now.Sub(v.CreatedAt).Seconds()
			w.sink.RecordTripDuration(trip)
			log.Debugf("vehicle %d (%s) arrived after %.2fs", v.ID, v.Behavior, trip)
			continue
		}
		kept = append(kept, v)
	}
	for i := len(kept); i < len(w.vehicles); i++ {
		w.vehicles[i] = nil
	}
	w.vehicles = kept
}
