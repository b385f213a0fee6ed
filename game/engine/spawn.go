package engine

import "github.com/samber/lo"

// Spawn adds a vehicle for code travelling in its entry direction.
func (w *World) Spawn(code Behavior) bool {
	return w.SpawnWithHeading(code, code.Heading())
}

// SpawnWithHeading adds a vehicle for code. The heading must match the
// entry side of the code; a mismatch or an undeclared code is a programming
// error and panics. The spawn is declined, returning false, when the new
// body would overlap an existing vehicle or the world is at capacity.
// Every call consumes an id, accepted or not.
func (w *World) SpawnWithHeading(code Behavior, heading Heading) bool {
	if !code.Valid() {
		log.Panicf("spawn with invalid behavior code %d", uint8(code))
	}
	if heading != code.Heading() {
		log.Panicf("spawn %s with heading %s, expected %s", code, heading, code.Heading())
	}

	id := w.nextID
	w.nextID++

	if len(w.vehicles) >= w.cfg.Capacity {
		log.Tracef("spawn %d (%s) declined: at capacity %d", id, code, w.cfg.Capacity)
		return false
	}

	body := w.layout.SpawnRect(code)
	if lo.ContainsBy(w.vehicles, func(v *Vehicle) bool { return v.Body.Overlaps(body) }) {
		log.Tracef("spawn %d (%s) declined: lane occupied", id, code)
		return false
	}

	base := w.cfg.MinBaseSpeed + w.rng.Float64()*(w.cfg.MaxBaseSpeed-w.cfg.MinBaseSpeed)
	v := &Vehicle{
		ID:          id,
		Behavior:    code,
		Heading:     heading,
		SpawnPoint:  body.Origin(),
		Destination: w.layout.Destination(code),
		CreatedAt:   w.now(),
		Body:        body,
		Speed:       base,
		BaseSpeed:   base,
		Turn:        initialTurnState(code),
		Phase:       PhaseBefore,
	}
	v.Radar = w.radarRect(body, heading, w.cfg.LongEdge)
	w.vehicles = append(w.vehicles, v)
	w.sink.RecordSpawn()

	log.Debugf("spawned vehicle %d %s base_speed=%.3f", id, code, base)
	return true
}

// SpawnRandom spawns a uniformly chosen code.
func (w *World) SpawnRandom() bool {
	return w.Spawn(w.RandomBehavior())
}

// SpawnFrom spawns a uniformly chosen code among those travelling along
// heading at spawn.
func (w *World) SpawnFrom(heading Heading) bool {
	return w.Spawn(w.RandomBehaviorFor(heading))
}

// RandomBehavior draws one of the twelve codes.
func (w *World) RandomBehavior() Behavior {
	return AllBehaviors[w.rng.Intn(len(AllBehaviors))]
}

// RandomBehaviorFor draws a code whose vehicles spawn travelling along
// heading.
func (w *World) RandomBehaviorFor(heading Heading) Behavior {
	codes := BehaviorsFor(heading)
	if len(codes) == 0 {
		log.Panicf("no behavior codes for heading %s", heading)
	}
	return codes[w.rng.Intn(len(codes))]
}
