package engine

import "github.com/wricardo/smartroad/game/geom"

// lane is the fixed geometry of one behaviour code.
type lane struct {
	spawn geom.Rect
	dest  geom.Vec2
	turn  *turnRule
}

// turnRule describes where a turning code changes heading. trigger is the
// coordinate of the exit lane along the axis of entry travel; the vehicle
// turns once its top-left corner reaches it.
type turnRule struct {
	from    Heading
	to      Heading
	trigger float64
}

// Layout is the lane geometry derived from a Config.
type Layout struct {
	core  geom.Rect
	lanes [behaviorCount]lane

	spacing float64
	inset   float64
	long    float64
	short   float64
}

// NewLayout derives the spawn points, destinations, turn lines and core
// intersection for a configuration.
func NewLayout(cfg *Config) *Layout {
	ls := cfg.LineSpacing()
	l := &Layout{
		core:    geom.NewRect(4*ls, 4*ls, 6*ls, 6*ls),
		spacing: ls,
		inset:   (ls - cfg.ShortEdge) / 2,
		long:    cfg.LongEdge,
		short:   cfg.ShortEdge,
	}

	far := cfg.WindowSize + cfg.SpawnMargin
	near := -cfg.SpawnMargin
	for _, b := range AllBehaviors {
		info := behaviors[b]
		entry := l.laneCoord(info.entryLane)
		exit := l.laneCoord(info.exitLane)

		var ln lane
		switch info.entry {
		case West:
			ln.spawn = geom.NewRect(far, entry, l.long, l.short)
		case East:
			ln.spawn = geom.NewRect(near, entry, l.long, l.short)
		case North:
			ln.spawn = geom.NewRect(entry, far, l.short, l.long)
		case South:
			ln.spawn = geom.NewRect(entry, near, l.short, l.long)
		}

		switch info.exit {
		case North:
			ln.dest = geom.Vec2{X: exit, Y: near}
		case South:
			ln.dest = geom.Vec2{X: exit, Y: cfg.WindowSize}
		case East:
			ln.dest = geom.Vec2{X: cfg.WindowSize, Y: exit}
		case West:
			ln.dest = geom.Vec2{X: near, Y: exit}
		}

		if b.Turns() {
			ln.turn = &turnRule{from: info.entry, to: info.exit, trigger: exit}
		}
		l.lanes[b] = ln
	}
	return l
}

// Core returns the core intersection rectangle.
func (l *Layout) Core() geom.Rect {
	return l.core
}

// SpawnRect returns the body a vehicle of code b starts with.
func (l *Layout) SpawnRect(b Behavior) geom.Rect {
	return l.lanes[b].spawn
}

// Destination returns the point a vehicle of code b retires at.
func (l *Layout) Destination(b Behavior) geom.Vec2 {
	return l.lanes[b].dest
}

func (l *Layout) laneCoord(index int) float64 {
	return float64(index)*l.spacing + l.inset
}

// reached reports whether body has crossed the turn line.
func (r *turnRule) reached(body geom.Rect) bool {
	switch r.from {
	case West:
		return body.X <= r.trigger
	case East:
		return body.X >= r.trigger
	case North:
		return body.Y <= r.trigger
	case South:
		return body.Y >= r.trigger
	}
	return false
}

// destination is the body after the turn: snapped onto the exit lane and
// reoriented. Turning North or West keeps the trailing edge in place, so
// the new long edge grows forward.
func (r *turnRule) destination(body geom.Rect, long, short float64) geom.Rect {
	var shift float64
	if r.to == North || r.to == West {
		shift = short - long
	}
	if r.to.Vertical() {
		return geom.NewRect(r.trigger, body.Y+shift, short, long)
	}
	return geom.NewRect(body.X+shift, r.trigger, long, short)
}
