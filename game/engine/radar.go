package engine

import (
	"math"

	"github.com/samber/lo"
	"github.com/wricardo/smartroad/game/geom"
)

// Fractions of base speed for each tier.
const (
	quarterSpeed = 0.25
	halfSpeed    = 0.50
)

// radarRect is the sensing rectangle of the given length cast from the
// leading edge of body. Vertical radars are narrower than the body and
// centred on it.
func (w *World) radarRect(body geom.Rect, h Heading, length float64) geom.Rect {
	width := w.cfg.ShortEdge
	inset := 0.0
	if h.Vertical() {
		width = w.cfg.VerticalRadarWidth
		inset = (body.W - width) / 2
	}

	switch h {
	case North:
		return geom.NewRect(body.X+inset, body.Y-length, width, length)
	case South:
		return geom.NewRect(body.X+inset, body.Bottom(), width, length)
	case East:
		return geom.NewRect(body.Right(), body.Y, length, width)
	case West:
		return geom.NewRect(body.X-length, body.Y, length, width)
	}
	log.Panicf("radar for invalid heading %d", uint8(h))
	return geom.Rect{}
}

// gapTo is the distance from the leading edge of body to the near edge of
// other along h.
func gapTo(body geom.Rect, h Heading, other geom.Rect) float64 {
	switch h {
	case North:
		return body.Y - other.Bottom()
	case South:
		return other.Y - body.Bottom()
	case East:
		return other.X - body.Right()
	default:
		return body.X - other.Right()
	}
}

// sense casts the full radar of vehicle self and clips it at the nearest
// body it overlaps. It returns the clipped radar and its length.
func (w *World) sense(self int, v *Vehicle, snap []Vehicle) (geom.Rect, float64) {
	full := w.radarRect(v.Body, v.Heading, w.cfg.LongEdge)
	gap := w.cfg.LongEdge
	for j := range snap {
		if j == self || !full.Overlaps(snap[j].Body) {
			continue
		}
		gap = math.Min(gap, gapTo(v.Body, v.Heading, snap[j].Body))
	}
	gap = lo.Clamp(gap, 0, w.cfg.LongEdge)
	return w.radarRect(v.Body, v.Heading, gap), gap
}

// speedFor maps a radar gap to a speed in [0, base].
func (w *World) speedFor(h Heading, gap, base float64) float64 {
	tiers := w.cfg.HorizontalTiers
	if h.Vertical() {
		tiers = w.cfg.VerticalTiers
	}

	var speed float64
	switch {
	case gap <= tiers.Stop:
		speed = 0
	case gap <= tiers.Quarter:
		speed = base * quarterSpeed
	case gap <= tiers.Half:
		speed = base * halfSpeed
	default:
		speed = base
	}
	return lo.Clamp(speed, 0, base)
}

// updateRadarAndSpeed recomputes every radar and speed. A speed that more
// than halves, including a drop to a standstill, counts as a close call.
func (w *World) updateRadarAndSpeed(snap []Vehicle) {
	for i, v := range w.vehicles {
		prev := v.Speed

		var gap float64
		v.Radar, gap = w.sense(i, v, snap)
		v.Speed = w.speedFor(v.Heading, gap, v.BaseSpeed)

		if prev > v.Speed*2 {
			w.sink.RecordCloseCall()
		}
		w.sink.RecordSpeedSample(v.Speed)
	}
}
