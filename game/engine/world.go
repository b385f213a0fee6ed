package engine

import (
	"time"

	"github.com/wricardo/smartroad/game/geom"
	"golang.org/x/exp/rand"
)

// Engine is the surface the session layer drives.
type Engine interface {
	Spawn(code Behavior) bool
	SpawnRandom() bool
	SpawnFrom(heading Heading) bool
	Tick()
	Ticks() uint64
	Len() int
	Snapshot() Snapshot
}

var _ Engine = (*World)(nil)

// Snapshot is a read-only view of a World for renderers and clients.
type Snapshot struct {
	Tick     uint64    `json:"tick"`
	Core     geom.Rect `json:"core"`
	Active   int       `json:"active"`
	Vehicles []Vehicle `json:"vehicles"`
}

// World is one simulated intersection. It is not safe for concurrent use.
type World struct {
	cfg    *Config
	layout *Layout

	// vehicles is kept in insertion order; later stages depend on it.
	vehicles []*Vehicle
	nextID   uint64
	ticks    uint64

	rng  *rand.Rand
	sink MetricsSink
	now  func() time.Time
}

// Option configures a World.
type Option func(*World)

// WithSeed seeds the generator used for base speeds and random codes.
func WithSeed(seed uint64) Option {
	return func(w *World) {
		w.rng = rand.New(rand.NewSource(seed))
	}
}

// WithMetrics routes measurements to sink.
func WithMetrics(sink MetricsSink) Option {
	return func(w *World) {
		if sink != nil {
			w.sink = sink
		}
	}
}

// WithClock replaces time.Now for creation stamps and trip durations.
func WithClock(now func() time.Time) Option {
	return func(w *World) {
		if now != nil {
			w.now = now
		}
	}
}

// NewWorld creates an empty intersection. The generator is seeded from
// cfg.Seed unless WithSeed is given.
func NewWorld(cfg *Config, opts ...Option) (*World, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	w := &World{
		cfg:    cfg,
		layout: NewLayout(cfg),
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		sink:   NopSink{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Config returns the configuration the world was built from.
func (w *World) Config() *Config {
	return w.cfg
}

// Layout returns the lane geometry.
func (w *World) Layout() *Layout {
	return w.layout
}

// Core returns the core intersection rectangle.
func (w *World) Core() geom.Rect {
	return w.layout.core
}

// Ticks returns the number of completed ticks.
func (w *World) Ticks() uint64 {
	return w.ticks
}

// Len returns the number of active vehicles.
func (w *World) Len() int {
	return len(w.vehicles)
}

// Tick advances the simulation by one frame.
func (w *World) Tick() {
	w.arbitrate(w.snapshot())
	w.updateRadarAndSpeed(w.snapshot())
	w.turn(w.snapshot())
	w.breakDeadlocks(w.snapshot())
	w.move(w.snapshot())
	w.retireArrived()
	w.ticks++
}

// Vehicles returns copies of the active vehicles in insertion order.
func (w *World) Vehicles() []Vehicle {
	return w.snapshot()
}

// Snapshot returns the current state for rendering.
func (w *World) Snapshot() Snapshot {
	return Snapshot{
		Tick:     w.ticks,
		Core:     w.layout.core,
		Active:   len(w.vehicles),
		Vehicles: w.snapshot(),
	}
}

func (w *World) snapshot() []Vehicle {
	out := make([]Vehicle, len(w.vehicles))
	for i, v := range w.vehicles {
		out[i] = *v
	}
	return out
}

// clear reports whether r overlaps neither the snapshot body nor the live
// body of any vehicle other than self.
func (w *World) clear(self int, r geom.Rect, snap []Vehicle) bool {
	for j := range snap {
		if j == self {
			continue
		}
		if r.Overlaps(snap[j].Body) || r.Overlaps(w.vehicles[j].Body) {
			return false
		}
	}
	return true
}
