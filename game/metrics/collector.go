// Package metrics aggregates the measurements a World reports through
// engine.MetricsSink into an end-of-run statistics report.
package metrics

import (
	"sync"

	"github.com/wricardo/smartroad/game/engine"
)

// Report is a point-in-time summary of a run.
type Report struct {
	// Vehicles counts accepted spawns.
	Vehicles int `json:"vehicles" bson:"vehicles"`
	// Trips counts retired vehicles.
	Trips int `json:"trips" bson:"trips"`

	MinTrip float64 `json:"min_trip_seconds" bson:"min_trip_seconds"`
	MaxTrip float64 `json:"max_trip_seconds" bson:"max_trip_seconds"`
	AvgTrip float64 `json:"avg_trip_seconds" bson:"avg_trip_seconds"`

	// MinSpeed ignores stationary samples so a queue does not pin it to 0.
	MinSpeed float64 `json:"min_speed" bson:"min_speed"`
	MaxSpeed float64 `json:"max_speed" bson:"max_speed"`

	CloseCalls int `json:"close_calls" bson:"close_calls"`
}

// Collector is a thread-safe engine.MetricsSink.
type Collector struct {
	mu sync.Mutex

	vehicles   int
	closeCalls int

	trips     int
	tripTotal float64
	minTrip   float64
	maxTrip   float64

	minSpeed float64
	maxSpeed float64
}

var _ engine.MetricsSink = (*Collector)(nil)

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) RecordTripDuration(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.trips == 0 || seconds < c.minTrip {
		c.minTrip = seconds
	}
	if seconds > c.maxTrip {
		c.maxTrip = seconds
	}
	c.trips++
	c.tripTotal += seconds
}

func (c *Collector) RecordSpeedSample(speed float64) {
	if speed <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.minSpeed == 0 || speed < c.minSpeed {
		c.minSpeed = speed
	}
	if speed > c.maxSpeed {
		c.maxSpeed = speed
	}
}

func (c *Collector) RecordCloseCall() {
	c.mu.Lock()
	c.closeCalls++
	c.mu.Unlock()
}

func (c *Collector) RecordSpawn() {
	c.mu.Lock()
	c.vehicles++
	c.mu.Unlock()
}

// Report returns the statistics gathered so far.
func (c *Collector) Report() Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := Report{
		Vehicles:   c.vehicles,
		Trips:      c.trips,
		MinTrip:    c.minTrip,
		MaxTrip:    c.maxTrip,
		MinSpeed:   c.minSpeed,
		MaxSpeed:   c.maxSpeed,
		CloseCalls: c.closeCalls,
	}
	if c.trips > 0 {
		r.AvgTrip = c.tripTotal / float64(c.trips)
	}
	return r
}

// Reset discards everything recorded so far.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.vehicles, c.closeCalls = 0, 0
	c.trips, c.tripTotal, c.minTrip, c.maxTrip = 0, 0, 0, 0
	c.minSpeed, c.maxSpeed = 0, 0
}
