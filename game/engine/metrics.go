package engine

// MetricsSink receives fire-and-forget measurements from the simulation.
// Implementations must not call back into the World.
type MetricsSink interface {
	// RecordTripDuration is called once per retired vehicle with its
	// lifetime in seconds.
	RecordTripDuration(seconds float64)
	// RecordSpeedSample is called once per vehicle per tick after the
	// speed has been recomputed.
	RecordSpeedSample(speed float64)
	// RecordCloseCall is called when a vehicle's speed more than halves
	// between two ticks.
	RecordCloseCall()
	// RecordSpawn is called for every accepted spawn.
	RecordSpawn()
}

// NopSink discards every measurement.
type NopSink struct{}

func (NopSink) RecordTripDuration(float64) {}
func (NopSink) RecordSpeedSample(float64)  {}
func (NopSink) RecordCloseCall()           {}
func (NopSink) RecordSpawn()               {}
