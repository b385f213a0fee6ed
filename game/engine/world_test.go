package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/smartroad/game/geom"
)

// recordingSink keeps every measurement for assertions.
type recordingSink struct {
	trips      []float64
	speeds     []float64
	closeCalls int
	spawns     int
}

func (s *recordingSink) RecordTripDuration(seconds float64) { s.trips = append(s.trips, seconds) }
func (s *recordingSink) RecordSpeedSample(v float64)        { s.speeds = append(s.speeds, v) }
func (s *recordingSink) RecordCloseCall()                   { s.closeCalls++ }
func (s *recordingSink) RecordSpawn()                       { s.spawns++ }

// fakeClock is advanced by hand.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func newTestWorld(t *testing.T, opts ...Option) *World {
	t.Helper()
	w, err := NewWorld(DefaultConfig(), append([]Option{WithSeed(1)}, opts...)...)
	require.NoError(t, err)
	return w
}

// place inserts a vehicle at an arbitrary body, bypassing the spawner.
func place(w *World, code Behavior, heading Heading, body geom.Rect) *Vehicle {
	v := &Vehicle{
		ID:          w.nextID,
		Behavior:    code,
		Heading:     heading,
		SpawnPoint:  body.Origin(),
		Destination: w.layout.Destination(code),
		CreatedAt:   w.now(),
		Body:        body,
		Speed:       1,
		BaseSpeed:   1,
		Turn:        initialTurnState(code),
	}
	v.Radar = w.radarRect(body, heading, w.cfg.LongEdge)
	w.nextID++
	w.vehicles = append(w.vehicles, v)
	return v
}

func assertNoOverlap(t *testing.T, vehicles []Vehicle, tick int) {
	t.Helper()
	for i := range vehicles {
		for j := i + 1; j < len(vehicles); j++ {
			if vehicles[i].Body.Overlaps(vehicles[j].Body) {
				t.Fatalf("tick %d: vehicle %d %+v overlaps vehicle %d %+v",
					tick, vehicles[i].ID, vehicles[i].Body, vehicles[j].ID, vehicles[j].Body)
			}
		}
	}
}

func TestNewWorld(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		w, err := NewWorld(DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, 0, w.Len())
		assert.Equal(t, geom.NewRect(228, 228, 342, 342), w.Core())
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Capacity = 0
		_, err := NewWorld(cfg)
		assert.Error(t, err)
	})
}

func TestSingleVehicleCrossesForEveryCode(t *testing.T) {
	for _, code := range AllBehaviors {
		t.Run(code.String(), func(t *testing.T) {
			sink := &recordingSink{}
			w := newTestWorld(t, WithMetrics(sink))
			require.True(t, w.Spawn(code))

			headings := []Heading{code.Heading()}
			phases := []Phase{PhaseBefore}
			for tick := 0; tick < 3000 && w.Len() > 0; tick++ {
				w.Tick()
				if w.Len() == 0 {
					break
				}
				v := w.Vehicles()[0]
				if v.Heading != headings[len(headings)-1] {
					headings = append(headings, v.Heading)
				}
				if v.Phase != phases[len(phases)-1] {
					phases = append(phases, v.Phase)
				}
			}

			assert.Equal(t, 0, w.Len(), "vehicle should have retired")
			assert.Len(t, sink.trips, 1)
			assert.Equal(t, []Phase{PhaseBefore, PhaseInside, PhaseAfter}, phases)
			if code.Turns() {
				assert.Equal(t, []Heading{code.Heading(), code.Exit()}, headings)
			} else {
				assert.Equal(t, []Heading{code.Heading()}, headings)
			}
		})
	}
}

func TestRandomTrafficInvariants(t *testing.T) {
	sink := &recordingSink{}
	w := newTestWorld(t, WithSeed(7), WithMetrics(sink))

	type history struct {
		heading     Heading
		headingFlip int
		turned      bool
	}
	seen := map[uint64]*history{}

	for tick := 0; tick < 4000; tick++ {
		if tick%20 == 0 {
			w.SpawnRandom()
		}
		w.Tick()

		vehicles := w.Vehicles()
		assertNoOverlap(t, vehicles, tick)

		for _, v := range vehicles {
			require.GreaterOrEqual(t, v.Speed, 0.0)
			require.LessOrEqual(t, v.Speed, v.BaseSpeed)

			h, ok := seen[v.ID]
			if !ok {
				h = &history{heading: v.Behavior.Heading()}
				seen[v.ID] = h
			}
			if v.Heading != h.heading {
				h.headingFlip++
				h.heading = v.Heading
			}
			if h.turned {
				require.True(t, v.HasTurned(), "turn latch reset for vehicle %d", v.ID)
			}
			h.turned = v.HasTurned()
			require.LessOrEqual(t, h.headingFlip, 1, "vehicle %d changed heading twice", v.ID)
		}
	}

	assert.NotEmpty(t, sink.trips)
	assert.Equal(t, len(seen), sink.spawns)
}

func TestHeavyTrafficDrains(t *testing.T) {
	if testing.Short() {
		t.Skip("long-running traffic test")
	}
	const (
		spawnTicks = 3000
		drainLimit = 15000
	)

	for _, seed := range []uint64{1, 3, 7, 8} {
		for _, every := range []int{2, 6, 10} {
			t.Run(fmt.Sprintf("seed %d every %d", seed, every), func(t *testing.T) {
				clock := newFakeClock()
				w := newTestWorld(t, WithSeed(seed), WithClock(clock.Now))

				for tick := 0; tick < spawnTicks; tick++ {
					if tick%every == 0 {
						w.SpawnRandom()
					}
					w.Tick()
					clock.Advance(16 * time.Millisecond)
				}

				drained := 0
				for ; drained < drainLimit && w.Len() > 0; drained++ {
					w.Tick()
					clock.Advance(16 * time.Millisecond)
				}
				require.Equal(t, 0, w.Len(), "%d vehicles stranded after %d drain ticks", w.Len(), drained)
			})
		}
	}
}

func TestTickDeterminism(t *testing.T) {
	run := func() []Vehicle {
		clock := newFakeClock()
		w := newTestWorld(t, WithSeed(99), WithClock(clock.Now))
		for tick := 0; tick < 900; tick++ {
			if tick%15 == 0 {
				w.SpawnRandom()
			}
			w.Tick()
			clock.Advance(16 * time.Millisecond)
		}
		return w.Vehicles()
	}

	first := run()
	second := run()
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestSnapshotIsCopy(t *testing.T) {
	w := newTestWorld(t)
	require.True(t, w.Spawn(BehaviorLR))

	snap := w.Snapshot()
	snap.Vehicles[0].Body.X = -1000

	assert.NotEqual(t, -1000.0, w.Vehicles()[0].Body.X)
	assert.Equal(t, 1, snap.Active)
	assert.Equal(t, w.Core(), snap.Core)
}
