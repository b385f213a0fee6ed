package session

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/smartroad/game/engine"
	"github.com/wricardo/smartroad/game/metrics"
	"github.com/wricardo/smartroad/game/report"
)

// FrameFunc receives a copy of the world after every tick of a running
// session. It is called without any session lock held.
type FrameFunc func(sessionID string, snap engine.Snapshot)

// Options tune a new session.
type Options struct {
	// Seed overrides Config.Seed when set.
	Seed      *uint64
	Running   bool
	AutoSpawn bool
}

// Session is one independent intersection with its own world, metrics and
// runner goroutine.
type Session struct {
	ID        string
	ConfigID  string
	Config    *engine.Config
	CreatedAt time.Time

	mu             sync.Mutex
	world          engine.Engine
	collector      *metrics.Collector
	lastAccessedAt time.Time
	autoSpawn      bool
	onFrame        FrameFunc

	// runner state, set while the frame loop is alive
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

func newSession(id, configID string, config *engine.Config, opts Options, onFrame FrameFunc) (*Session, error) {
	collector := metrics.NewCollector()
	worldOpts := []engine.Option{engine.WithMetrics(collector)}
	if opts.Seed != nil {
		worldOpts = append(worldOpts, engine.WithSeed(*opts.Seed))
	}

	world, err := engine.NewWorld(config, worldOpts...)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s := &Session{
		ID:             id,
		ConfigID:       configID,
		Config:         config,
		CreatedAt:      now,
		world:          world,
		collector:      collector,
		lastAccessedAt: now,
		autoSpawn:      opts.AutoSpawn,
		onFrame:        onFrame,
	}
	if opts.Running {
		s.SetRunning(true)
	}
	return s, nil
}

// Status is a consistent view of a session's mutable state.
type Status struct {
	Running        bool
	AutoSpawn      bool
	Tick           uint64
	Active         int
	LastAccessedAt time.Time
	Metrics        metrics.Report
}

// Status returns the current state of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Running:        s.cancel != nil,
		AutoSpawn:      s.autoSpawn,
		Tick:           s.world.Ticks(),
		Active:         s.world.Len(),
		LastAccessedAt: s.lastAccessedAt,
		Metrics:        s.collector.Report(),
	}
}

// Snapshot returns a copy of the world.
func (s *Session) Snapshot() engine.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.Snapshot()
}

// Metrics returns the statistics gathered so far.
func (s *Session) Metrics() metrics.Report {
	return s.collector.Report()
}

// Spawn adds a vehicle with the given code. It reports whether the spawn
// was accepted.
func (s *Session) Spawn(code engine.Behavior) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.Spawn(code)
}

// SpawnFrom adds a vehicle with a random code travelling along heading.
func (s *Session) SpawnFrom(heading engine.Heading) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.SpawnFrom(heading)
}

// SpawnRandom adds a vehicle with a random code.
func (s *Session) SpawnRandom() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.SpawnRandom()
}

// Step advances the world by n ticks and returns the resulting snapshot.
// Stepping a running session is allowed; the ticks interleave with the
// runner's.
func (s *Session) Step(n int) engine.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.world.Tick()
	}
	return s.world.Snapshot()
}

// SetAutoSpawn toggles timed random spawning. It only has an effect while
// the session is running.
func (s *Session) SetAutoSpawn(enabled bool) {
	s.mu.Lock()
	s.autoSpawn = enabled
	s.mu.Unlock()
}

// Touch records an access for expiry purposes.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastAccessedAt = time.Now()
	s.mu.Unlock()
}

// LastAccessedAt returns the time of the last recorded access.
func (s *Session) LastAccessedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessedAt
}

// Close stops the runner and returns the final statistics report. The
// session must not be used afterwards.
func (s *Session) Close() *report.Report {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.SetRunning(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	return report.New(s.ID, s.ConfigID, s.CreatedAt, s.world.Ticks(), s.world.Len(), s.collector.Report())
}
