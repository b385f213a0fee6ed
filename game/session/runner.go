package session

import (
	"context"
	"time"

	"github.com/wricardo/smartroad/game/engine"
)

// SetRunning starts or stops the frame loop. Starting a running session or
// stopping a stopped one is a no-op. Stop waits for the loop to exit, so no
// tick happens after SetRunning(false) returns.
func (s *Session) SetRunning(running bool) {
	s.mu.Lock()
	if running {
		if s.cancel != nil || s.closed {
			s.mu.Unlock()
			return
		}
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.done = make(chan struct{})
		done := s.done
		s.mu.Unlock()

		go s.run(ctx, done)
		log.Debugf("session %s running", s.ID)
		return
	}

	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
		log.Debugf("session %s paused", s.ID)
	}
}

// Running reports whether the frame loop is alive.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// run ticks the world once per frame interval and, while auto-spawn is on,
// spawns a random vehicle once per spawn interval. Cancellation is only
// observed between ticks.
func (s *Session) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	frames := time.NewTicker(s.Config.FrameInterval())
	defer frames.Stop()
	spawns := time.NewTicker(s.Config.SpawnInterval())
	defer spawns.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-spawns.C:
			s.mu.Lock()
			if s.autoSpawn {
				s.world.SpawnRandom()
			}
			s.mu.Unlock()

		case <-frames.C:
			var snap engine.Snapshot
			s.mu.Lock()
			s.world.Tick()
			onFrame := s.onFrame
			if onFrame != nil {
				snap = s.world.Snapshot()
			}
			s.mu.Unlock()

			if onFrame != nil {
				onFrame(s.ID, snap)
			}
		}
	}
}
