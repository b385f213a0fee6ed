package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/wricardo/smartroad/game/engine"
	"github.com/wricardo/smartroad/game/metrics"
)

var log = logrus.WithField("module", "batch")

// ctx is polled every this many ticks
const checkEvery = 1024

// Options controls one headless run.
type Options struct {
	// Ticks is how many ticks vehicles are spawned for.
	Ticks uint64
	Seed  uint64
	// SpawnEvery spawns one random vehicle every SpawnEvery ticks. Zero
	// derives the pace from the config's spawn and frame intervals.
	SpawnEvery uint64
	// DrainLimit keeps ticking after Ticks, without spawning, until the
	// intersection is empty or this many extra ticks have passed.
	DrainLimit uint64
}

// Result is the outcome of one headless run.
type Result struct {
	ConfigName string         `json:"config_name"`
	Seed       uint64         `json:"seed"`
	Ticks      uint64         `json:"ticks"`
	Active     int            `json:"active"`
	Rejected   int            `json:"rejected"`
	Stats      metrics.Report `json:"stats"`
	// Simulated is the simulated wall time at the configured frame rate.
	Simulated time.Duration `json:"simulated"`
}

// spawnEvery converts the spawn interval to ticks, at least one.
func spawnEvery(cfg *engine.Config, opts Options) uint64 {
	if opts.SpawnEvery > 0 {
		return opts.SpawnEvery
	}
	return uint64(lo.Max([]int{1, cfg.SpawnIntervalMs / cfg.FrameIntervalMs}))
}

// Run simulates cfg without pacing. Trip durations are measured on a
// simulated clock that advances one frame interval per tick, so results
// only depend on cfg and opts.
func Run(ctx context.Context, cfg *engine.Config, opts Options) (*Result, error) {
	if err := engine.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	frame := cfg.FrameInterval()
	now := start
	clock := func() time.Time { return now }

	collector := metrics.NewCollector()
	w, err := engine.NewWorld(cfg,
		engine.WithSeed(opts.Seed),
		engine.WithMetrics(collector),
		engine.WithClock(clock),
	)
	if err != nil {
		return nil, err
	}

	every := spawnEvery(cfg, opts)
	rejected := 0
	tick := func() {
		w.Tick()
		now = now.Add(frame)
	}

	for i := uint64(0); i < opts.Ticks; i++ {
		if i%checkEvery == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if i%every == 0 && !w.SpawnRandom() {
			rejected++
		}
		tick()
	}
	for i := uint64(0); i < opts.DrainLimit && w.Len() > 0; i++ {
		if i%checkEvery == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		tick()
	}

	result := &Result{
		ConfigName: cfg.Name,
		Seed:       opts.Seed,
		Ticks:      w.Ticks(),
		Active:     w.Len(),
		Rejected:   rejected,
		Stats:      collector.Report(),
		Simulated:  now.Sub(start),
	}
	log.Debugf("run %s seed=%d ticks=%d trips=%d active=%d",
		cfg.Name, opts.Seed, result.Ticks, result.Stats.Trips, result.Active)
	return result, nil
}

// RunSeeds runs cfg once per seed on up to workers goroutines. Results
// are returned in seed order. The first error cancels the remaining runs.
func RunSeeds(ctx context.Context, cfg *engine.Config, seeds []uint64, opts Options, workers int) ([]*Result, error) {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*Result, len(seeds))
	jobs := make(chan int)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for n := 0; n < workers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				o := opts
				o.Seed = seeds[i]
				r, err := Run(ctx, cfg, o)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("seed %d: %w", seeds[i], err)
						cancel()
					}
					mu.Unlock()
					continue
				}
				results[i] = r
			}
		}()
	}

feed:
	for i := range seeds {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary aggregates several runs of the same config.
type Summary struct {
	ConfigName string  `json:"config_name"`
	Runs       int     `json:"runs"`
	Vehicles   int     `json:"vehicles"`
	Trips      int     `json:"trips"`
	Rejected   int     `json:"rejected"`
	Stranded   int     `json:"stranded"`
	AvgTrip    float64 `json:"avg_trip"`
	MaxTrip    float64 `json:"max_trip"`
	CloseCalls int     `json:"close_calls"`
	// Throughput is completed trips per simulated minute.
	Throughput float64 `json:"throughput"`
}

// Summarize folds results into one Summary. AvgTrip is weighted by trips.
func Summarize(configName string, results []*Result) Summary {
	s := Summary{ConfigName: configName, Runs: len(results)}
	var tripTotal float64
	var simulated time.Duration
	for _, r := range results {
		s.Vehicles += r.Stats.Vehicles
		s.Trips += r.Stats.Trips
		s.Rejected += r.Rejected
		s.Stranded += r.Active
		s.CloseCalls += r.Stats.CloseCalls
		tripTotal += r.Stats.AvgTrip * float64(r.Stats.Trips)
		s.MaxTrip = lo.Max([]float64{s.MaxTrip, r.Stats.MaxTrip})
		simulated += r.Simulated
	}
	if s.Trips > 0 {
		s.AvgTrip = tripTotal / float64(s.Trips)
	}
	if simulated > 0 {
		s.Throughput = float64(s.Trips) / simulated.Minutes()
	}
	return s
}
