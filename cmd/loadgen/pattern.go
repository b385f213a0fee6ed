package main

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/samber/lo"
	"github.com/wricardo/smartroad/game/engine"
	"github.com/wricardo/smartroad/game/service"
)

// Pattern decides what, if anything, to spawn before each step.
type Pattern interface {
	Next(tick uint64, rng *rand.Rand) (service.SpawnRequest, bool)
}

// uniform spawns a random code every interval ticks
type uniform struct {
	every uint64
}

func (p uniform) Next(tick uint64, rng *rand.Rand) (service.SpawnRequest, bool) {
	if tick%p.every != 0 {
		return service.SpawnRequest{}, false
	}
	code := engine.AllBehaviors[rng.IntN(len(engine.AllBehaviors))]
	return service.SpawnRequest{Behavior: code.String()}, true
}

// rush sends most traffic in from one side, the rest uniformly
type rush struct {
	every    uint64
	approach string
	share    float64
}

func (p rush) Next(tick uint64, rng *rand.Rand) (service.SpawnRequest, bool) {
	if tick%p.every != 0 {
		return service.SpawnRequest{}, false
	}
	if rng.Float64() < p.share {
		return service.SpawnRequest{Approach: p.approach}, true
	}
	return uniform{every: p.every}.Next(tick, rng)
}

// waves alternates bursts of back-to-back spawns with quiet periods
type waves struct {
	burst  uint64
	period uint64
}

func (p waves) Next(tick uint64, rng *rand.Rand) (service.SpawnRequest, bool) {
	if tick%p.period >= p.burst {
		return service.SpawnRequest{}, false
	}
	return uniform{every: 1}.Next(tick, rng)
}

var patterns = map[string]func(every uint64) Pattern{
	"uniform": func(every uint64) Pattern { return uniform{every: every} },
	"rush": func(every uint64) Pattern {
		return rush{every: every, approach: "east", share: 0.7}
	},
	"waves": func(every uint64) Pattern {
		return waves{burst: 5 * every, period: 40 * every}
	},
}

func patternNames() []string {
	names := lo.Keys(patterns)
	sort.Strings(names)
	return names
}

// newPattern looks up a pattern by name. every must be positive.
func newPattern(name string, every uint64) (Pattern, error) {
	build, ok := patterns[name]
	if !ok {
		return nil, fmt.Errorf("unknown pattern %q (want one of %v)", name, patternNames())
	}
	if every == 0 {
		return nil, fmt.Errorf("spawn interval must be positive")
	}
	return build(every), nil
}
