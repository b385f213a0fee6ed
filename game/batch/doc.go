// Package batch runs simulations headlessly, as fast as the CPU allows.
//
// A run spawns one random vehicle every few ticks for a fixed number of
// ticks and optionally drains the intersection afterwards. Time is
// simulated, so a run is fully determined by its config and seed:
//
//	res, err := batch.Run(ctx, cfg, batch.Options{Ticks: 10000, Seed: 1, DrainLimit: 2000})
//
// RunSeeds fans several seeds out over a fixed pool of workers and
// Summarize folds their results for comparison across presets.
package batch
