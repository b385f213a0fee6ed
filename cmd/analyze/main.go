// Command analyze compares tuning presets by simulating each of them
// headlessly over several seeds and printing throughput, trip times,
// stranded vehicles and close calls side by side.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/smartroad/game/batch"
	"github.com/wricardo/smartroad/game/config"
	"github.com/wricardo/smartroad/game/service"
)

var log = logrus.WithField("module", "analyze")

// analysisOptions selects what gets simulated.
type analysisOptions struct {
	ConfigDir string
	Only      []string
	Seeds     int
	Ticks     uint64
	Drain     uint64
	Workers   int
}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "simulate every preset headlessly and compare the results",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing tuning presets", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringSliceFlag{Name: "only", Usage: "restrict to these preset ids"},
			&cli.IntFlag{Name: "seeds", Value: 8, Usage: "runs per preset, seeded 1..N"},
			&cli.Uint64Flag{Name: "ticks", Value: 6000, Usage: "ticks with spawning per run"},
			&cli.Uint64Flag{Name: "drain", Value: 3000, Usage: "extra ticks to let the intersection empty"},
			&cli.IntFlag{Name: "workers", Value: runtime.NumCPU(), Usage: "parallel runs"},
			&cli.BoolFlag{Name: "json", Usage: "print summaries as JSON"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := analysisOptions{
				ConfigDir: cmd.String("config-dir"),
				Only:      cmd.StringSlice("only"),
				Seeds:     cmd.Int("seeds"),
				Ticks:     cmd.Uint64("ticks"),
				Drain:     cmd.Uint64("drain"),
				Workers:   cmd.Int("workers"),
			}
			summaries, err := analyze(ctx, opts)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(summaries)
			}
			printSummaries(os.Stdout, summaries)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// analyze runs every selected preset and returns one summary per preset,
// ordered by preset id.
func analyze(ctx context.Context, opts analysisOptions) ([]batch.Summary, error) {
	manager, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, err
	}
	infos, err := manager.ListConfigs()
	if err != nil {
		return nil, err
	}
	if len(opts.Only) > 0 {
		infos = lo.Filter(infos, func(info *service.ConfigInfo, _ int) bool {
			return lo.Contains(opts.Only, info.ConfigID)
		})
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("no presets to analyze in %s", opts.ConfigDir)
	}

	seeds := make([]uint64, opts.Seeds)
	for i := range seeds {
		seeds[i] = uint64(i + 1)
	}

	summaries := make([]batch.Summary, 0, len(infos))
	for _, info := range infos {
		cfg, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			return nil, err
		}

		log.Infof("analyzing %s (%d seeds x %d ticks)", info.ConfigID, len(seeds), opts.Ticks)
		results, err := batch.RunSeeds(ctx, cfg, seeds, batch.Options{Ticks: opts.Ticks, DrainLimit: opts.Drain}, opts.Workers)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", info.ConfigID, err)
		}
		summaries = append(summaries, batch.Summarize(info.ConfigID, results))
	}
	return summaries, nil
}

func printSummaries(w io.Writer, summaries []batch.Summary) {
	fmt.Fprintf(w, "%-14s %5s %9s %7s %8s %9s %8s %8s %11s\n",
		"preset", "runs", "vehicles", "trips", "rejected", "stranded", "avg(s)", "max(s)", "trips/min")
	for _, s := range summaries {
		fmt.Fprintf(w, "%-14s %5d %9d %7d %8d %9d %8.2f %8.2f %11.1f\n",
			s.ConfigName, s.Runs, s.Vehicles, s.Trips, s.Rejected, s.Stranded, s.AvgTrip, s.MaxTrip, s.Throughput)
	}

	for _, s := range summaries {
		if s.Stranded > 0 {
			fmt.Fprintf(w, "⚠️  %s: %d vehicles still inside after draining\n", s.ConfigName, s.Stranded)
		}
	}
}
