// Command loadgen drives a running smartroad server through its REST API.
//
// It opens several sessions at once, feeds each one vehicles following a
// traffic pattern while stepping it manually, then closes the sessions and
// prints the archived statistics the server returns.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/smartroad/game/report"
)

var log = logrus.WithField("module", "loadgen")

// driveOptions configures one load run
type driveOptions struct {
	ConfigID   string
	Sessions   int
	Ticks      uint64
	StepSize   int
	SpawnEvery uint64
	Pattern    string
	Seed       uint64
}

// sessionResult is what one driven session produced
type sessionResult struct {
	SessionID string
	Spawned   int
	Rejected  int
	Report    *report.Report
	Elapsed   time.Duration
}

func main() {
	cmd := &cli.Command{
		Name:  "loadgen",
		Usage: "drive simulation sessions through the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "server URL", Sources: cli.EnvVars("SMARTROAD_API_URL")},
			&cli.StringFlag{Name: "config", Usage: "preset id (server default when empty)"},
			&cli.IntFlag{Name: "sessions", Value: 4, Usage: "concurrent sessions"},
			&cli.Uint64Flag{Name: "ticks", Value: 3000, Usage: "ticks to drive each session"},
			&cli.IntFlag{Name: "step", Value: 6, Usage: "ticks per step request"},
			&cli.Uint64Flag{Name: "spawn-every", Value: 6, Usage: "ticks between spawn attempts"},
			&cli.StringFlag{Name: "pattern", Value: "uniform", Usage: fmt.Sprintf("traffic pattern %v", patternNames())},
			&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "seed for the first session; later sessions add their index"},
			&cli.BoolFlag{Name: "v", Usage: "verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("v") {
				logrus.SetLevel(logrus.DebugLevel)
			}
			log.Infof("Connecting to simulation server at %s", cmd.String("url"))

			results, err := drive(ctx, cmd.String("url"), driveOptions{
				ConfigID:   cmd.String("config"),
				Sessions:   cmd.Int("sessions"),
				Ticks:      cmd.Uint64("ticks"),
				StepSize:   cmd.Int("step"),
				SpawnEvery: cmd.Uint64("spawn-every"),
				Pattern:    cmd.String("pattern"),
				Seed:       cmd.Uint64("seed"),
			})
			if err != nil {
				return err
			}
			printResults(os.Stdout, results)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// drive runs opts.Sessions sessions concurrently. The first failure cancels
// the rest and is returned.
func drive(ctx context.Context, baseURL string, opts driveOptions) ([]*sessionResult, error) {
	if opts.Sessions < 1 {
		return nil, fmt.Errorf("sessions must be at least 1")
	}
	if opts.StepSize < 1 {
		return nil, fmt.Errorf("step must be at least 1")
	}
	if _, err := newPattern(opts.Pattern, opts.SpawnEvery); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*sessionResult, opts.Sessions)
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for i := 0; i < opts.Sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := driveSession(ctx, NewClient(baseURL), opts, opts.Seed+uint64(i))
			if err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

func driveSession(ctx context.Context, client *Client, opts driveOptions, seed uint64) (*sessionResult, error) {
	pattern, err := newPattern(opts.Pattern, opts.SpawnEvery)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	info, err := client.CreateSession(ctx, opts.ConfigID, seed)
	if err != nil {
		return nil, err
	}
	log.Infof("Session created: %s (config %s, seed %d)", info.ID, info.ConfigID, seed)

	start := time.Now()
	res := &sessionResult{SessionID: info.ID}
	for tick := uint64(0); tick < opts.Ticks; tick += uint64(opts.StepSize) {
		for t := tick; t < tick+uint64(opts.StepSize) && t < opts.Ticks; t++ {
			req, ok := pattern.Next(t, rng)
			if !ok {
				continue
			}
			spawn, err := client.Spawn(ctx, req)
			if err != nil {
				return nil, err
			}
			if spawn.Accepted {
				res.Spawned++
			} else {
				res.Rejected++
			}
		}

		step, err := client.Step(ctx, opts.StepSize)
		if err != nil {
			return nil, err
		}
		if step.Snapshot.Tick%600 == 0 {
			log.Debugf("Session %s: tick %d, %d active, %d trips",
				info.ID, step.Snapshot.Tick, step.Snapshot.Active, step.Metrics.Trips)
		}
	}

	if res.Report, err = client.Close(ctx); err != nil {
		return nil, err
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

func printResults(w io.Writer, results []*sessionResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tTICKS\tSPAWNED\tREJECTED\tTRIPS\tACTIVE\tAVG TRIP\tCLOSE CALLS\tELAPSED")
	for _, r := range results {
		stats := r.Report.Stats
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%.2fs\t%d\t%s\n",
			r.SessionID, r.Report.Ticks, r.Spawned, r.Rejected, stats.Trips,
			r.Report.Active, stats.AvgTrip, stats.CloseCalls, r.Elapsed.Round(time.Millisecond))
	}
	tw.Flush()
}
