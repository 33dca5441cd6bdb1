// cmd/taskreplay/main.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// taskreplay runs recorded fix traces through the ordered task engine
// and reports what would have been scored: start time, finish, and the
// min/max/nominal task distances.
package main

import (
	"flag"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/soaringlab/glidetask/log"
	"github.com/soaringlab/glidetask/task"
	"github.com/soaringlab/glidetask/taskfile"
	"github.com/soaringlab/glidetask/util"
)

var taskPath = flag.String("task", "", "Task file to replay against")
var logDir = flag.String("logdir", "", "Directory for log files")
var logLevel = flag.String("loglevel", "info", "Logging level: debug, info, warn, error")
var nWorkers = flag.Int("workers", 4, "Number of traces replayed concurrently")

func main() {
	flag.Parse()

	usage := func() {
		fmt.Fprintf(os.Stderr, "usage: taskreplay [flags] trace.csv[.zst]...\nwhere [flags] may be:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *taskPath == "" || flag.NArg() == 0 {
		usage()
	}

	lg := log.New(*logLevel, *logDir)

	master, err := taskfile.Load(*taskPath, task.DefaultTaskBehaviour())
	if err != nil {
		lg.Errorf("%s: %v", *taskPath, err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", *taskPath, err)
		os.Exit(1)
	}
	lg.Info("loaded task", "path", *taskPath, "task", master)

	var mu sync.Mutex // serializes report output

	var eg errgroup.Group
	eg.SetLimit(*nWorkers)
	for _, path := range flag.Args() {
		eg.Go(func() error {
			report, err := replay(master, path, lg)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			mu.Lock()
			defer mu.Unlock()
			fmt.Print(report)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		lg.Errorf("replay: %v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// replay runs one trace through a private clone of the task and formats
// the scoring summary.
func replay(master *task.OrderedTask, path string, lg *log.Logger) (string, error) {
	trace, err := taskfile.LoadTrace(path)
	if err != nil {
		return "", err
	}
	if len(trace) == 0 {
		return fmt.Sprintf("%s: empty trace\n", path), nil
	}

	t := master.Clone(master.GetBehaviour())
	t.Advance().Mode = task.AdvanceAuto

	stream := task.NewEventStream(lg)
	defer stream.Destroy()
	sub := stream.Subscribe()
	last := trace[0]
	now := trace[0]
	t.SetTaskEvents(&task.StreamTaskEvents{
		Stream: stream,
		Clock:  func() float64 { return now.Time },
	})

	for _, state := range trace[1:] {
		now = state
		t.Update(state, last, nil)
		last = state
	}

	stats := t.GetStats()
	report := fmt.Sprintf("%s: %d fixes\n", path, len(trace))
	for _, ev := range sub.Get() {
		report += fmt.Sprintf("  event: %s\n", ev)
	}
	if stats.Start.HasStarted() {
		report += fmt.Sprintf("  started t=%.0f alt=%.0fm gs=%.1fm/s\n",
			stats.Start.Time, stats.Start.Altitude, stats.Start.GroundSpeed)
	} else {
		report += "  not started\n"
	}
	report += fmt.Sprintf("  finished: %s\n", util.Select(stats.TaskFinished, "yes", "no"))
	report += fmt.Sprintf("  distance nominal=%.0fm max=%.0fm remaining=%.0fm travelled=%.0fm\n",
		t.ScanDistanceNominal(), stats.Total.Maximum.Distance,
		stats.Total.Remaining.Distance, stats.Total.Travelled.Distance)
	return report, nil
}
