// Command stripestress runs the multithreaded stress workload against one
// shared stripemap table until interrupted, then verifies the table's
// internal consistency with a full chain scan.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/llxisdsh/stripemap/internal/benchcfg"
	"github.com/llxisdsh/stripemap/internal/harness"
)

func main() {
	configPath := flag.String("config", "", "yaml config file")
	workers := flag.Int("workers", 0, "override stress.workers")
	flag.Parse()

	cfg, err := benchcfg.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "stripestress:", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Stress.Workers = *workers
	}

	log := harness.NewLogger(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting stress workers; interrupt to stop",
		"workers", cfg.Stress.Workers,
		"keyspace", cfg.Stress.Keyspace)

	report, err := harness.RunStress(ctx, harness.StressConfig{
		Workers:  cfg.Stress.Workers,
		Keyspace: uint64(cfg.Stress.Keyspace),
		Sleep:    time.Duration(cfg.Stress.SleepMS) * time.Millisecond,
	}, log)
	if err != nil {
		log.Error("integrity check failed", "err", err)
		os.Exit(1)
	}
	log.Info("stress run finished",
		"workers", report.Workers,
		"iterations", report.Iterations,
		"upserts", report.Upserts,
		"erases", report.Erases,
		"final_size", report.FinalSize)
}
