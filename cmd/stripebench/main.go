// Command stripebench drives the fixed benchmark workload against a
// stripemap table and records the results as JSON and, optionally, as a
// row in a sqlite database.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/llxisdsh/stripemap/internal/benchcfg"
	"github.com/llxisdsh/stripemap/internal/benchrec"
	"github.com/llxisdsh/stripemap/internal/harness"
)

func main() {
	configPath := flag.String("config", "", "yaml config file")
	keys := flag.Int("keys", 0, "override bench.keys")
	out := flag.String("out", "", `JSON output path, "-" for stdout (overrides record.json_path)`)
	db := flag.String("db", "", "sqlite database path (overrides record.sqlite_path)")
	flag.Parse()

	cfg, err := benchcfg.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "stripebench:", err)
		os.Exit(1)
	}
	if *keys > 0 {
		cfg.Bench.Keys = *keys
	}
	if *out != "" {
		cfg.Record.JSONPath = *out
	}
	if *db != "" {
		cfg.Record.SQLitePath = *db
	}

	log := harness.NewLogger(cfg.Log.Level, cfg.Log.Format)

	log.Info("starting benchmark", "keys", cfg.Bench.Keys, "capacity", cfg.Bench.Capacity)
	result, err := harness.RunBench(harness.BenchConfig{
		Name:          "stripemap",
		Keys:          cfg.Bench.Keys,
		Capacity:      cfg.Bench.Capacity,
		MaxLoadFactor: cfg.Bench.MaxLoadFactor,
		GrowthFactor:  cfg.Bench.GrowthFactor,
		LockFactor:    cfg.Bench.LockFactor,
	})
	if err != nil {
		log.Error("benchmark failed", "err", err)
		os.Exit(1)
	}
	log.Info("benchmark finished",
		"wall_ms", result.WallNanos/1e6,
		"cpu_user_ms", result.CPUUserNanos/1e6,
		"cpu_sys_ms", result.CPUSystemNanos/1e6,
		"keys_per_sec", int64(result.KeysPerSec),
		"final_capacity", result.FinalCapacity,
		"stripes", result.Stripes)

	if path := cfg.Record.JSONPath; path != "" {
		if err := writeJSON(path, result); err != nil {
			log.Error("writing JSON result failed", "path", path, "err", err)
			os.Exit(1)
		}
	}
	if path := cfg.Record.SQLitePath; path != "" {
		if err := record(path, result); err != nil {
			log.Error("recording run failed", "db", path, "err", err)
			os.Exit(1)
		}
		log.Info("recorded run", "db", path)
	}
}

func writeJSON(path string, result *benchrec.Result) error {
	w := os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return benchrec.WriteJSON(w, []benchrec.Result{*result})
}

func record(path string, result *benchrec.Result) error {
	store, err := benchrec.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Record(result)
}
