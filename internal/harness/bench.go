// Package harness drives the fixed benchmark workload and the
// multithreaded stress workload against a stripemap.Table. It plays the
// external collaborators the table is designed for, talking to it only
// through the public surface.
package harness

import (
	"errors"
	"fmt"
	"time"

	"github.com/llxisdsh/stripemap"
	"github.com/llxisdsh/stripemap/internal/benchrec"
)

// BenchConfig configures one benchmark run. Zero-valued table parameters
// fall through to the table's own defaults.
type BenchConfig struct {
	Name          string
	Keys          int
	Capacity      int
	MaxLoadFactor float64
	GrowthFactor  float64
	LockFactor    float64
}

// RunBench drives the fixed single-threaded workload: for every key in
// [0, Keys) it verifies the exact size, verifies the key is absent,
// inserts it, updates it through the deferred accessor, reads the update
// back, and round-trips a scratch key through insert and erase. Any
// postcondition failure aborts the run with an error describing the first
// violation. Wall and CPU time cover the whole loop.
func RunBench(cfg BenchConfig) (*benchrec.Result, error) {
	if cfg.Keys <= 0 {
		return nil, errors.New("harness: keys must be positive")
	}

	var opts []func(*stripemap.Config)
	if cfg.Capacity > 0 {
		opts = append(opts, stripemap.WithCapacity(cfg.Capacity))
	}
	if cfg.MaxLoadFactor > 0 {
		opts = append(opts, stripemap.WithMaxLoadFactor(cfg.MaxLoadFactor))
	}
	if cfg.GrowthFactor > 1 {
		opts = append(opts, stripemap.WithGrowthFactor(cfg.GrowthFactor))
	}
	if cfg.LockFactor >= 1 {
		opts = append(opts, stripemap.WithLockFactor(cfg.LockFactor))
	}
	table := stripemap.NewTable[uint64, string](opts...)

	started := time.Now()
	userStart, sysStart := cpuTimes()

	for i := 0; i < cfg.Keys; i++ {
		key := uint64(i)
		if got := table.Size(); got != i {
			return nil, fmt.Errorf("harness: before key %d: size %d, want %d", i, got, i)
		}
		if _, err := table.At(key); !errors.Is(err, stripemap.ErrKeyNotFound) {
			return nil, fmt.Errorf("harness: at(%d) before insert: want ErrKeyNotFound, got %v", i, err)
		}

		table.Insert(key, fmt.Sprintf("val %d", i))
		if got := table.Size(); got != i+1 {
			return nil, fmt.Errorf("harness: after insert %d: size %d, want %d", i, got, i+1)
		}

		table.Index(key).Set(fmt.Sprintf("val_upd %d", i))
		if got := table.Size(); got != i+1 {
			return nil, fmt.Errorf("harness: update of %d changed size to %d", i, got)
		}
		val, err := table.Index(key).Get()
		if err != nil {
			return nil, fmt.Errorf("harness: read back %d: %w", i, err)
		}
		if want := fmt.Sprintf("val_upd %d", i); val != want {
			return nil, fmt.Errorf("harness: read back %d: got %q, want %q", i, val, want)
		}

		// A just-erased key must be gone again and leave the count alone.
		scratch := uint64(i + 1)
		table.Insert(scratch, "dummy")
		table.Erase(scratch)
		if got := table.Size(); got != i+1 {
			return nil, fmt.Errorf("harness: after scratch erase at %d: size %d, want %d", i, got, i+1)
		}
		if _, err := table.At(scratch); !errors.Is(err, stripemap.ErrKeyNotFound) {
			return nil, fmt.Errorf("harness: at(%d) after erase: want ErrKeyNotFound, got %v", scratch, err)
		}
	}

	wall := time.Since(started)
	userEnd, sysEnd := cpuTimes()

	name := cfg.Name
	if name == "" {
		name = "stripemap"
	}
	result := &benchrec.Result{
		Name:           name,
		Keys:           cfg.Keys,
		WallNanos:      wall.Nanoseconds(),
		CPUUserNanos:   (userEnd - userStart).Nanoseconds(),
		CPUSystemNanos: (sysEnd - sysStart).Nanoseconds(),
		FinalSize:      table.Size(),
		FinalCapacity:  table.Capacity(),
		Stripes:        table.Stripes(),
		StartedAt:      started,
	}
	if wall > 0 {
		result.KeysPerSec = float64(cfg.Keys) / wall.Seconds()
	}
	return result, nil
}
