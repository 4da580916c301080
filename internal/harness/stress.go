package harness

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/llxisdsh/stripemap"
	"github.com/llxisdsh/stripemap/internal/benchcfg"
)

// defaultKeyspace matches the config default: twice the benchmark key
// count, so roughly half of the random keys hit live entries.
const defaultKeyspace = 2 * benchcfg.DefaultKeys

// StressConfig configures the multithreaded stress workload.
type StressConfig struct {
	// Workers is the number of concurrent workers; zero means one per
	// available hardware thread.
	Workers int
	// Keyspace bounds the random keys: every worker picks from
	// [0, Keyspace). Half of it is pre-filled before the workers start.
	Keyspace uint64
	// Sleep is the pause between iterations of one worker.
	Sleep time.Duration
}

// StressReport summarizes a stress run.
type StressReport struct {
	Workers    int
	Iterations uint64
	Upserts    uint64
	Erases     uint64
	FinalSize  int
	Scanned    int
}

// RunStress hammers one shared table from many workers until ctx is
// cancelled. Each iteration picks a pseudo-random key and, with even odds,
// either upserts it (appending an "_upd" suffix when the key is live,
// inserting fresh otherwise) or erases it. The workload asserts no final
// state; what it checks is that the table stays internally consistent: a
// post-run scan of every chain must agree with the size counter and find
// no duplicate or out-of-range keys.
func RunStress(ctx context.Context, cfg StressConfig, log *slog.Logger) (*StressReport, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	keyspace := cfg.Keyspace
	if keyspace == 0 {
		keyspace = defaultKeyspace
	}

	table := stripemap.NewTable[uint64, string]()
	for i := uint64(0); i < keyspace/2; i++ {
		table.Insert(i, fmt.Sprintf("val %d", i))
	}

	var iterations, upserts, erases atomic.Uint64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(uint64(id), uint64(time.Now().UnixNano())))
			log.Debug("worker started", "worker", id)
			for ctx.Err() == nil {
				key := rng.Uint64N(keyspace)
				if rng.IntN(2) == 0 {
					if val, err := table.At(key); err == nil {
						table.Index(key).Set(val + "_upd")
					} else {
						table.Insert(key, fmt.Sprintf("%d", key))
					}
					upserts.Add(1)
				} else {
					table.Erase(key)
					erases.Add(1)
				}
				iterations.Add(1)
				if cfg.Sleep > 0 {
					time.Sleep(cfg.Sleep)
				}
			}
			log.Debug("worker stopped", "worker", id)
		}(w)
	}
	wg.Wait()

	report := &StressReport{
		Workers:    workers,
		Iterations: iterations.Load(),
		Upserts:    upserts.Load(),
		Erases:     erases.Load(),
		FinalSize:  table.Size(),
	}

	var scanErr error
	seen := make(map[uint64]struct{}, table.Size())
	table.Range(func(key uint64, _ string) bool {
		if key >= keyspace {
			scanErr = fmt.Errorf("harness: integrity: key %d outside keyspace %d", key, keyspace)
			return false
		}
		if _, dup := seen[key]; dup {
			scanErr = fmt.Errorf("harness: integrity: key %d reachable twice", key)
			return false
		}
		seen[key] = struct{}{}
		return true
	})
	report.Scanned = len(seen)
	if scanErr != nil {
		return report, scanErr
	}
	if report.Scanned != report.FinalSize {
		return report, fmt.Errorf("harness: integrity: %d entries reachable, size reports %d",
			report.Scanned, report.FinalSize)
	}
	return report, nil
}
