package harness

import (
	"testing"
)

func TestRunBench(t *testing.T) {
	result, err := RunBench(BenchConfig{Keys: 500})
	if err != nil {
		t.Fatalf("RunBench: %v", err)
	}
	if result.Name != "stripemap" {
		t.Fatalf("Name: got %q", result.Name)
	}
	if result.Keys != 500 {
		t.Fatalf("Keys: got %d, want 500", result.Keys)
	}
	if result.FinalSize != 500 {
		t.Fatalf("FinalSize: got %d, want 500", result.FinalSize)
	}
	if result.FinalCapacity <= 0 {
		t.Fatalf("FinalCapacity: got %d", result.FinalCapacity)
	}
	if result.Stripes < 1 {
		t.Fatalf("Stripes: got %d", result.Stripes)
	}
	if result.WallNanos <= 0 {
		t.Fatalf("WallNanos: got %d", result.WallNanos)
	}
	if result.KeysPerSec <= 0 {
		t.Fatalf("KeysPerSec: got %v", result.KeysPerSec)
	}
	if result.StartedAt.IsZero() {
		t.Fatal("StartedAt is zero")
	}
}

func TestRunBenchTableParams(t *testing.T) {
	result, err := RunBench(BenchConfig{
		Name:          "small",
		Keys:          100,
		Capacity:      7,
		MaxLoadFactor: 0.5,
		GrowthFactor:  2.0,
		LockFactor:    4,
	})
	if err != nil {
		t.Fatalf("RunBench: %v", err)
	}
	if result.Name != "small" {
		t.Fatalf("Name: got %q, want %q", result.Name, "small")
	}
	// 100 keys at load factor 0.5 need at least 200 buckets; growth from 7
	// by doubling lands on 224.
	if result.FinalCapacity < 200 {
		t.Fatalf("FinalCapacity: got %d, want >= 200", result.FinalCapacity)
	}
}

func TestRunBenchRejectsZeroKeys(t *testing.T) {
	if _, err := RunBench(BenchConfig{}); err == nil {
		t.Fatal("expected error for zero keys")
	}
}
