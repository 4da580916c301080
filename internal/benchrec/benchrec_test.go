package benchrec

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/sugawarayuuta/sonnet"
)

func sampleResult(name string) Result {
	return Result{
		Name:           name,
		Keys:           50000,
		WallNanos:      123456789,
		CPUUserNanos:   100000000,
		CPUSystemNanos: 2000000,
		KeysPerSec:     405000.5,
		FinalSize:      50000,
		FinalCapacity:  126976,
		Stripes:        3125,
		StartedAt:      time.Date(2026, 8, 23, 10, 30, 0, 500, time.UTC),
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	want := sampleResult("json")
	if err := WriteJSON(&buf, []Result{want}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var got []Result
	if err := sonnet.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].Name != want.Name || got[0].WallNanos != want.WallNanos ||
		got[0].KeysPerSec != want.KeysPerSec || !got[0].StartedAt.Equal(want.StartedAt) {
		t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", got[0], want)
	}
}

func TestStoreRecordAndRuns(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	first := sampleResult("bench")
	second := sampleResult("bench")
	second.WallNanos = 987654321
	other := sampleResult("other")

	for _, r := range []Result{first, second, other} {
		if err := store.Record(&r); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	runs, err := store.Runs("bench")
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].WallNanos != first.WallNanos || runs[1].WallNanos != second.WallNanos {
		t.Fatalf("runs out of order: %d, %d", runs[0].WallNanos, runs[1].WallNanos)
	}
	if runs[0].FinalCapacity != first.FinalCapacity || runs[0].Stripes != first.Stripes {
		t.Fatalf("row mismatch: %+v", runs[0])
	}
	if !runs[0].StartedAt.Equal(first.StartedAt) {
		t.Fatalf("StartedAt: got %v, want %v", runs[0].StartedAt, first.StartedAt)
	}

	none, err := store.Runs("absent")
	if err != nil {
		t.Fatalf("Runs(absent): %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("got %d runs for absent name", len(none))
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	r := sampleResult("x")
	if err := store.Record(&r); err != nil {
		t.Fatalf("Record: %v", err)
	}
	store.Close()

	// Reopening an existing database must keep the recorded rows.
	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	runs, err := store.Runs("x")
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs after reopen, want 1", len(runs))
	}
}
