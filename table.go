package stripemap

import (
	"hash/maphash"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Default construction parameters. They reproduce the behavior of a small
// chaining table that doubles whenever half of its slots worth of entries
// are live, with one stripe lock per hardware thread worth of entries.
const (
	// DefaultCapacity is the initial bucket count when WithCapacity is not given.
	DefaultCapacity = 31
	// DefaultMaxLoadFactor is the size/capacity ratio that triggers a resize.
	DefaultMaxLoadFactor = 0.5
	// DefaultGrowthFactor is the capacity multiplier applied on resize.
	DefaultGrowthFactor = 2.0
)

// HashFunc hashes a key with a per-table seed. Its shape matches
// maphash.Comparable so the built-in hasher can be injected directly.
// A table requires the function to be total and deterministic for K;
// a poorly distributed hash only lengthens chains, it cannot break
// correctness.
type HashFunc[K comparable] func(seed maphash.Seed, key K) uint64

// Table is a concurrent hash table with chained buckets, guarded by a
// two-level reader/writer locking protocol:
//
//   - A single global coordination lock protects the structural state: the
//     bucket-array reference, the capacity, and the stripe-pool membership.
//     Every operation holds it in shared mode just long enough to take a
//     consistent (bucket array, stripe pool) snapshot and pin the stripe
//     lock for its bucket; structural changes (resize, stripe-pool growth,
//     Clear) hold it exclusively.
//   - A growable pool of stripe locks guards the bucket chains. Bucket i is
//     guarded by stripe i mod pool-length, shared mode for lookups and
//     exclusive mode for mutation, so only operations hashing to the same
//     stripe contend once the snapshot is taken.
//
// The bucket array is replaced wholesale when the load factor exceeds the
// configured maximum; entries are recreated in the new array so no chain
// ever spans two arrays. The stripe pool grows by one lock whenever the
// ratio of live entries to stripes crosses the lock factor. Neither the
// bucket array nor the stripe pool ever shrinks; Clear drops every entry
// but keeps both intact.
//
// A Table must be created with NewTable or NewTableWithHasher and must not
// be copied after first use.
type Table[K comparable, V any] struct {
	mu      sync.RWMutex // global coordination lock
	buckets []*entryOf[K, V]
	stripes []*stripeLock // pointer elements: append must not move a held lock

	// size and capacity have atomic reads outside the locks, so writes
	// inside the locks stay atomic as well.
	size         atomic.Int64
	capacity     atomic.Int64
	totalGrowths atomic.Uint32

	seed    maphash.Seed
	keyHash HashFunc[K]

	maxLoadFactor float64
	growthFactor  float64
	lockFactor    float64
}

// entryOf is a single key/value record. The chain head is owned by its
// bucket slot; every other entry is owned by its predecessor's next link.
type entryOf[K comparable, V any] struct {
	key   K
	value V
	next  *entryOf[K, V]
}

// stripeLock is one reader/writer lock of the stripe pool, padded out to a
// cache line so neighboring stripes do not false-share.
type stripeLock struct {
	sync.RWMutex

	//lint:ignore U1000 prevents false sharing
	pad [(CacheLineSize - unsafe.Sizeof(sync.RWMutex{})%CacheLineSize) % CacheLineSize]byte
}

// Config defines configurable Table options.
type Config struct {
	capacity      int
	maxLoadFactor float64
	growthFactor  float64
	lockFactor    float64
}

// WithCapacity sets the initial bucket count. Non-positive values are
// ignored. Capacity only ever grows from here; there is no shrinking.
func WithCapacity(capacity int) func(*Config) {
	return func(c *Config) {
		if capacity > 0 {
			c.capacity = capacity
		}
	}
}

// WithMaxLoadFactor sets the size/capacity ratio above which an insert
// resizes the table first. Non-positive values are ignored.
func WithMaxLoadFactor(f float64) func(*Config) {
	return func(c *Config) {
		if f > 0 {
			c.maxLoadFactor = f
		}
	}
}

// WithGrowthFactor sets the capacity multiplier used on resize. Values not
// greater than 1 are ignored, since the table never shrinks.
func WithGrowthFactor(f float64) func(*Config) {
	return func(c *Config) {
		if f > 1 {
			c.growthFactor = f
		}
	}
}

// WithLockFactor sets the target number of live entries per stripe lock.
// The pool grows by one stripe whenever size/lockFactor reaches the pool
// length. Values below 1 are ignored. Defaults to runtime.GOMAXPROCS(0).
func WithLockFactor(f float64) func(*Config) {
	return func(c *Config) {
		if f >= 1 {
			c.lockFactor = f
		}
	}
}

// NewTable creates a Table using the built-in maphash-based hasher.
func NewTable[K comparable, V any](options ...func(*Config)) *Table[K, V] {
	return NewTableWithHasher[K, V](nil, options...)
}

// NewTableWithHasher creates a Table with a custom key hasher. A nil
// keyHash selects maphash.Comparable. The hasher must be deterministic for
// the lifetime of the table; the seed passed to it is fixed at creation.
func NewTableWithHasher[K comparable, V any](
	keyHash HashFunc[K],
	options ...func(*Config),
) *Table[K, V] {
	c := Config{
		capacity:      DefaultCapacity,
		maxLoadFactor: DefaultMaxLoadFactor,
		growthFactor:  DefaultGrowthFactor,
		lockFactor:    float64(runtime.GOMAXPROCS(0)),
	}
	for _, opt := range options {
		opt(&c)
	}
	if keyHash == nil {
		keyHash = maphash.Comparable[K]
	}

	t := &Table[K, V]{
		buckets:       make([]*entryOf[K, V], c.capacity),
		stripes:       []*stripeLock{new(stripeLock)},
		seed:          maphash.MakeSeed(),
		keyHash:       keyHash,
		maxLoadFactor: c.maxLoadFactor,
		growthFactor:  c.growthFactor,
		lockFactor:    c.lockFactor,
	}
	t.capacity.Store(int64(c.capacity))
	return t
}

// Size returns the number of live entries.
func (t *Table[K, V]) Size() int {
	return int(t.size.Load())
}

// Capacity returns the current bucket count.
func (t *Table[K, V]) Capacity() int {
	return int(t.capacity.Load())
}

// Stripes returns the current stripe-pool length. The pool only grows.
func (t *Table[K, V]) Stripes() int {
	t.mu.RLock()
	n := len(t.stripes)
	t.mu.RUnlock()
	return n
}

// lockShared pins the bucket for key under its stripe lock in shared mode.
// The global lock is held only long enough to snapshot the bucket array and
// stripe pool; the stripe lock is acquired before the global lock is
// released, so the computed index cannot go stale in between.
func (t *Table[K, V]) lockShared(key K) (buckets []*entryOf[K, V], idx uint64, stripe *stripeLock) {
	t.mu.RLock()
	buckets = t.buckets
	idx = t.keyHash(t.seed, key) % uint64(len(buckets))
	stripe = t.stripes[idx%uint64(len(t.stripes))]
	stripe.RLock()
	t.mu.RUnlock()
	return
}

// lockExclusive is lockShared with the stripe taken in exclusive mode.
func (t *Table[K, V]) lockExclusive(key K) (buckets []*entryOf[K, V], idx uint64, stripe *stripeLock) {
	t.mu.RLock()
	buckets = t.buckets
	idx = t.keyHash(t.seed, key) % uint64(len(buckets))
	stripe = t.stripes[idx%uint64(len(t.stripes))]
	stripe.Lock()
	t.mu.RUnlock()
	return
}

// findEntry walks the chain rooted at head looking for key. It returns the
// matching entry and its predecessor (nil when the match is the chain
// head), or nil, nil when the key is absent. The caller must hold the
// stripe lock guarding the chain; findEntry performs no locking itself.
func findEntry[K comparable, V any](head *entryOf[K, V], key K) (e, prev *entryOf[K, V]) {
	for e = head; e != nil; e = e.next {
		if e.key == key {
			return e, prev
		}
		prev = e
	}
	return nil, nil
}

// Contains reports whether a live entry exists for key.
func (t *Table[K, V]) Contains(key K) bool {
	buckets, idx, stripe := t.lockShared(key)
	e, _ := findEntry(buckets[idx], key)
	stripe.RUnlock()
	return e != nil
}

// At returns the value stored for key, or ErrKeyNotFound.
func (t *Table[K, V]) At(key K) (V, error) {
	buckets, idx, stripe := t.lockShared(key)
	e, _ := findEntry(buckets[idx], key)
	if e == nil {
		stripe.RUnlock()
		var zero V
		return zero, ErrKeyNotFound
	}
	// Copy while the stripe is still held: Insert mutates e.value in place
	// under the exclusive lock, so the entry must not be read after the
	// release.
	val := e.value
	stripe.RUnlock()
	return val, nil
}

// Insert stores value for key, replacing any previous value. It resizes
// the table first when the load factor is exceeded, and may grow the
// stripe pool after inserting a new key.
func (t *Table[K, V]) Insert(key K, value V) {
	t.maybeResize()

	buckets, idx, stripe := t.lockExclusive(key)
	if e, _ := findEntry(buckets[idx], key); e != nil {
		e.value = value
		stripe.Unlock()
		return
	}
	buckets[idx] = &entryOf[K, V]{key: key, value: value, next: buckets[idx]}
	t.size.Add(1)
	stripe.Unlock()

	// The stripe is released before the pool check: growing the pool takes
	// the global lock exclusively and drains every stripe.
	t.maybeGrowStripes()
}

// Erase removes the entry for key. It is a no-op when the key is absent.
func (t *Table[K, V]) Erase(key K) {
	buckets, idx, stripe := t.lockExclusive(key)
	defer stripe.Unlock()

	e, prev := findEntry(buckets[idx], key)
	if e == nil {
		return
	}
	if prev == nil {
		buckets[idx] = e.next
	} else {
		prev.next = e.next
	}
	e.next = nil
	t.size.Add(-1)
}

// Clear removes every entry across the whole bucket array and resets the
// size to zero. The capacity and the stripe pool are left unchanged.
func (t *Table[K, V]) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	locked := t.lockAllStripes()
	defer unlockAllStripes(locked)

	// Every capacity slot, not just size of them: the live count says
	// nothing about which slots are occupied once anything was erased.
	for i := range t.buckets {
		t.buckets[i] = nil
	}
	t.size.Store(0)
}

// Range calls fn for every entry until fn returns false. The order is
// unspecified. Range holds the global lock in shared mode for its whole
// duration and each bucket's stripe lock while walking its chain, so fn
// must not call any method of the table and should be short.
//
// Range does not represent a consistent point-in-time snapshot: entries in
// buckets not yet visited may be mutated concurrently by other writers.
func (t *Table[K, V]) Range(fn func(key K, value V) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := range t.buckets {
		stripe := t.stripes[uint64(i)%uint64(len(t.stripes))]
		stripe.RLock()
		for e := t.buckets[i]; e != nil; e = e.next {
			if !fn(e.key, e.value) {
				stripe.RUnlock()
				return
			}
		}
		stripe.RUnlock()
	}
}

// Ref is a deferred accessor bound to one table and key, standing in for
// the index operator of associative containers: Get performs At and Set
// performs Insert at the time of the call, not at the time Index was
// called.
type Ref[K comparable, V any] struct {
	table *Table[K, V]
	key   K
}

// Index returns a deferred accessor for key. The returned Ref stays valid
// for the lifetime of the table and may be used from multiple goroutines.
func (t *Table[K, V]) Index(key K) Ref[K, V] {
	return Ref[K, V]{table: t, key: key}
}

// Get reads the current value for the bound key, or ErrKeyNotFound.
func (r Ref[K, V]) Get() (V, error) {
	return r.table.At(r.key)
}

// Set upserts the bound key with value.
func (r Ref[K, V]) Set(value V) {
	r.table.Insert(r.key, value)
}
