package stripemap

import "math"

// maybeResize grows the bucket array when the load factor exceeds the
// configured maximum. Called at the top of Insert, before the insert takes
// any lock of its own.
func (t *Table[K, V]) maybeResize() {
	if float64(t.size.Load())/float64(t.capacity.Load()) <= t.maxLoadFactor {
		return
	}
	t.resize()
}

// resize replaces the bucket array with one growthFactor times larger and
// migrates every live entry into it. The whole operation runs under the
// exclusive global lock, and every stripe lock is additionally acquired
// before any state changes: holding the global lock exclusively keeps new
// operations from taking their snapshot, while the stripe drain waits out
// operations that took their stripe before the resize began. No caller can
// observe a half-migrated array.
func (t *Table[K, V]) resize() {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Recheck under the lock; a concurrent insert may have resized already.
	capacity := len(t.buckets)
	if float64(t.size.Load())/float64(capacity) <= t.maxLoadFactor {
		return
	}

	newCapacity := int(math.Round(float64(capacity) * t.growthFactor))
	if newCapacity <= capacity {
		newCapacity = capacity + 1
	}

	// The new array is fully allocated before any existing state is
	// touched, so an allocation abort leaves the table unchanged.
	newBuckets := make([]*entryOf[K, V], newCapacity)

	locked := t.lockAllStripes()
	defer unlockAllStripes(locked)

	oldBuckets := t.buckets
	t.buckets = newBuckets
	t.capacity.Store(int64(newCapacity))
	t.size.Store(0) // rebuilt by migration below

	for _, head := range oldBuckets {
		for e := head; e != nil; e = e.next {
			t.insertUnlocked(e.key, e.value)
		}
	}
	t.totalGrowths.Add(1)
}

// insertUnlocked upserts into the currently installed bucket array without
// taking any lock. It exists solely for migration: only callers already
// holding the global lock exclusively may use it, which is what makes the
// re-entrant insert during resize safe without any in-progress flag.
// Migrated entries are allocated fresh rather than relinked, so no chain
// ever spans the old and the new array.
func (t *Table[K, V]) insertUnlocked(key K, value V) {
	idx := t.keyHash(t.seed, key) % uint64(len(t.buckets))
	if e, _ := findEntry(t.buckets[idx], key); e != nil {
		e.value = value
		return
	}
	t.buckets[idx] = &entryOf[K, V]{key: key, value: value, next: t.buckets[idx]}
	t.size.Add(1)
}

// maybeGrowStripes appends one stripe lock to the pool when the ratio of
// live entries to stripes has reached the lock factor. Called after a
// new-key insert, with no stripe lock held. The pool never shrinks.
//
// Migration does not call this: ordinary inserts keep size/lockFactor
// below the pool length, and a resize only rebuilds size back up to its
// pre-resize value, so the threshold cannot newly trip there.
func (t *Table[K, V]) maybeGrowStripes() {
	t.mu.RLock()
	needed := float64(t.size.Load())/t.lockFactor >= float64(len(t.stripes))
	t.mu.RUnlock()
	if !needed {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if float64(t.size.Load())/t.lockFactor < float64(len(t.stripes)) {
		return
	}

	// Drain in-flight chain operations: once a new stripe is appended, the
	// bucket-to-stripe mapping changes, and an operation still holding a
	// stripe under the old mapping must not overlap one using the new.
	locked := t.lockAllStripes()
	t.stripes = append(t.stripes, new(stripeLock))
	unlockAllStripes(locked)
}

// lockAllStripes acquires every stripe lock in pool order and returns the
// locked stripes for the matching unlock. The caller must hold the global
// lock exclusively, which both freezes the pool membership and guarantees
// at most one drainer at a time.
func (t *Table[K, V]) lockAllStripes() []*stripeLock {
	locked := t.stripes
	for _, s := range locked {
		s.Lock()
	}
	return locked
}

func unlockAllStripes(locked []*stripeLock) {
	for _, s := range locked {
		s.Unlock()
	}
}
