//go:build stripemap_opt_cachelinesize_128

package stripemap

// CacheLineSize is fixed at 128 bytes by the build tag.
const CacheLineSize = 128
