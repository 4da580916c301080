//go:build stripemap_opt_cachelinesize_64

package stripemap

// CacheLineSize is fixed at 64 bytes by the build tag.
const CacheLineSize = 64
