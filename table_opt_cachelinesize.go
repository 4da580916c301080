//go:build !stripemap_opt_cachelinesize_64 && !stripemap_opt_cachelinesize_128

package stripemap

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CacheLineSize is used in structure padding to prevent false sharing.
// It's automatically calculated using the `golang.org/x/sys` package.
// It can be overridden with the `stripemap_opt_cachelinesize_*` build tags.
const CacheLineSize = unsafe.Sizeof(cpu.CacheLinePad{})
