//go:build !unix

package harness

import "time"

// cpuTimes is not available on this platform; the benchmark reports wall
// time only.
func cpuTimes() (user, system time.Duration) {
	return 0, 0
}
