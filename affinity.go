package jobgraph

import (
	"runtime"
	"strconv"
	"strings"
)

// goroutineID extracts the calling goroutine's numeric ID from its stack
// trace header ("goroutine 123 [running]:..."). Go has no public API for
// goroutine identity, and goroutines are not OS threads, so this is the
// pragmatic stand-in for the "constructing thread" affinity spec §4.6
// requires — a scheduler built on real OS threads would simply store the
// thread handle. Used only for WrongThread detection, never on a hot path.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	s := string(buf[:n])
	s = strings.TrimPrefix(s, "goroutine ")
	if idx := strings.IndexByte(s, ' '); idx >= 0 {
		s = s[:idx]
	}
	id, _ := strconv.ParseUint(s, 10, 64)
	return id
}
