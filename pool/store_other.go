//go:build !unix

package pool

import "errors"

var errMmapUnavailable = errors.New("pool: anonymous mapping unavailable on this platform")

// mmapAnon is unavailable outside unix-like targets (the teacher's own
// build tag, "!js || !wasm", is true on windows too, where
// syscall.Mmap does not exist with this signature — this tightens the
// condition to the platforms that actually support it). acquireBackingStore
// falls back to the heap whenever this returns an error.
func mmapAnon(size uint32) ([]byte, error) {
	return nil, errMmapUnavailable
}

func munmapAnon(buf []byte) error {
	return nil
}
