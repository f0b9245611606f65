//go:build unix

package pool

import "syscall"

// mmapAnon requests an anonymous, private, read/write mapping of exactly
// size bytes. Grounded in sab.SharedMemoryProvider's use of syscall.Mmap,
// adapted from a file-backed MAP_SHARED mapping to an anonymous
// MAP_PRIVATE one since the pool has no backing file.
func mmapAnon(size uint32) ([]byte, error) {
	return syscall.Mmap(-1, 0, int(size), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_ANON|syscall.MAP_PRIVATE)
}

// munmapAnon releases a mapping obtained from mmapAnon.
func munmapAnon(buf []byte) error {
	return syscall.Munmap(buf)
}
