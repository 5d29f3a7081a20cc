//go:build unix

package memory

import "golang.org/x/sys/unix"

// reserveRange maps an anonymous, private range of the requested capacity.
// Pages are committed lazily by the kernel on first touch.
func reserveRange(capacity uintptr) ([]byte, error) {
	return unix.Mmap(-1, 0, int(capacity),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
}

// releaseRange unmaps a range previously returned by reserveRange.
func releaseRange(data []byte) error {
	return unix.Munmap(data)
}
