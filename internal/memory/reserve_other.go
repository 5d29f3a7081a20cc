//go:build !unix

package memory

// reserveRange falls back to Go heap backing on platforms without a mmap
// wrapper. Reservation then commits eagerly, which loses lazy page backing
// but preserves the slice contract.
func reserveRange(capacity uintptr) ([]byte, error) {
	return make([]byte, capacity), nil
}

func releaseRange(data []byte) error {
	// Backing is garbage collected once the slice is dropped.
	return nil
}
