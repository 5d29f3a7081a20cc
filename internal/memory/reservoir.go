// Package memory implements the region allocator runtime for the Tractor
// language: a reservoir of reserved address slices, bump-pointer arenas,
// a pool recycling idle arenas across region lifetimes, and a thread-local
// region stack with deterministic bulk deallocation on scope exit.
package memory

import (
	"fmt"
	"sync"
	"unsafe"
)

// AddressSlice is a contiguous reserved address range. It is immutable once
// issued and owned by exactly one Arena at a time.
type AddressSlice struct {
	data  []byte
	class int
}

// Base returns the starting address of the slice.
func (s AddressSlice) Base() uintptr {
	if len(s.data) == 0 {
		return 0
	}

	return uintptr(unsafe.Pointer(unsafe.SliceData(s.data)))
}

// Capacity returns the slice capacity in bytes.
func (s AddressSlice) Capacity() uintptr {
	return uintptr(len(s.data))
}

// Class returns the capacity class index the slice was reserved under.
func (s AddressSlice) Class() int {
	return s.class
}

// ReservoirStats provides reservation statistics.
type ReservoirStats struct {
	Reservations  uint64
	Releases      uint64
	BytesReserved uintptr
	PeakReserved  uintptr
}

// Reservoir reserves large address ranges from the operating system and
// hands out fixed-capacity slices. Reservations are rounded up to a fixed
// set of capacity classes (powers of two from Config.MinSliceSize) so that
// released slices can be matched by class without fragmentation bookkeeping.
//
// Reserve and Release are serialized behind a single lock; neither is on an
// allocation hot path.
type Reservoir struct {
	config  *Config
	classes []uintptr
	stats   ReservoirStats
	mu      sync.Mutex
}

// NewReservoir creates a reservoir with capacity classes derived from the
// configuration.
func NewReservoir(config *Config) *Reservoir {
	if config == nil {
		config = DefaultConfig()
	}

	var classes []uintptr
	for size := config.MinSliceSize; size <= config.MaxSliceSize; size *= 2 {
		classes = append(classes, size)
	}

	return &Reservoir{
		config:  config,
		classes: classes,
	}
}

// ClassFor returns the index of the smallest capacity class that can hold
// minCapacity. Requests beyond the largest class cannot be satisfied and
// fail with OutOfAddressSpace.
func (rv *Reservoir) ClassFor(minCapacity uintptr) (int, error) {
	for i, size := range rv.classes {
		if size >= minCapacity {
			return i, nil
		}
	}

	return 0, &MemoryError{
		Code:    CodeOutOfAddressSpace,
		Message: fmt.Sprintf("capacity %d exceeds largest class %d", minCapacity, rv.classes[len(rv.classes)-1]),
		Size:    minCapacity,
	}
}

// ClassSize returns the capacity of a class by index.
func (rv *Reservoir) ClassSize(class int) uintptr {
	return rv.classes[class]
}

// Reserve reserves a contiguous range at least minCapacity bytes wide and
// returns it uncommitted (pages are backed lazily by the OS). Fails with
// OutOfAddressSpace; the failure is fatal and never retried here.
func (rv *Reservoir) Reserve(minCapacity uintptr) (AddressSlice, error) {
	if minCapacity == 0 {
		return AddressSlice{}, &MemoryError{Code: CodeInvalidSize, Message: "zero capacity reservation"}
	}

	class, err := rv.ClassFor(minCapacity)
	if err != nil {
		return AddressSlice{}, err
	}

	capacity := rv.classes[class]

	data, err := reserveRange(capacity)
	if err != nil {
		return AddressSlice{}, &MemoryError{
			Code:    CodeOutOfAddressSpace,
			Message: fmt.Sprintf("reserve %d bytes: %v", capacity, err),
			Size:    capacity,
		}
	}

	rv.mu.Lock()
	rv.stats.Reservations++
	rv.stats.BytesReserved += capacity
	if rv.stats.BytesReserved > rv.stats.PeakReserved {
		rv.stats.PeakReserved = rv.stats.BytesReserved
	}
	rv.mu.Unlock()

	return AddressSlice{data: data, class: class}, nil
}

// Release returns a slice's range to the operating system.
func (rv *Reservoir) Release(slice AddressSlice) error {
	if len(slice.data) == 0 {
		return nil
	}

	if err := releaseRange(slice.data); err != nil {
		return fmt.Errorf("release slice at %#x: %w", slice.Base(), err)
	}

	rv.mu.Lock()
	rv.stats.Releases++
	rv.stats.BytesReserved -= slice.Capacity()
	rv.mu.Unlock()

	return nil
}

// Stats returns reservation statistics.
func (rv *Reservoir) Stats() ReservoirStats {
	rv.mu.Lock()
	defer rv.mu.Unlock()

	return rv.stats
}
