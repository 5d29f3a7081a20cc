package memory

// Arena is a bump-pointer allocator operating inside one reserved slice.
// Allocation advances a cursor and is O(1); there is no individual free,
// no compaction, and offsets handed out stay stable for the arena's entire
// lifetime. Reset snaps the cursor back to zero in bulk.
//
// An arena is owned by exactly one region, which is owned by exactly one
// thread's stack, so allocation needs no synchronization.
type Arena struct {
	slice       AddressSlice
	cursor      uintptr
	highWater   uintptr
	allocations uint64
}

// NewArena creates an arena over the given slice with the cursor at zero.
func NewArena(slice AddressSlice) *Arena {
	return &Arena{slice: slice}
}

// Allocate advances the cursor to the next multiple of align at or after the
// current cursor and claims size bytes. Fails with ArenaExhausted when the
// aligned cursor plus size exceeds capacity; growth policy belongs to the
// region stack, not the arena.
func (a *Arena) Allocate(size, align uintptr) (uintptr, error) {
	if size == 0 {
		return 0, &MemoryError{Code: CodeInvalidSize, Message: "zero size allocation", Size: size, Align: align}
	}

	if align == 0 {
		align = defaultAlignment
	}

	if !isPowerOfTwo(align) {
		return 0, &MemoryError{Code: CodeInvalidAlignment, Message: "alignment must be a power of two", Size: size, Align: align}
	}

	offset := alignUp(a.cursor, align)
	if offset+size < offset || offset+size > a.slice.Capacity() {
		return 0, &MemoryError{Code: CodeArenaExhausted, Message: "allocation exceeds arena capacity", Size: size, Align: align}
	}

	a.cursor = offset + size
	a.allocations++

	if a.cursor > a.highWater {
		a.highWater = a.cursor
	}

	return offset, nil
}

// Reset sets the cursor back to zero and clears high-water tracking.
// Payloads are opaque bytes, so no per-allocation cleanup runs.
func (a *Arena) Reset() {
	a.cursor = 0
	a.highWater = 0
	a.allocations = 0
}

// Bytes returns a view over size bytes starting at offset, or nil when the
// range falls outside the arena's capacity. The view stays valid until the
// arena is reset.
func (a *Arena) Bytes(offset, size uintptr) []byte {
	if offset+size < offset || offset+size > a.slice.Capacity() {
		return nil
	}

	return a.slice.data[offset : offset+size]
}

// Slice returns the address slice the arena operates in.
func (a *Arena) Slice() AddressSlice {
	return a.slice
}

// Base returns the starting address of the arena's slice.
func (a *Arena) Base() uintptr {
	return a.slice.Base()
}

// Capacity returns the total capacity of the arena.
func (a *Arena) Capacity() uintptr {
	return a.slice.Capacity()
}

// Used returns the number of bytes consumed by the cursor.
func (a *Arena) Used() uintptr {
	return a.cursor
}

// Remaining returns the unaligned free space left in the arena.
func (a *Arena) Remaining() uintptr {
	return a.slice.Capacity() - a.cursor
}

// HighWater returns the peak cursor position since the last reset.
func (a *Arena) HighWater() uintptr {
	return a.highWater
}

// Allocations returns the allocation count since the last reset.
func (a *Arena) Allocations() uint64 {
	return a.allocations
}
