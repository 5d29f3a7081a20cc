package memory

// RegionID uniquely identifies a region. IDs are assigned monotonically and
// never reused, so historical allocation handles stay unambiguous for
// diagnostics. ID 0 is reserved as "no region".
type RegionID uint64

// RegionState models the region lifecycle.
type RegionState uint32

const (
	RegionActive    RegionState = iota // Top of stack, accepts allocations
	RegionSuspended                    // Live ancestor of the top, not a target
	RegionRetired                      // Popped, arena segments reclaimed
)

// String returns the string representation of a region state.
func (rs RegionState) String() string {
	switch rs {
	case RegionActive:
		return "Active"
	case RegionSuspended:
		return "Suspended"
	case RegionRetired:
		return "Retired"
	default:
		return "Unknown"
	}
}

// AllocationHandle is an opaque, region-tagged reference to a block of
// allocated bytes. Segment indexes into the owning region's arena chain so
// handles stay resolvable after the region grows.
type AllocationHandle struct {
	Region  RegionID
	Segment int
	Offset  uintptr
	Size    uintptr
	Align   uintptr
}

// Region is a named allocation scope. It owns an ordered chain of arena
// segments borrowed from the pool for its lifetime; growth appends a
// segment and never moves existing allocations. Regions form a tree via the
// parent link established by stack nesting.
type Region struct {
	id       RegionID
	parent   RegionID
	depth    int
	state    RegionState
	segments []*Arena

	bytesAllocated uintptr
	allocCount     uint64
}

// ID returns the region identifier.
func (r *Region) ID() RegionID { return r.id }

// Parent returns the parent region id, or 0 for the root.
func (r *Region) Parent() RegionID { return r.parent }

// Depth returns the nesting depth, root being 0.
func (r *Region) Depth() int { return r.depth }

// State returns the current lifecycle state.
func (r *Region) State() RegionState { return r.state }

// Segments returns the number of arena segments the region owns.
func (r *Region) Segments() int { return len(r.segments) }

// BytesAllocated returns the total payload bytes allocated in the region.
func (r *Region) BytesAllocated() uintptr { return r.bytesAllocated }

// active returns the segment currently receiving allocations.
func (r *Region) active() *Arena {
	return r.segments[len(r.segments)-1]
}

// allocate bumps the active segment. ArenaExhausted surfaces to the stack,
// which owns the growth policy.
func (r *Region) allocate(size, align uintptr) (AllocationHandle, error) {
	segment := len(r.segments) - 1

	offset, err := r.segments[segment].Allocate(size, align)
	if err != nil {
		return AllocationHandle{}, err
	}

	r.bytesAllocated += size
	r.allocCount++

	return AllocationHandle{
		Region:  r.id,
		Segment: segment,
		Offset:  offset,
		Size:    size,
		Align:   align,
	}, nil
}

// grow chains a fresh arena as the active segment. Previously issued
// handles keep pointing into the older segments, which stay valid until the
// region is popped.
func (r *Region) grow(arena *Arena) {
	r.segments = append(r.segments, arena)
}

// resolve returns the byte view behind a handle issued by this region.
func (r *Region) resolve(h AllocationHandle) ([]byte, error) {
	if r.state == RegionRetired {
		return nil, &MemoryError{Code: CodeRegionRetired, Message: "handle resolved after region exit", Region: r.id}
	}

	if h.Segment < 0 || h.Segment >= len(r.segments) {
		return nil, &MemoryError{Code: CodeInvalidSize, Message: "handle segment out of range", Region: r.id}
	}

	segment := r.segments[h.Segment]
	if h.Offset+h.Size > segment.Used() {
		return nil, &MemoryError{Code: CodeInvalidSize, Message: "handle exceeds segment allocations", Region: r.id, Size: h.Size}
	}

	return segment.Bytes(h.Offset, h.Size), nil
}
