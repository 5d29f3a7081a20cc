package memory

import "errors"

// StackStats tracks region stack activity.
type StackStats struct {
	RegionsEntered uint64
	RegionsExited  uint64
	AllocCount     uint64
	BytesAllocated uintptr
	SegmentGrowths uint64
	PeakDepth      int
}

// RegionInfo describes one live region for tree export.
type RegionInfo struct {
	ID     RegionID
	Parent RegionID
	Depth  int
}

// RegionStack is the context manager for one worker thread: the ordered
// stack of currently active regions, rooted at an implicit top-level region
// created at construction. The top of the stack is the only allocation
// target; pushing creates a child region and popping destroys the top
// region, returning its arena segments to the shared pool.
//
// A stack is owned by a single thread and performs no locking of its own;
// only the pool and reservoir behind it are shared.
type RegionStack struct {
	config *Config
	pool   *Pool
	stack  []*Region
	live   map[RegionID]*Region
	nextID RegionID
	stats  StackStats
}

// NewRegionStack creates a stack and pushes the depth-0 root region. The
// root exists for the stack's whole lifetime and cannot be exited.
func NewRegionStack(pool *Pool, options ...Option) (*RegionStack, error) {
	config := NewConfig(options...)

	s := &RegionStack{
		config: config,
		pool:   pool,
		live:   make(map[RegionID]*Region),
		nextID: 1,
	}

	if _, err := s.push(config.DefaultRegionCapacity); err != nil {
		return nil, err
	}

	return s, nil
}

// push acquires an arena and makes a new region the stack top.
func (s *RegionStack) push(capacityHint uintptr) (RegionID, error) {
	arena, err := s.pool.Acquire(capacityHint)
	if err != nil {
		return 0, err
	}

	region := &Region{
		id:       s.nextID,
		state:    RegionActive,
		segments: []*Arena{arena},
	}
	s.nextID++

	if top := s.top(); top != nil {
		top.state = RegionSuspended
		region.parent = top.id
		region.depth = top.depth + 1
	}

	s.stack = append(s.stack, region)
	s.live[region.id] = region

	s.stats.RegionsEntered++
	if len(s.stack) > s.stats.PeakDepth {
		s.stats.PeakDepth = len(s.stack)
	}

	return region.id, nil
}

func (s *RegionStack) top() *Region {
	if len(s.stack) == 0 {
		return nil
	}

	return s.stack[len(s.stack)-1]
}

// Enter creates a child region of the current top, sized to capacityHint
// (default class when 0), pushes it and returns its id.
func (s *RegionStack) Enter(capacityHint uintptr) (RegionID, error) {
	if capacityHint == 0 {
		capacityHint = s.config.DefaultRegionCapacity
	}

	return s.push(capacityHint)
}

// AllocateInCurrent allocates size bytes with the given alignment in the
// top region. ArenaExhausted is handled internally by chaining a larger
// segment; old allocations never move, so previously issued handles stay
// valid. Only OutOfAddressSpace surfaces to the caller.
func (s *RegionStack) AllocateInCurrent(size, align uintptr) (AllocationHandle, error) {
	if align == 0 {
		align = s.config.DefaultAlignment
	}

	region := s.top()

	handle, err := region.allocate(size, align)
	if err == nil {
		s.stats.AllocCount++
		s.stats.BytesAllocated += size

		return handle, nil
	}

	if !errors.Is(err, ErrArenaExhausted) {
		return AllocationHandle{}, err
	}

	// Grow: double the active segment's capacity, clamped to the largest
	// class, or enough for the request if that is larger. Only a request
	// no class can hold may surface OutOfAddressSpace from here.
	need := size + align
	capacity := region.active().Capacity() * 2
	if capacity > s.config.MaxSliceSize {
		capacity = s.config.MaxSliceSize
	}
	if capacity < need {
		capacity = need
	}

	arena, err := s.pool.Acquire(capacity)
	if err != nil {
		return AllocationHandle{}, err
	}

	region.grow(arena)
	s.stats.SegmentGrowths++

	handle, err = region.allocate(size, align)
	if err != nil {
		return AllocationHandle{}, err
	}

	s.stats.AllocCount++
	s.stats.BytesAllocated += size

	return handle, nil
}

// Exit pops the top region, releases all of its arena segments back to the
// pool and retires its id. Exiting the root region is a programming
// contract violation and fails with PopRootViolation.
func (s *RegionStack) Exit() error {
	if len(s.stack) <= 1 {
		return &MemoryError{Code: CodePopRootViolation, Message: "cannot exit root region", Region: s.top().id}
	}

	region := s.top()
	s.stack = s.stack[:len(s.stack)-1]

	region.state = RegionRetired
	delete(s.live, region.id)

	var firstErr error
	for _, segment := range region.segments {
		if err := s.pool.Release(segment); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	region.segments = nil

	s.top().state = RegionActive
	s.stats.RegionsExited++

	return firstErr
}

// Resolve returns a byte view behind a handle. It fails once the owning
// region has been popped; no access is defined post-exit.
func (s *RegionStack) Resolve(h AllocationHandle) ([]byte, error) {
	region, ok := s.live[h.Region]
	if !ok {
		if h.Region != 0 && h.Region < s.nextID {
			return nil, &MemoryError{Code: CodeRegionRetired, Message: "handle resolved after region exit", Region: h.Region}
		}

		return nil, &MemoryError{Code: CodeInvalidSize, Message: "handle does not belong to this stack", Region: h.Region}
	}

	return region.resolve(h)
}

// Depth returns the current stack depth, root being 1 entry at depth 0.
func (s *RegionStack) Depth() int {
	return len(s.stack)
}

// Current returns the id of the region currently accepting allocations.
func (s *RegionStack) Current() RegionID {
	return s.top().id
}

// Root returns the id of the root region.
func (s *RegionStack) Root() RegionID {
	return s.stack[0].id
}

// Region returns a live region by id.
func (s *RegionStack) Region(id RegionID) (*Region, bool) {
	region, ok := s.live[id]

	return region, ok
}

// Snapshot exports the live region chain, root first, for escape analysis.
func (s *RegionStack) Snapshot() []RegionInfo {
	infos := make([]RegionInfo, len(s.stack))
	for i, region := range s.stack {
		infos[i] = RegionInfo{ID: region.id, Parent: region.parent, Depth: region.depth}
	}

	return infos
}

// Stats returns stack statistics.
func (s *RegionStack) Stats() StackStats {
	return s.stats
}
