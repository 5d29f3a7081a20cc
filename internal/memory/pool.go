package memory

import "sync"

// PoolStats provides statistics for the allocator pool.
type PoolStats struct {
	Hits      uint64 // Acquires served from an idle arena
	Misses    uint64 // Acquires that reserved a fresh slice
	Releases  uint64 // Arenas returned to the pool
	Spills    uint64 // Arenas whose slices went back to the reservoir
	IdleCount int    // Currently idle arenas across all classes
}

// Pool recycles arenas across region lifetimes. On region exit an arena is
// reset and parked in its capacity-class bucket instead of being released,
// amortizing the reservation cost over many short-lived regions. Each class
// keeps at most Config.MaxIdlePerClass idle arenas; beyond that the slice
// goes back to the reservoir.
//
// The pool is shared infrastructure: Acquire and Release are safe under
// concurrent access from multiple region stacks. Contention stays low since
// pool operations happen once per region enter/exit, not per allocation.
type Pool struct {
	reservoir *Reservoir
	config    *Config
	idle      map[int][]*Arena
	stats     PoolStats
	mu        sync.Mutex
}

// NewPool creates a pool backed by the given reservoir.
func NewPool(reservoir *Reservoir, config *Config) *Pool {
	if config == nil {
		config = DefaultConfig()
	}

	return &Pool{
		reservoir: reservoir,
		config:    config,
		idle:      make(map[int][]*Arena),
	}
}

// Acquire returns an idle arena whose class covers minCapacity, already
// reset and ready to use, or reserves a fresh slice on a pool miss.
func (p *Pool) Acquire(minCapacity uintptr) (*Arena, error) {
	if minCapacity == 0 {
		minCapacity = p.config.DefaultRegionCapacity
	}

	class, err := p.reservoir.ClassFor(minCapacity)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if bucket := p.idle[class]; len(bucket) > 0 {
		arena := bucket[len(bucket)-1]
		p.idle[class] = bucket[:len(bucket)-1]
		p.stats.Hits++
		p.stats.IdleCount--
		p.mu.Unlock()

		return arena, nil
	}
	p.stats.Misses++
	p.mu.Unlock()

	slice, err := p.reservoir.Reserve(p.reservoir.ClassSize(class))
	if err != nil {
		return nil, err
	}

	return NewArena(slice), nil
}

// Release resets the arena and parks it in its class bucket. When the
// bucket is already at its ceiling, the arena's slice is returned to the
// reservoir instead to bound idle memory.
func (p *Pool) Release(arena *Arena) error {
	arena.Reset()

	class := arena.Slice().Class()

	p.mu.Lock()
	if len(p.idle[class]) < p.config.MaxIdlePerClass {
		p.idle[class] = append(p.idle[class], arena)
		p.stats.Releases++
		p.stats.IdleCount++
		p.mu.Unlock()

		return nil
	}
	p.stats.Spills++
	p.mu.Unlock()

	return p.reservoir.Release(arena.Slice())
}

// IdleForClass returns how many arenas are parked for the class covering
// minCapacity. Diagnostics only.
func (p *Pool) IdleForClass(minCapacity uintptr) int {
	class, err := p.reservoir.ClassFor(minCapacity)
	if err != nil {
		return 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.idle[class])
}

// Stats returns pool statistics.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stats
}
