package memory

// Configuration for the region allocator runtime.
type Config struct {
	MinSliceSize          uintptr // Smallest reservation capacity class
	MaxSliceSize          uintptr // Largest reservation capacity class
	DefaultRegionCapacity uintptr // Capacity hint used when Enter receives none
	DefaultAlignment      uintptr // Alignment applied when an allocation passes 0
	MaxIdlePerClass       int     // Idle arenas kept per class before spilling to the reservoir
}

type Option func(*Config)

// defaultAlignment is applied when an allocation passes alignment 0.
const defaultAlignment uintptr = 8

// DefaultConfig returns the default runtime configuration.
func DefaultConfig() *Config {
	return &Config{
		MinSliceSize:          64 * 1024,          // 64KB minimum slice
		MaxSliceSize:          1024 * 1024 * 1024, // 1GB maximum slice
		DefaultRegionCapacity: 64 * 1024,
		DefaultAlignment:      defaultAlignment,
		MaxIdlePerClass:       8,
	}
}

// Option functions.
func WithMinSliceSize(size uintptr) Option {
	return func(c *Config) { c.MinSliceSize = size }
}

func WithMaxSliceSize(size uintptr) Option {
	return func(c *Config) { c.MaxSliceSize = size }
}

func WithDefaultRegionCapacity(size uintptr) Option {
	return func(c *Config) { c.DefaultRegionCapacity = size }
}

func WithDefaultAlignment(alignment uintptr) Option {
	return func(c *Config) { c.DefaultAlignment = alignment }
}

func WithMaxIdlePerClass(n int) Option {
	return func(c *Config) { c.MaxIdlePerClass = n }
}

// NewConfig builds a configuration from the defaults plus options.
func NewConfig(options ...Option) *Config {
	config := DefaultConfig()
	for _, opt := range options {
		opt(config)
	}

	return config
}

// alignUp aligns a value up to the nearest multiple of alignment.
// Alignment must be a power of two.
func alignUp(value, alignment uintptr) uintptr {
	return (value + alignment - 1) &^ (alignment - 1)
}

// isPowerOfTwo reports whether v is a non-zero power of two.
func isPowerOfTwo(v uintptr) bool {
	return v != 0 && v&(v-1) == 0
}
