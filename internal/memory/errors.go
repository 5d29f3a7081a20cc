package memory

import "fmt"

// ErrorCode classifies memory runtime errors.
type ErrorCode int

const (
	CodeOutOfAddressSpace ErrorCode = iota // Reservation cannot be satisfied
	CodeArenaExhausted                     // Bump cursor past arena capacity
	CodePopRootViolation                   // Attempt to exit the root region
	CodeInvalidSize                        // Zero or overflowing allocation size
	CodeInvalidAlignment                   // Alignment not a power of two
	CodeRegionRetired                      // Handle resolved against a retired region
)

// String returns the string representation of an error code.
func (ec ErrorCode) String() string {
	switch ec {
	case CodeOutOfAddressSpace:
		return "OutOfAddressSpace"
	case CodeArenaExhausted:
		return "ArenaExhausted"
	case CodePopRootViolation:
		return "PopRootViolation"
	case CodeInvalidSize:
		return "InvalidSize"
	case CodeInvalidAlignment:
		return "InvalidAlignment"
	case CodeRegionRetired:
		return "RegionRetired"
	default:
		return fmt.Sprintf("Unknown(%d)", int(ec))
	}
}

// MemoryError is the error type produced by the region allocator runtime.
type MemoryError struct {
	Code    ErrorCode
	Message string
	Region  RegionID
	Size    uintptr
	Align   uintptr
}

// Error implements the error interface.
func (e *MemoryError) Error() string {
	if e.Region != 0 || e.Size != 0 || e.Align != 0 {
		return fmt.Sprintf("MemoryError[%s]: %s (region=%d, size=%d, align=%d)",
			e.Code, e.Message, e.Region, e.Size, e.Align)
	}

	return fmt.Sprintf("MemoryError[%s]: %s", e.Code, e.Message)
}

// Is matches errors by code so callers can use errors.Is against the
// package sentinels regardless of the contextual fields.
func (e *MemoryError) Is(target error) bool {
	t, ok := target.(*MemoryError)

	return ok && t.Code == e.Code
}

// Sentinel values for errors.Is matching.
var (
	ErrOutOfAddressSpace = &MemoryError{Code: CodeOutOfAddressSpace, Message: "address space reservation failed"}
	ErrArenaExhausted    = &MemoryError{Code: CodeArenaExhausted, Message: "arena exhausted"}
	ErrPopRootViolation  = &MemoryError{Code: CodePopRootViolation, Message: "cannot exit root region"}
	ErrInvalidSize       = &MemoryError{Code: CodeInvalidSize, Message: "invalid allocation size"}
	ErrInvalidAlignment  = &MemoryError{Code: CodeInvalidAlignment, Message: "invalid alignment"}
	ErrRegionRetired     = &MemoryError{Code: CodeRegionRetired, Message: "region retired"}
)
