// Package escape implements the static escape checker for region-allocated
// values: a pure analysis pass over externally produced reference-flow
// facts that rejects any flow from a shorter-lived region into a location
// owned by a longer-lived or unrelated one. It runs before a program is
// accepted for execution and has no runtime dependency on the allocator.
package escape

import "fmt"

// RegionID identifies a region in the analyzed compilation unit. The
// checker operates on plain identifiers; it never touches live regions.
type RegionID uint64

// Fact is one externally supplied reference-flow record: a value defined in
// the source region is stored into a location owned by the sink region. The
// site token is opaque and only echoed back in diagnostics so the front-end
// can map a violation to a source location.
type Fact struct {
	Source RegionID `json:"source"`
	Sink   RegionID `json:"sink"`
	Site   string   `json:"site"`
}

// ViolationKind classifies why a fact was rejected.
type ViolationKind int

const (
	KindEscapesToAncestor ViolationKind = iota // Sink is a strict ancestor of source
	KindUnrelatedRegions                       // Sibling or disjoint branches
	KindUnknownRegion                          // Fact names a region missing from the tree
)

// String returns the string representation of a violation kind.
func (vk ViolationKind) String() string {
	switch vk {
	case KindEscapesToAncestor:
		return "EscapesToAncestor"
	case KindUnrelatedRegions:
		return "UnrelatedRegions"
	case KindUnknownRegion:
		return "UnknownRegion"
	default:
		return fmt.Sprintf("Unknown(%d)", int(vk))
	}
}

// Violation reports one illegal reference flow. It carries the offending
// fact's region identifiers and site token; formatting and localization are
// the front-end's concern.
type Violation struct {
	Fact Fact          `json:"fact"`
	Kind ViolationKind `json:"kind"`
}

// String returns a one-line description of the violation.
func (v Violation) String() string {
	return fmt.Sprintf("%s: value defined in region %d escapes into region %d (%s)",
		v.Fact.Site, v.Fact.Source, v.Fact.Sink, v.Kind)
}
