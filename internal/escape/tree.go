package escape

import "fmt"

// RegionNode describes one region of the analyzed unit. Parent 0 marks a
// root; regions form a forest (one tree per worker thread's root region).
type RegionNode struct {
	ID     RegionID `json:"id"`
	Parent RegionID `json:"parent,omitempty"`
}

// interval is the preorder entry/exit numbering of one region. A region A
// is an ancestor-or-self of B exactly when A's interval contains B's, which
// makes every ancestor test O(1) after O(R) preprocessing.
type interval struct {
	entry int
	exit  int
}

// RegionTree is an immutable snapshot of the region forest with interval
// numbering precomputed for ancestor tests.
type RegionTree struct {
	intervals map[RegionID]interval
	children  map[RegionID][]RegionID
	roots     []RegionID
}

// NewRegionTree builds a tree from (id, parent) pairs. It rejects duplicate
// ids, the reserved id 0, parents that are not part of the unit, and parent
// chains that do not reach a root.
func NewRegionTree(nodes []RegionNode) (*RegionTree, error) {
	known := make(map[RegionID]bool, len(nodes))
	for _, node := range nodes {
		if node.ID == 0 {
			return nil, fmt.Errorf("region id 0 is reserved")
		}

		if known[node.ID] {
			return nil, fmt.Errorf("duplicate region id %d", node.ID)
		}

		known[node.ID] = true
	}

	t := &RegionTree{
		intervals: make(map[RegionID]interval, len(nodes)),
		children:  make(map[RegionID][]RegionID, len(nodes)),
	}

	for _, node := range nodes {
		if node.Parent == 0 {
			t.roots = append(t.roots, node.ID)

			continue
		}

		if node.Parent == node.ID {
			return nil, fmt.Errorf("region %d is its own parent", node.ID)
		}

		if !known[node.Parent] {
			return nil, fmt.Errorf("region %d has unknown parent %d", node.ID, node.Parent)
		}

		t.children[node.Parent] = append(t.children[node.Parent], node.ID)
	}

	t.number()

	if len(t.intervals) != len(nodes) {
		return nil, fmt.Errorf("region forest contains a cycle: %d of %d regions reachable from roots",
			len(t.intervals), len(nodes))
	}

	return t, nil
}

// number assigns entry/exit indices by an iterative preorder walk from each
// root.
func (t *RegionTree) number() {
	counter := 0

	type frame struct {
		id    RegionID
		child int
	}

	for _, root := range t.roots {
		stack := []frame{{id: root}}
		t.intervals[root] = interval{entry: counter}
		counter++

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			kids := t.children[top.id]

			if top.child < len(kids) {
				next := kids[top.child]
				top.child++

				t.intervals[next] = interval{entry: counter}
				counter++

				stack = append(stack, frame{id: next})

				continue
			}

			iv := t.intervals[top.id]
			iv.exit = counter
			counter++
			t.intervals[top.id] = iv

			stack = stack[:len(stack)-1]
		}
	}
}

// Contains reports whether the tree knows the region id.
func (t *RegionTree) Contains(id RegionID) bool {
	_, ok := t.intervals[id]

	return ok
}

// AncestorOrSelf reports whether anc is desc itself or one of its ancestors.
func (t *RegionTree) AncestorOrSelf(anc, desc RegionID) bool {
	a, ok := t.intervals[anc]
	if !ok {
		return false
	}

	d, ok := t.intervals[desc]
	if !ok {
		return false
	}

	return a.entry <= d.entry && d.exit <= a.exit
}

// StrictAncestor reports whether anc is a proper ancestor of desc.
func (t *RegionTree) StrictAncestor(anc, desc RegionID) bool {
	return anc != desc && t.AncestorOrSelf(anc, desc)
}

// RootOf returns the root of the subtree containing id.
func (t *RegionTree) RootOf(id RegionID) (RegionID, bool) {
	for _, root := range t.roots {
		if t.AncestorOrSelf(root, id) {
			return root, true
		}
	}

	return 0, false
}

// Roots returns the forest roots in input order.
func (t *RegionTree) Roots() []RegionID {
	return t.roots
}

// Size returns the number of regions in the forest.
func (t *RegionTree) Size() int {
	return len(t.intervals)
}
