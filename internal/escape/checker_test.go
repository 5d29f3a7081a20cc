package escape

import (
	"context"
	"reflect"
	"testing"
)

// Tree used across tests:
//
//	1 (root)
//	├── 2
//	│   └── 3
//	└── 4
func testTree(t *testing.T) *RegionTree {
	t.Helper()

	tree, err := NewRegionTree([]RegionNode{
		{ID: 1},
		{ID: 2, Parent: 1},
		{ID: 3, Parent: 2},
		{ID: 4, Parent: 1},
	})
	if err != nil {
		t.Fatalf("tree construction failed: %v", err)
	}

	return tree
}

func TestRegionTreeAncestry(t *testing.T) {
	tree := testTree(t)

	cases := []struct {
		anc, desc RegionID
		want      bool
	}{
		{1, 1, true},
		{1, 2, true},
		{1, 3, true},
		{1, 4, true},
		{2, 3, true},
		{2, 1, false},
		{3, 2, false},
		{2, 4, false},
		{4, 3, false},
	}

	for _, c := range cases {
		if got := tree.AncestorOrSelf(c.anc, c.desc); got != c.want {
			t.Errorf("AncestorOrSelf(%d, %d) = %v, want %v", c.anc, c.desc, got, c.want)
		}
	}

	if tree.StrictAncestor(1, 1) {
		t.Error("StrictAncestor(1, 1) = true, want false")
	}
	if !tree.StrictAncestor(1, 3) {
		t.Error("StrictAncestor(1, 3) = false, want true")
	}
}

func TestRegionTreeValidation(t *testing.T) {
	t.Run("DuplicateID", func(t *testing.T) {
		_, err := NewRegionTree([]RegionNode{{ID: 1}, {ID: 1}})
		if err == nil {
			t.Error("duplicate id accepted")
		}
	})

	t.Run("ReservedZero", func(t *testing.T) {
		_, err := NewRegionTree([]RegionNode{{ID: 0}})
		if err == nil {
			t.Error("reserved id 0 accepted")
		}
	})

	t.Run("UnknownParent", func(t *testing.T) {
		_, err := NewRegionTree([]RegionNode{{ID: 1}, {ID: 2, Parent: 9}})
		if err == nil {
			t.Error("unknown parent accepted")
		}
	})

	t.Run("Cycle", func(t *testing.T) {
		_, err := NewRegionTree([]RegionNode{{ID: 1}, {ID: 2, Parent: 3}, {ID: 3, Parent: 2}})
		if err == nil {
			t.Error("parent cycle accepted")
		}
	})

	t.Run("Forest", func(t *testing.T) {
		tree, err := NewRegionTree([]RegionNode{{ID: 1}, {ID: 2}, {ID: 3, Parent: 2}})
		if err != nil {
			t.Fatalf("forest rejected: %v", err)
		}
		if len(tree.Roots()) != 2 {
			t.Errorf("roots = %d, want 2", len(tree.Roots()))
		}
		if tree.AncestorOrSelf(1, 3) {
			t.Error("regions in disjoint trees reported related")
		}
	})
}

// A child scope may hold a reference into its parent's data; the parent
// outlives the child, so nothing dangles.
func TestChildMayReferenceParentData(t *testing.T) {
	tree := testTree(t)

	facts := []Fact{
		{Source: 1, Sink: 2, Site: "store.a"}, // root data into child slot
		{Source: 1, Sink: 3, Site: "store.b"}, // root data into grandchild slot
		{Source: 2, Sink: 3, Site: "store.c"},
		{Source: 2, Sink: 2, Site: "store.d"}, // same region
	}

	if violations := Check(tree, facts); len(violations) != 0 {
		t.Errorf("legal flows rejected: %v", violations)
	}
}

// Storing a reference to child-region data into a location owned by an
// ancestor dangles once the child is retired.
func TestReferenceEscapingToAncestorRejected(t *testing.T) {
	tree := testTree(t)

	facts := []Fact{
		{Source: 3, Sink: 1, Site: "ret.a"},
		{Source: 2, Sink: 1, Site: "ret.b"},
		{Source: 3, Sink: 2, Site: "ret.c"},
	}

	violations := Check(tree, facts)
	if len(violations) != len(facts) {
		t.Fatalf("violations = %d, want %d", len(violations), len(facts))
	}

	for i, v := range violations {
		if v.Kind != KindEscapesToAncestor {
			t.Errorf("violation %d kind = %s, want EscapesToAncestor", i, v.Kind)
		}
		if v.Fact != facts[i] {
			t.Errorf("violation %d fact = %+v, want %+v", i, v.Fact, facts[i])
		}
	}
}

func TestUnrelatedRegionsRejected(t *testing.T) {
	tree := testTree(t)

	violations := Check(tree, []Fact{
		{Source: 2, Sink: 4, Site: "x"},
		{Source: 4, Sink: 3, Site: "y"},
	})

	if len(violations) != 2 {
		t.Fatalf("violations = %d, want 2", len(violations))
	}
	for _, v := range violations {
		if v.Kind != KindUnrelatedRegions {
			t.Errorf("kind = %s, want UnrelatedRegions", v.Kind)
		}
	}
}

func TestUnknownRegionRejected(t *testing.T) {
	tree := testTree(t)

	violations := Check(tree, []Fact{{Source: 99, Sink: 1, Site: "z"}})
	if len(violations) != 1 || violations[0].Kind != KindUnknownRegion {
		t.Fatalf("violations = %v, want one UnknownRegion", violations)
	}
}

// Exactly one violation per offending fact, in input order, with the site
// token preserved for the front-end.
func TestViolationBatchReporting(t *testing.T) {
	tree := testTree(t)

	facts := []Fact{
		{Source: 1, Sink: 2, Site: "ok.1"},
		{Source: 2, Sink: 1, Site: "bad.1"},
		{Source: 2, Sink: 4, Site: "bad.2"},
		{Source: 2, Sink: 3, Site: "ok.2"},
		{Source: 3, Sink: 1, Site: "bad.3"},
	}

	violations := Check(tree, facts)
	if len(violations) != 3 {
		t.Fatalf("violations = %d, want 3", len(violations))
	}

	wantSites := []string{"bad.1", "bad.2", "bad.3"}
	for i, v := range violations {
		if v.Fact.Site != wantSites[i] {
			t.Errorf("violation %d site = %q, want %q", i, v.Fact.Site, wantSites[i])
		}
	}
}

func TestCheckParallelMatchesSerial(t *testing.T) {
	// Forest with two worker roots and enough facts to split.
	tree, err := NewRegionTree([]RegionNode{
		{ID: 1}, {ID: 2, Parent: 1}, {ID: 3, Parent: 2},
		{ID: 10}, {ID: 11, Parent: 10}, {ID: 12, Parent: 11},
	})
	if err != nil {
		t.Fatalf("tree construction failed: %v", err)
	}

	var facts []Fact
	for i := 0; i < 50; i++ {
		facts = append(facts,
			Fact{Source: 3, Sink: 1, Site: "a"},
			Fact{Source: 1, Sink: 3, Site: "b"},
			Fact{Source: 12, Sink: 10, Site: "c"},
			Fact{Source: 11, Sink: 12, Site: "d"},
			Fact{Source: 3, Sink: 11, Site: "e"}, // across worker roots
		)
	}

	serial := Check(tree, facts)

	parallel, err := CheckParallel(context.Background(), tree, facts)
	if err != nil {
		t.Fatalf("parallel check failed: %v", err)
	}

	if !reflect.DeepEqual(serial, parallel) {
		t.Errorf("parallel result diverges: %d vs %d violations", len(parallel), len(serial))
	}
}

func TestCheckIsPure(t *testing.T) {
	tree := testTree(t)
	facts := []Fact{{Source: 2, Sink: 1, Site: "s"}}

	first := Check(tree, facts)
	second := Check(tree, facts)

	if !reflect.DeepEqual(first, second) {
		t.Error("repeated checks over the same input diverge")
	}
}
