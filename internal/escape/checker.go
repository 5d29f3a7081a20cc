package escape

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// A flow is legal exactly when the sink region is the source region itself
// or a descendant of it: a child scope may freely hold a reference into its
// parent's data, since the parent outlives the child. Storing the other way
// around, or across unrelated branches, dangles once the source region is
// retired.

// classify returns the violation for an illegal fact, or ok=false when the
// fact is legal.
func classify(tree *RegionTree, fact Fact) (Violation, bool) {
	if !tree.Contains(fact.Source) || !tree.Contains(fact.Sink) {
		return Violation{Fact: fact, Kind: KindUnknownRegion}, true
	}

	if tree.AncestorOrSelf(fact.Source, fact.Sink) {
		return Violation{}, false
	}

	if tree.StrictAncestor(fact.Sink, fact.Source) {
		return Violation{Fact: fact, Kind: KindEscapesToAncestor}, true
	}

	return Violation{Fact: fact, Kind: KindUnrelatedRegions}, true
}

// Check runs the checker over the full fact batch of a compilation unit and
// returns one violation per illegal fact, in input order. An empty result
// means the program passes the escape gate. The pass never mutates the tree
// and performs no allocation work; cost is O(F + R) for F facts after the
// tree's O(R) preprocessing.
func Check(tree *RegionTree, facts []Fact) []Violation {
	var violations []Violation

	for _, fact := range facts {
		if v, bad := classify(tree, fact); bad {
			violations = append(violations, v)
		}
	}

	return violations
}

// CheckParallel partitions facts by the root subtree of their source region
// and checks the partitions concurrently. Results are identical to Check,
// including order; the split is an optimization only, independent subtrees
// share no state.
func CheckParallel(ctx context.Context, tree *RegionTree, facts []Fact) ([]Violation, error) {
	type indexed struct {
		index     int
		violation Violation
	}

	roots := tree.Roots()
	if len(roots) < 2 || len(facts) < 2 {
		return Check(tree, facts), nil
	}

	// Facts whose source is unknown or unresolvable go to bucket 0
	// together with the first root's facts.
	buckets := make(map[RegionID][]int, len(roots))
	for i, fact := range facts {
		root, ok := tree.RootOf(fact.Source)
		if !ok {
			root = roots[0]
		}
		buckets[root] = append(buckets[root], i)
	}

	g, _ := errgroup.WithContext(ctx)
	results := make([][]indexed, len(roots))

	for slot, root := range roots {
		slot := slot // per-iteration copy; required while the go directive is below 1.22
		indices := buckets[root]
		if len(indices) == 0 {
			continue
		}

		g.Go(func() error {
			for _, i := range indices {
				if v, bad := classify(tree, facts[i]); bad {
					results[slot] = append(results[slot], indexed{index: i, violation: v})
				}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []indexed
	for _, part := range results {
		merged = append(merged, part...)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].index < merged[j].index })

	var violations []Violation
	for _, iv := range merged {
		violations = append(violations, iv.violation)
	}

	return violations, nil
}
