// Package dedupe merges duplicate regional documents into canonical
// articles. Candidate pairs come from configurable matching strategies
// (DOI, publisher ID, normalized title) and are combined through a
// union-find partition, so two documents end up together whenever any
// chain of strategy-approved merges connects them.
package dedupe

// DisjointSet is an arena-indexed union-find over document indices.
// Unions are plain root reattachment; correctness does not depend on
// rank balancing, and path halving in Find keeps chains short.
type DisjointSet struct {
	parent []int
}

// NewDisjointSet returns a partition of n singleton components.
func NewDisjointSet(n int) *DisjointSet {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &DisjointSet{parent: parent}
}

// Len returns the number of elements in the partition.
func (s *DisjointSet) Len() int {
	return len(s.parent)
}

// Find returns the representative of i's component, halving the path on
// the way up.
func (s *DisjointSet) Find(i int) int {
	for s.parent[i] != i {
		s.parent[i] = s.parent[s.parent[i]]
		i = s.parent[i]
	}
	return i
}

// Union links the components of i and j. A no-op when they already share
// a representative.
func (s *DisjointSet) Union(i, j int) {
	rootI, rootJ := s.Find(i), s.Find(j)
	if rootI != rootJ {
		s.parent[rootI] = rootJ
	}
}

// Same reports whether i and j are in the same component.
func (s *DisjointSet) Same(i, j int) bool {
	return s.Find(i) == s.Find(j)
}

// Components returns the partition as groups of member indices. Groups
// appear in order of their first member, and members within a group keep
// document order.
func (s *DisjointSet) Components() [][]int {
	members := make(map[int][]int)
	var order []int
	for i := range s.parent {
		root := s.Find(i)
		if _, seen := members[root]; !seen {
			order = append(order, root)
		}
		members[root] = append(members[root], i)
	}

	groups := make([][]int, 0, len(order))
	for _, root := range order {
		groups = append(groups, members[root])
	}
	return groups
}
