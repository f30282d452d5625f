package menu

import (
	"encoding/json"
	"log/slog"
	"slices"
)

// ExpandedSet holds the ids of items whose children are shown.
type ExpandedSet map[int64]struct{}

// Has reports whether id is expanded.
func (s ExpandedSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Add marks id as expanded.
func (s ExpandedSet) Add(id int64) {
	s[id] = struct{}{}
}

// Sorted returns the ids in ascending order.
func (s ExpandedSet) Sorted() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// MarshalJSON encodes the set as a sorted array.
func (s ExpandedSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of ids.
func (s *ExpandedSet) UnmarshalJSON(data []byte) error {
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	set := make(ExpandedSet, len(ids))
	for _, id := range ids {
		set.Add(id)
	}
	*s = set
	return nil
}

// ResolveActive finds the active item for path and the ids to expand.
//
// The active item is the first node in build order whose resolved URL equals
// path exactly. The expanded set holds the active item and every ancestor
// reachable through the tree's index. The upward walk stops at a root, at a
// parent outside the tree, or at an id it has already visited.
func ResolveActive(tree *Tree, path string, logger *slog.Logger) (*int64, ExpandedSet) {
	expanded := ExpandedSet{}
	if tree == nil {
		return nil, expanded
	}

	var active *Node
	for _, n := range tree.Nodes {
		if n.ResolvedURL == path {
			active = n
			break
		}
	}
	if active == nil {
		return nil, expanded
	}

	activeID := active.ID
	expanded.Add(activeID)

	for cur := active; cur.ParentID != nil; {
		parent, ok := tree.Node(*cur.ParentID)
		if !ok {
			break
		}
		if expanded.Has(parent.ID) {
			orDiscard(logger).Warn("ancestor loop while expanding active item",
				"active_item_id", activeID,
				"item_id", cur.ID,
				"parent_id", parent.ID,
			)
			break
		}
		expanded.Add(parent.ID)
		cur = parent
	}

	return &activeID, expanded
}
