package menu

import (
	"log/slog"

	"github.com/treemenu/treemenu-server/internal/domain"
)

// Node is a menu item prepared for rendering.
// It holds its own copy of the item so building never touches stored records.
type Node struct {
	domain.MenuItem
	ResolvedURL string  `json:"resolved_url"`
	Children    []*Node `json:"children"`
}

// HasChildren reports whether the node has any children.
func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}

// Tree is the forest built for one render.
// Nodes keeps build order; Roots keeps the order roots were encountered.
type Tree struct {
	Roots []*Node
	Nodes []*Node
	index map[int64]*Node
}

// Node returns the node with the given item id.
func (t *Tree) Node(id int64) (*Node, bool) {
	n, ok := t.index[id]
	return n, ok
}

// Len returns the number of nodes across all depths.
func (t *Tree) Len() int {
	return len(t.Nodes)
}

// Walk visits nodes depth first in render order. Returning false skips a node's children.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	var visit func(nodes []*Node, depth int)
	visit = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			if fn(n, depth) {
				visit(n.Children, depth+1)
			}
		}
	}
	visit(t.Roots, 0)
}

// Build converts items, already ordered by (parent_id, order, name), into a forest.
// Children are appended in input order, so sibling order follows the input.
// An item whose parent is not among items is rendered as a root.
// The builder never re-sorts.
func Build(items []*domain.MenuItem, resolver URLResolver, logger *slog.Logger) *Tree {
	tree := &Tree{
		Nodes: make([]*Node, 0, len(items)),
		index: make(map[int64]*Node, len(items)),
	}

	for _, item := range items {
		n := &Node{
			MenuItem:    *item.Clone(),
			ResolvedURL: ResolveURL(item, resolver, logger),
			Children:    []*Node{},
		}
		if _, dup := tree.index[item.ID]; !dup {
			tree.index[item.ID] = n
		}
		tree.Nodes = append(tree.Nodes, n)
	}

	// attached records the parent each node was linked under, so a link that
	// would close a loop in corrupted data can be refused.
	attached := make(map[*Node]*Node, len(tree.Nodes))
	for _, n := range tree.Nodes {
		parent := tree.parentOf(n)
		if parent != nil && closesLoop(attached, n, parent) {
			orDiscard(logger).Warn("parent chain loops, rendering item as root",
				"item_id", n.ID,
				"parent_id", *n.ParentID,
			)
			parent = nil
		}
		if parent == nil {
			tree.Roots = append(tree.Roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
		attached[n] = parent
	}

	if tree.Roots == nil {
		tree.Roots = []*Node{}
	}
	return tree
}

func (t *Tree) parentOf(n *Node) *Node {
	if n.ParentID == nil {
		return nil
	}
	return t.index[*n.ParentID]
}

// closesLoop reports whether linking child under parent makes child its own ancestor.
func closesLoop(attached map[*Node]*Node, child, parent *Node) bool {
	for cur := parent; cur != nil; cur = attached[cur] {
		if cur == child {
			return true
		}
	}
	return false
}
