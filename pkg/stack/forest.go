package stack

import (
	"fmt"
)

// Forest holds one call tree per thread in a flat node store. Roots are kept
// in the order their threads appear in the input.
type Forest struct {
	nodes []Node
	roots []NodeID
}

// NewForest returns an empty forest.
func NewForest() *Forest {
	return &Forest{}
}

// Len returns the total number of nodes across all threads.
func (f *Forest) Len() int {
	return len(f.nodes)
}

// Roots returns the thread root IDs in input order.
func (f *Forest) Roots() []NodeID {
	roots := make([]NodeID, len(f.roots))
	copy(roots, f.roots)
	return roots
}

// Node returns the node stored under id. It panics on an ID that did not
// come from this forest.
func (f *Forest) Node(id NodeID) Node {
	return f.nodes[id]
}

// AddRoot stores n as the root of a new thread.
func (f *Forest) AddRoot(n Node) (NodeID, error) {
	if n.Depth != 0 {
		return NoParent, fmt.Errorf("%w: thread root %q has depth %d", ErrDepth, n.Symbol, n.Depth)
	}
	id := f.add(n, NoParent)
	f.roots = append(f.roots, id)
	return id, nil
}

// AddChild stores n under parent. The child's depth must be exactly one more
// than the parent's.
func (f *Forest) AddChild(parent NodeID, n Node) (NodeID, error) {
	if !f.valid(parent) {
		return NoParent, fmt.Errorf("unknown parent node %d", parent)
	}
	if want := f.nodes[parent].Depth + 1; n.Depth != want {
		return NoParent, fmt.Errorf("%w: %q has depth %d, want %d under %q",
			ErrDepth, n.Symbol, n.Depth, want, f.nodes[parent].Symbol)
	}
	id := f.add(n, parent)
	f.nodes[parent].children = append(f.nodes[parent].children, id)
	return id, nil
}

func (f *Forest) add(n Node, parent NodeID) NodeID {
	n.parent = parent
	n.children = nil
	f.nodes = append(f.nodes, n)
	return NodeID(len(f.nodes) - 1)
}

func (f *Forest) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(f.nodes)
}

// AncestorAtDepth walks up from id, inclusive, to the node at depth.
func (f *Forest) AncestorAtDepth(id NodeID, depth int) (NodeID, error) {
	if !f.valid(id) {
		return NoParent, fmt.Errorf("unknown node %d", id)
	}
	if depth < 0 || depth > f.nodes[id].Depth {
		return NoParent, fmt.Errorf("%w: asked for depth %d from %q at depth %d",
			ErrDepth, depth, f.nodes[id].Symbol, f.nodes[id].Depth)
	}
	for f.nodes[id].Depth > depth {
		id = f.nodes[id].parent
	}
	return id, nil
}

// Path returns the symbol names from the thread root down to id.
func (f *Forest) Path(id NodeID) []string {
	path := make([]string, f.nodes[id].Depth+1)
	for ; id != NoParent; id = f.nodes[id].parent {
		path[f.nodes[id].Depth] = f.nodes[id].Symbol
	}
	return path
}

// Walk visits the subtree under root depth-first, parents before children,
// children in input order. Returning an error from fn stops the walk.
func (f *Forest) Walk(root NodeID, fn func(id NodeID, n Node) error) error {
	if err := fn(root, f.nodes[root]); err != nil {
		return err
	}
	for _, child := range f.nodes[root].children {
		if err := f.Walk(child, fn); err != nil {
			return err
		}
	}
	return nil
}

// SubtreeSize returns the number of nodes under root, root included.
func (f *Forest) SubtreeSize(root NodeID) int {
	size := 0
	_ = f.Walk(root, func(NodeID, Node) error {
		size++
		return nil
	})
	return size
}

// SelfWeightMs sums the self weight of every node under root.
func (f *Forest) SelfWeightMs(root NodeID) float64 {
	var total float64
	_ = f.Walk(root, func(_ NodeID, n Node) error {
		total += n.SelfWeightMs
		return nil
	})
	return total
}
