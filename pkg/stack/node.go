// Package stack reconstructs per-thread call trees from an Instruments
// "Deep Copy" export of the Time Profiler call tree.
package stack

import (
	"fmt"
	"slices"
	"strings"
)

// NodeID addresses a node inside a Forest.
type NodeID int

// NoParent is the parent of every thread root.
const NoParent NodeID = -1

// Node is one call-stack frame. Relations are owned by the Forest the node
// was added to; a Node fresh from NewNode has none.
type Node struct {
	SelfWeightMs float64
	Depth        int
	Symbol       string

	parent   NodeID
	children []NodeID
}

// NewNode builds a node from the Self Weight and Symbol Name columns of a
// data line. Depth is the number of leading spaces of the symbol column.
func NewNode(selfWeightColumn, symbolColumn string) (Node, error) {
	weight, err := ParseSelfWeight(selfWeightColumn)
	if err != nil {
		return Node{}, err
	}
	depth, symbol, err := parseSymbolColumn(symbolColumn)
	if err != nil {
		return Node{}, err
	}
	return Node{
		SelfWeightMs: weight,
		Depth:        depth,
		Symbol:       symbol,
		parent:       NoParent,
	}, nil
}

func parseSymbolColumn(column string) (int, string, error) {
	symbol := strings.TrimLeft(column, " ")
	if symbol == "" {
		return 0, "", ErrEmptySymbol
	}
	return len(column) - len(symbol), symbol, nil
}

// Parent returns the parent ID, or NoParent for a thread root.
func (n Node) Parent() NodeID {
	return n.parent
}

// Children returns the child IDs in the order they appeared in the input.
func (n Node) Children() []NodeID {
	return slices.Clone(n.children)
}

// IsRoot reports whether n is a thread root.
func (n Node) IsRoot() bool {
	return n.parent == NoParent
}

// String renders the single node, indented by its depth.
func (n Node) String() string {
	return fmt.Sprintf("%s%s [%g ms, depth %d]",
		strings.Repeat(" ", n.Depth), n.Symbol, n.SelfWeightMs, n.Depth)
}
