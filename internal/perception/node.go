// internal/perception/node.go
package perception

import (
	"golang.org/x/net/html"

	"github.com/xkilldash9x/periscope/api/schemas"
	"github.com/xkilldash9x/periscope/internal/browser/dom"
)

// NodeKind distinguishes element mirrors from text mirrors.
type NodeKind int

const (
	KindElement NodeKind = iota
	KindText
)

// Origin records which side of a composition boundary a node came from, so
// downstream consumers can tell shadow and frame content apart from ordinary
// light DOM.
type Origin int

const (
	OriginLight Origin = iota
	OriginShadow
	OriginFrame
)

// Node is the in-memory mirror of one visited page tree node. A tree of
// Nodes is built fresh on every extraction and discarded after compilation.
type Node struct {
	Kind       NodeKind
	Tag        string
	Text       string
	Attributes map[string]string
	Path       string
	Origin     Origin
	Children   []*Node

	// Affordance flags, element nodes only. Text nodes never carry them.
	Interactive bool
	Visible     bool
	Topmost     bool
	Editable    bool

	// HighlightIndex is set iff the node is interactive, visible, and
	// topmost. Indices come from one counter threaded through the walk.
	HighlightIndex *int

	// Geometry is captured only for highlighted nodes when the caller
	// requested highlighting.
	Geometry *schemas.Geometry

	data dom.ElementData
	node *html.Node
}

// Highlighted reports whether the node passed all three affordance filters.
func (n *Node) Highlighted() bool {
	return n.HighlightIndex != nil
}

// Data exposes the extracted element payload for compilation.
func (n *Node) Data() dom.ElementData {
	return n.data
}

// collectHighlighted appends every highlighted node in traversal order.
func collectHighlighted(n *Node, out *[]*Node) {
	if n == nil {
		return
	}
	if n.Highlighted() {
		*out = append(*out, n)
	}
	for _, c := range n.Children {
		collectHighlighted(c, out)
	}
}
