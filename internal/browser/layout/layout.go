// internal/browser/layout/layout.go
// A deterministic block-flow layout engine. It produces viewport-relative
// boxes for the composed tree (light DOM flattened through shadow roots and
// slots) and answers paint-order hit tests. Flex, grid, and table modes are
// folded into block flow; float and margin collapsing are not modeled.
package layout

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/periscope/internal/browser/style"
)

const (
	// DefaultLineHeight approximates one line of rendered text in pixels.
	DefaultLineHeight = 18.0
	// DefaultCharWidth approximates the advance width of one character.
	DefaultCharWidth = 8.0
)

// Rect is an axis-aligned rectangle in viewport coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) falls inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Area returns the rectangle's area.
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// Intersects reports whether two rectangles overlap.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.X+other.Width && other.X < r.X+r.Width &&
		r.Y < other.Y+other.Height && other.Y < r.Y+r.Height
}

// Box is the laid-out geometry of one styled node.
type Box struct {
	Styled *style.StyledNode
	Rect   Rect
	// ZIndex is the effective stacking value inherited down from the
	// nearest positioned ancestor carrying an explicit z-index.
	ZIndex int
	// PaintOrder is the document-order paint sequence; within equal
	// z-index, a higher value paints on top.
	PaintOrder int
	Children   []*Box
}

// Tree holds the full box tree plus lookup indexes.
type Tree struct {
	Root  *Box
	boxes []*Box
	index map[*html.Node]*Box
}

// BoxFor returns the box laid out for the given DOM node, nil when the node
// generated none (display none or detached).
func (t *Tree) BoxFor(n *html.Node) *Box {
	if t == nil {
		return nil
	}
	return t.index[n]
}

// Boxes returns every box in paint order.
func (t *Tree) Boxes() []*Box {
	if t == nil {
		return nil
	}
	return t.boxes
}

// TopmostAt returns the box that would receive a pointer event at (x, y):
// the hit box with the highest z-index, paint order breaking ties. Boxes
// whose computed style hides them never win hit tests.
func (t *Tree) TopmostAt(x, y float64) *Box {
	if t == nil {
		return nil
	}
	var best *Box
	for _, b := range t.boxes {
		if !b.Rect.Contains(x, y) {
			continue
		}
		if b.Styled != nil && !b.Styled.IsRendered() {
			continue
		}
		if best == nil || b.ZIndex > best.ZIndex ||
			(b.ZIndex == best.ZIndex && b.PaintOrder > best.PaintOrder) {
			best = b
		}
	}
	return best
}

// Engine lays out styled trees into box trees.
type Engine struct {
	viewportWidth  float64
	viewportHeight float64
}

// NewEngine creates a layout engine for the given viewport size.
func NewEngine(viewportWidth, viewportHeight float64) *Engine {
	if viewportWidth <= 0 {
		viewportWidth = 1280
	}
	if viewportHeight <= 0 {
		viewportHeight = 720
	}
	return &Engine{viewportWidth: viewportWidth, viewportHeight: viewportHeight}
}

// Layout computes geometry for the whole styled tree.
func (e *Engine) Layout(root *style.StyledNode) *Tree {
	t := &Tree{index: make(map[*html.Node]*Box)}
	if root == nil {
		return t
	}
	paint := 0
	t.Root = e.layoutNode(t, root, Rect{X: 0, Y: 0, Width: e.viewportWidth, Height: e.viewportHeight}, 0, &paint)
	return t
}

// layoutNode lays out one node inside the given containing block and returns
// its box, nil when it generates none.
func (e *Engine) layoutNode(t *Tree, sn *style.StyledNode, containing Rect, inheritedZ int, paint *int) *Box {
	if sn == nil || sn.Node == nil {
		return nil
	}
	if sn.Node.Type == html.TextNode {
		return e.layoutText(t, sn, containing, inheritedZ, paint)
	}
	if sn.Node.Type != html.ElementNode && sn.Node.Type != html.DocumentNode {
		return nil
	}
	if sn.Display() == style.DisplayNone {
		return nil
	}

	z := inheritedZ
	if explicit := sn.ZIndex(); explicit != 0 {
		z = explicit
	}

	box := &Box{Styled: sn, ZIndex: z, PaintOrder: *paint}
	*paint++

	rect := e.resolveRect(sn, containing)
	box.Rect = rect

	contentHeight := e.layoutChildren(t, box, composedChildren(sn), rect, z, paint)

	// Height auto: take the flowed content height, or the intrinsic
	// minimum for empty interactive controls.
	if style.Px(sn.Lookup("height", "auto"), -1) < 0 {
		h := contentHeight
		if ih := intrinsicHeight(sn.Node); h < ih {
			h = ih
		}
		box.Rect.Height = h
	}

	if sn.Node.Type == html.ElementNode {
		t.index[sn.Node] = box
	}
	t.boxes = append(t.boxes, box)
	return box
}

// resolveRect computes the border-box rectangle before children are flowed.
func (e *Engine) resolveRect(sn *style.StyledNode, containing Rect) Rect {
	rect := Rect{X: containing.X, Y: containing.Y}

	switch sn.Display() {
	case style.DisplayBlock:
		rect.Width = style.Px(sn.Lookup("width", "auto"), containing.Width)
	default:
		rect.Width = style.Px(sn.Lookup("width", "auto"), intrinsicWidth(sn.Node, containing.Width))
	}
	if rect.Width > containing.Width {
		rect.Width = containing.Width
	}
	rect.Height = style.Px(sn.Lookup("height", "auto"), 0)

	switch strings.TrimSpace(sn.Lookup("position", "static")) {
	case "fixed":
		rect.X = style.Px(sn.Lookup("left", "0"), 0)
		rect.Y = style.Px(sn.Lookup("top", "0"), 0)
	case "absolute":
		rect.X = containing.X + style.Px(sn.Lookup("left", "0"), 0)
		rect.Y = containing.Y + style.Px(sn.Lookup("top", "0"), 0)
	case "relative":
		rect.X += style.Px(sn.Lookup("left", "0"), 0)
		rect.Y += style.Px(sn.Lookup("top", "0"), 0)
	}
	return rect
}

// layoutChildren flows children into the content area: block children stack
// vertically, inline and inline-block children run horizontally and wrap.
// Returns the total flowed height.
func (e *Engine) layoutChildren(t *Tree, parent *Box, children []*style.StyledNode, content Rect, z int, paint *int) float64 {
	cursorX := content.X
	cursorY := content.Y
	lineHeight := 0.0

	flushLine := func() {
		cursorX = content.X
		cursorY += lineHeight
		lineHeight = 0
	}

	for _, child := range children {
		if child == nil || child.Display() == style.DisplayNone {
			continue
		}
		outOfFlow := false
		if child.Node != nil && child.Node.Type == html.ElementNode {
			pos := strings.TrimSpace(child.Lookup("position", "static"))
			outOfFlow = pos == "absolute" || pos == "fixed"
		}

		if outOfFlow {
			if box := e.layoutNode(t, child, content, z, paint); box != nil {
				parent.Children = append(parent.Children, box)
			}
			continue
		}

		switch child.Display() {
		case style.DisplayBlock:
			if lineHeight > 0 {
				flushLine()
			}
			slot := Rect{X: content.X, Y: cursorY, Width: content.Width}
			box := e.layoutNode(t, child, slot, z, paint)
			if box != nil {
				parent.Children = append(parent.Children, box)
				cursorY += box.Rect.Height
			}
		default:
			// Measure first so the wrap decision uses the real width.
			w := inlineWidth(child, content.Width)
			if cursorX > content.X && cursorX+w > content.X+content.Width {
				flushLine()
			}
			slot := Rect{X: cursorX, Y: cursorY, Width: content.Width - (cursorX - content.X)}
			box := e.layoutNode(t, child, slot, z, paint)
			if box != nil {
				parent.Children = append(parent.Children, box)
				cursorX += box.Rect.Width
				if box.Rect.Height > lineHeight {
					lineHeight = box.Rect.Height
				}
			}
		}
	}
	if lineHeight > 0 {
		cursorY += lineHeight
	}
	return cursorY - content.Y
}

// layoutText gives a text run an estimated box and records it unindexed.
func (e *Engine) layoutText(t *Tree, sn *style.StyledNode, containing Rect, z int, paint *int) *Box {
	text := strings.TrimSpace(sn.Node.Data)
	if text == "" {
		return nil
	}
	w := float64(len(text)) * DefaultCharWidth
	h := DefaultLineHeight
	if containing.Width > 0 && w > containing.Width {
		lines := (w + containing.Width - 1) / containing.Width
		h = float64(int(lines)) * DefaultLineHeight
		w = containing.Width
	}
	box := &Box{
		Styled:     sn,
		ZIndex:     z,
		PaintOrder: *paint,
		Rect:       Rect{X: containing.X, Y: containing.Y, Width: w, Height: h},
	}
	*paint++
	t.boxes = append(t.boxes, box)
	return box
}

// composedChildren flattens shadow roots and slot assignments so layout walks
// the composed tree the way a browser renders it.
func composedChildren(sn *style.StyledNode) []*style.StyledNode {
	if sn.ShadowRoot != nil {
		return []*style.StyledNode{sn.ShadowRoot}
	}
	if sn.Node != nil && sn.Node.Type == html.ElementNode && sn.Node.Data == "slot" {
		if len(sn.SlotAssignment) > 0 {
			return sn.SlotAssignment
		}
		return sn.Children // fallback content
	}
	return sn.Children
}

// inlineWidth estimates the width an inline-level child will occupy, used for
// line wrapping before the child is actually laid out.
func inlineWidth(sn *style.StyledNode, available float64) float64 {
	if sn.Node != nil && sn.Node.Type == html.TextNode {
		w := float64(len(strings.TrimSpace(sn.Node.Data))) * DefaultCharWidth
		if w > available {
			return available
		}
		return w
	}
	if w := style.Px(sn.Lookup("width", "auto"), -1); w >= 0 {
		return w
	}
	return intrinsicWidth(sn.Node, available)
}

// intrinsicWidth returns the default rendered width of an element with no
// explicit width. Form controls get their typical browser defaults.
func intrinsicWidth(n *html.Node, available float64) float64 {
	if n == nil || n.Type != html.ElementNode {
		return 0
	}
	switch strings.ToLower(n.Data) {
	case "input":
		switch strings.ToLower(attrVal(n, "type")) {
		case "checkbox", "radio":
			return 14
		case "hidden":
			return 0
		default:
			return 170
		}
	case "select":
		return 170
	case "textarea":
		return 260
	case "button":
		return estimateTextWidth(n, 80)
	case "img":
		return attrPx(n, "width", 0)
	case "iframe", "frame":
		return attrPx(n, "width", 300)
	default:
		w := estimateTextWidth(n, 0)
		if w > available {
			return available
		}
		return w
	}
}

// intrinsicHeight returns the default rendered height for elements whose
// height is not determined by flowed content.
func intrinsicHeight(n *html.Node) float64 {
	if n == nil || n.Type != html.ElementNode {
		return 0
	}
	switch strings.ToLower(n.Data) {
	case "input":
		switch strings.ToLower(attrVal(n, "type")) {
		case "checkbox", "radio":
			return 14
		case "hidden":
			return 0
		default:
			return 24
		}
	case "select", "button":
		return 24
	case "textarea":
		return 60
	case "img":
		return attrPx(n, "height", 0)
	case "iframe", "frame":
		return attrPx(n, "height", 150)
	default:
		return 0
	}
}

// estimateTextWidth sums the direct text content length times the average
// character advance, bounded below by min.
func estimateTextWidth(n *html.Node, min float64) float64 {
	total := 0
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				total += len(strings.TrimSpace(c.Data))
			}
			walk(c.FirstChild)
		}
	}
	walk(n.FirstChild)
	w := float64(total) * DefaultCharWidth
	if w < min {
		return min
	}
	return w
}

func attrVal(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func attrPx(n *html.Node, name string, fallback float64) float64 {
	raw := strings.TrimSpace(attrVal(n, name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "px"), 64)
	if err != nil {
		return fallback
	}
	return v
}
