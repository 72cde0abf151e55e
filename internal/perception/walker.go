// internal/perception/walker.go
package perception

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/periscope/api/schemas"
	"github.com/xkilldash9x/periscope/internal/browser/dom"
	"github.com/xkilldash9x/periscope/internal/browser/page"
	"github.com/xkilldash9x/periscope/internal/browser/style"
)

// walker performs the pre-order traversal that mirrors the page tree into
// Nodes. The highlight counter lives on the walker instance, never in
// package state, so independent walks cannot interfere.
type walker struct {
	opts    Options
	counter int
}

// frameContext carries the enclosing-frame state through recursion.
type frameContext struct {
	offsetX, offsetY float64
	inFrame          bool
}

// walkDocument mirrors one document and returns its root Node.
func (w *walker) walkDocument(doc *page.Document, fc frameContext, scopePrefix string) *Node {
	if doc == nil || doc.Styled == nil {
		return nil
	}
	o := &oracle{doc: doc, expansion: w.opts.ViewportExpansion}
	return w.walkStyled(doc, o, doc.Styled, fc, scopePrefix, OriginLight)
}

func (w *walker) walkStyled(doc *page.Document, o *oracle, sn *style.StyledNode, fc frameContext, scopePrefix string, origin Origin) *Node {
	if sn == nil || sn.Node == nil {
		return nil
	}

	switch sn.Node.Type {
	case html.TextNode:
		return w.walkText(doc, o, sn, fc, origin)
	case html.DocumentNode:
		// The document node itself carries nothing; mirror it as a
		// pass-through element so children keep their order.
		root := &Node{Kind: KindElement, Tag: "#document", Origin: origin, Path: scopePrefix + "/"}
		w.walkChildren(doc, o, sn, root, fc, scopePrefix, origin)
		return root
	case html.ElementNode:
		// handled below
	default:
		return nil
	}

	tag := strings.ToLower(sn.Node.Data)
	if isDenylisted(tag) {
		return nil
	}

	data := dom.ExtractElementData(sn.Node)
	node := &Node{
		Kind:       KindElement,
		Tag:        tag,
		Attributes: data.Attributes,
		Path:       scopePrefix + dom.NodePath(sn.Node),
		Origin:     origin,
		data:       data,
		node:       sn.Node,
	}

	node.Visible = o.isVisible(sn)
	node.Topmost = o.isTopmost(sn, fc.inFrame)
	node.Interactive = isInteractive(doc, sn, tag, data)
	node.Editable = isEditable(tag, data)

	if node.Interactive && node.Visible && node.Topmost {
		idx := w.counter
		w.counter++
		node.HighlightIndex = &idx
		if w.opts.Highlight && (w.opts.FocusIndex < 0 || w.opts.FocusIndex == idx) {
			node.Geometry = w.captureGeometry(doc, sn, fc)
		}
	}

	if tag == "iframe" || tag == "frame" {
		w.walkFrame(doc, sn, node)
		return node
	}

	w.walkChildren(doc, o, sn, node, fc, scopePrefix, origin)

	// Shadow children come after light children, tagged with their origin
	// so consumers can tell the composition boundary apart.
	if sn.ShadowRoot != nil {
		shadowPrefix := node.Path + "::"
		for _, child := range sn.ShadowRoot.Children {
			if mirrored := w.walkStyled(doc, o, child, fc, shadowPrefix, OriginShadow); mirrored != nil {
				node.Children = append(node.Children, mirrored)
			}
		}
	}
	return node
}

func (w *walker) walkChildren(doc *page.Document, o *oracle, sn *style.StyledNode, parent *Node, fc frameContext, scopePrefix string, origin Origin) {
	for _, child := range sn.Children {
		if mirrored := w.walkStyled(doc, o, child, fc, scopePrefix, origin); mirrored != nil {
			parent.Children = append(parent.Children, mirrored)
		}
	}
}

// walkFrame resolves a frame element's children from the frame's own
// document body. An unreachable frame yields no children and the walk
// continues.
func (w *walker) walkFrame(doc *page.Document, sn *style.StyledNode, node *Node) {
	var frame *page.Frame
	for _, f := range doc.Frames {
		if f.Element == sn.Node {
			frame = f
			break
		}
	}
	if frame == nil || frame.Document == nil || frame.Document.Styled == nil {
		return
	}

	childFC := frameContext{
		offsetX: frame.OffsetX,
		offsetY: frame.OffsetY,
		inFrame: true,
	}
	framePrefix := node.Path + "::"
	childOracle := &oracle{doc: frame.Document, expansion: w.opts.ViewportExpansion}

	body := findBody(frame.Document.Styled)
	if body == nil {
		body = frame.Document.Styled
	}
	for _, child := range body.Children {
		if mirrored := w.walkStyled(frame.Document, childOracle, child, childFC, framePrefix, OriginFrame); mirrored != nil {
			node.Children = append(node.Children, mirrored)
		}
	}
}

// walkText keeps a text node only when its trimmed content is non-empty and
// a lightweight probe passes: the parent renders, occupies area, and sits
// within the vertical viewport band.
func (w *walker) walkText(doc *page.Document, o *oracle, sn *style.StyledNode, fc frameContext, origin Origin) *Node {
	text := strings.TrimSpace(sn.Node.Data)
	if text == "" {
		return nil
	}
	parent := sn.Parent
	if parent == nil || parent.Node == nil || parent.Node.Type != html.ElementNode {
		return nil
	}
	if !parent.IsRendered() {
		return nil
	}
	box := doc.BoxFor(parent.Node)
	if box == nil || box.Rect.Width <= 0 || box.Rect.Height <= 0 {
		return nil
	}
	if w.opts.ViewportExpansion != UnboundedExpansion && !fc.inFrame {
		top := doc.ScrollY - w.opts.ViewportExpansion
		bottom := doc.ScrollY + doc.ViewportHeight + w.opts.ViewportExpansion
		if box.Rect.Y+box.Rect.Height < top || box.Rect.Y > bottom {
			return nil
		}
	}
	return &Node{Kind: KindText, Text: dom.TruncateText(text), Origin: origin}
}

func (w *walker) captureGeometry(doc *page.Document, sn *style.StyledNode, fc frameContext) *schemas.Geometry {
	box := doc.BoxFor(sn.Node)
	if box == nil {
		return nil
	}
	return &schemas.Geometry{
		X:            box.Rect.X,
		Y:            box.Rect.Y,
		Width:        box.Rect.Width,
		Height:       box.Rect.Height,
		FrameOffsetX: fc.offsetX,
		FrameOffsetY: fc.offsetY,
		ScrollX:      doc.ScrollX,
		ScrollY:      doc.ScrollY,
	}
}

// findBody locates the body element in a styled tree.
func findBody(sn *style.StyledNode) *style.StyledNode {
	if sn == nil {
		return nil
	}
	if sn.Node != nil && sn.Node.Type == html.ElementNode && strings.EqualFold(sn.Node.Data, "body") {
		return sn
	}
	for _, c := range sn.Children {
		if found := findBody(c); found != nil {
			return found
		}
	}
	return nil
}
