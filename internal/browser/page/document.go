// browser/page/document.go
package page

import (
	"net/url"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/periscope/internal/browser/layout"
	"github.com/xkilldash9x/periscope/internal/browser/style"
)

// ListenerSource reports whether a DOM node has event listeners attached by
// script. The live capture session answers from browser instrumentation; the
// static path has no script execution, so the zero source answers false.
type ListenerSource interface {
	HasListener(node *html.Node) bool
}

// NoListeners is the ListenerSource for documents with no runtime
// instrumentation.
type NoListeners struct{}

// HasListener always reports false.
func (NoListeners) HasListener(*html.Node) bool { return false }

// Frame is a nested browsing context embedded in a parent document.
type Frame struct {
	// Element is the <iframe> or <frame> node in the parent document.
	Element *html.Node
	// Document is the frame's own document, nil when the frame source was
	// unreachable or empty.
	Document *Document
	// OffsetX and OffsetY locate the frame's content origin in root
	// viewport coordinates, accumulated through ancestor frames.
	OffsetX float64
	OffsetY float64
}

// Document is a fully processed browsing context: parsed DOM, computed
// styles, laid-out geometry, and nested frames.
type Document struct {
	URL    *url.URL
	Root   *html.Node
	Styled *style.StyledNode
	Layout *layout.Tree

	// ScrollX and ScrollY are the document's current scroll offsets.
	ScrollX float64
	ScrollY float64

	ViewportWidth  float64
	ViewportHeight float64

	Frames    []*Frame
	Listeners ListenerSource
}

// BoxFor returns the laid-out box for a node in this document, nil when the
// node generated none.
func (d *Document) BoxFor(n *html.Node) *layout.Box {
	if d == nil || d.Layout == nil {
		return nil
	}
	return d.Layout.BoxFor(n)
}

// HasListener answers through the document's listener source.
func (d *Document) HasListener(n *html.Node) bool {
	if d == nil || d.Listeners == nil {
		return false
	}
	return d.Listeners.HasListener(n)
}
