// internal/perception/oracle.go
package perception

import (
	"strings"

	"github.com/xkilldash9x/periscope/internal/browser/dom"
	"github.com/xkilldash9x/periscope/internal/browser/layout"
	"github.com/xkilldash9x/periscope/internal/browser/page"
	"github.com/xkilldash9x/periscope/internal/browser/style"
)

// UnboundedExpansion is the viewport expansion sentinel that makes every
// element topmost, disabling occlusion checks entirely.
const UnboundedExpansion = -1

// oracle answers the per-node geometry, visibility, and editability
// questions for one document.
type oracle struct {
	doc       *page.Document
	expansion float64
}

// isVisible requires a non-zero rendered box and a computed style that does
// not hide the element. Elements with display none generate no box at all.
func (o *oracle) isVisible(sn *style.StyledNode) bool {
	if sn == nil || !sn.IsRendered() {
		return false
	}
	box := o.doc.BoxFor(sn.Node)
	return box != nil && box.Rect.Width > 0 && box.Rect.Height > 0
}

// isTopmost reports whether the element is the front-most hit at its own
// center. Frame-embedded documents are always topmost since cross-frame
// point queries are unreliable. The unbounded sentinel short-circuits to
// true. Elements fully outside the expanded viewport window are never
// topmost; elements inside it are hit-tested at their center, walking
// ancestry from the hit result looking for the element itself. A failed hit
// test degrades to "assume topmost".
func (o *oracle) isTopmost(sn *style.StyledNode, inFrame bool) bool {
	if inFrame {
		return true
	}
	if o.expansion == UnboundedExpansion {
		return true
	}
	box := o.doc.BoxFor(sn.Node)
	if box == nil {
		return false
	}
	if !o.inExpandedViewport(box) {
		return false
	}

	cx, cy := box.Rect.Center()
	hit := o.doc.Layout.TopmostAt(cx, cy)
	if hit == nil || hit.Styled == nil {
		// Point query failed; prefer a false positive over dropping
		// the affordance.
		return true
	}
	for cursor := hit.Styled; cursor != nil; cursor = cursor.Parent {
		if cursor == sn {
			return true
		}
	}
	return false
}

// inExpandedViewport tests intersection with the viewport window grown by
// the configured margin, accounting for current scroll offsets.
func (o *oracle) inExpandedViewport(box *layout.Box) bool {
	window := layout.Rect{
		X:      o.doc.ScrollX - o.expansion,
		Y:      o.doc.ScrollY - o.expansion,
		Width:  o.doc.ViewportWidth + 2*o.expansion,
		Height: o.doc.ViewportHeight + 2*o.expansion,
	}
	return box.Rect.Intersects(window)
}

// writableTags is the form-control family whose editability is governed by
// the readonly attribute.
var writableTags = map[string]bool{
	"input": true, "select": true, "textarea": true,
}

// isEditable follows the disabled and readonly semantics of form controls
// and contenteditable regions. Everything else is non-editable.
func isEditable(tag string, data dom.ElementData) bool {
	if data.HasAttr("disabled") || isTruthy(data.Attr("aria-disabled")) {
		return false
	}
	if writableTags[tag] {
		return !data.HasAttr("readonly") && !isTruthy(data.Attr("aria-readonly"))
	}
	if ce, ok := data.Attributes["contenteditable"]; ok && ce != "false" {
		return !data.HasAttr("readonly")
	}
	return false
}

// isTruthy interprets ARIA-style boolean attribute values.
func isTruthy(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	return v == "true" || v == "1"
}
