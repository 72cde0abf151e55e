// internal/perception/classify.go
package perception

import (
	"strconv"
	"strings"

	"github.com/xkilldash9x/periscope/internal/browser/dom"
	"github.com/xkilldash9x/periscope/internal/browser/page"
	"github.com/xkilldash9x/periscope/internal/browser/style"
)

// interactiveCursors is the allowlist of computed cursor values that signal
// an interactive element. Busy and denial cursors are deliberately absent.
var interactiveCursors = map[string]bool{
	"pointer": true, "move": true, "text": true, "vertical-text": true,
	"grab": true, "grabbing": true, "cell": true, "copy": true,
	"alias": true, "all-scroll": true, "crosshair": true,
	"col-resize": true, "row-resize": true,
	"n-resize": true, "s-resize": true, "e-resize": true, "w-resize": true,
	"ne-resize": true, "nw-resize": true, "se-resize": true, "sw-resize": true,
	"ew-resize": true, "ns-resize": true, "nesw-resize": true, "nwse-resize": true,
	"zoom-in": true, "zoom-out": true,
}

// interactiveTags is the allowlist of inherently interactive element tags.
var interactiveTags = map[string]bool{
	"a": true, "button": true, "input": true, "select": true,
	"textarea": true, "menu": true, "menuitem": true, "object": true,
	"embed": true, "summary": true, "details": true, "label": true,
}

// interactiveRoles is the allowlist of interactive ARIA roles.
var interactiveRoles = map[string]bool{
	"button": true, "link": true, "checkbox": true, "radio": true,
	"menuitem": true, "menuitemcheckbox": true, "menuitemradio": true,
	"option": true, "switch": true, "tab": true, "combobox": true,
	"listbox": true, "searchbox": true, "textbox": true, "slider": true,
	"spinbutton": true, "gridcell": true, "treeitem": true,
}

// clickHandlerAttrs covers inline handlers and the click-binding attributes
// of common frontend frameworks.
var clickHandlerAttrs = []string{
	"onclick", "onmousedown", "onmouseup", "ondblclick",
	"ontouchstart", "ontouchend",
	"ng-click", "v-on:click", "@click", "x-on:click",
	"hx-get", "hx-post",
}

// dropdownMarkerAttrs covers data attributes used by widespread dropdown and
// widget library conventions.
var dropdownMarkerAttrs = []string{
	"data-toggle", "data-bs-toggle", "data-dropdown", "data-action",
}

// ariaStateAttrs signal interactivity when present at all, whatever their
// current value.
var ariaStateAttrs = []string{
	"aria-expanded", "aria-pressed", "aria-selected", "aria-checked",
}

// structuralDenylist names element types rejected before classification runs:
// vector graphics leaves and non-rendered metadata tags.
var structuralDenylist = map[string]bool{
	"svg": true, "path": true, "circle": true, "rect": true, "line": true,
	"polygon": true, "polyline": true, "ellipse": true, "g": true,
	"defs": true, "use": true,
	"script": true, "style": true, "link": true, "meta": true,
	"head": true, "noscript": true, "template": true, "base": true,
}

// isDenylisted reports whether the tag is rejected during traversal.
func isDenylisted(tag string) bool {
	return structuralDenylist[tag]
}

// isInteractive casts a deliberately wide net: any single signal is enough.
// A missed affordance costs more than a false positive. The document root
// never qualifies regardless of its computed cursor.
func isInteractive(doc *page.Document, sn *style.StyledNode, tag string, data dom.ElementData) bool {
	if tag == "html" || tag == "body" {
		return false
	}

	if interactiveCursors[sn.Cursor()] {
		return true
	}
	if interactiveTags[tag] {
		return true
	}

	role := data.Attr("role")
	if role == "" {
		role = data.Attr("aria-role")
	}
	if interactiveRoles[strings.ToLower(role)] {
		return true
	}
	if ti, err := strconv.Atoi(strings.TrimSpace(data.Attr("tabindex"))); err == nil && ti >= 0 {
		return true
	}
	for _, attr := range dropdownMarkerAttrs {
		if data.HasAttr(attr) {
			return true
		}
	}

	for _, attr := range clickHandlerAttrs {
		if data.HasAttr(attr) {
			return true
		}
	}
	if doc != nil && doc.HasListener(sn.Node) {
		return true
	}

	for _, attr := range ariaStateAttrs {
		if data.HasAttr(attr) {
			return true
		}
	}

	if strings.EqualFold(data.Attr("draggable"), "true") {
		return true
	}
	return false
}
