// internal/browser/shadowdom/shadow.go
// Declarative shadow DOM support: detection of <template shadowrootmode>
// hosts, instantiation of their shadow trees, and slot distribution.
package shadowdom

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/periscope/internal/browser/parser"
	"github.com/xkilldash9x/periscope/internal/browser/style"
)

// BoundaryTag names the synthetic element used as a shadow root container.
// It never appears in real markup, so the positional path builder can treat
// it as a document boundary.
const BoundaryTag = "shadow-root-boundary"

// Engine instantiates declarative shadow roots and distributes slotted
// content. It is stateless; the zero value is ready to use.
type Engine struct{}

// NewEngine returns a ready shadow DOM engine.
func NewEngine() *Engine { return &Engine{} }

// DetectShadowHost reports whether node directly contains a
// <template shadowrootmode="..."> child, making it a shadow host.
func (e *Engine) DetectShadowHost(node *html.Node) bool {
	return findShadowTemplate(node) != nil
}

// InstantiateShadowRoot clones the host's shadow template content into a
// synthetic boundary element and extracts its top-level <style> sheets.
// Nested templates stay inert; their styles are not parsed here.
// Returns (nil, nil) when the host has no shadow template.
func (e *Engine) InstantiateShadowRoot(host *html.Node) (*html.Node, []parser.StyleSheet) {
	tmpl := findShadowTemplate(host)
	if tmpl == nil {
		return nil, nil
	}

	root := &html.Node{
		Type: html.ElementNode,
		Data: BoundaryTag,
	}

	// net/html stores template content directly as children of the
	// <template> node.
	for c := tmpl.FirstChild; c != nil; c = c.NextSibling {
		clone := cloneNode(c)
		root.AppendChild(clone)
	}

	var sheets []parser.StyleSheet
	var next *html.Node
	for c := root.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type != html.ElementNode || !strings.EqualFold(c.Data, "style") {
			continue
		}
		var css strings.Builder
		for t := c.FirstChild; t != nil; t = t.NextSibling {
			if t.Type == html.TextNode {
				css.WriteString(t.Data)
			}
		}
		if strings.TrimSpace(css.String()) != "" {
			sheets = append(sheets, parser.NewParser(css.String()).Parse())
		}
		root.RemoveChild(c)
	}

	return root, sheets
}

// AssignSlots distributes the host's light DOM children into the <slot>
// elements of its instantiated shadow tree. Children with a slot attribute
// go to the matching named slot; everything else goes to the first unnamed
// slot. Slots that receive nothing keep their fallback children.
func (e *Engine) AssignSlots(host *style.StyledNode) {
	if host == nil || host.ShadowRoot == nil {
		return
	}

	named := make(map[string]*style.StyledNode)
	var defaultSlot *style.StyledNode
	var walk func(*style.StyledNode)
	walk = func(sn *style.StyledNode) {
		if sn == nil {
			return
		}
		if sn.Node != nil && sn.Node.Type == html.ElementNode && sn.Node.Data == "slot" {
			name := getAttr(sn.Node, "name")
			if name == "" {
				if defaultSlot == nil {
					defaultSlot = sn
				}
			} else if _, taken := named[name]; !taken {
				named[name] = sn
			}
		}
		for _, child := range sn.Children {
			walk(child)
		}
	}
	walk(host.ShadowRoot)

	for _, child := range host.Children {
		if child.Node == nil {
			continue
		}
		switch child.Node.Type {
		case html.ElementNode:
			if strings.EqualFold(child.Node.Data, "template") {
				continue
			}
			if name := getAttr(child.Node, "slot"); name != "" {
				if slot, ok := named[name]; ok {
					slot.SlotAssignment = append(slot.SlotAssignment, child)
				}
				continue
			}
			if defaultSlot != nil {
				defaultSlot.SlotAssignment = append(defaultSlot.SlotAssignment, child)
			}
		case html.TextNode:
			if strings.TrimSpace(child.Node.Data) == "" {
				continue
			}
			if defaultSlot != nil {
				defaultSlot.SlotAssignment = append(defaultSlot.SlotAssignment, child)
			}
		}
	}
}

// findShadowTemplate returns the first direct <template> child of node that
// carries a shadowrootmode attribute, nil otherwise.
func findShadowTemplate(node *html.Node) *html.Node {
	if node == nil || node.Type != html.ElementNode {
		return nil
	}
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || !strings.EqualFold(c.Data, "template") {
			continue
		}
		mode := getAttr(c, "shadowrootmode")
		if mode == "open" || mode == "closed" {
			return c
		}
	}
	return nil
}

// getAttr looks up an attribute value case-insensitively; empty when absent.
func getAttr(node *html.Node, name string) string {
	if node == nil {
		return ""
	}
	for _, a := range node.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

// cloneNode deep-copies a node and its subtree, detached from any parent.
func cloneNode(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	clone := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      make([]html.Attribute, len(n.Attr)),
	}
	copy(clone.Attr, n.Attr)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		clone.AppendChild(cloneNode(c))
	}
	return clone
}
