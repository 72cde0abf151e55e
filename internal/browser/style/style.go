// internal/browser/style/style.go
package style

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/periscope/internal/browser/parser"
)

// ShadowDOMProcessor is the contract for the module that instantiates
// declarative shadow roots. An interface keeps the style engine decoupled from
// the shadow DOM implementation and breaks the import cycle.
type ShadowDOMProcessor interface {
	DetectShadowHost(node *html.Node) bool
	InstantiateShadowRoot(host *html.Node) (*html.Node, []parser.StyleSheet)
}

// DefaultUserAgentCSS provides the tag-level defaults the perception pipeline
// relies on: display classes, default visibility, and interactive cursors.
const DefaultUserAgentCSS = `
html, body, div, p, h1, h2, h3, h4, h5, h6, ul, ol, li, form, fieldset,
header, footer, section, article, nav, main, aside, table, iframe, frame,
blockquote, pre, dl, dt, dd, figure, details, summary,
shadow-root-boundary {
    display: block;
}

head, script, style, link, meta, title, template, noscript {
    display: none;
}

span, a, label, b, i, u, em, strong, small, code, img, abbr, sub, sup {
    display: inline;
}

input, button, textarea, select, object, embed {
    display: inline-block;
    cursor: default;
}

a {
    cursor: pointer;
}

button, select, summary, input[type="submit"], input[type="button"],
input[type="reset"], input[type="checkbox"], input[type="radio"] {
    cursor: pointer;
}

input[type="text"], input[type="search"], input[type="email"],
input[type="password"], input[type="url"], input[type="tel"],
input[type="number"], textarea {
    cursor: text;
}
`

// StyledNode is a DOM node annotated with its computed styles.
type StyledNode struct {
	Node           *html.Node
	ComputedStyles map[parser.Property]parser.Value
	Children       []*StyledNode
	Parent         *StyledNode

	// ShadowRoot holds the styled subtree instantiated from a declarative
	// shadow template, nil for ordinary elements.
	ShadowRoot *StyledNode
	// SlotAssignment lists the host children distributed into this <slot>.
	SlotAssignment []*StyledNode
	// InShadowTree marks nodes living inside a shadow root.
	InShadowTree bool
}

// Engine performs the cascade: user agent sheet, author sheets, inline styles.
type Engine struct {
	userAgentSheets []parser.StyleSheet
	authorSheets    []parser.StyleSheet
	shadowEngine    ShadowDOMProcessor
}

// NewEngine creates a styling engine. shadowEngine may be nil, in which case
// shadow hosts are styled as plain elements.
func NewEngine(shadowEngine ShadowDOMProcessor) *Engine {
	uaSheet := parser.NewParser(DefaultUserAgentCSS).Parse()
	return &Engine{
		shadowEngine:    shadowEngine,
		userAgentSheets: []parser.StyleSheet{uaSheet},
	}
}

// AddAuthorSheet registers a stylesheet provided by the page author.
func (se *Engine) AddAuthorSheet(sheet parser.StyleSheet) {
	se.authorSheets = append(se.authorSheets, sheet)
}

// inheritable lists the properties passed from parent to child when the child
// has no own declaration. Cursor and visibility inherit per CSS; the oracle
// and classifier depend on both.
var inheritable = map[parser.Property]bool{
	"color": true, "font-family": true, "font-size": true, "font-weight": true,
	"text-align": true, "visibility": true, "cursor": true,
}

// BuildTree computes styles for the whole document rooted at node.
func (se *Engine) BuildTree(node *html.Node, parent *StyledNode) *StyledNode {
	return se.buildRecursive(node, parent, se.authorSheets, parent != nil && parent.InShadowTree)
}

func (se *Engine) buildRecursive(node *html.Node, parent *StyledNode, scopedSheets []parser.StyleSheet, inShadow bool) *StyledNode {
	if node.Type == html.CommentNode || node.Type == html.DoctypeNode {
		return nil
	}

	computed := make(map[parser.Property]parser.Value)
	if node.Type == html.ElementNode {
		computed = se.calculateStyles(node, scopedSheets)
	}

	sn := &StyledNode{
		Node:           node,
		ComputedStyles: computed,
		Parent:         parent,
		InShadowTree:   inShadow,
	}

	if parent != nil {
		inheritStyles(sn, parent)
	}

	if node.Type == html.ElementNode && se.shadowEngine != nil && se.shadowEngine.DetectShadowHost(node) {
		shadowRoot, shadowSheets := se.shadowEngine.InstantiateShadowRoot(node)
		if shadowRoot != nil {
			// Shadow trees see the host's scoped sheets plus their own.
			sheets := append(append([]parser.StyleSheet{}, scopedSheets...), shadowSheets...)
			sn.ShadowRoot = se.buildRecursive(shadowRoot, sn, sheets, true)
		}
	}

	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if child := se.buildRecursive(c, sn, scopedSheets, inShadow); child != nil {
			sn.Children = append(sn.Children, child)
		}
	}
	return sn
}

func inheritStyles(child, parent *StyledNode) {
	for prop, val := range child.ComputedStyles {
		if val == "inherit" {
			if parentVal, ok := parent.ComputedStyles[prop]; ok {
				child.ComputedStyles[prop] = parentVal
			} else {
				delete(child.ComputedStyles, prop)
			}
		}
	}
	for prop := range inheritable {
		if _, exists := child.ComputedStyles[prop]; !exists {
			if val, ok := parent.ComputedStyles[prop]; ok {
				child.ComputedStyles[prop] = val
			}
		}
	}
}

// styleOrigin orders declaration sources for the cascade.
type styleOrigin int

const (
	originUserAgent styleOrigin = iota
	originAuthor
	originInline
)

type contextualDecl struct {
	decl        parser.Declaration
	origin      styleOrigin
	specificity [3]int
	order       int
}

func cascadePriority(d contextualDecl) int {
	// !important inverts the author/user-agent ordering.
	if d.decl.Important {
		switch d.origin {
		case originUserAgent:
			return 5
		default:
			return 4
		}
	}
	switch d.origin {
	case originUserAgent:
		return 0
	case originAuthor:
		return 1
	default:
		return 2
	}
}

func (se *Engine) calculateStyles(node *html.Node, scopedSheets []parser.StyleSheet) map[parser.Property]parser.Value {
	var decls []contextualDecl
	order := 0

	collect := func(sheets []parser.StyleSheet, origin styleOrigin) {
		for _, sheet := range sheets {
			for _, rule := range sheet.Rules {
				for _, sel := range rule.Selectors {
					if !matches(node, sel) {
						continue
					}
					a, b, c := sel.Specificity()
					for _, d := range rule.Declarations {
						decls = append(decls, contextualDecl{
							decl:        d,
							origin:      origin,
							specificity: [3]int{a, b, c},
							order:       order,
						})
						order++
					}
					break
				}
			}
		}
	}

	collect(se.userAgentSheets, originUserAgent)
	collect(scopedSheets, originAuthor)

	for _, attr := range node.Attr {
		if strings.EqualFold(attr.Key, "style") {
			for _, d := range parser.ParseInline(attr.Val) {
				decls = append(decls, contextualDecl{
					decl:        d,
					origin:      originInline,
					specificity: [3]int{1, 0, 0},
					order:       order,
				})
				order++
			}
		}
	}

	sort.Slice(decls, func(i, j int) bool {
		p1, p2 := cascadePriority(decls[i]), cascadePriority(decls[j])
		if p1 != p2 {
			return p1 < p2
		}
		s1, s2 := decls[i].specificity, decls[j].specificity
		for k := 0; k < 3; k++ {
			if s1[k] != s2[k] {
				return s1[k] < s2[k]
			}
		}
		return decls[i].order < decls[j].order
	})

	styles := make(map[parser.Property]parser.Value)
	for _, d := range decls {
		styles[d.decl.Property] = d.decl.Value
	}
	return styles
}

// -- Selector matching --

// matches tests a complex selector against a node, walking steps right to left.
func matches(node *html.Node, sel parser.ComplexSelector) bool {
	steps := sel.Steps
	if len(steps) == 0 {
		return false
	}
	if !matchesSimple(node, steps[len(steps)-1].Simple) {
		return false
	}

	current := node
	for i := len(steps) - 2; i >= 0; i-- {
		switch steps[i+1].Combinator {
		case parser.CombinatorChild:
			parent := elementParent(current)
			if parent == nil || !matchesSimple(parent, steps[i].Simple) {
				return false
			}
			current = parent
		default: // descendant
			found := false
			for anc := elementParent(current); anc != nil; anc = elementParent(anc) {
				if matchesSimple(anc, steps[i].Simple) {
					current = anc
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func elementParent(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}

func matchesSimple(node *html.Node, sel parser.SimpleSelector) bool {
	if node.Type != html.ElementNode {
		return false
	}
	if sel.TagName != "" && sel.TagName != "*" && !strings.EqualFold(node.Data, sel.TagName) {
		return false
	}
	if sel.ID != "" && attrValue(node, "id") != sel.ID {
		return false
	}
	if len(sel.Classes) > 0 {
		classes := strings.Fields(attrValue(node, "class"))
		for _, want := range sel.Classes {
			found := false
			for _, have := range classes {
				if have == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	for _, attrSel := range sel.Attributes {
		if !matchesAttribute(node, attrSel) {
			return false
		}
	}
	return true
}

func matchesAttribute(node *html.Node, sel parser.AttributeSelector) bool {
	actual, found := lookupAttr(node, sel.Name)
	switch sel.Operator {
	case "":
		return found
	case "=":
		return found && actual == sel.Value
	case "^=":
		return found && strings.HasPrefix(actual, sel.Value)
	case "$=":
		return found && strings.HasSuffix(actual, sel.Value)
	case "*=":
		return found && strings.Contains(actual, sel.Value)
	case "~=":
		if !found {
			return false
		}
		for _, word := range strings.Fields(actual) {
			if word == sel.Value {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func lookupAttr(node *html.Node, name string) (string, bool) {
	for _, a := range node.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func attrValue(node *html.Node, name string) string {
	v, _ := lookupAttr(node, name)
	return v
}

// -- Computed-style accessors --

// DisplayType classifies the computed display for layout purposes.
type DisplayType int

const (
	DisplayBlock DisplayType = iota
	DisplayInline
	DisplayInlineBlock
	DisplayNone
)

// Lookup returns the computed value for a property, or fallback when unset.
func (sn *StyledNode) Lookup(property, fallback string) string {
	if val, ok := sn.ComputedStyles[parser.Property(property)]; ok {
		return string(val)
	}
	return fallback
}

// Display resolves the display class, folding layout modes this engine does
// not model (flex, grid, table) into block.
func (sn *StyledNode) Display() DisplayType {
	fallback := "inline"
	if sn.Node != nil {
		switch sn.Node.Type {
		case html.TextNode:
			return DisplayInline
		case html.DocumentNode:
			return DisplayBlock
		}
	}
	switch strings.TrimSpace(sn.Lookup("display", fallback)) {
	case "none":
		return DisplayNone
	case "inline":
		return DisplayInline
	case "inline-block", "inline-flex", "inline-grid":
		return DisplayInlineBlock
	default:
		return DisplayBlock
	}
}

// Visibility returns the computed visibility value.
func (sn *StyledNode) Visibility() string {
	return strings.TrimSpace(sn.Lookup("visibility", "visible"))
}

// Cursor returns the computed cursor value.
func (sn *StyledNode) Cursor() string {
	return strings.TrimSpace(sn.Lookup("cursor", "auto"))
}

// IsRendered reports whether the node generates a box at all: display is not
// none and computed visibility keeps it visible. Geometry is checked separately
// by the layout engine.
func (sn *StyledNode) IsRendered() bool {
	if sn.Display() == DisplayNone {
		return false
	}
	v := sn.Visibility()
	if v == "hidden" || v == "collapse" {
		return false
	}
	if opacity, err := strconv.ParseFloat(sn.Lookup("opacity", "1"), 64); err == nil && opacity <= 0 {
		return false
	}
	return true
}

// ZIndex returns the computed z-index, zero when auto or unparseable.
func (sn *StyledNode) ZIndex() int {
	raw := strings.TrimSpace(sn.Lookup("z-index", "auto"))
	if raw == "auto" {
		return 0
	}
	z, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return z
}

// Px parses a pixel length ("120px" or bare "120"), returning fallback for
// anything else (auto, percentages, unsupported units).
func Px(raw string, fallback float64) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "auto" {
		return fallback
	}
	raw = strings.TrimSuffix(raw, "px")
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fallback
	}
	return v
}
