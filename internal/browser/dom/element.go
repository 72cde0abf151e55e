// browser/dom/element.go
package dom

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// maxTextLength caps extracted text content before truncation.
const maxTextLength = 64

// ElementData holds the information extracted from a DOM node that the
// perception pipeline needs to classify and describe it.
type ElementData struct {
	NodeName      string
	Attributes    map[string]string
	TextContent   string
	SelectOptions []SelectOptionData
}

// SelectOptionData holds data for <option> elements.
type SelectOptionData struct {
	Value    string
	Disabled bool
}

// Attr returns the named attribute, empty when absent. Lookup is
// case-insensitive because Attributes keys are lowercased at extraction.
func (d ElementData) Attr(name string) string {
	return d.Attributes[strings.ToLower(name)]
}

// HasAttr reports whether the attribute is present, regardless of value.
func (d ElementData) HasAttr(name string) bool {
	_, ok := d.Attributes[strings.ToLower(name)]
	return ok
}

// ExtractElementData pulls relevant information from an html.Node.
func ExtractElementData(node *html.Node) ElementData {
	attrs := make(map[string]string)
	for _, attr := range node.Attr {
		attrs[strings.ToLower(attr.Key)] = attr.Val
	}

	data := ElementData{
		NodeName:    strings.ToUpper(node.Data),
		Attributes:  attrs,
		TextContent: TruncateText(htmlquery.InnerText(node)),
	}

	if strings.EqualFold(node.Data, "select") {
		data.SelectOptions = ExtractSelectOptions(node)
	}

	return data
}

// ExtractSelectOptions parses the children of a <select> node, handling
// <optgroup> nesting and disabled states. An option inside a disabled
// optgroup is disabled even without its own disabled attribute.
func ExtractSelectOptions(selectNode *html.Node) []SelectOptionData {
	var options []SelectOptionData
	optionNodes := htmlquery.Find(selectNode, ".//option")

	for _, node := range optionNodes {
		value := htmlquery.SelectAttr(node, "value")
		if value == "" {
			value = strings.TrimSpace(htmlquery.InnerText(node))
		}

		disabled := hasAttr(node, "disabled")
		if !disabled && node.Parent != nil && node.Parent.Type == html.ElementNode && strings.EqualFold(node.Parent.Data, "optgroup") {
			disabled = hasAttr(node.Parent, "disabled")
		}

		options = append(options, SelectOptionData{
			Value:    value,
			Disabled: disabled,
		})
	}
	return options
}

// ExplicitlySelectedOption returns the value of the first option carrying a
// selected attribute. Empty when the select declares no current value.
func ExplicitlySelectedOption(selectNode *html.Node) string {
	if selectNode == nil {
		return ""
	}
	for _, opt := range htmlquery.Find(selectNode, ".//option") {
		if hasAttr(opt, "selected") {
			value := htmlquery.SelectAttr(opt, "value")
			if value == "" {
				value = strings.TrimSpace(htmlquery.InnerText(opt))
			}
			return value
		}
	}
	return ""
}

// LabelText resolves the accessible label for a form control: a wrapping
// <label>, then a <label for="..."> elsewhere in the same document scope.
// Empty when neither exists.
func LabelText(node *html.Node) string {
	for p := node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && strings.EqualFold(p.Data, "label") {
			return TruncateText(htmlquery.InnerText(p))
		}
	}

	id := htmlquery.SelectAttr(node, "id")
	if id == "" {
		return ""
	}
	root := node
	for root.Parent != nil {
		root = root.Parent
	}
	for _, label := range htmlquery.Find(root, "//label") {
		if htmlquery.SelectAttr(label, "for") == id {
			return TruncateText(htmlquery.InnerText(label))
		}
	}
	return ""
}

// TruncateText trims and caps text content, appending an ellipsis marker when
// it was cut.
func TruncateText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > maxTextLength {
		return text[:maxTextLength] + "..."
	}
	return text
}

func hasAttr(node *html.Node, name string) bool {
	for _, a := range node.Attr {
		if strings.EqualFold(a.Key, name) {
			return true
		}
	}
	return false
}
