// internal/perception/compile.go
package perception

import (
	"strings"

	"github.com/xkilldash9x/periscope/api/schemas"
	"github.com/xkilldash9x/periscope/internal/browser/dom"
)

// Category names. The grouping is presentation policy; the grouping rule
// (links navigate, inputs carry values, the rest are controls) is not.
const (
	CategoryNavigation  = "Navigation"
	CategorySearchInput = "Search & Input"
	CategoryControls    = "Page Controls"
)

// compileActions turns the ID assignments into the final action list.
// Carried-over entries keep their prior description, category, and
// parameters verbatim; only the highlight index is refreshed.
func compileActions(assignments []assignment) []schemas.Action {
	actions := make([]schemas.Action, 0, len(assignments))
	for _, as := range assignments {
		if as.prior != nil {
			action := *as.prior
			action.HighlightIndex = *as.node.HighlightIndex
			actions = append(actions, action)
			continue
		}

		prefix := schemas.Prefix(as.id[:1])
		actions = append(actions, schemas.Action{
			ID:             as.id,
			Description:    describe(as.node),
			Category:       categoryFor(prefix),
			Params:         paramsFor(prefix, as.node),
			Path:           as.node.Path,
			Tag:            as.node.Tag,
			HighlightIndex: *as.node.HighlightIndex,
		})
	}
	return actions
}

func categoryFor(prefix schemas.Prefix) string {
	switch prefix {
	case schemas.PrefixLink:
		return CategoryNavigation
	case schemas.PrefixInput:
		return CategorySearchInput
	default:
		return CategoryControls
	}
}

// describe derives the natural-language description from the strongest
// available label source.
func describe(n *Node) string {
	data := n.data
	candidates := []string{
		data.Attr("aria-label"),
		dom.LabelText(n.node),
		data.TextContent,
		data.Attr("placeholder"),
		data.Attr("title"),
		data.Attr("alt"),
		data.Attr("name"),
	}
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return dom.TruncateText(c)
		}
	}
	return n.Tag
}

// paramsFor derives the controllable facets of an input-like action: exactly
// one value parameter, typed from the control, with allowed values for
// enumerated widgets and a default only when the document shows an explicit
// current value. Button-like and link-like actions carry no parameters.
func paramsFor(prefix schemas.Prefix, n *Node) []schemas.ActionParameter {
	if prefix != schemas.PrefixInput {
		return nil
	}

	param := schemas.ActionParameter{Name: "value", Type: schemas.ParamTypeString}

	switch n.Tag {
	case "select":
		for _, opt := range n.data.SelectOptions {
			if !opt.Disabled {
				param.AllowedValues = append(param.AllowedValues, opt.Value)
			}
		}
		param.Default = explicitSelection(n)
	case "textarea":
		param.Default = n.data.TextContent
	case "input":
		inputType := strings.ToLower(n.data.Attr("type"))
		param.Type = paramTypeForInput(inputType)
		switch inputType {
		case "checkbox", "radio":
			if n.data.HasAttr("checked") {
				param.Default = "true"
			}
		default:
			param.Default = n.data.Attr("value")
		}
	default:
		// contenteditable regions and ARIA input roles: current text is
		// the explicit value when present.
		param.Default = n.data.TextContent
	}

	return []schemas.ActionParameter{param}
}

// paramTypeForInput maps HTML input types onto the parameter type system.
func paramTypeForInput(inputType string) schemas.ParamType {
	switch inputType {
	case "number", "range":
		return schemas.ParamTypeNumber
	case "date", "datetime-local", "month", "week", "time":
		return schemas.ParamTypeDate
	case "checkbox", "radio":
		return schemas.ParamTypeBoolean
	default:
		return schemas.ParamTypeString
	}
}

// explicitSelection returns the value of the option carrying a selected
// attribute. Without one the control has no explicit current value, so no
// default is reported.
func explicitSelection(n *Node) string {
	if n.node == nil {
		return ""
	}
	return dom.ExplicitlySelectedOption(n.node)
}
