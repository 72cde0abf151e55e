// api/schemas/action.go
package schemas

import (
	"fmt"
	"strings"
)

// ParamType enumerates the value types an action parameter can carry.
type ParamType string

const (
	ParamTypeString  ParamType = "str"
	ParamTypeNumber  ParamType = "number"
	ParamTypeDate    ParamType = "date"
	ParamTypeBoolean ParamType = "boolean"
)

// Prefix is the typed namespace an action ID belongs to.
type Prefix string

const (
	PrefixButton Prefix = "B"
	PrefixLink   Prefix = "L"
	PrefixInput  Prefix = "I"
)

// ValidPrefixes lists every prefix an action space may contain, in rendering order.
var ValidPrefixes = []Prefix{PrefixButton, PrefixLink, PrefixInput}

// ActionParameter describes one controllable facet of an input-like action.
type ActionParameter struct {
	Name          string    `json:"name"`
	Type          ParamType `json:"type"`
	Default       string    `json:"default,omitempty"`
	AllowedValues []string  `json:"allowedValues,omitempty"`
}

// Description renders the parameter for the textual action listing,
// e.g. "value: str = [A, B, C]".
func (p ActionParameter) Description() string {
	base := fmt.Sprintf("%s: %s", p.Name, p.Type)
	if len(p.AllowedValues) > 0 {
		base += fmt.Sprintf(" = [%s]", strings.Join(p.AllowedValues, ", "))
	}
	return base
}

// Action is the externally visible unit of an action space: one interactive
// affordance, addressable by its stable typed ID.
type Action struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Params      []ActionParameter `json:"params,omitempty"`

	// Path is the positional path of the backing node within its containing
	// document. It anchors ID reuse across incremental extractions.
	Path string `json:"path"`
	// Tag is the element tag of the backing node.
	Tag string `json:"tag"`
	// HighlightIndex is the traversal-order index assigned during the walk.
	HighlightIndex int `json:"highlightIndex"`
}

// Prefix returns the ID namespace of the action, or "" for malformed IDs.
func (a Action) Prefix() Prefix {
	if len(a.ID) == 0 {
		return ""
	}
	switch p := Prefix(a.ID[:1]); p {
	case PrefixButton, PrefixLink, PrefixInput:
		return p
	default:
		return ""
	}
}

// Role maps the ID prefix to a human-readable role name.
func (a Action) Role() string {
	switch a.Prefix() {
	case PrefixButton:
		return "button"
	case PrefixLink:
		return "link"
	case PrefixInput:
		return "input"
	default:
		return "other"
	}
}

// Markdown renders the action as a single listing line,
// e.g. "* I1: Departure date (value: date)".
func (a Action) Markdown() string {
	line := fmt.Sprintf("* %s: %s", a.ID, a.Description)
	if len(a.Params) > 0 {
		parts := make([]string, 0, len(a.Params))
		for _, p := range a.Params {
			parts = append(parts, p.Description())
		}
		line += fmt.Sprintf(" (%s)", strings.Join(parts, ", "))
	}
	return line
}
