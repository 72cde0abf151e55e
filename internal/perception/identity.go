// internal/perception/identity.go
package perception

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xkilldash9x/periscope/api/schemas"
)

// pathScheme validates positional paths: one or more "/tag[i]" runs, with
// "::" joining nested scopes (frame documents, shadow roots). A previous
// action space whose paths do not match this scheme came from an unknown
// producer and cannot anchor ID reuse.
var pathScheme = regexp.MustCompile(`^(?:(?:/[a-zA-Z][\w-]*\[\d+\])+::)*(?:/[a-zA-Z][\w-]*\[\d+\])+$`)

// idScheme validates typed identifiers: prefix letter plus a positive number.
var idScheme = regexp.MustCompile(`^[BLI][1-9]\d*$`)

// inputTypesAsButtons are <input> types that act as click targets, not as
// value carriers.
var inputTypesAsButtons = map[string]bool{
	"submit": true, "button": true, "reset": true, "image": true,
}

// inputRoles are ARIA roles that make an arbitrary element behave as a
// value-carrying control.
var inputRoles = map[string]bool{
	"textbox": true, "searchbox": true, "combobox": true, "listbox": true,
	"slider": true, "spinbutton": true, "checkbox": true, "radio": true,
	"switch": true,
}

// prefixFor picks the ID namespace from tag and role: link-like, input-like,
// or button-like.
func prefixFor(n *Node) schemas.Prefix {
	role := strings.ToLower(n.data.Attr("role"))
	if role == "" {
		role = strings.ToLower(n.data.Attr("aria-role"))
	}

	if n.Tag == "a" || role == "link" {
		return schemas.PrefixLink
	}

	switch n.Tag {
	case "select", "textarea":
		return schemas.PrefixInput
	case "input":
		if inputTypesAsButtons[strings.ToLower(n.data.Attr("type"))] {
			return schemas.PrefixButton
		}
		return schemas.PrefixInput
	}
	if ce, ok := n.Attributes["contenteditable"]; ok && ce != "false" {
		return schemas.PrefixInput
	}
	if inputRoles[role] {
		return schemas.PrefixInput
	}
	return schemas.PrefixButton
}

// assignment binds a highlighted node to its ID. prior is set when the ID
// was carried over from a previous action space.
type assignment struct {
	node  *Node
	id    string
	prior *schemas.Action
}

// assignIDs numbers the highlighted nodes. With no previous space, each
// prefix group counts up from 1 in traversal order. With a previous space,
// IDs are preserved verbatim for nodes whose path and tag still match, new
// nodes get numbers strictly above the prior per-prefix maximum, and
// vanished paths are dropped without their numbers ever being reused. A
// malformed previous space falls back to fresh numbering.
func assignIDs(nodes []*Node, prev *ActionSpace) []assignment {
	byPath := make(map[string]schemas.Action)
	counters := make(map[schemas.Prefix]int)

	if prev != nil && prevIsWellFormed(prev) {
		for _, a := range prev.actions {
			byPath[a.Path] = a
			p := a.Prefix()
			if n := idNumber(a.ID); n > counters[p] {
				counters[p] = n
			}
		}
	}

	out := make([]assignment, 0, len(nodes))
	for _, n := range nodes {
		prefix := prefixFor(n)
		if prior, ok := byPath[n.Path]; ok && prior.Tag == n.Tag && prior.Prefix() == prefix {
			delete(byPath, n.Path)
			priorCopy := prior
			out = append(out, assignment{node: n, id: prior.ID, prior: &priorCopy})
			continue
		}
		counters[prefix]++
		out = append(out, assignment{
			node: n,
			id:   string(prefix) + strconv.Itoa(counters[prefix]),
		})
	}
	return out
}

// prevIsWellFormed checks every entry of a previous space against the path
// and ID schemes.
func prevIsWellFormed(prev *ActionSpace) bool {
	for _, a := range prev.actions {
		if !idScheme.MatchString(a.ID) || !pathScheme.MatchString(a.Path) {
			return false
		}
	}
	return true
}

func idNumber(id string) int {
	if len(id) < 2 {
		return 0
	}
	n, err := strconv.Atoi(id[1:])
	if err != nil {
		return 0
	}
	return n
}
