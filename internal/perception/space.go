// internal/perception/space.go
package perception

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/periscope/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrNotFound is returned when an action ID is absent from the space.
	ErrNotFound = errors.New("action not found")
	// ErrEmptySpace is returned when sampling from an empty filtered set.
	ErrEmptySpace = errors.New("action space is empty")
)

// ActionSpace is the compiled artifact: an ordered, immutable collection of
// actions addressable by ID.
type ActionSpace struct {
	actions []schemas.Action
	index   map[string]int
	rng     *rand.Rand
}

// NewActionSpace builds a space from an ordered action list. Callers use it
// to reconstruct a previously serialized space for incremental extension.
func NewActionSpace(actions []schemas.Action) *ActionSpace {
	s := &ActionSpace{
		actions: make([]schemas.Action, len(actions)),
		index:   make(map[string]int, len(actions)),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	copy(s.actions, actions)
	for i, a := range s.actions {
		s.index[a.ID] = i
	}
	return s
}

// Len returns the number of actions in the space.
func (s *ActionSpace) Len() int {
	return len(s.actions)
}

// Get looks up an action by ID.
func (s *ActionSpace) Get(id string) (schemas.Action, error) {
	i, ok := s.index[id]
	if !ok {
		return schemas.Action{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return s.actions[i], nil
}

// Filter narrows an action listing.
type Filter func(schemas.Action) bool

// WithPrefix keeps only actions in the given ID namespace.
func WithPrefix(p schemas.Prefix) Filter {
	return func(a schemas.Action) bool { return a.Prefix() == p }
}

// WithCategory keeps only actions in the given category.
func WithCategory(category string) Filter {
	return func(a schemas.Action) bool { return a.Category == category }
}

// Actions returns the actions passing every filter, in traversal order.
func (s *ActionSpace) Actions(filters ...Filter) []schemas.Action {
	out := make([]schemas.Action, 0, len(s.actions))
outer:
	for _, a := range s.actions {
		for _, f := range filters {
			if !f(a) {
				continue outer
			}
		}
		out = append(out, a)
	}
	return out
}

// Sample returns one uniformly random action from the filtered set.
func (s *ActionSpace) Sample(filters ...Filter) (schemas.Action, error) {
	candidates := s.Actions(filters...)
	if len(candidates) == 0 {
		return schemas.Action{}, ErrEmptySpace
	}
	return candidates[s.rng.Intn(len(candidates))], nil
}

// prefixRank orders namespaces for deterministic rendering.
func prefixRank(p schemas.Prefix) int {
	for i, v := range schemas.ValidPrefixes {
		if v == p {
			return i
		}
	}
	return len(schemas.ValidPrefixes)
}

// Markdown renders the space grouped by category, one line per action, IDs
// ordered by namespace then number inside each category. The rendering is
// deterministic so downstream consumers can diff and cache it.
func (s *ActionSpace) Markdown() string {
	var categories []string
	grouped := make(map[string][]schemas.Action)
	for _, a := range s.actions {
		if _, seen := grouped[a.Category]; !seen {
			categories = append(categories, a.Category)
		}
		grouped[a.Category] = append(grouped[a.Category], a)
	}
	sort.Strings(categories)

	var sb strings.Builder
	for i, cat := range categories {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("# " + cat + "\n")
		actions := grouped[cat]
		sort.Slice(actions, func(i, j int) bool {
			ri, rj := prefixRank(actions[i].Prefix()), prefixRank(actions[j].Prefix())
			if ri != rj {
				return ri < rj
			}
			return idNumber(actions[i].ID) < idNumber(actions[j].ID)
		})
		for _, a := range actions {
			sb.WriteString(a.Markdown() + "\n")
		}
	}
	return sb.String()
}

// serializedSpace is the JSON shape of a compiled space.
type serializedSpace struct {
	Actions []schemas.Action `json:"actions"`
}

// MarshalJSON serializes the space for handoff to external callers.
func (s *ActionSpace) MarshalJSON() ([]byte, error) {
	return json.Marshal(serializedSpace{Actions: s.actions})
}

// UnmarshalActionSpace reconstructs a space from its serialized form, e.g.
// to supply it as the previous space of an incremental extraction.
func UnmarshalActionSpace(data []byte) (*ActionSpace, error) {
	var ser serializedSpace
	if err := json.Unmarshal(data, &ser); err != nil {
		return nil, fmt.Errorf("decoding action space: %w", err)
	}
	return NewActionSpace(ser.Actions), nil
}
