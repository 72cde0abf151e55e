// api/schemas/action_test.go
package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionPrefix(t *testing.T) {
	assert.Equal(t, PrefixButton, Action{ID: "B3"}.Prefix())
	assert.Equal(t, PrefixLink, Action{ID: "L1"}.Prefix())
	assert.Equal(t, PrefixInput, Action{ID: "I12"}.Prefix())
	assert.Equal(t, Prefix(""), Action{ID: "X1"}.Prefix())
	assert.Equal(t, Prefix(""), Action{}.Prefix())
}

func TestActionRole(t *testing.T) {
	assert.Equal(t, "button", Action{ID: "B1"}.Role())
	assert.Equal(t, "link", Action{ID: "L1"}.Role())
	assert.Equal(t, "input", Action{ID: "I1"}.Role())
	assert.Equal(t, "other", Action{ID: "?"}.Role())
}

func TestParameterDescription(t *testing.T) {
	plain := ActionParameter{Name: "value", Type: ParamTypeString}
	assert.Equal(t, "value: str", plain.Description())

	enumerated := ActionParameter{
		Name: "value", Type: ParamTypeString,
		AllowedValues: []string{"A", "B", "C"},
	}
	assert.Equal(t, "value: str = [A, B, C]", enumerated.Description())
}

func TestActionMarkdown(t *testing.T) {
	bare := Action{ID: "B1", Description: "Submit"}
	assert.Equal(t, "* B1: Submit", bare.Markdown())

	with := Action{
		ID: "I1", Description: "Departure date",
		Params: []ActionParameter{{Name: "value", Type: ParamTypeDate}},
	}
	assert.Equal(t, "* I1: Departure date (value: date)", with.Markdown())
}
