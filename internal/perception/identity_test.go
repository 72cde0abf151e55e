// internal/perception/identity_test.go
package perception

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/periscope/api/schemas"
)

func TestIncrementalPreservesAndExtends(t *testing.T) {
	first := snapshotHTML(t, `
		<html><body>
			<button>Alpha</button>
			<input type="text" name="q">
		</body></html>`, unboundedOpts())
	require.Equal(t, 2, first.Len())

	opts := unboundedOpts()
	opts.Previous = first
	second := snapshotHTML(t, `
		<html><body>
			<button>Alpha</button>
			<input type="text" name="q">
			<button>Beta</button>
		</body></html>`, opts)

	require.Equal(t, 3, second.Len())

	alpha, err := second.Get("B1")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", alpha.Description)

	_, err = second.Get("I1")
	require.NoError(t, err, "the surviving input keeps its ID")

	beta, err := second.Get("B2")
	require.NoError(t, err, "the new button numbers above the prior maximum")
	assert.Equal(t, "Beta", beta.Description)
}

func TestIncrementalCarriesPriorAttributesVerbatim(t *testing.T) {
	first := snapshotHTML(t, `<html><body><button>Alpha</button></body></html>`, unboundedOpts())

	// Simulate a caller-enriched previous space: the carried description must
	// survive even though the document would derive a different one.
	prior := first.Actions()
	require.Len(t, prior, 1)
	prior[0].Description = "Renamed by caller"

	opts := unboundedOpts()
	opts.Previous = NewActionSpace(prior)
	second := snapshotHTML(t, `<html><body><button>Alpha</button></body></html>`, opts)

	carried, err := second.Get("B1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed by caller", carried.Description)
}

func TestIncrementalNeverReusesVanishedIDs(t *testing.T) {
	first := snapshotHTML(t, `
		<html><body>
			<button>Alpha</button>
			<button>Beta</button>
		</body></html>`, unboundedOpts())
	require.Equal(t, 2, first.Len())

	opts := unboundedOpts()
	opts.Previous = first
	second := snapshotHTML(t, `
		<html><body>
			<button>Alpha</button>
			<div><button>Gamma</button></div>
		</body></html>`, opts)

	require.Equal(t, 2, second.Len())
	_, err := second.Get("B2")
	assert.Error(t, err, "a vanished ID is retired, not reassigned")

	gamma, err := second.Get("B3")
	require.NoError(t, err)
	assert.Equal(t, "Gamma", gamma.Description)
}

func TestIncrementalTagMismatchGetsFreshID(t *testing.T) {
	first := snapshotHTML(t, `<html><body><button>Go</button></body></html>`, unboundedOpts())

	// Same path, different element: the prior ID must not transfer.
	prior := first.Actions()
	require.Len(t, prior, 1)
	prior[0].Tag = "a"

	opts := unboundedOpts()
	opts.Previous = NewActionSpace(prior)
	second := snapshotHTML(t, `<html><body><button>Go</button></body></html>`, opts)

	_, err := second.Get("B2")
	assert.NoError(t, err, "a tag mismatch at the same path means a different element")
}

func TestIncrementalMalformedPreviousFallsBackToFreshWalk(t *testing.T) {
	cases := map[string]schemas.Action{
		"bad id": {
			ID: "X9", Path: "/html[1]/body[1]/button[1]", Tag: "button",
			Category: CategoryControls,
		},
		"bad path": {
			ID: "B7", Path: "button-1", Tag: "button",
			Category: CategoryControls,
		},
		"zero numbered id": {
			ID: "B0", Path: "/html[1]/body[1]/button[1]", Tag: "button",
			Category: CategoryControls,
		},
	}
	for name, action := range cases {
		t.Run(name, func(t *testing.T) {
			opts := unboundedOpts()
			opts.Previous = NewActionSpace([]schemas.Action{action})
			space := snapshotHTML(t, `<html><body><button>Go</button></body></html>`, opts)

			require.Equal(t, 1, space.Len())
			_, err := space.Get("B1")
			assert.NoError(t, err, "numbering restarts from scratch")
		})
	}
}

func TestPrevIsWellFormed(t *testing.T) {
	good := NewActionSpace([]schemas.Action{
		{ID: "B1", Path: "/html[1]/body[1]/button[1]", Tag: "button"},
		{ID: "I12", Path: "/html[1]/body[1]/iframe[1]::/html[1]/body[1]/input[1]", Tag: "input"},
		{ID: "L3", Path: "/html[1]/body[1]/div[2]::/a[1]", Tag: "a"},
	})
	assert.True(t, prevIsWellFormed(good))

	bad := NewActionSpace([]schemas.Action{
		{ID: "B1", Path: "/html[1]/body[1]/button[]", Tag: "button"},
	})
	assert.False(t, prevIsWellFormed(bad))
}

func TestIDNumber(t *testing.T) {
	assert.Equal(t, 12, idNumber("I12"))
	assert.Equal(t, 1, idNumber("B1"))
	assert.Equal(t, 0, idNumber("B"))
	assert.Equal(t, 0, idNumber("Bx"))
}
