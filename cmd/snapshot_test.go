// -- cmd/snapshot_test.go --
package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempHTML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	flagPreviousFile = ""
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSnapshotCommandMarkdown(t *testing.T) {
	path := writeTempHTML(t, `
		<html><body>
			<a href="/docs">Docs</a>
			<input type="text" name="q" placeholder="Search">
			<button>Go</button>
		</body></html>`)

	out, err := runCommand(t, "snapshot", path, "--viewport-expansion", "-1", "--format", "markdown")
	require.NoError(t, err)

	assert.Contains(t, out, "# Navigation")
	assert.Contains(t, out, "* L1: Docs")
	assert.Contains(t, out, "# Search & Input")
	assert.Contains(t, out, "* I1: Search (value: str)")
	assert.Contains(t, out, "# Page Controls")
	assert.Contains(t, out, "* B1: Go")
}

func TestSnapshotCommandJSON(t *testing.T) {
	path := writeTempHTML(t, `<html><body><button>Go</button></body></html>`)

	out, err := runCommand(t, "snapshot", path, "--viewport-expansion", "-1", "--format", "json")
	require.NoError(t, err)

	var payload struct {
		Space struct {
			Actions []struct {
				ID   string `json:"id"`
				Path string `json:"path"`
			} `json:"actions"`
		} `json:"space"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Len(t, payload.Space.Actions, 1)
	assert.Equal(t, "B1", payload.Space.Actions[0].ID)
	assert.Equal(t, "/html[1]/body[1]/button[1]", payload.Space.Actions[0].Path)
}

func TestSnapshotCommandPrevious(t *testing.T) {
	first := writeTempHTML(t, `<html><body><button>Alpha</button></body></html>`)
	out, err := runCommand(t, "snapshot", first, "--viewport-expansion", "-1", "--format", "json")
	require.NoError(t, err)

	var payload struct {
		Space struct {
			Actions []struct {
				ID string `json:"id"`
			} `json:"actions"`
		} `json:"space"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))

	prevPath := filepath.Join(t.TempDir(), "space.json")
	spaceJSON, err := extractSpaceJSON(out)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(prevPath, spaceJSON, 0o644))

	second := writeTempHTML(t, `
		<html><body><button>Alpha</button><button>Beta</button></body></html>`)
	out, err = runCommand(t, "snapshot", second,
		"--viewport-expansion", "-1", "--format", "markdown", "--previous", prevPath)
	require.NoError(t, err)

	assert.Contains(t, out, "* B1: Alpha")
	assert.Contains(t, out, "* B2: Beta")
}

// extractSpaceJSON pulls the "space" object out of the command's JSON payload
// so it can be fed back through --previous.
func extractSpaceJSON(payload string) ([]byte, error) {
	var wrapper struct {
		Space jsoniter.RawMessage `json:"space"`
	}
	if err := json.Unmarshal([]byte(payload), &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Space, nil
}

func TestSnapshotCommandRejectsUnknownFormat(t *testing.T) {
	path := writeTempHTML(t, `<html><body><button>Go</button></body></html>`)
	_, err := runCommand(t, "snapshot", path, "--format", "xml")
	assert.Error(t, err)
}

func TestSnapshotCommandRejectsMissingTarget(t *testing.T) {
	_, err := runCommand(t, "snapshot", "/no/such/file.html")
	assert.Error(t, err)
}
