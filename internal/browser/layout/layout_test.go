// internal/browser/layout/layout_test.go
package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/periscope/internal/browser/style"
)

func layoutHTML(t *testing.T, rawHTML string) (*Tree, *html.Node) {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(rawHTML))
	require.NoError(t, err)

	styled := style.NewEngine(nil).BuildTree(doc, nil)
	return NewEngine(1280, 720).Layout(styled), doc
}

func findNode(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findNodes(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && c.Data == tag {
			out = append(out, c)
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	walk(n)
	return out
}

func TestBlockStacking(t *testing.T) {
	tree, doc := layoutHTML(t, `<html><body>
		<div style="height: 100px"></div>
		<div style="height: 50px"></div>
	</body></html>`)

	divs := findNodes(doc, "div")
	require.Len(t, divs, 2)

	first := tree.BoxFor(divs[0])
	second := tree.BoxFor(divs[1])
	require.NotNil(t, first)
	require.NotNil(t, second)

	assert.Equal(t, 0.0, first.Rect.Y)
	assert.Equal(t, 100.0, first.Rect.Height)
	assert.Equal(t, 100.0, second.Rect.Y, "second block starts below the first")
	assert.Equal(t, 1280.0, first.Rect.Width, "blocks fill the containing width")
}

func TestDisplayNoneGeneratesNoBox(t *testing.T) {
	tree, doc := layoutHTML(t, `<html><body><button style="display: none">x</button></body></html>`)

	assert.Nil(t, tree.BoxFor(findNode(doc, "button")))
}

func TestFormControlIntrinsicSizes(t *testing.T) {
	tree, doc := layoutHTML(t, `<html><body><input type="text"><select><option>a</option></select></body></html>`)

	input := tree.BoxFor(findNode(doc, "input"))
	require.NotNil(t, input)
	assert.Equal(t, 170.0, input.Rect.Width)
	assert.Equal(t, 24.0, input.Rect.Height)

	sel := tree.BoxFor(findNode(doc, "select"))
	require.NotNil(t, sel)
	assert.True(t, sel.Rect.Width > 0 && sel.Rect.Height > 0)
	assert.Equal(t, input.Rect.Y, sel.Rect.Y, "inline-blocks share a line")
	assert.Greater(t, sel.Rect.X, input.Rect.X)
}

func TestCheckboxIsSmall(t *testing.T) {
	tree, doc := layoutHTML(t, `<html><body><input type="checkbox"></body></html>`)

	box := tree.BoxFor(findNode(doc, "input"))
	require.NotNil(t, box)
	assert.Equal(t, 14.0, box.Rect.Width)
	assert.Equal(t, 14.0, box.Rect.Height)
}

func TestExplicitSizesWin(t *testing.T) {
	tree, doc := layoutHTML(t, `<html><body><div style="width: 300px; height: 40px"></div></body></html>`)

	box := tree.BoxFor(findNode(doc, "div"))
	require.NotNil(t, box)
	assert.Equal(t, 300.0, box.Rect.Width)
	assert.Equal(t, 40.0, box.Rect.Height)
}

func TestAbsolutePositioning(t *testing.T) {
	tree, doc := layoutHTML(t, `<html><body>
		<div style="position: absolute; left: 50px; top: 60px; width: 10px; height: 10px"></div>
	</body></html>`)

	box := tree.BoxFor(findNode(doc, "div"))
	require.NotNil(t, box)
	assert.Equal(t, 50.0, box.Rect.X)
	assert.Equal(t, 60.0, box.Rect.Y)
}

func TestTopmostAtPrefersLaterPaint(t *testing.T) {
	tree, doc := layoutHTML(t, `<html><body>
		<button style="position: absolute; left: 0; top: 0; width: 100px; height: 30px">b</button>
		<div style="position: absolute; left: 0; top: 0; width: 200px; height: 200px"></div>
	</body></html>`)

	hit := tree.TopmostAt(50, 15)
	require.NotNil(t, hit)
	assert.Equal(t, findNode(doc, "div"), hit.Styled.Node, "the later-painted overlay wins")
}

func TestTopmostAtHonorsZIndex(t *testing.T) {
	tree, doc := layoutHTML(t, `<html><body>
		<button style="position: absolute; left: 0; top: 0; width: 100px; height: 30px; z-index: 50">b</button>
		<div style="position: absolute; left: 0; top: 0; width: 200px; height: 200px"></div>
	</body></html>`)

	hit := tree.TopmostAt(50, 15)
	require.NotNil(t, hit)
	assert.Equal(t, findNode(doc, "button"), hit.Styled.Node, "explicit z-index beats paint order")
}

func TestTopmostAtSkipsHiddenBoxes(t *testing.T) {
	tree, doc := layoutHTML(t, `<html><body>
		<button style="position: absolute; left: 0; top: 0; width: 100px; height: 30px">b</button>
		<div style="position: absolute; left: 0; top: 0; width: 200px; height: 200px; visibility: hidden"></div>
	</body></html>`)

	hit := tree.TopmostAt(50, 15)
	require.NotNil(t, hit)
	assert.Equal(t, findNode(doc, "button"), hit.Styled.Node)
}

func TestRectHelpers(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 100, Height: 50}

	assert.True(t, r.Contains(10, 10))
	assert.True(t, r.Contains(59, 40))
	assert.False(t, r.Contains(110, 10))

	cx, cy := r.Center()
	assert.Equal(t, 60.0, cx)
	assert.Equal(t, 35.0, cy)

	assert.True(t, r.Intersects(Rect{X: 100, Y: 50, Width: 20, Height: 20}))
	assert.False(t, r.Intersects(Rect{X: 200, Y: 200, Width: 5, Height: 5}))
}

func TestInlineWrapping(t *testing.T) {
	// Nine 170px inputs exceed a 1280px line and must wrap.
	var sb strings.Builder
	sb.WriteString(`<html><body>`)
	for i := 0; i < 9; i++ {
		sb.WriteString(`<input type="text">`)
	}
	sb.WriteString(`</body></html>`)

	tree, doc := layoutHTML(t, sb.String())
	inputs := findNodes(doc, "input")
	require.Len(t, inputs, 9)

	first := tree.BoxFor(inputs[0])
	last := tree.BoxFor(inputs[8])
	require.NotNil(t, first)
	require.NotNil(t, last)
	assert.Greater(t, last.Rect.Y, first.Rect.Y, "overflowing inline content wraps to a new line")
}
