// internal/browser/session/session_test.go
package session

import (
	"strings"
	"testing"

	"github.com/chromedp/cdproto/cdp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/net/html"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func cdpElement(name string) *cdp.Node {
	return &cdp.Node{NodeType: 1, NodeName: strings.ToUpper(name)}
}

func TestSiblingIndex(t *testing.T) {
	divA := cdpElement("div")
	text := &cdp.Node{NodeType: 3, NodeName: "#text"}
	span := cdpElement("span")
	divB := cdpElement("div")
	parent := &cdp.Node{NodeType: 1, NodeName: "BODY",
		Children: []*cdp.Node{divA, text, span, divB}}

	assert.Equal(t, 1, siblingIndex(parent, divA))
	assert.Equal(t, 1, siblingIndex(parent, span), "only same-tag siblings count")
	assert.Equal(t, 2, siblingIndex(parent, divB))
}

func TestPathListeners(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(
		`<html><body><div>a</div><div>b</div></body></html>`))
	require.NoError(t, err)

	var divs []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "div" {
			divs = append(divs, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	require.Len(t, divs, 2)

	listeners := NewPathListeners(map[string]bool{
		"/html[1]/body[1]/div[2]": true,
	})
	assert.False(t, listeners.HasListener(divs[0]))
	assert.True(t, listeners.HasListener(divs[1]))

	var nilSource *PathListeners
	assert.False(t, nilSource.HasListener(divs[0]))
	assert.False(t, NewPathListeners(nil).HasListener(divs[0]))
}
