// browser/page/builder_test.go
package page

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/periscope/internal/browser/style"
)

// fakeFetcher serves canned bodies keyed by resolved URL string.
type fakeFetcher struct {
	resources map[string]string
	calls     []string
}

func (f *fakeFetcher) Fetch(_ context.Context, base *url.URL, rawURL string) ([]byte, error) {
	target := rawURL
	if base != nil {
		if ref, err := url.Parse(rawURL); err == nil {
			target = base.ResolveReference(ref).String()
		}
	}
	f.calls = append(f.calls, target)
	body, ok := f.resources[target]
	if !ok {
		return nil, fmt.Errorf("no such resource %q", target)
	}
	return []byte(body), nil
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func styledByTag(sn *style.StyledNode, tag string) *style.StyledNode {
	if sn == nil {
		return nil
	}
	if sn.Node != nil && sn.Node.Type == html.ElementNode && sn.Node.Data == tag {
		return sn
	}
	for _, child := range sn.Children {
		if found := styledByTag(child, tag); found != nil {
			return found
		}
	}
	if found := styledByTag(sn.ShadowRoot, tag); found != nil {
		return found
	}
	return nil
}

func TestBuildAppliesInlineStyleSheet(t *testing.T) {
	doc, err := NewBuilder(nil).Build(context.Background(), `
		<html><head><style>div { display: none; }</style></head>
		<body><div><button>hidden</button></div></body></html>`, nil)
	require.NoError(t, err)

	button := findElement(doc.Root, "button")
	require.NotNil(t, button)
	assert.Nil(t, doc.BoxFor(button), "a button inside display:none gets no box")
}

func TestBuildFetchesLinkedStyleSheet(t *testing.T) {
	fetcher := &fakeFetcher{resources: map[string]string{
		"https://example.com/main.css": "button { display: none; }",
	}}
	doc, err := NewBuilder(nil, WithFetcher(fetcher)).Build(context.Background(), `
		<html><head><link rel="stylesheet" href="/main.css"></head>
		<body><button>go</button></body></html>`,
		mustURL(t, "https://example.com/index.html"))
	require.NoError(t, err)

	assert.Contains(t, fetcher.calls, "https://example.com/main.css")
	assert.Nil(t, doc.BoxFor(findElement(doc.Root, "button")))
}

func TestBuildUnreachableStyleSheetIsNotFatal(t *testing.T) {
	fetcher := &fakeFetcher{resources: map[string]string{}}
	doc, err := NewBuilder(nil, WithFetcher(fetcher)).Build(context.Background(), `
		<html><head><link rel="stylesheet" href="/missing.css"></head>
		<body><button>go</button></body></html>`,
		mustURL(t, "https://example.com/"))
	require.NoError(t, err)
	assert.NotNil(t, doc.BoxFor(findElement(doc.Root, "button")))
}

func TestBuildResolvesFrames(t *testing.T) {
	fetcher := &fakeFetcher{resources: map[string]string{
		"https://example.com/inner.html": `<html><body><button>inside</button></body></html>`,
	}}
	doc, err := NewBuilder(nil, WithFetcher(fetcher)).Build(context.Background(), `
		<html><body>
			<iframe src="/inner.html" style="position: absolute; left: 100px; top: 40px;"></iframe>
		</body></html>`,
		mustURL(t, "https://example.com/"))
	require.NoError(t, err)

	require.Len(t, doc.Frames, 1)
	frame := doc.Frames[0]
	require.NotNil(t, frame.Document, "a reachable frame produces a child document")
	assert.Equal(t, 100.0, frame.OffsetX)
	assert.Equal(t, 40.0, frame.OffsetY)
	assert.NotNil(t, frame.Document.BoxFor(findElement(frame.Document.Root, "button")))
}

func TestBuildUnreachableFrameLeftEmpty(t *testing.T) {
	fetcher := &fakeFetcher{resources: map[string]string{}}
	doc, err := NewBuilder(nil, WithFetcher(fetcher)).Build(context.Background(), `
		<html><body><iframe src="https://example.com/gone.html"></iframe></body></html>`, nil)
	require.NoError(t, err)

	require.Len(t, doc.Frames, 1)
	assert.Nil(t, doc.Frames[0].Document)
}

func TestBuildSkipsAboutBlankFrames(t *testing.T) {
	fetcher := &fakeFetcher{resources: map[string]string{}}
	doc, err := NewBuilder(nil, WithFetcher(fetcher)).Build(context.Background(), `
		<html><body><iframe src="about:blank"></iframe></body></html>`, nil)
	require.NoError(t, err)

	require.Len(t, doc.Frames, 1)
	assert.Nil(t, doc.Frames[0].Document)
	assert.Empty(t, fetcher.calls, "about: frames are never fetched")
}

func TestBuildFrameBudget(t *testing.T) {
	resources := map[string]string{}
	var srcs []string
	for i := 0; i < 4; i++ {
		u := fmt.Sprintf("https://example.com/f%d.html", i)
		resources[u] = "<html><body>frame</body></html>"
		srcs = append(srcs, fmt.Sprintf(`<iframe src=%q></iframe>`, u))
	}
	fetcher := &fakeFetcher{resources: resources}

	doc, err := NewBuilder(nil, WithFetcher(fetcher), WithMaxFrameFetches(2)).Build(
		context.Background(),
		"<html><body>"+strings.Join(srcs, "")+"</body></html>", nil)
	require.NoError(t, err)

	require.Len(t, doc.Frames, 4)
	loaded := 0
	for _, f := range doc.Frames {
		if f.Document != nil {
			loaded++
		}
	}
	assert.Equal(t, 2, loaded, "fetches beyond the budget leave frames empty")
}

func TestBuildInstantiatesShadowRoots(t *testing.T) {
	doc, err := NewBuilder(nil).Build(context.Background(), `
		<html><body><div id="host">
			<template shadowrootmode="open"><button>shadow go</button></template>
		</div></body></html>`, nil)
	require.NoError(t, err)

	host := styledByTag(doc.Styled, "div")
	require.NotNil(t, host)
	require.NotNil(t, host.ShadowRoot, "the template child promotes the div to a shadow host")

	shadowButton := styledByTag(host.ShadowRoot, "button")
	require.NotNil(t, shadowButton)
	assert.NotNil(t, doc.BoxFor(shadowButton.Node), "shadow content is laid out")
}

func TestDocumentHasListenerDefaultsToNone(t *testing.T) {
	doc, err := NewBuilder(nil).Build(context.Background(),
		`<html><body><div>x</div></body></html>`, nil)
	require.NoError(t, err)
	assert.False(t, doc.HasListener(findElement(doc.Root, "div")))
}
