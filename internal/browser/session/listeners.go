// internal/browser/session/listeners.go
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	cdpdom "github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/domdebugger"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/periscope/internal/browser/dom"
)

// listenerProbeLimit bounds concurrent per-node listener queries.
const listenerProbeLimit = 8

// clickLikeListeners are the event types that make a registered listener
// count as a click handler.
var clickLikeListeners = map[string]bool{
	"click": true, "dblclick": true, "mousedown": true, "mouseup": true,
	"touchstart": true, "touchend": true, "pointerdown": true, "pointerup": true,
}

// probeTags limits listener probing to tags that plausibly carry handlers;
// querying every node of a large page costs a round trip per node.
var probeTags = map[string]bool{
	"a": true, "button": true, "input": true, "select": true,
	"textarea": true, "div": true, "span": true, "li": true, "img": true,
	"label": true, "summary": true, "td": true, "tr": true,
}

// harvestListenerPaths walks the browser-side DOM and returns the positional
// paths of elements with click-like listeners. Paths use the same scheme the
// parsed-DOM walker produces, which is what lets the two sides meet.
func harvestListenerPaths(ctx context.Context) (map[string]bool, error) {
	root, err := cdpdom.GetDocument().WithDepth(-1).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading browser DOM: %w", err)
	}

	type candidate struct {
		backendID cdp.BackendNodeID
		path      string
	}
	var candidates []candidate
	var collect func(n *cdp.Node, prefix string)
	collect = func(n *cdp.Node, prefix string) {
		if n == nil {
			return
		}
		for _, child := range n.Children {
			if child.NodeType != 1 {
				continue
			}
			tag := strings.ToLower(child.NodeName)
			path := prefix + "/" + tag + fmt.Sprintf("[%d]", siblingIndex(n, child))
			if probeTags[tag] {
				candidates = append(candidates, candidate{backendID: child.BackendNodeID, path: path})
			}
			collect(child, path)
		}
	}
	collect(root, "")

	paths := make(map[string]bool)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listenerProbeLimit)
	for _, c := range candidates {
		c := c
		g.Go(func() error {
			obj, err := cdpdom.ResolveNode().WithBackendNodeID(c.backendID).Do(gctx)
			if err != nil || obj == nil {
				// Detached between walk and probe; skip it.
				return nil
			}
			listeners, err := domdebugger.GetEventListeners(obj.ObjectID).Do(gctx)
			if err != nil {
				return nil
			}
			for _, l := range listeners {
				if clickLikeListeners[l.Type] {
					mu.Lock()
					paths[c.path] = true
					mu.Unlock()
					break
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// siblingIndex computes the 1-based index of child among same-tag element
// siblings, mirroring the parsed-DOM path scheme.
func siblingIndex(parent *cdp.Node, child *cdp.Node) int {
	index := 1
	for _, sib := range parent.Children {
		if sib == child {
			break
		}
		if sib.NodeType == 1 && strings.EqualFold(sib.NodeName, child.NodeName) {
			index++
		}
	}
	return index
}

// PathListeners adapts a harvested path set to the page.ListenerSource
// contract consumed by the document builder.
type PathListeners struct {
	paths map[string]bool
}

// NewPathListeners wraps a harvested listener path set.
func NewPathListeners(paths map[string]bool) *PathListeners {
	return &PathListeners{paths: paths}
}

// HasListener reports whether the node's positional path was seen carrying a
// click-like listener at capture time.
func (p *PathListeners) HasListener(n *html.Node) bool {
	if p == nil || len(p.paths) == 0 {
		return false
	}
	return p.paths[dom.NodePath(n)]
}
