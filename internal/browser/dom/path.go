// browser/dom/path.go
package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/periscope/internal/browser/shadowdom"
)

// NodePath builds the positional path identifying a node within its document
// scope. Every segment is an always-indexed "tag[i]" where i is 1 plus the
// number of preceding siblings with the same tag, so a path never changes
// when later siblings are added. Traversal stops at the nearest scope
// boundary: the document root, a shadow root container, or a frame document,
// which keeps paths stable across frames and shadow trees.
func NodePath(node *html.Node) string {
	if node == nil {
		return ""
	}

	var segments []string
	for n := node; n != nil; n = n.Parent {
		if n.Type == html.DocumentNode {
			break
		}
		if n.Type != html.ElementNode {
			continue
		}
		tag := strings.ToLower(n.Data)
		if tag == "" {
			continue
		}
		if tag == shadowdom.BoundaryTag {
			break
		}

		index := 1
		for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
			if prev.Type == html.ElementNode && strings.EqualFold(prev.Data, tag) {
				index++
			}
		}
		segments = append(segments, fmt.Sprintf("%s[%d]", tag, index))
	}

	if len(segments) == 0 {
		return "/"
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return "/" + strings.Join(segments, "/")
}
