// browser/page/builder.go
package page

import (
	"context"
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/periscope/internal/browser/layout"
	"github.com/xkilldash9x/periscope/internal/browser/parser"
	"github.com/xkilldash9x/periscope/internal/browser/shadowdom"
	"github.com/xkilldash9x/periscope/internal/browser/style"
)

// maxFrameDepth bounds frame recursion so circular embeds terminate.
const maxFrameDepth = 5

// ResourceFetcher retrieves frame documents and external stylesheets.
// Implemented by network.Fetcher; tests supply fakes.
type ResourceFetcher interface {
	Fetch(ctx context.Context, base *url.URL, rawURL string) ([]byte, error)
}

// Builder assembles Documents from raw HTML: parsing, the style cascade,
// shadow root instantiation, slot distribution, layout, and frame recursion.
type Builder struct {
	fetcher         ResourceFetcher
	logger          *zap.Logger
	viewportWidth   float64
	viewportHeight  float64
	maxFrameFetches int
}

// Option customizes a Builder.
type Option func(*Builder)

// WithFetcher enables external stylesheet and frame retrieval. Without a
// fetcher, external resources resolve to empty content.
func WithFetcher(f ResourceFetcher) Option {
	return func(b *Builder) { b.fetcher = f }
}

// WithViewport overrides the default viewport size.
func WithViewport(width, height float64) Option {
	return func(b *Builder) {
		b.viewportWidth = width
		b.viewportHeight = height
	}
}

// WithMaxFrameFetches caps how many frame documents one build may fetch.
func WithMaxFrameFetches(n int) Option {
	return func(b *Builder) { b.maxFrameFetches = n }
}

// NewBuilder creates a document builder.
func NewBuilder(logger *zap.Logger, opts ...Option) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Builder{
		logger:          logger.Named("page"),
		viewportWidth:   1280,
		viewportHeight:  720,
		maxFrameFetches: 16,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build parses rawHTML into a fully processed Document. Unreachable frames
// and stylesheets degrade to empty content, never to a build failure.
func (b *Builder) Build(ctx context.Context, rawHTML string, base *url.URL) (*Document, error) {
	budget := b.maxFrameFetches
	return b.build(ctx, rawHTML, base, 0, 0, 0, &budget)
}

func (b *Builder) build(ctx context.Context, rawHTML string, base *url.URL, offsetX, offsetY float64, depth int, frameBudget *int) (*Document, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}

	doc := &Document{
		URL:            base,
		Root:           root,
		ViewportWidth:  b.viewportWidth,
		ViewportHeight: b.viewportHeight,
		Listeners:      NoListeners{},
	}

	shadowEngine := shadowdom.NewEngine()
	styleEngine := style.NewEngine(shadowEngine)
	for _, sheet := range b.collectAuthorSheets(ctx, root, base) {
		styleEngine.AddAuthorSheet(sheet)
	}

	doc.Styled = styleEngine.BuildTree(root, nil)
	assignSlotsRecursive(shadowEngine, doc.Styled)

	layoutEngine := layout.NewEngine(b.viewportWidth, b.viewportHeight)
	doc.Layout = layoutEngine.Layout(doc.Styled)

	if depth < maxFrameDepth {
		b.resolveFrames(ctx, doc, offsetX, offsetY, depth, frameBudget)
	}
	return doc, nil
}

// collectAuthorSheets gathers inline <style> contents and fetches
// <link rel="stylesheet"> targets. A failed fetch contributes nothing.
func (b *Builder) collectAuthorSheets(ctx context.Context, root *html.Node, base *url.URL) []parser.StyleSheet {
	var sheets []parser.StyleSheet

	for _, node := range htmlquery.Find(root, "//style") {
		css := htmlquery.InnerText(node)
		if strings.TrimSpace(css) == "" {
			continue
		}
		sheets = append(sheets, parser.NewParser(css).Parse())
	}

	if b.fetcher == nil {
		return sheets
	}
	for _, node := range htmlquery.Find(root, `//link[@rel]`) {
		if !strings.EqualFold(htmlquery.SelectAttr(node, "rel"), "stylesheet") {
			continue
		}
		href := strings.TrimSpace(htmlquery.SelectAttr(node, "href"))
		if href == "" {
			continue
		}
		body, err := b.fetcher.Fetch(ctx, base, href)
		if err != nil {
			b.logger.Debug("Stylesheet unreachable, skipping",
				zap.String("href", href), zap.Error(err))
			continue
		}
		sheets = append(sheets, parser.NewParser(string(body)).Parse())
	}
	return sheets
}

// resolveFrames fetches and builds each iframe/frame document, recording the
// frame's content origin in root coordinates.
func (b *Builder) resolveFrames(ctx context.Context, doc *Document, offsetX, offsetY float64, depth int, frameBudget *int) {
	frameNodes := htmlquery.Find(doc.Root, "//iframe | //frame")
	for _, node := range frameNodes {
		frame := &Frame{Element: node}
		if box := doc.BoxFor(node); box != nil {
			frame.OffsetX = offsetX + box.Rect.X
			frame.OffsetY = offsetY + box.Rect.Y
		} else {
			frame.OffsetX = offsetX
			frame.OffsetY = offsetY
		}

		src := strings.TrimSpace(htmlquery.SelectAttr(node, "src"))
		switch {
		case src == "" || strings.HasPrefix(src, "about:") || strings.HasPrefix(src, "javascript:"):
			// Nothing to load; the frame exists but stays empty.
		case b.fetcher == nil:
			b.logger.Debug("No fetcher configured, frame left empty", zap.String("src", src))
		case *frameBudget <= 0:
			b.logger.Warn("Frame fetch budget exhausted, frame left empty", zap.String("src", src))
		default:
			*frameBudget--
			body, err := b.fetcher.Fetch(ctx, doc.URL, src)
			if err != nil {
				b.logger.Debug("Frame unreachable, left empty",
					zap.String("src", src), zap.Error(err))
				break
			}
			frameURL, _ := resolveRef(doc.URL, src)
			child, err := b.build(ctx, string(body), frameURL, frame.OffsetX, frame.OffsetY, depth+1, frameBudget)
			if err != nil {
				b.logger.Debug("Frame document unparsable, left empty",
					zap.String("src", src), zap.Error(err))
				break
			}
			frame.Document = child
		}
		doc.Frames = append(doc.Frames, frame)
	}
}

// assignSlotsRecursive runs slot distribution on every shadow host in the
// styled tree, including hosts nested inside shadow trees.
func assignSlotsRecursive(engine *shadowdom.Engine, sn *style.StyledNode) {
	if sn == nil {
		return
	}
	if sn.ShadowRoot != nil {
		engine.AssignSlots(sn)
		assignSlotsRecursive(engine, sn.ShadowRoot)
	}
	for _, child := range sn.Children {
		assignSlotsRecursive(engine, child)
	}
}

func resolveRef(base *url.URL, ref string) (*url.URL, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return base, err
	}
	if base == nil {
		return parsed, nil
	}
	return base.ResolveReference(parsed), nil
}
