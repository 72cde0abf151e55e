// internal/perception/engine.go
//
// The perception engine turns one point-in-time page document into an action
// space: walk the tree, annotate each node with visibility, occlusion, and
// interactivity verdicts, assign stable typed IDs, and compile the result
// into the queryable artifact handed to callers.
package perception

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/periscope/api/schemas"
	"github.com/xkilldash9x/periscope/internal/browser/page"
	"github.com/xkilldash9x/periscope/internal/config"
)

// Options control one extraction call.
type Options struct {
	// Highlight requests geometry capture for highlighted nodes.
	Highlight bool
	// FocusIndex restricts geometry capture to one highlight index when
	// non-negative. Ignored unless Highlight is set.
	FocusIndex int
	// ViewportExpansion is the margin in pixels added around the viewport
	// for the topmost test. UnboundedExpansion treats every element as
	// topmost.
	ViewportExpansion float64
	// Previous, when set, makes the extraction incremental: IDs issued by
	// the previous space are preserved for nodes that still exist.
	Previous *ActionSpace
}

// OptionsFromConfig derives extraction options from the perception
// configuration section.
func OptionsFromConfig(cfg config.PerceptionConfig) Options {
	return Options{
		Highlight:         cfg.Highlight,
		FocusIndex:        cfg.FocusIndex,
		ViewportExpansion: float64(cfg.ViewportExpansion),
	}
}

// Result is the outcome of one extraction: the compiled space plus, when
// highlighting was requested, per-highlight-index geometry for overlay
// rendering.
type Result struct {
	Space      *ActionSpace
	Geometries map[int]schemas.Geometry
}

// Engine runs extractions. It holds no per-page state; one engine serves any
// number of documents.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a perception engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger.Named("perception")}
}

// Snapshot extracts the action space of doc. The walk runs to completion
// against the supplied document before anything is returned; there is no
// partial result. The mirrored node tree is discarded after compilation.
func (e *Engine) Snapshot(ctx context.Context, doc *page.Document, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w := &walker{opts: opts}
	root := w.walkDocument(doc, frameContext{}, "")

	var highlighted []*Node
	collectHighlighted(root, &highlighted)

	assignments := assignIDs(highlighted, opts.Previous)
	actions := compileActions(assignments)
	space := NewActionSpace(actions)

	result := &Result{Space: space}
	if opts.Highlight {
		result.Geometries = make(map[int]schemas.Geometry)
		for _, n := range highlighted {
			if n.Geometry != nil {
				result.Geometries[*n.HighlightIndex] = *n.Geometry
			}
		}
	}

	e.logger.Debug("Extraction complete",
		zap.Int("highlighted", len(highlighted)),
		zap.Int("actions", space.Len()),
		zap.Bool("incremental", opts.Previous != nil))
	return result, nil
}
