// -- cmd/snapshot.go --
package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/periscope/api/schemas"
	"github.com/xkilldash9x/periscope/internal/browser/network"
	"github.com/xkilldash9x/periscope/internal/browser/page"
	"github.com/xkilldash9x/periscope/internal/browser/session"
	"github.com/xkilldash9x/periscope/internal/observability"
	"github.com/xkilldash9x/periscope/internal/perception"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	flagHighlight    bool
	flagFocusIndex   int
	flagExpansion    int
	flagFormat       string
	flagLive         bool
	flagPreviousFile string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <url-or-file>",
	Short: "Extract the action space of a page and render it.",
	Long: `Snapshot loads a page (from a URL, a local HTML file, or a live
browser when --live is set), extracts its interactive affordances, and
renders the resulting action space as markdown or JSON.

Supplying --previous with a serialized action space from an earlier snapshot
of the same page extends it: existing IDs are preserved and new affordances
get fresh numbers.`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().BoolVar(&flagHighlight, "highlight", false, "capture geometry for highlighted elements")
	snapshotCmd.Flags().IntVar(&flagFocusIndex, "focus", -1, "restrict geometry capture to one highlight index")
	snapshotCmd.Flags().IntVar(&flagExpansion, "viewport-expansion", 500, "viewport expansion margin in px (-1 = treat everything as topmost)")
	snapshotCmd.Flags().StringVar(&flagFormat, "format", "markdown", "output format: markdown or json")
	snapshotCmd.Flags().BoolVar(&flagLive, "live", false, "capture through a headless browser instead of plain HTTP")
	snapshotCmd.Flags().StringVar(&flagPreviousFile, "previous", "", "path to a serialized action space to extend")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()
	target := args[0]

	opts := perception.OptionsFromConfig(cfg.Perception())
	if cmd.Flags().Changed("highlight") {
		opts.Highlight = flagHighlight
	}
	if cmd.Flags().Changed("focus") {
		opts.FocusIndex = flagFocusIndex
	}
	if cmd.Flags().Changed("viewport-expansion") {
		opts.ViewportExpansion = float64(flagExpansion)
	}

	if flagPreviousFile != "" {
		raw, err := os.ReadFile(flagPreviousFile)
		if err != nil {
			return fmt.Errorf("reading previous action space: %w", err)
		}
		prev, err := perception.UnmarshalActionSpace(raw)
		if err != nil {
			return err
		}
		opts.Previous = prev
	}

	doc, err := loadDocument(cmd, target, logger)
	if err != nil {
		return err
	}

	engine := perception.NewEngine(logger)
	result, err := engine.Snapshot(ctx, doc, opts)
	if err != nil {
		return fmt.Errorf("extracting action space: %w", err)
	}

	switch strings.ToLower(flagFormat) {
	case "markdown", "md":
		fmt.Fprint(cmd.OutOrStdout(), result.Space.Markdown())
	case "json":
		payload := struct {
			Space      *perception.ActionSpace  `json:"space"`
			Geometries map[int]schemas.Geometry `json:"geometries,omitempty"`
		}{Space: result.Space, Geometries: result.Geometries}
		out, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	default:
		return fmt.Errorf("unknown format %q (want markdown or json)", flagFormat)
	}
	return nil
}

// loadDocument obtains the page HTML through the requested capture path and
// assembles the processed document.
func loadDocument(cmd *cobra.Command, target string, logger *zap.Logger) (*page.Document, error) {
	ctx := cmd.Context()
	netCfg := cfg.Network()
	browserCfg := cfg.Browser()
	fetcher := network.NewFetcher(netCfg, logger)

	builder := page.NewBuilder(logger,
		page.WithFetcher(fetcher),
		page.WithViewport(float64(browserCfg.ViewportWidth), float64(browserCfg.ViewportHeight)),
		page.WithMaxFrameFetches(netCfg.MaxFrameFetches),
	)

	var (
		rawHTML   string
		base      *url.URL
		listeners page.ListenerSource
		scrollX   float64
		scrollY   float64
	)

	switch {
	case flagLive:
		sess, err := session.NewSession(ctx, browserCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("starting browser session: %w", err)
		}
		defer sess.Close()
		capture, err := sess.Capture(ctx, target)
		if err != nil {
			return nil, err
		}
		rawHTML = capture.HTML
		base, _ = url.Parse(target)
		listeners = session.NewPathListeners(capture.ListenerPaths)
		scrollX, scrollY = capture.ScrollX, capture.ScrollY

	case fileExists(target):
		raw, err := os.ReadFile(target)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", target, err)
		}
		rawHTML = string(raw)

	default:
		parsed, err := url.Parse(target)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return nil, fmt.Errorf("%q is neither a readable file nor an http(s) url", target)
		}
		body, err := fetcher.Fetch(ctx, nil, target)
		if err != nil {
			return nil, err
		}
		rawHTML = string(body)
		base = parsed
	}

	doc, err := builder.Build(ctx, rawHTML, base)
	if err != nil {
		return nil, fmt.Errorf("building document: %w", err)
	}
	doc.ScrollX, doc.ScrollY = scrollX, scrollY
	if listeners != nil {
		doc.Listeners = listeners
	}
	return doc, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
