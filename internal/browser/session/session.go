// internal/browser/session/session.go
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/periscope/internal/config"
)

// Capture is the point-in-time page state a live session hands to the page
// builder: the serialized DOM, scroll offsets, and the set of node paths
// carrying click-like event listeners.
type Capture struct {
	URL     string
	HTML    string
	ScrollX float64
	ScrollY float64

	// ListenerPaths holds the positional paths of elements with registered
	// click, mouse, or touch listeners, harvested through browser
	// instrumentation.
	ListenerPaths map[string]bool
}

// Session drives one headless browser tab for live capture.
type Session struct {
	id     string
	logger *zap.Logger
	cfg    config.BrowserConfig

	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	closeOnce   sync.Once
}

// NewSession launches a browser tab configured per cfg. Close must be called
// to release the browser.
func NewSession(parentCtx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sessionID := uuid.New().String()
	log := logger.Named("session").With(zap.String("session_id", sessionID))

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.WindowSize(cfg.ViewportWidth, cfg.ViewportHeight),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(parentCtx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	return &Session{
		id:          sessionID,
		logger:      log,
		cfg:         cfg,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Capture navigates to url, waits for the page to settle, and snapshots the
// DOM together with scroll offsets and listener instrumentation. Listener
// harvesting is best-effort: when the instrumentation is unavailable the
// capture succeeds with no listener paths.
func (s *Session) Capture(ctx context.Context, url string) (*Capture, error) {
	runCtx := s.tabCtx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(s.tabCtx, deadline)
		defer cancel()
	} else if s.cfg.NavigateTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(s.tabCtx, s.cfg.NavigateTimeout)
		defer cancel()
	}

	cap := &Capture{URL: url}

	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(s.cfg.StabilizeWait),
		chromedp.OuterHTML("html", &cap.HTML, chromedp.ByQuery),
		chromedp.ActionFunc(func(c context.Context) error {
			_, _, _, _, cssVisual, _, err := page.GetLayoutMetrics().Do(c)
			if err != nil {
				// Scroll offsets default to zero; not worth failing
				// the capture over.
				s.logger.Debug("Layout metrics unavailable", zap.Error(err))
				return nil
			}
			if cssVisual != nil {
				cap.ScrollX = cssVisual.PageX
				cap.ScrollY = cssVisual.PageY
			}
			return nil
		}),
		chromedp.ActionFunc(func(c context.Context) error {
			paths, err := harvestListenerPaths(c)
			if err != nil {
				s.logger.Debug("Listener introspection unavailable", zap.Error(err))
				return nil
			}
			cap.ListenerPaths = paths
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("capturing %q: %w", url, err)
	}

	s.logger.Info("Page captured",
		zap.String("url", url),
		zap.Int("html_bytes", len(cap.HTML)),
		zap.Int("listener_nodes", len(cap.ListenerPaths)))
	return cap, nil
}

// Close tears the tab and browser down. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.tabCancel()
		s.allocCancel()
		s.logger.Debug("Session closed")
	})
}
