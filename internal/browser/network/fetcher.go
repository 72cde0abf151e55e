// browser/network/fetcher.go
package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/xkilldash9x/periscope/internal/config"
)

// Fetcher retrieves subresources referenced by a page: frame documents and
// external stylesheets. Responses are decoded transparently and bodies are
// capped so a hostile resource cannot exhaust memory.
type Fetcher struct {
	client       *http.Client
	logger       *zap.Logger
	maxBodyBytes int64
	userAgent    string
}

// NewFetcher builds a fetcher from the network configuration.
func NewFetcher(cfg config.NetworkConfig, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		client: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: NewDecodingTransport(nil),
		},
		logger:       logger.Named("fetcher"),
		maxBodyBytes: cfg.MaxBodyBytes,
		userAgent:    cfg.UserAgent,
	}
}

// Fetch retrieves the resource at rawURL, resolved against base when the URL
// is relative. Non-2xx statuses are errors.
func (f *Fetcher) Fetch(ctx context.Context, base *url.URL, rawURL string) ([]byte, error) {
	target, err := resolveURL(base, rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %q: %w", target, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %q: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetching %q: unexpected status %d", target, resp.StatusCode)
	}

	reader := io.Reader(resp.Body)
	if f.maxBodyBytes > 0 {
		reader = io.LimitReader(resp.Body, f.maxBodyBytes)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading body of %q: %w", target, err)
	}

	f.logger.Debug("Fetched resource",
		zap.String("url", target.String()),
		zap.Int("bytes", len(body)))
	return body, nil
}

func resolveURL(base *url.URL, rawURL string) (*url.URL, error) {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url %q: %w", rawURL, err)
	}
	if base != nil {
		return base.ResolveReference(ref), nil
	}
	if !ref.IsAbs() {
		return nil, fmt.Errorf("relative url %q without a base", rawURL)
	}
	return ref, nil
}
