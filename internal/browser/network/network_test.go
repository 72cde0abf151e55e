// browser/network/network_test.go
package network

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/periscope/internal/config"
)

func testFetcher(maxBody int64) *Fetcher {
	return NewFetcher(config.NetworkConfig{
		RequestTimeout: 5 * time.Second,
		MaxBodyBytes:   maxBody,
		UserAgent:      "periscope-test",
	}, zap.NewNop())
}

func gzipBytes(t *testing.T, payload string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func TestFetchDecodesGzip(t *testing.T) {
	const payload = "<html><body>compressed</body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "gzip")
		assert.Equal(t, "periscope-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(gzipBytes(t, payload))
	}))
	defer srv.Close()

	body, err := testFetcher(0).Fetch(context.Background(), nil, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, payload, string(body))
}

func TestFetchDecodesBrotli(t *testing.T) {
	const payload = "brotli encoded body"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		bw := brotli.NewWriter(&buf)
		bw.Write([]byte(payload))
		bw.Close()
		w.Header().Set("Content-Encoding", "br")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	body, err := testFetcher(0).Fetch(context.Background(), nil, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, payload, string(body))
}

func TestFetchDecodesDeflateVariants(t *testing.T) {
	const payload = "deflate encoded body"

	zlibBody := func() []byte {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		zw.Write([]byte(payload))
		zw.Close()
		return buf.Bytes()
	}()
	rawBody := func() []byte {
		var buf bytes.Buffer
		fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
		require.NoError(t, err)
		fw.Write([]byte(payload))
		fw.Close()
		return buf.Bytes()
	}()

	for name, encoded := range map[string][]byte{"zlib": zlibBody, "raw": rawBody} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", "deflate")
				w.Write(encoded)
			}))
			defer srv.Close()

			body, err := testFetcher(0).Fetch(context.Background(), nil, srv.URL)
			require.NoError(t, err)
			assert.Equal(t, payload, string(body))
		})
	}
}

func TestFetchPlainIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain"))
	}))
	defer srv.Close()

	body, err := testFetcher(0).Fetch(context.Background(), nil, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "plain", string(body))
}

func TestFetchCapsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 1024)))
	}))
	defer srv.Close()

	body, err := testFetcher(100).Fetch(context.Background(), nil, srv.URL)
	require.NoError(t, err)
	assert.Len(t, body, 100)
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := testFetcher(0).Fetch(context.Background(), nil, srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetchResolvesRelativeURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	base, err := url.Parse(srv.URL + "/pages/index.html")
	require.NoError(t, err)

	body, err := testFetcher(0).Fetch(context.Background(), base, "style/main.css")
	require.NoError(t, err)
	assert.Equal(t, "/pages/style/main.css", string(body))
}

func TestFetchRelativeWithoutBase(t *testing.T) {
	_, err := testFetcher(0).Fetch(context.Background(), nil, "style/main.css")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a base")
}
