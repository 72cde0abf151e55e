// browser/network/compression.go
package network

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

// Reader pools keep decompressor allocations off the per-fetch path.
var (
	gzipReaderPool = sync.Pool{
		New: func() interface{} { return new(gzip.Reader) },
	}
	brotliReaderPool = sync.Pool{
		New: func() interface{} { return brotli.NewReader(nil) },
	}
)

var emptyReader = strings.NewReader("")

// DecodingTransport is an http.RoundTripper that advertises compression
// support on outgoing requests and transparently decodes gzip, brotli, and
// deflate response bodies.
type DecodingTransport struct {
	Transport http.RoundTripper
}

// NewDecodingTransport wraps transport, defaulting to http.DefaultTransport.
func NewDecodingTransport(transport http.RoundTripper) *DecodingTransport {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &DecodingTransport{Transport: transport}
}

// RoundTrip implements http.RoundTripper.
func (dt *DecodingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "br, gzip, deflate, identity")
	}

	resp, err := dt.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if err := decodeResponse(resp); err != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("failed to initialize response decoding: %w", err)
	}
	return resp, nil
}

// closeWrapper closes the decoding reader and the underlying body, returning
// pooled readers on the way out.
type closeWrapper struct {
	io.ReadCloser
	originalBody io.ReadCloser
	poolCallback func()
}

func (w *closeWrapper) Close() error {
	if w.poolCallback != nil {
		w.poolCallback()
		w.poolCallback = nil
	}
	err1 := w.ReadCloser.Close()
	err2 := w.originalBody.Close()
	return errors.Join(err1, err2)
}

// decodeResponse wraps resp.Body with the decoders the Content-Encoding
// header demands, applying layered encodings in reverse order. On error the
// body may be partially consumed; the caller must discard the response.
func decodeResponse(resp *http.Response) error {
	if resp == nil || resp.Body == nil {
		return nil
	}
	encodings := resp.Header.Values("Content-Encoding")
	if len(encodings) == 0 {
		return nil
	}

	for i := len(encodings) - 1; i >= 0; i-- {
		encoding := strings.ToLower(strings.TrimSpace(encodings[i]))

		var reader io.ReadCloser
		var poolCallback func()

		switch encoding {
		case "gzip":
			zr := gzipReaderPool.Get().(*gzip.Reader)
			if err := zr.Reset(resp.Body); err != nil {
				gzipReaderPool.Put(zr)
				return fmt.Errorf("gzip initialization error: %w", err)
			}
			reader = zr
			poolCallback = func() {
				_ = zr.Reset(emptyReader)
				gzipReaderPool.Put(zr)
			}

		case "br":
			br := brotliReaderPool.Get().(*brotli.Reader)
			if err := br.Reset(resp.Body); err != nil {
				brotliReaderPool.Put(br)
				return fmt.Errorf("brotli initialization error: %w", err)
			}
			reader = io.NopCloser(br)
			poolCallback = func() {
				_ = br.Reset(emptyReader)
				brotliReaderPool.Put(br)
			}

		case "deflate":
			reader = tryDeflate(resp.Body)

		case "identity", "":
			continue

		default:
			return fmt.Errorf("unsupported Content-Encoding layer: %s", encoding)
		}

		resp.Body = &closeWrapper{
			ReadCloser:   reader,
			originalBody: resp.Body,
			poolCallback: poolCallback,
		}
	}

	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return nil
}

// replayableReader buffers what has been read so a failed decoder probe can
// be replayed against a second decoder.
type replayableReader struct {
	r      io.Reader
	buf    *bytes.Buffer
	source io.Reader
}

func newReplayableReader(r io.Reader) *replayableReader {
	buf := bytes.NewBuffer(make([]byte, 0, 128))
	return &replayableReader{
		r:      io.TeeReader(r, buf),
		buf:    buf,
		source: r,
	}
}

func (rr *replayableReader) Read(p []byte) (int, error) {
	return rr.r.Read(p)
}

func (rr *replayableReader) rewind() {
	rr.r = io.MultiReader(bytes.NewReader(rr.buf.Bytes()), rr.source)
}

// tryDeflate decodes as zlib-wrapped deflate first, falling back to raw
// deflate for servers that omit the zlib header.
func tryDeflate(r io.Reader) io.ReadCloser {
	rr := newReplayableReader(r)
	if zr, err := zlib.NewReader(rr); err == nil {
		return zr
	}
	rr.rewind()
	return flate.NewReader(rr)
}
