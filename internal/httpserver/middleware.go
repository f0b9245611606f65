package httpserver

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	ratelimiter "github.com/yasserelgammal/rate-limiter"
)

// compressResponseBody brotli-compresses resp's body in place once it
// is at least minBytes long, for clients advertising "br" support in
// acceptEncoding. Small responses (error pages, empty bodies) skip
// compression entirely, and a compression failure just leaves resp's
// body as it was.
func compressResponseBody(resp *http.Response, acceptEncoding string, minBytes int) {
	if !strings.Contains(acceptEncoding, "br") || int(resp.ContentLength) < minBytes {
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return
	}
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	var buf bytes.Buffer
	bw := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := bw.Write(body); err != nil {
		return
	}
	if err := bw.Close(); err != nil {
		return
	}

	resp.Header.Set("Content-Encoding", "br")
	resp.ContentLength = int64(buf.Len())
	resp.Body = io.NopCloser(bytes.NewReader(buf.Bytes()))
}

func newRateLimiter(cfg Config) *ratelimiter.RateLimiter {
	return ratelimiter.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
}
