package httpserver

import (
	"bufio"
	"encoding/base64"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/bumppool/internal/auth"
	"github.com/nmxmxh/bumppool/pool"
)

func basicAuthHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func testStore(t *testing.T) *auth.Store {
	t.Helper()
	s := auth.NewStore()
	require.NoError(t, s.Add("demo", "hunter2"))
	return s
}

func testConfig() Config {
	cfg := DefaultConfig(":0")
	cfg.PoolCapacity = 8192
	cfg.RateLimit = 1000
	cfg.RateWindow = time.Second
	cfg.CompressMinBytes = 1 << 20 // effectively off, for deterministic assertions
	return cfg
}

func TestHandleRequestAuthSuccess(t *testing.T) {
	p, err := pool.New(4096)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Destroy() })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", basicAuthHeader("demo", "hunter2"))

	resp := handleRequest(testStore(t), p, "deadbeef", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "hello demo, connection deadbeef")
}

func TestHandleRequestAuthFailure(t *testing.T) {
	p, err := pool.New(4096)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Destroy() })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", basicAuthHeader("demo", "wrongpass"))

	resp := handleRequest(testStore(t), p, "deadbeef", req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, `Basic realm="bumppool"`, resp.Header.Get("WWW-Authenticate"))
}

func TestHandleRequestMissingHeader(t *testing.T) {
	p, err := pool.New(4096)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Destroy() })

	req := httptest.NewRequest(http.MethodGet, "/", nil)

	resp := handleRequest(testStore(t), p, "deadbeef", req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// readRequest/resetConn exercise the non-nil-keep Reset path directly:
// two requests written back-to-back before anything is read (simulating
// HTTP/1.1 pipelining) land in one connEntry window, and the second
// request's bytes must survive the Reset that tears down the first
// request's scratch.
func TestReadRequestPreservesReadAheadBytesAcrossReset(t *testing.T) {
	p, err := pool.New(65536)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Destroy() })

	e := &connEntry{pool: p, idRaw: make([]byte, 16)}
	require.NoError(t, seedConnID(e))

	req1 := "GET /one HTTP/1.1\r\nHost: test\r\n\r\n"
	req2 := "GET /two HTTP/1.1\r\nHost: test\r\n\r\n"

	serverConn, clientConn := net.Pipe()
	t.Cleanup(func() { _ = clientConn.Close() })
	go func() { _, _ = clientConn.Write([]byte(req1 + req2)) }()

	got1, consumed, err := readRequest(e, serverConn)
	require.NoError(t, err)
	assert.Equal(t, "/one", got1.URL.Path)

	leftover := e.window.Size - consumed
	require.Equal(t, uint32(len(req2)), leftover)

	require.NoError(t, resetConn(e, consumed))
	assert.Equal(t, uint32(0), e.window.Offset)
	assert.Equal(t, leftover, e.window.Size)
	assert.Equal(t, []byte(req2), p.Bytes(e.window))

	got2, _, err := readRequest(e, serverConn)
	require.NoError(t, err)
	assert.Equal(t, "/two", got2.URL.Path)
}

// A request that exactly fills the window (nothing pipelined after it)
// takes the full-reset path: no keep block, head back to 0.
func TestResetConnFullResetWhenNothingLeftOver(t *testing.T) {
	p, err := pool.New(65536)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Destroy() })

	e := &connEntry{pool: p, idRaw: make([]byte, 16)}
	require.NoError(t, seedConnID(e))

	req := "GET /only HTTP/1.1\r\nHost: test\r\n\r\n"
	serverConn, clientConn := net.Pipe()
	t.Cleanup(func() { _ = clientConn.Close() })
	go func() { _, _ = clientConn.Write([]byte(req)) }()

	_, consumed, err := readRequest(e, serverConn)
	require.NoError(t, err)
	require.Equal(t, e.window.Size, consumed)

	require.NoError(t, resetConn(e, consumed))
	assert.False(t, e.haveWindow)
	assert.Equal(t, pool.Block{}, e.window)
}

// End-to-end: serveConn handles two pipelined requests on one
// connection, writing both in a single client write before either
// response is read, and closes after the second (Connection: close).
func TestServeConnHandlesPipelinedRequests(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	s := NewServer(testConfig(), testStore(t))

	req1 := "GET /one HTTP/1.1\r\nHost: test\r\nAuthorization: " +
		basicAuthHeader("demo", "hunter2") + "\r\n\r\n"
	req2 := "GET /two HTTP/1.1\r\nHost: test\r\nAuthorization: " +
		basicAuthHeader("demo", "hunter2") + "\r\nConnection: close\r\n\r\n"

	type result struct {
		resp1, resp2 *http.Response
		err          error
	}
	done := make(chan result, 1)
	go func() {
		var r result
		if _, err := clientConn.Write([]byte(req1 + req2)); err != nil {
			done <- result{err: err}
			return
		}
		br := bufio.NewReader(clientConn)
		r.resp1, r.err = http.ReadResponse(br, nil)
		if r.err == nil {
			_, _ = io.ReadAll(r.resp1.Body)
			r.resp2, r.err = http.ReadResponse(br, nil)
			if r.err == nil {
				_, _ = io.ReadAll(r.resp2.Body)
			}
		}
		done <- r
	}()

	s.serveConn(serverConn)
	r := <-done

	require.NoError(t, r.err)
	require.NotNil(t, r.resp1)
	require.NotNil(t, r.resp2)
	assert.Equal(t, http.StatusOK, r.resp1.StatusCode)
	assert.Equal(t, http.StatusOK, r.resp2.StatusCode)
}

func TestServeConnRejectsBadCredentials(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	s := NewServer(testConfig(), testStore(t))

	req := "GET / HTTP/1.1\r\nHost: test\r\nAuthorization: " +
		basicAuthHeader("demo", "wrongpass") + "\r\nConnection: close\r\n\r\n"

	done := make(chan *http.Response, 1)
	go func() {
		_, _ = clientConn.Write([]byte(req))
		resp, _ := http.ReadResponse(bufio.NewReader(clientConn), nil)
		done <- resp
	}()

	s.serveConn(serverConn)
	resp := <-done

	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
