package httpserver

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/sony/gobreaker"
	"golang.org/x/net/netutil"

	"github.com/nmxmxh/bumppool/internal/auth"
	"github.com/nmxmxh/bumppool/pool"
)

// connEntry is the per-connection state: one scratch pool, a tail-end
// reservation holding the connection's identity bytes, and the head-end
// window the request reader accumulates raw bytes into. window is the
// sole head-end block this package ever names to Reset's keep parameter
// — auth.Decode allocates its own head-end scratch on top of it per
// request, but only window's unconsumed tail is ever preserved across a
// reset.
type connEntry struct {
	pool       *pool.Pool
	idHex      string
	idRaw      []byte
	connID     pool.Block
	window     pool.Block
	haveWindow bool
}

// Server is an HTTP server giving every accepted connection its own
// bidirectional bump pool: request bytes are read straight into head-end
// scratch that grows as they arrive, while a persistent connection
// identifier is reserved from the tail end. Between requests on the
// same connection, Reset preserves whatever has already been read past
// the current request — the start of a pipelined next request — at
// offset 0, which is exactly the "retain the partially-received
// header/body" transition the pool's Reset primitive exists for.
type Server struct {
	cfg     Config
	store   *auth.Store
	breaker *gobreaker.CircuitBreaker[*pool.Pool]
	limiter interface{ Allow(string) bool }

	mu     sync.Mutex
	ln     net.Listener
	closed bool
	conns  map[net.Conn]*connEntry
}

// NewServer builds a Server that authenticates requests against store.
func NewServer(cfg Config, store *auth.Store) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		breaker: newPoolBreaker(),
		limiter: newRateLimiter(cfg),
		conns:   make(map[net.Conn]*connEntry),
	}
}

// ListenAndServe accepts connections, admitting at most cfg.MaxConns
// concurrently, and serves each on its own goroutine until Close is
// called or the listener otherwise fails.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("httpserver: listen: %w", err)
	}
	ln = netutil.LimitListener(ln, s.cfg.MaxConns)

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			return fmt.Errorf("httpserver: accept: %w", err)
		}
		go s.serveConn(conn)
	}
}

// Close tears down the listener and every connection's pool.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	ln := s.ln
	for c, e := range s.conns {
		_ = e.pool.Destroy()
		_ = c.Close()
		delete(s.conns, c)
	}
	s.mu.Unlock()

	if ln != nil {
		return ln.Close()
	}
	return nil
}

// serveConn owns one accepted connection end to end: admission, pool
// lifecycle, and the read-parse-respond-reset loop that preserves any
// already-buffered read-ahead bytes across resets.
func (s *Server) serveConn(c net.Conn) {
	defer c.Close()

	host, _, err := net.SplitHostPort(c.RemoteAddr().String())
	if err != nil {
		host = c.RemoteAddr().String()
	}
	if !s.limiter.Allow(host) {
		return
	}

	e, err := s.openConn()
	if err != nil {
		return
	}
	defer s.closeConn(c, e)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.conns[c] = e
	s.mu.Unlock()

	for {
		req, consumed, err := readRequest(e, c)
		if err != nil {
			if errors.Is(err, pool.ErrOutOfCapacity) {
				resp := textResponse(http.StatusRequestHeaderFieldsTooLarge,
					[]byte("request too large for connection scratch\n"), nil)
				_ = resp.Write(c)
			}
			return
		}

		resp := handleRequest(s.store, e.pool, e.idHex, req)
		compressResponseBody(resp, req.Header.Get("Accept-Encoding"), s.cfg.CompressMinBytes)
		resp.Close = !keepAlive(req)

		writeErr := resp.Write(c)
		resetErr := resetConn(e, consumed)
		if writeErr != nil || resetErr != nil || resp.Close {
			return
		}
	}
}

// keepAlive reports whether the connection should stay open for another
// request after req's response has been written.
func keepAlive(req *http.Request) bool {
	return !req.Close
}

func (s *Server) openConn() (*connEntry, error) {
	p, err := createPool(s.breaker, s.cfg.PoolCapacity)
	if err != nil {
		return nil, err
	}

	e := &connEntry{pool: p, idRaw: make([]byte, 16)}
	if _, err := rand.Read(e.idRaw); err != nil {
		_ = p.Destroy()
		return nil, err
	}
	e.idHex = hex.EncodeToString(e.idRaw)

	if err := seedConnID(e); err != nil {
		_ = p.Destroy()
		return nil, err
	}
	return e, nil
}

func (s *Server) closeConn(c net.Conn, e *connEntry) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	_ = e.pool.Destroy()
}

// seedConnID (re)reserves the connection identifier from the tail end. It
// runs once at connection setup and again after every Reset (full or
// preserving), since Reset releases every tail-end block along with the
// head-end scratch —
// the identifier's bytes are reseated rather than surviving in place.
func seedConnID(e *connEntry) error {
	block, err := e.pool.Allocate(uint32(len(e.idRaw)), true)
	if err != nil {
		return fmt.Errorf("httpserver: reserve connection id: %w", err)
	}
	copy(e.pool.Bytes(block), e.idRaw)
	e.connID = block
	return nil
}

// resetConn ends the request cycle that consumed consumed bytes out of
// e's window. If nothing is left over, it discards all scratch with a
// full Reset. Otherwise it calls Reset naming the unconsumed tail of the
// window as keep, relocating exactly those read-ahead bytes — the start
// of a pipelined next request — to offset 0 and discarding everything
// else, per the pool's "retain the partially-received header/body"
// reset-with-preservation use case.
func resetConn(e *connEntry, consumed uint32) error {
	leftover := e.window.Size - consumed

	if leftover == 0 {
		if _, err := e.pool.Reset(nil, 0, 0); err != nil {
			return fmt.Errorf("httpserver: reset connection pool: %w", err)
		}
		e.window = pool.Block{}
		e.haveWindow = false
		return seedConnID(e)
	}

	keep := pool.Block{Offset: e.window.Offset + consumed, Size: leftover}
	kept, err := e.pool.Reset(&keep, leftover, leftover)
	if err != nil {
		return fmt.Errorf("httpserver: reset connection pool: %w", err)
	}
	e.window = kept
	e.haveWindow = true
	return seedConnID(e)
}
