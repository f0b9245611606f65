package httpserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/nmxmxh/bumppool/pool"
)

// readChunk is how many additional bytes are requested from the
// connection whenever e's window doesn't yet hold a complete request.
const readChunk = 4096

// readRequest reads raw bytes from c into e's head-end scratch window,
// growing it via Reallocate as needed, until a complete HTTP request
// parses out of the window or a hard error occurs. It returns the
// parsed request and how much of the window it consumed — the status
// line, headers, and however much of the body was actually drained —
// so the caller can preserve whatever bytes are left over (the start of
// a pipelined next request) across the next Reset.
//
// Because the window always starts a parse attempt with whatever is
// already buffered before touching the connection again, bytes a
// previous call to readRequest left unconsumed are parsed for free on
// the next call — no read-ahead is ever thrown away.
func readRequest(e *connEntry, c net.Conn) (*http.Request, uint32, error) {
	for {
		filled := e.window.Size
		window := e.pool.Bytes(e.window)

		br := bufio.NewReaderSize(bytes.NewReader(window), int(filled))
		req, err := http.ReadRequest(br)
		if err == nil {
			body, berr := io.ReadAll(req.Body)
			if berr == nil {
				req.Body.Close()
				req.Body = io.NopCloser(bytes.NewReader(body))
				consumed := filled - uint32(br.Buffered())
				return req, consumed, nil
			}
			err = berr
		}
		if !incompleteRequest(err) {
			return nil, 0, fmt.Errorf("httpserver: parse request: %w", err)
		}

		grown, err := growWindow(e, filled+readChunk)
		if err != nil {
			return nil, 0, err
		}
		e.window = grown

		n, err := c.Read(e.pool.Bytes(e.window)[filled : filled+readChunk])
		if n == 0 && err != nil {
			return nil, 0, err
		}

		shrunk, err := e.pool.Reallocate(e.window, filled+uint32(n))
		if err != nil {
			return nil, 0, fmt.Errorf("httpserver: shrink request window: %w", err)
		}
		e.window = shrunk
	}
}

// incompleteRequest reports whether err indicates the window simply
// doesn't contain a full request yet, rather than a malformed one.
func incompleteRequest(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// growWindow extends e's head-end scratch block to newSize bytes:
// allocating fresh if the connection hasn't read anything since the
// last reset, or reallocating the live window (the realloc fast path,
// since window is always the most recently touched head-end block at
// this point) otherwise.
func growWindow(e *connEntry, newSize uint32) (pool.Block, error) {
	if !e.haveWindow {
		b, err := e.pool.Allocate(newSize, false)
		if err != nil {
			return pool.Block{}, fmt.Errorf("httpserver: allocate request window: %w", err)
		}
		e.haveWindow = true
		return b, nil
	}
	b, err := e.pool.Reallocate(e.window, newSize)
	if err != nil {
		return pool.Block{}, fmt.Errorf("httpserver: grow request window: %w", err)
	}
	return b, nil
}
