// Package auth decodes HTTP Basic credentials into pool-backed memory and
// verifies them against a bcrypt credential store. It is a thin consumer
// of the pool's allocator contract (§6 of the design): it allocates a
// decoded-credential buffer from the head end, writes into it, and leaves
// it there for the request's lifetime — it never frees, relying on the
// server resetting the pool at the end of the request cycle.
package auth

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/nmxmxh/bumppool/pool"
)

const schemePrefix = "Basic "

var (
	ErrMissingHeader  = errors.New("auth: no Authorization header")
	ErrMalformedBasic = errors.New("auth: malformed basic auth header")
)

// Decode allocates a head-end block from p, base64-decodes the credentials
// out of an "Authorization: Basic ..." header value into it, and returns
// the block shrunk to the decoded length. The block's bytes hold
// "user:pass" and alias p's buffer for the rest of the current epoch.
func Decode(p *pool.Pool, header string) (pool.Block, error) {
	if header == "" {
		return pool.Block{}, ErrMissingHeader
	}
	if !strings.HasPrefix(header, schemePrefix) {
		return pool.Block{}, ErrMalformedBasic
	}
	encoded := strings.TrimSpace(header[len(schemePrefix):])

	maxLen := base64.StdEncoding.DecodedLen(len(encoded))
	scratch, err := p.Allocate(uint32(maxLen), false)
	if err != nil {
		return pool.Block{}, fmt.Errorf("auth: decode: %w", err)
	}

	n, err := base64.StdEncoding.Decode(p.Bytes(scratch), []byte(encoded))
	if err != nil {
		return pool.Block{}, fmt.Errorf("%w: %v", ErrMalformedBasic, err)
	}

	// Shrink in place: this is always the most recent head-end
	// allocation, so Reallocate takes the fast path and zeroes the
	// unused tail instead of leaking it until the next reset.
	return p.Reallocate(scratch, uint32(n))
}

// Split parses a decoded "user:pass" block into its two parts. The
// returned strings are copies of the bytes, so they remain valid after
// the pool's buffer is reset.
func Split(raw []byte) (user, pass string, err error) {
	i := bytes.IndexByte(raw, ':')
	if i < 0 {
		return "", "", ErrMalformedBasic
	}
	return string(raw[:i]), string(raw[i+1:]), nil
}
