package pool

import "errors"

// Sentinel errors returned by pool operations. All three failure kinds in
// the design (out-of-capacity, arithmetic overflow, creation failure)
// surface this way; none of them panic or log.
var (
	ErrOutOfCapacity = errors.New("pool: insufficient free bytes")
	ErrOverflow      = errors.New("pool: size overflows the alignment domain")
	ErrCreateFailed  = errors.New("pool: backing store allocation failed")
	ErrDestroyed     = errors.New("pool: use of a destroyed pool")
	ErrInvalidBlock  = errors.New("pool: block does not belong to this pool")
)
