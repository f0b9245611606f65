package httpserver

import "time"

// Config configures a Server. There is no flag or environment-variable
// parsing layer here — the teacher's kernel module has none either, so
// callers populate this struct directly, the way sab.SharedMemoryOptions
// and sab.SABInitializer are populated.
type Config struct {
	// Addr is the listener address, e.g. ":8443".
	Addr string

	// PoolCapacity is the maximum size handed to pool.New for every
	// accepted connection's scratch arena.
	PoolCapacity uint32

	// MaxConns bounds concurrently accepted connections, matching the
	// number of pools the process is willing to keep resident at once.
	MaxConns int

	// RateLimit and RateWindow bound new-connection admission: at most
	// RateLimit connections per remote address within RateWindow. The
	// check runs in serveConn after a connection has been accepted; a
	// connection over the limit is closed without being served.
	RateLimit  int
	RateWindow time.Duration

	// CompressMinBytes is the minimum response body size before brotli
	// compression is applied.
	CompressMinBytes int
}

// DefaultConfig returns reasonable defaults for a single demo instance.
func DefaultConfig(addr string) Config {
	return Config{
		Addr:             addr,
		PoolCapacity:     64 * 1024,
		MaxConns:         256,
		RateLimit:        20,
		RateWindow:       time.Second,
		CompressMinBytes: 256,
	}
}
