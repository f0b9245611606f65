package httpserver

import (
	"time"

	"github.com/sony/gobreaker"

	"github.com/nmxmxh/bumppool/pool"
)

// newPoolBreaker wraps pool.New in a circuit breaker so that a host where
// backing-store acquisition is failing (e.g. a sandboxed environment
// refusing every mmap and heap allocation alike) stops being hammered on
// every accepted connection. Once Execute starts failing repeatedly the
// breaker opens and callers get the breaker's own error immediately
// instead of paying for another doomed allocation attempt.
func newPoolBreaker() *gobreaker.CircuitBreaker[*pool.Pool] {
	st := gobreaker.Settings{
		Name:        "pool-create",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return gobreaker.NewCircuitBreaker[*pool.Pool](st)
}

func createPool(cb *gobreaker.CircuitBreaker[*pool.Pool], capacity uint32) (*pool.Pool, error) {
	return cb.Execute(func() (*pool.Pool, error) {
		return pool.New(capacity)
	})
}
