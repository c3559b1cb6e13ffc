package apiclient

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerMiddleware stops hammering the backend once consecutive transport
// failures cross a threshold. HTTP error statuses do not trip the breaker;
// those are the backend answering.
type BreakerMiddleware struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreakerMiddleware builds a breaker with sane defaults for an
// interactive client: open after 5 consecutive failures, retry after 30s.
func NewBreakerMiddleware(name string) *BreakerMiddleware {
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &BreakerMiddleware{cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *BreakerMiddleware) Name() string { return "breaker" }

func (b *BreakerMiddleware) Priority() int { return 50 }

func (b *BreakerMiddleware) RoundTrip(ctx context.Context, req *Request, next RoundTripFunc) (*Response, error) {
	if next == nil {
		return nil, ErrMissingNext
	}
	resp, err := b.cb.Execute(func() (interface{}, error) {
		return next(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return resp.(*Response), nil
}

var _ Middleware = (*BreakerMiddleware)(nil)
