package apiclient

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryMiddleware retries idempotent calls on transport failures with
// exponential backoff. Non-GET methods and HTTP error responses pass
// through untouched.
type RetryMiddleware struct {
	maxTries uint
	initial  time.Duration
}

// NewRetryMiddleware configures up to maxTries attempts per GET call.
func NewRetryMiddleware(maxTries uint) *RetryMiddleware {
	if maxTries == 0 {
		maxTries = 3
	}
	return &RetryMiddleware{maxTries: maxTries, initial: 100 * time.Millisecond}
}

func (r *RetryMiddleware) Name() string { return "retry" }

func (r *RetryMiddleware) Priority() int { return 10 }

func (r *RetryMiddleware) RoundTrip(ctx context.Context, req *Request, next RoundTripFunc) (*Response, error) {
	if next == nil {
		return nil, ErrMissingNext
	}
	if req.Method != http.MethodGet {
		return next(ctx, req)
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = r.initial

	operation := func() (*Response, error) {
		resp, err := next(ctx, req)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}
	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(r.maxTries),
	)
}

var _ Middleware = (*RetryMiddleware)(nil)
