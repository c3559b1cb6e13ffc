package apiclient

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// LogMiddleware emits a debug entry per call. Tokens never appear in the
// logged fields, so no masking pass is needed here.
type LogMiddleware struct {
	log logrus.FieldLogger
}

// NewLogMiddleware wraps the chain with request logging.
func NewLogMiddleware(log logrus.FieldLogger) *LogMiddleware {
	return &LogMiddleware{log: log}
}

func (l *LogMiddleware) Name() string { return "log" }

func (l *LogMiddleware) Priority() int { return 90 }

func (l *LogMiddleware) RoundTrip(ctx context.Context, req *Request, next RoundTripFunc) (*Response, error) {
	if next == nil {
		return nil, ErrMissingNext
	}
	if l.log == nil {
		return next(ctx, req)
	}

	start := time.Now()
	resp, err := next(ctx, req)
	fields := logrus.Fields{
		"method":  req.Method,
		"path":    req.Path,
		"elapsed": time.Since(start).String(),
	}
	if resp != nil {
		fields["status"] = resp.StatusCode
	}
	if err != nil {
		l.log.WithFields(fields).WithError(err).Debug("api call failed")
		return resp, err
	}
	l.log.WithFields(fields).Debug("api call")
	return resp, nil
}

var _ Middleware = (*LogMiddleware)(nil)
