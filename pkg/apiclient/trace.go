package apiclient

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cexll/merchantops-go/pkg/telemetry"
)

// TraceMiddleware records a span and request metrics per outbound call.
type TraceMiddleware struct {
	manager *telemetry.Manager
}

// NewTraceMiddleware wires telemetry into the call chain.
func NewTraceMiddleware(m *telemetry.Manager) *TraceMiddleware {
	return &TraceMiddleware{manager: m}
}

func (t *TraceMiddleware) Name() string { return "trace" }

// Priority places tracing at the outermost layer so spans cover retries
// and breaker decisions.
func (t *TraceMiddleware) Priority() int { return 100 }

func (t *TraceMiddleware) RoundTrip(ctx context.Context, req *Request, next RoundTripFunc) (*Response, error) {
	if next == nil {
		return nil, ErrMissingNext
	}
	if t.manager == nil {
		return next(ctx, req)
	}

	attrs := t.manager.SanitizeAttributes(
		attribute.String("api.endpoint", req.Path),
		attribute.String("api.method", req.Method),
	)
	ctx, span := t.manager.StartSpan(ctx, "api.request", trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	resp, err := next(ctx, req)
	elapsed := time.Since(start)

	data := telemetry.RequestData{
		Endpoint: req.Path,
		Method:   req.Method,
		Duration: elapsed,
		Error:    err,
	}
	if resp != nil {
		data.StatusCode = resp.StatusCode
		span.SetAttributes(attribute.Int("api.status_code", resp.StatusCode))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, t.manager.MaskText(err.Error()))
	}
	t.manager.RecordRequest(ctx, data)
	return resp, err
}

var _ Middleware = (*TraceMiddleware)(nil)
