package apiclient

import (
	"context"
	"errors"
	"net/http"
)

// ErrMissingNext indicates a chain was executed without a final handler.
var ErrMissingNext = errors.New("apiclient: missing final handler")

// Request is the outbound call as seen by middleware. Path keeps the
// relative endpoint for spans and logs; URL is the fully composed target.
type Request struct {
	Method string
	Path   string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the raw result of a round trip before envelope decoding.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// RoundTripFunc advances the chain toward the transport.
type RoundTripFunc func(ctx context.Context, req *Request) (*Response, error)

// Middleware wraps outbound API calls. Higher priority runs closer to the
// outside of the chain.
type Middleware interface {
	Name() string
	Priority() int
	RoundTrip(ctx context.Context, req *Request, next RoundTripFunc) (*Response, error)
}
