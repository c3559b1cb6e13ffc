package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cexll/merchantops-go/pkg/errs"
	"github.com/cexll/merchantops-go/pkg/telemetry"
)

// Standard headers attached to every outbound call.
const (
	HeaderAppID             = "X-App-ID"
	HeaderAppVersion        = "X-App-Version"
	HeaderTwoFactorToken    = "X-2FA-Token"
	HeaderCurrentOperatorID = "X-Current-Operator-Id"
	HeaderRequestID         = "X-Request-ID"
	HeaderTotalCount        = "x-total-count"
)

const defaultTimeout = 30 * time.Second

// ErrMissingBaseURL indicates the client was constructed without a target.
var ErrMissingBaseURL = errors.New("apiclient: base url required")

// HeaderSource supplies the per-call credential headers. The session store
// implements this; a nil source means anonymous calls only.
type HeaderSource interface {
	AccessToken() string
	TwoFactorToken() string
	CurrentOperatorID() string
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	AppID      string
	AppVersion string

	// Headers supplies tokens and operator identity. Optional.
	Headers HeaderSource
	// HTTPClient overrides the underlying transport. Optional.
	HTTPClient *http.Client
	// Logger enables per-call debug logging. Optional.
	Logger logrus.FieldLogger
	// Telemetry enables spans and request metrics. Optional.
	Telemetry *telemetry.Manager
	// Timeout bounds each call when HTTPClient is not supplied.
	Timeout time.Duration
	// DisableBreaker turns off the default circuit breaker.
	DisableBreaker bool
	// MaxRetries caps retry attempts for GET calls. Zero keeps the default.
	MaxRetries uint
}

// Client issues API calls with the standard header set and normalizes
// every response into a Result. It never panics across this boundary and
// never mutates session state; callers do that.
type Client struct {
	baseURL    string
	appID      string
	appVersion string
	headers    HeaderSource
	httpClient *http.Client
	stack      *Stack
}

// New builds a Client with the default middleware chain.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, ErrMissingBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	c := &Client{
		baseURL:    base,
		appID:      opts.AppID,
		appVersion: opts.AppVersion,
		headers:    opts.Headers,
		httpClient: httpClient,
		stack:      NewStack(),
	}
	if opts.Telemetry != nil {
		c.stack.Use(NewTraceMiddleware(opts.Telemetry))
	}
	if opts.Logger != nil {
		c.stack.Use(NewLogMiddleware(opts.Logger))
	}
	if !opts.DisableBreaker {
		c.stack.Use(NewBreakerMiddleware("apiclient"))
	}
	c.stack.Use(NewRetryMiddleware(opts.MaxRetries))
	return c, nil
}

// Use registers an additional middleware on the call chain.
func (c *Client) Use(mw Middleware) { c.stack.Use(mw) }

// BaseURL returns the configured target.
func (c *Client) BaseURL() string { return c.baseURL }

// Status tags which half of a Result is meaningful.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the uniform envelope every call produces. Exactly one of Data
// (on success) or Err (on failure) is meaningful and Status agrees with
// which one is populated. Header carries the raw response headers; the
// total row count for lists travels out-of-band there.
type Result[T any] struct {
	Data   *T
	Header http.Header
	Status Status
	Err    error
}

// Ok reports whether the call succeeded.
func (r Result[T]) Ok() bool { return r.Status == StatusSuccess }

// CallOptions shapes a single request.
type CallOptions struct {
	// Method defaults to GET.
	Method string
	// Body is JSON-encoded when non-nil.
	Body any
	// Params is appended to the URL; absent parameters are simply omitted.
	Params url.Values
	// NoAuth skips the Authorization header even when a token is present.
	NoAuth bool
}

// Call issues a request and decodes the body into T. Transport failures
// and non-2xx statuses are captured in the Result, never thrown past it.
func Call[T any](ctx context.Context, c *Client, path string, opts CallOptions) Result[T] {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body []byte
	if opts.Body != nil {
		encoded, err := json.Marshal(opts.Body)
		if err != nil {
			return Result[T]{Status: StatusError, Err: fmt.Errorf("apiclient: encode body: %w", err)}
		}
		body = encoded
	}

	target := c.baseURL + path
	if len(opts.Params) > 0 {
		target += "?" + opts.Params.Encode()
	}

	req := &Request{
		Method: method,
		Path:   path,
		URL:    target,
		Header: c.buildHeaders(opts.NoAuth, body != nil),
		Body:   body,
	}

	resp, err := c.stack.Execute(ctx, req, c.transport)
	if err != nil {
		return Result[T]{Status: StatusError, Err: fmt.Errorf("%w: %v", errs.ErrTransport, err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result[T]{
			Header: resp.Header,
			Status: StatusError,
			Err:    errs.Parse(resp.StatusCode, resp.Body),
		}
	}

	result := Result[T]{Header: resp.Header, Status: StatusSuccess}
	if len(resp.Body) > 0 {
		var data T
		if err := json.Unmarshal(resp.Body, &data); err != nil {
			return Result[T]{
				Header: resp.Header,
				Status: StatusError,
				Err:    fmt.Errorf("apiclient: decode response: %w", err),
			}
		}
		result.Data = &data
	}
	return result
}

func (c *Client) buildHeaders(noAuth, hasBody bool) http.Header {
	h := http.Header{}
	h.Set(HeaderAppID, c.appID)
	h.Set(HeaderAppVersion, c.appVersion)

	twoFactor, operatorID, token := "", "", ""
	if c.headers != nil {
		twoFactor = c.headers.TwoFactorToken()
		operatorID = c.headers.CurrentOperatorID()
		token = c.headers.AccessToken()
	}
	h.Set(HeaderTwoFactorToken, twoFactor)
	h.Set(HeaderCurrentOperatorID, operatorID)
	h.Set(HeaderRequestID, uuid.NewString())
	if !noAuth && token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	if hasBody {
		h.Set("Content-Type", "application/json")
	}
	h.Set("Accept", "application/json")
	return h
}

func (c *Client) transport(ctx context.Context, req *Request) (*Response, error) {
	var reader io.Reader
	if len(req.Body) > 0 {
		reader = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, reader)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(httpResp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("apiclient: read response: %w", err)
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       payload,
	}, nil
}
