package errs

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Well-known error types returned by the backend.
const (
	TypeConstraintViolation = "/constraint-violation"
	TypeTFAInvalidToken     = "TFA_INVALID_TOKEN"
	TypeTFATokenNotFound    = "TFA_TOKEN_NOT_FOUND"

	detailAccessDenied = "Access Denied"
)

// ErrTransport wraps failures where no response was received at all.
var ErrTransport = errors.New("errs: transport failure")

// FieldError describes a single field-level validation failure.
type FieldError struct {
	ObjectName string `json:"objectName,omitempty"`
	Field      string `json:"field,omitempty"`
	Message    string `json:"message,omitempty"`
}

// APIError mirrors the structured error body the backend returns on
// non-2xx responses.
type APIError struct {
	Type        string       `json:"type,omitempty"`
	Message     string       `json:"message,omitempty"`
	Detail      string       `json:"detail,omitempty"`
	FieldErrors []FieldError `json:"fieldErrors,omitempty"`

	// HTTPStatus is the status code of the response carrying the body.
	HTTPStatus int `json:"-"`
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Message
	}
	if msg == "" && len(e.FieldErrors) > 0 {
		msg = e.FieldErrors[0].Message
	}
	if msg == "" {
		msg = "unexpected error"
	}
	if e.Type != "" {
		return fmt.Sprintf("errs: %s: %s", e.Type, msg)
	}
	return fmt.Sprintf("errs: %s", msg)
}

// Parse decodes a response body into an APIError. A body that is not a
// structured error still yields a usable APIError with the raw status.
func Parse(status int, body []byte) *APIError {
	apiErr := &APIError{HTTPStatus: status}
	if len(body) > 0 {
		// Ignore decode failures: the zero APIError already carries the status.
		_ = json.Unmarshal(body, apiErr)
	}
	return apiErr
}

// Kind buckets errors for presentation and routing decisions.
type Kind int

const (
	// KindTransport means the request never completed.
	KindTransport Kind = iota
	// KindAPI is a structured backend error with no special handling.
	KindAPI
	// KindConstraint is a validation failure; render the first field error.
	KindConstraint
	// KindTwoFactor is an invalid or missing second-factor token.
	KindTwoFactor
	// KindAccessDenied is an authorization failure.
	KindAccessDenied
)

// Classify maps an error onto the taxonomy. Unknown errors are treated
// as transport failures.
func Classify(err error) Kind {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return KindTransport
	}
	switch {
	case apiErr.Type == TypeTFAInvalidToken, apiErr.Type == TypeTFATokenNotFound:
		return KindTwoFactor
	case apiErr.Detail == detailAccessDenied:
		return KindAccessDenied
	case apiErr.Type == TypeConstraintViolation:
		return KindConstraint
	default:
		return KindAPI
	}
}

// Title returns the notification headline for the error.
func (e *APIError) Title() string {
	if e.Type != "" {
		return e.Type
	}
	return "Something went wrong!"
}

// Description returns the notification body. Constraint violations use
// the first field error; everything else falls back detail -> message.
func (e *APIError) Description() string {
	if e.Type == TypeConstraintViolation && len(e.FieldErrors) > 0 {
		return e.FieldErrors[0].Message
	}
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}
