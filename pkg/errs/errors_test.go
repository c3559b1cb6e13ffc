package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseStructuredBody(t *testing.T) {
	body := []byte(`{
		"type": "/constraint-violation",
		"message": "Validation failed",
		"fieldErrors": [
			{"objectName": "operator", "field": "phone", "message": "Invalid phone number"}
		]
	}`)
	apiErr := Parse(400, body)
	if apiErr.HTTPStatus != 400 {
		t.Fatalf("HTTPStatus = %d, want 400", apiErr.HTTPStatus)
	}
	if apiErr.Type != TypeConstraintViolation {
		t.Fatalf("Type = %q", apiErr.Type)
	}
	if len(apiErr.FieldErrors) != 1 || apiErr.FieldErrors[0].Field != "phone" {
		t.Fatalf("FieldErrors = %+v", apiErr.FieldErrors)
	}
}

func TestParseGarbageBodyStillUsable(t *testing.T) {
	apiErr := Parse(502, []byte("<html>bad gateway</html>"))
	if apiErr.HTTPStatus != 502 {
		t.Fatalf("HTTPStatus = %d, want 502", apiErr.HTTPStatus)
	}
	if apiErr.Error() == "" {
		t.Fatal("Error() must never be empty")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"plain error", errors.New("dial tcp: refused"), KindTransport},
		{"wrapped transport", fmt.Errorf("%w: dial refused", ErrTransport), KindTransport},
		{"generic api error", &APIError{Detail: "Not found", HTTPStatus: 404}, KindAPI},
		{"constraint violation", &APIError{Type: TypeConstraintViolation}, KindConstraint},
		{"invalid 2fa token", &APIError{Type: TypeTFAInvalidToken}, KindTwoFactor},
		{"2fa token not found", &APIError{Type: TypeTFATokenNotFound}, KindTwoFactor},
		{"access denied", &APIError{Detail: "Access Denied", HTTPStatus: 403}, KindAccessDenied},
		{"wrapped api error", fmt.Errorf("list branches: %w", &APIError{Type: TypeConstraintViolation}), KindConstraint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Fatalf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDescriptionPrecedence(t *testing.T) {
	constraint := &APIError{
		Type:        TypeConstraintViolation,
		Message:     "Validation failed",
		FieldErrors: []FieldError{{Field: "phone", Message: "Invalid phone number"}},
	}
	if got := constraint.Description(); got != "Invalid phone number" {
		t.Fatalf("constraint description = %q", got)
	}

	detail := &APIError{Message: "msg", Detail: "detail"}
	if got := detail.Description(); got != "detail" {
		t.Fatalf("detail description = %q", got)
	}

	messageOnly := &APIError{Message: "msg"}
	if got := messageOnly.Description(); got != "msg" {
		t.Fatalf("message description = %q", got)
	}
}

type recordingPresenter struct {
	notes     []Notification
	redirects []Redirect
}

func (r *recordingPresenter) Notify(n Notification) { r.notes = append(r.notes, n) }
func (r *recordingPresenter) RedirectTo(d Redirect) { r.redirects = append(r.redirects, d) }

func TestPresentNilErrIsNoop(t *testing.T) {
	p := &recordingPresenter{}
	Present(nil, p)
	if len(p.notes) != 0 || len(p.redirects) != 0 {
		t.Fatal("nil error must not present anything")
	}
}

func TestPresentTwoFactorRedirects(t *testing.T) {
	p := &recordingPresenter{}
	Present(&APIError{Type: TypeTFAInvalidToken, Detail: "token expired"}, p)
	if len(p.notes) != 1 {
		t.Fatalf("notes = %+v", p.notes)
	}
	if len(p.redirects) != 1 || p.redirects[0] != RedirectInvalidTwoFactor {
		t.Fatalf("redirects = %+v", p.redirects)
	}
}

func TestPresentAccessDeniedRedirects(t *testing.T) {
	p := &recordingPresenter{}
	Present(&APIError{Detail: "Access Denied", HTTPStatus: 403}, p)
	if len(p.redirects) != 1 || p.redirects[0] != RedirectUnauthorized {
		t.Fatalf("redirects = %+v", p.redirects)
	}
}

func TestPresentGenericAPIErrorNotifiesOnly(t *testing.T) {
	p := &recordingPresenter{}
	Present(&APIError{Detail: "Not found", HTTPStatus: 404}, p)
	if len(p.notes) != 1 || p.notes[0].Description != "Not found" {
		t.Fatalf("notes = %+v", p.notes)
	}
	if len(p.redirects) != 0 {
		t.Fatalf("redirects = %+v", p.redirects)
	}
}
