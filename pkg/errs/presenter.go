package errs

import "errors"

// Redirect names the page a handled error should navigate to.
type Redirect int

const (
	RedirectNone Redirect = iota
	RedirectLogin
	RedirectUnauthorized
	RedirectInvalidTwoFactor
)

// Notification is a transient user-visible message.
type Notification struct {
	Title       string
	Description string
}

// Presenter receives the presentation side effects of handled errors.
// Data-fetching code never renders anything itself; it returns errors and
// a single presenter decides what the user sees.
type Presenter interface {
	Notify(Notification)
	RedirectTo(Redirect)
}

// Present maps a failed operation onto its notification and redirect.
// Nil errors are a no-op so call sites can pass results through unconditionally.
func Present(err error, p Presenter) {
	if err == nil || p == nil {
		return
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		msg := err.Error()
		p.Notify(Notification{Title: "Error", Description: msg})
		return
	}
	p.Notify(Notification{Title: apiErr.Title(), Description: apiErr.Description()})
	switch Classify(err) {
	case KindTwoFactor:
		p.RedirectTo(RedirectInvalidTwoFactor)
	case KindAccessDenied:
		p.RedirectTo(RedirectUnauthorized)
	}
}
