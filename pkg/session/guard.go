package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Decision is the guard's terminal state for one navigation attempt.
type Decision int

const (
	// Allow lets the navigation proceed.
	Allow Decision = iota
	// RedirectLogin sends the user back to the login route.
	RedirectLogin
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "redirect-login"
}

// ErrRefreshFailed wraps the cause when the refresh handshake does not
// yield a usable token bundle.
var ErrRefreshFailed = errors.New("session: token refresh failed")

// Refresher performs the refresh handshake. The old access token must not
// be sent; it is already known-expired.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (AuthPayload, error)
}

// Default public routes that bypass the guard entirely.
var defaultPublicRoutes = []string{
	"/login",
	"/invalid-2fa",
	"/forgotPassword",
	"/activateNewUser",
	"/merchantLogin",
}

// Guard gates navigation on session health. It is evaluated once per
// navigation attempt and resolves to Allow or RedirectLogin; expired
// sessions with a live refresh token go through the refresh handshake
// first. Concurrent navigations share one in-flight refresh.
type Guard struct {
	store     *Store
	refresher Refresher
	public    map[string]struct{}
	group     singleflight.Group
	now       func() time.Time
	log       logrus.FieldLogger
}

// GuardOption customizes guard construction.
type GuardOption func(*Guard)

// WithPublicRoutes replaces the default public allow-list.
func WithPublicRoutes(routes []string) GuardOption {
	return func(g *Guard) {
		g.public = make(map[string]struct{}, len(routes))
		for _, r := range routes {
			g.public[r] = struct{}{}
		}
	}
}

// WithGuardClock overrides the time source, used by tests.
func WithGuardClock(now func() time.Time) GuardOption {
	return func(g *Guard) { g.now = now }
}

// WithGuardLogger enables guard decision logging.
func WithGuardLogger(log logrus.FieldLogger) GuardOption {
	return func(g *Guard) { g.log = log }
}

// NewGuard builds a guard over the given store and refresher.
func NewGuard(store *Store, refresher Refresher, opts ...GuardOption) *Guard {
	g := &Guard{
		store:     store,
		refresher: refresher,
		now:       time.Now,
	}
	g.public = make(map[string]struct{}, len(defaultPublicRoutes))
	for _, r := range defaultPublicRoutes {
		g.public[r] = struct{}{}
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check evaluates the state machine for one navigation attempt toward
// route. A RedirectLogin decision always leaves the store fully reset.
func (g *Guard) Check(ctx context.Context, route string) (Decision, error) {
	if _, ok := g.public[route]; ok {
		return Allow, nil
	}

	if !g.store.Authenticated() || g.store.AccessToken() == "" {
		g.store.Reset()
		return RedirectLogin, nil
	}

	now := g.now()
	if !IsExpiredAt(g.store.AccessTokenExpiry(), now) {
		return Allow, nil
	}

	refreshToken := g.store.RefreshToken()
	if refreshToken == "" || IsExpiredAt(g.store.RefreshTokenExpiry(), now) {
		g.store.Reset()
		return RedirectLogin, nil
	}

	if err := g.refresh(ctx, refreshToken); err != nil {
		if g.log != nil {
			g.log.WithError(err).Warn("token refresh failed")
		}
		g.store.Reset()
		return RedirectLogin, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	return Allow, nil
}

// refresh runs the handshake single-flight: concurrent navigations that
// hit an expired token share one refresh call and its outcome.
func (g *Guard) refresh(ctx context.Context, refreshToken string) error {
	_, err, _ := g.group.Do(refreshToken, func() (any, error) {
		if g.refresher == nil {
			return nil, errors.New("session: no refresher configured")
		}
		payload, err := g.refresher.Refresh(ctx, refreshToken)
		if err != nil {
			return nil, err
		}
		if payload.AccessToken == "" {
			return nil, errors.New("session: refresh returned no access token")
		}
		// SetAuth converts the raw expiries exactly once, at receipt.
		g.store.SetAuth(payload)
		return nil, nil
	})
	return err
}
