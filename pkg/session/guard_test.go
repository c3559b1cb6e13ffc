package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeRefresher struct {
	mu      sync.Mutex
	calls   int32
	payload AuthPayload
	err     error
	block   chan struct{}
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (AuthPayload, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payload, f.err
}

func authedStore(t *testing.T, accessExpiry, refreshExpiry time.Time) *Store {
	t.Helper()
	s := newTestStore(t)
	s.SetAuth(AuthPayload{
		AccessToken:           "acc",
		RefreshToken:          "ref",
		AccessTokenExpiresIn:  accessExpiry.UnixMilli(),
		RefreshTokenExpiresIn: refreshExpiry.UnixMilli(),
	})
	return s
}

func TestGuardPublicRouteSkipsAllChecks(t *testing.T) {
	s := newTestStore(t)
	g := NewGuard(s, nil, WithGuardClock(func() time.Time { return testNow }))

	d, err := g.Check(context.Background(), "/login")
	if err != nil || d != Allow {
		t.Fatalf("Check(/login) = %v, %v; want allow, nil", d, err)
	}
}

func TestGuardUnauthenticatedRedirects(t *testing.T) {
	s := newTestStore(t)
	g := NewGuard(s, nil, WithGuardClock(func() time.Time { return testNow }))

	d, err := g.Check(context.Background(), "/transactions")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if d != RedirectLogin {
		t.Fatalf("Check = %v, want redirect-login", d)
	}
}

func TestGuardLiveTokenAllows(t *testing.T) {
	s := authedStore(t, testNow.Add(time.Hour), testNow.Add(24*time.Hour))
	r := &fakeRefresher{}
	g := NewGuard(s, r, WithGuardClock(func() time.Time { return testNow }))

	d, err := g.Check(context.Background(), "/transactions")
	if err != nil || d != Allow {
		t.Fatalf("Check = %v, %v; want allow, nil", d, err)
	}
	if atomic.LoadInt32(&r.calls) != 0 {
		t.Fatal("live token must not trigger a refresh")
	}
}

func TestGuardExpiredAccessRefreshes(t *testing.T) {
	s := authedStore(t, testNow.Add(-time.Minute), testNow.Add(24*time.Hour))
	r := &fakeRefresher{payload: AuthPayload{
		AccessToken:           "acc2",
		RefreshToken:          "ref2",
		AccessTokenExpiresIn:  3600,
		RefreshTokenExpiresIn: 86400,
	}}
	g := NewGuard(s, r, WithGuardClock(func() time.Time { return testNow }))

	d, err := g.Check(context.Background(), "/transactions")
	if err != nil || d != Allow {
		t.Fatalf("Check = %v, %v; want allow, nil", d, err)
	}
	if s.AccessToken() != "acc2" {
		t.Fatalf("refresh did not install the new token, got %q", s.AccessToken())
	}
	// A raw duration of 3600 becomes an absolute instant at receipt.
	if got, want := s.AccessTokenExpiry(), testNow.Add(time.Hour); !got.Equal(want) {
		t.Fatalf("refreshed expiry = %v, want %v", got, want)
	}
}

func TestGuardExpiredRefreshTokenRedirects(t *testing.T) {
	s := authedStore(t, testNow.Add(-time.Minute), testNow.Add(-time.Minute))
	r := &fakeRefresher{}
	g := NewGuard(s, r, WithGuardClock(func() time.Time { return testNow }))

	d, err := g.Check(context.Background(), "/transactions")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if d != RedirectLogin {
		t.Fatalf("Check = %v, want redirect-login", d)
	}
	if atomic.LoadInt32(&r.calls) != 0 {
		t.Fatal("expired refresh token must not attempt the handshake")
	}
	if s.Authenticated() {
		t.Fatal("redirect decision must fully reset the store")
	}
}

func TestGuardRefreshFailureResetsAndRedirects(t *testing.T) {
	s := authedStore(t, testNow.Add(-time.Minute), testNow.Add(24*time.Hour))
	r := &fakeRefresher{err: errors.New("boom")}
	g := NewGuard(s, r, WithGuardClock(func() time.Time { return testNow }))

	d, err := g.Check(context.Background(), "/transactions")
	if d != RedirectLogin {
		t.Fatalf("Check = %v, want redirect-login", d)
	}
	if !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("err = %v, want ErrRefreshFailed", err)
	}
	if s.Authenticated() || s.AccessToken() != "" {
		t.Fatal("failed refresh must fully reset the store")
	}
}

func TestGuardRefreshWithoutAccessTokenFails(t *testing.T) {
	s := authedStore(t, testNow.Add(-time.Minute), testNow.Add(24*time.Hour))
	r := &fakeRefresher{payload: AuthPayload{RefreshToken: "ref2"}}
	g := NewGuard(s, r, WithGuardClock(func() time.Time { return testNow }))

	d, err := g.Check(context.Background(), "/transactions")
	if d != RedirectLogin || !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("Check = %v, %v; want redirect-login, ErrRefreshFailed", d, err)
	}
}

func TestGuardConcurrentChecksShareOneRefresh(t *testing.T) {
	s := authedStore(t, testNow.Add(-time.Minute), testNow.Add(24*time.Hour))
	r := &fakeRefresher{
		payload: AuthPayload{AccessToken: "acc2", RefreshToken: "ref2", AccessTokenExpiresIn: 3600},
		block:   make(chan struct{}),
	}
	g := NewGuard(s, r, WithGuardClock(func() time.Time { return testNow }))

	const n = 8
	var wg sync.WaitGroup
	results := make([]Decision, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, _ := g.Check(context.Background(), "/transactions")
			results[i] = d
		}(i)
	}
	// Let the goroutines pile onto the in-flight refresh.
	time.Sleep(50 * time.Millisecond)
	close(r.block)
	wg.Wait()

	if got := atomic.LoadInt32(&r.calls); got != 1 {
		t.Fatalf("refresh ran %d times, want 1", got)
	}
	for i, d := range results {
		if d != Allow {
			t.Fatalf("check %d = %v, want allow", i, d)
		}
	}
}
