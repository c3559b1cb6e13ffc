package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cexll/merchantops-go/pkg/apiclient"
	"github.com/cexll/merchantops-go/pkg/auth"
	"github.com/cexll/merchantops-go/pkg/broadcast"
	"github.com/cexll/merchantops-go/pkg/session"
)

// Exercises the full loop: sign in against a fake backend, expire the
// access token, and let the guard drive the refresh handshake through
// the auth service.
func TestGuardRefreshAgainstBackend(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	var refreshCalls int64
	mux := http.NewServeMux()
	mux.HandleFunc("POST /operators/sign-in", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"tokenDTO": map[string]any{
				"accessToken":           "acc-1",
				"refreshToken":          "ref-1",
				"accessTokenExpiresIn":  60,
				"refreshTokenExpiresIn": 86400,
			},
			"operatorDTO": map[string]any{"merchantOperatorId": "op-1"},
		})
	})
	mux.HandleFunc("GET /operators/permissions/mine", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]string{"READ_TRANSACTIONS"})
	})
	mux.HandleFunc("GET /operators/role/mine", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"name": "CASHIER"})
	})
	mux.HandleFunc("POST /auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refreshCalls, 1)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["refreshToken"] != "ref-1" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"unknown refresh token"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"accessToken":           "acc-2",
			"refreshToken":          "ref-2",
			"accessTokenExpiresIn":  3600,
			"refreshTokenExpiresIn": 86400,
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := session.NewStore(session.WithClock(clock))
	client, err := apiclient.New(apiclient.Options{
		BaseURL:        srv.URL,
		AppID:          "test",
		Headers:        store,
		DisableBreaker: true,
		MaxRetries:     1,
	})
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}

	bus := broadcast.NewMemory()
	defer bus.Close()
	authSvc := auth.NewService(client, store,
		auth.WithClock(clock),
		auth.WithBroadcaster(bus, broadcast.NewInstanceID()),
	)
	guard := session.NewGuard(store, authSvc, session.WithGuardClock(func() time.Time { return now }))

	ctx := context.Background()
	if _, err := authSvc.SignIn(ctx, auth.SignInInput{
		MerchantShortCode: "M1", OperatorCode: "OP1", Password: "pw",
	}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	// Live token: no refresh.
	if d, err := guard.Check(ctx, "/transactions"); err != nil || d != session.Allow {
		t.Fatalf("Check = %v, %v", d, err)
	}
	if atomic.LoadInt64(&refreshCalls) != 0 {
		t.Fatal("refresh ran with a live token")
	}

	// Move past the 60s access expiry; the refresh token is still live.
	now = now.Add(5 * time.Minute)

	if d, err := guard.Check(ctx, "/transactions"); err != nil || d != session.Allow {
		t.Fatalf("Check after expiry = %v, %v", d, err)
	}
	if atomic.LoadInt64(&refreshCalls) != 1 {
		t.Fatalf("refresh calls = %d, want 1", atomic.LoadInt64(&refreshCalls))
	}
	if store.AccessToken() != "acc-2" || store.RefreshToken() != "ref-2" {
		t.Fatalf("tokens = %q/%q", store.AccessToken(), store.RefreshToken())
	}
	if got, want := store.AccessTokenExpiry(), now.Add(time.Hour); !got.Equal(want) {
		t.Fatalf("new expiry = %v, want %v", got, want)
	}

	// The refreshed session passes the guard without another handshake.
	if d, err := guard.Check(ctx, "/transactions"); err != nil || d != session.Allow {
		t.Fatalf("Check after refresh = %v, %v", d, err)
	}
	if atomic.LoadInt64(&refreshCalls) != 1 {
		t.Fatal("extra refresh after a successful one")
	}
}

func TestLogoutBroadcastConvergesSiblings(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	bus := broadcast.NewMemory()
	defer bus.Close()

	// Two sibling instances share the bus but never the store.
	storeA := session.NewStore(session.WithClock(clock))
	storeB := session.NewStore(session.WithClock(clock))
	storeA.SetAuth(session.AuthPayload{AccessToken: "a", AccessTokenExpiresIn: 3600})
	storeB.SetAuth(session.AuthPayload{AccessToken: "b", AccessTokenExpiresIn: 3600})

	instanceA := broadcast.NewInstanceID()
	instanceB := broadcast.NewInstanceID()
	bus.Subscribe(func(e broadcast.Event) {
		if e.Kind == broadcast.KindLogout && e.InstanceID != instanceB {
			storeB.Reset()
		}
	})

	client, err := apiclient.New(apiclient.Options{BaseURL: "http://127.0.0.1:1", AppID: "x", DisableBreaker: true})
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	authA := auth.NewService(client, storeA, auth.WithClock(clock), auth.WithBroadcaster(bus, instanceA))

	authA.Logout(context.Background())

	if storeA.Authenticated() {
		t.Fatal("instance A still authenticated after logout")
	}
	if storeB.Authenticated() {
		t.Fatal("sibling instance did not converge to logged out")
	}
}
