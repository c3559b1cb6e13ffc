package session

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestStore(t *testing.T, opts ...StoreOption) *Store {
	t.Helper()
	opts = append([]StoreOption{WithClock(func() time.Time { return testNow })}, opts...)
	return NewStore(opts...)
}

func TestStoreZeroState(t *testing.T) {
	s := newTestStore(t)
	if s.Authenticated() {
		t.Fatal("new store should not be authenticated")
	}
	if s.AccessToken() != "" || s.RefreshToken() != "" || s.TwoFactorToken() != "" {
		t.Fatal("new store should hold no tokens")
	}
	if s.Profile() != nil {
		t.Fatal("new store should hold no profile")
	}
	if s.CurrentOperatorID() != "" {
		t.Fatal("new store should report no operator id")
	}
}

func TestStoreSetAuthDerivesAuthenticated(t *testing.T) {
	s := newTestStore(t)

	s.SetAuth(AuthPayload{
		AccessToken:           "acc",
		RefreshToken:          "ref",
		AccessTokenExpiresIn:  3600,
		RefreshTokenExpiresIn: 86400,
	})
	if !s.Authenticated() {
		t.Fatal("store should be authenticated after SetAuth with token")
	}
	if got, want := s.AccessTokenExpiry(), testNow.Add(time.Hour); !got.Equal(want) {
		t.Fatalf("access expiry = %v, want %v", got, want)
	}
	if got, want := s.RefreshTokenExpiry(), testNow.Add(24*time.Hour); !got.Equal(want) {
		t.Fatalf("refresh expiry = %v, want %v", got, want)
	}

	// An empty payload fully determines the auth fields.
	s.SetAuth(AuthPayload{})
	if s.Authenticated() {
		t.Fatal("empty access token must clear authenticated")
	}
	if !s.AccessTokenExpiry().IsZero() {
		t.Fatal("empty payload must clear the expiry")
	}
}

func TestStoreSetAuthEpochExpiry(t *testing.T) {
	s := newTestStore(t)
	exp := testNow.Add(30 * time.Minute)
	s.SetAuth(AuthPayload{AccessToken: "acc", AccessTokenExpiresIn: exp.UnixMilli()})
	if got := s.AccessTokenExpiry(); !got.Equal(exp) {
		t.Fatalf("access expiry = %v, want %v", got, exp)
	}
}

func TestStoreReset(t *testing.T) {
	s := newTestStore(t)
	s.SetAuth(AuthPayload{AccessToken: "acc", RefreshToken: "ref", AccessTokenExpiresIn: 60})
	s.SetProfile(&Profile{MerchantOperatorID: "op-1"})
	s.SetPermissions([]string{"READ_TRANSACTIONS"})
	s.SetTwoFactorToken("tfa")
	s.SetOTPContext(OTPContext{VerificationID: "v1"})

	s.Reset()

	snap := s.Snapshot()
	if snap.Authenticated || snap.AccessToken != "" || snap.RefreshToken != "" {
		t.Fatalf("reset left auth state behind: %+v", snap)
	}
	if snap.Profile != nil || len(snap.Permissions) != 0 || snap.TwoFactorToken != "" {
		t.Fatalf("reset left identity state behind: %+v", snap)
	}
	if snap.OTP.VerificationID != "" {
		t.Fatal("reset left OTP context behind")
	}
}

func TestStoreHasPermission(t *testing.T) {
	s := newTestStore(t)
	s.SetPermissions([]string{"READ_TRANSACTIONS", "MANAGE_OPERATORS"})

	if !s.HasPermission("") {
		t.Fatal("empty requirement should always pass")
	}
	if !s.HasPermission("MANAGE_OPERATORS") {
		t.Fatal("expected membership hit")
	}
	if s.HasPermission("DELETE_MERCHANT") {
		t.Fatal("expected membership miss")
	}
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	s := newTestStore(t)
	s.SetPermissions([]string{"A"})
	s.SetProfile(&Profile{MerchantOperatorID: "op-1"})

	snap := s.Snapshot()
	snap.Permissions[0] = "mutated"
	snap.Profile.MerchantOperatorID = "mutated"

	if !s.HasPermission("A") {
		t.Fatal("mutating the snapshot changed the store's permissions")
	}
	if s.CurrentOperatorID() != "op-1" {
		t.Fatal("mutating the snapshot changed the store's profile")
	}
}

func TestStorePersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p, err := NewFilePersister(dir, "session")
	if err != nil {
		t.Fatalf("NewFilePersister: %v", err)
	}

	s := newTestStore(t, WithPersister(p))
	s.SetAuth(AuthPayload{AccessToken: "acc", RefreshToken: "ref", AccessTokenExpiresIn: 3600})
	s.SetRole(json.RawMessage(`{"name":"ADMIN"}`))

	reloaded := newTestStore(t, WithPersister(p))
	if !reloaded.Authenticated() {
		t.Fatal("rehydrated store should be authenticated")
	}
	if reloaded.AccessToken() != "acc" || reloaded.RefreshToken() != "ref" {
		t.Fatal("rehydrated store lost tokens")
	}
	if got, want := reloaded.AccessTokenExpiry(), testNow.Add(time.Hour); !got.Equal(want) {
		t.Fatalf("rehydrated expiry = %v, want %v", got, want)
	}

	s.Reset()
	cleared := newTestStore(t, WithPersister(p))
	if cleared.Authenticated() {
		t.Fatal("reset should clear the persisted snapshot")
	}
}
