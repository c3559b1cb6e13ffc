package session

import (
	"encoding/json"
	"sync"
	"time"
)

// Profile is the operator summary attached to the session after sign-in.
type Profile struct {
	MerchantOperatorID string          `json:"merchantOperatorId"`
	OperatorCode       string          `json:"operatorCode"`
	OperatorRole       string          `json:"operatorRole"`
	FirstName          string          `json:"firstName"`
	MiddleName         string          `json:"middleName"`
	FullName           string          `json:"fullName"`
	Active             bool            `json:"active"`
	StaticQRData       string          `json:"staticQrData"`
	Merchant           json.RawMessage `json:"merchant,omitempty"`
	MerchantBranch     json.RawMessage `json:"merchantBranch,omitempty"`
}

// OTPContext tracks an in-flight one-time-passcode challenge.
type OTPContext struct {
	VerificationID string    `json:"verificationId"`
	Expiry         time.Time `json:"expiry"`
	Phone          string    `json:"phone"`
}

// State is the full authenticated context for one client instance.
// Expiry fields always hold absolute instants; raw wire values are
// converted exactly once via ExpiryFromRaw before they land here.
type State struct {
	Authenticated      bool            `json:"authenticated"`
	AccessToken        string          `json:"accessToken"`
	AccessTokenExpiry  time.Time       `json:"accessTokenExpiry"`
	RefreshToken       string          `json:"refreshToken"`
	RefreshTokenExpiry time.Time       `json:"refreshTokenExpiry"`
	TwoFactorToken     string          `json:"twoFactorToken"`
	Permissions        []string        `json:"permissions"`
	Role               json.RawMessage `json:"role,omitempty"`
	Profile            *Profile        `json:"profile,omitempty"`
	OTP                OTPContext      `json:"otp"`
}

// AuthPayload carries the token bundle as received from the backend.
// ExpiresIn fields are raw wire values (duration seconds or epoch).
type AuthPayload struct {
	AccessToken           string `json:"accessToken"`
	RefreshToken          string `json:"refreshToken"`
	AccessTokenExpiresIn  int64  `json:"accessTokenExpiresIn"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn"`
}

// Store holds session state for a single client instance. Every mutation
// goes through a narrow setter under the lock, so readers only ever
// observe whole, self-consistent updates. Instances never share state;
// cross-instance awareness is the broadcast package's job.
type Store struct {
	mu        sync.RWMutex
	state     State
	persister Persister
	now       func() time.Time
}

// StoreOption customizes store construction.
type StoreOption func(*Store)

// WithPersister keeps a snapshot of the state on disk so it survives a
// restart of the same instance.
func WithPersister(p Persister) StoreOption {
	return func(s *Store) { s.persister = p }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store, rehydrating from the persister when one is
// configured and a snapshot exists.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.persister != nil {
		if state, ok, err := s.persister.Load(); err == nil && ok {
			s.state = state
		}
	}
	return s
}

// SetAuth replaces the token bundle. Every call fully determines the auth
// fields: anything missing from the payload resets to its zero value.
// Authenticated is derived from token presence, which keeps the
// "authenticated implies non-empty token" invariant by construction.
func (s *Store) SetAuth(p AuthPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.state.AccessToken = p.AccessToken
	s.state.RefreshToken = p.RefreshToken
	s.state.AccessTokenExpiry = ExpiryFromRaw(p.AccessTokenExpiresIn, now)
	s.state.RefreshTokenExpiry = ExpiryFromRaw(p.RefreshTokenExpiresIn, now)
	s.state.Authenticated = p.AccessToken != ""
	s.persistLocked()
}

// SetProfile records the operator summary.
func (s *Store) SetProfile(p *Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p == nil {
		s.state.Profile = nil
	} else {
		clone := *p
		s.state.Profile = &clone
	}
	s.persistLocked()
}

// SetPermissions replaces the permission set.
func (s *Store) SetPermissions(perms []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Permissions = append([]string(nil), perms...)
	s.persistLocked()
}

// SetRole records the opaque role payload.
func (s *Store) SetRole(role json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Role = append(json.RawMessage(nil), role...)
	s.persistLocked()
}

// SetTwoFactorToken stores the second-factor credential.
func (s *Store) SetTwoFactorToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.TwoFactorToken = token
	s.persistLocked()
}

// SetOTPContext tracks the current passcode challenge.
func (s *Store) SetOTPContext(otp OTPContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.OTP = otp
	s.persistLocked()
}

// Reset restores the zero state. The swap happens under the lock, so a
// concurrent reader sees either the old state or the fully cleared one,
// never a partial reset.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
	if s.persister != nil {
		_ = s.persister.Clear()
	}
}

// HasPermission tests membership in the permission set. An empty name
// means the caller has no permission requirement, so access is granted
// without consulting the set.
func (s *Store) HasPermission(name string) bool {
	if name == "" {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.state.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the full state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneState(s.state)
}

// Authenticated reports whether the session holds a live identity.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Authenticated
}

// AccessToken returns the current bearer credential.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken
}

// AccessTokenExpiry returns the absolute expiry instant.
func (s *Store) AccessTokenExpiry() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessTokenExpiry
}

// RefreshToken returns the current refresh credential.
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.RefreshToken
}

// RefreshTokenExpiry returns the absolute expiry instant.
func (s *Store) RefreshTokenExpiry() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.RefreshTokenExpiry
}

// TwoFactorToken returns the second-factor credential, empty if absent.
func (s *Store) TwoFactorToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.TwoFactorToken
}

// CurrentOperatorID returns the signed-in operator id, empty if absent.
func (s *Store) CurrentOperatorID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Profile == nil {
		return ""
	}
	return s.state.Profile.MerchantOperatorID
}

// Profile returns a copy of the operator summary, nil when not loaded.
func (s *Store) Profile() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Profile == nil {
		return nil
	}
	clone := *s.state.Profile
	return &clone
}

// OTP returns the in-flight passcode challenge.
func (s *Store) OTP() OTPContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.OTP
}

func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	// Best effort: a failed snapshot must not break the mutation.
	_ = s.persister.Save(cloneState(s.state))
}

func cloneState(in State) State {
	out := in
	out.Permissions = append([]string(nil), in.Permissions...)
	out.Role = append(json.RawMessage(nil), in.Role...)
	if in.Profile != nil {
		clone := *in.Profile
		out.Profile = &clone
	}
	return out
}
