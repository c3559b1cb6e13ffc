// Package auth implements the sign-in, two-factor, refresh and logout
// flows against the merchant operators API, mutating the session store on
// behalf of the rest of the SDK.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cexll/merchantops-go/pkg/apiclient"
	"github.com/cexll/merchantops-go/pkg/broadcast"
	"github.com/cexll/merchantops-go/pkg/session"
)

// API endpoints, relative to the client's base URL.
const (
	pathSignIn          = "/operators/sign-in"
	pathRefreshToken    = "/auth/refresh-token"
	pathTwoFactorToken  = "/auth/two-factor/request-token"
	pathTwoFactorCheck  = "/auth/two-factor/validate"
	pathPermissionsMine = "/operators/permissions/mine"
	pathRoleMine        = "/operators/role/mine"
	pathProfileMe       = "/operators/me"
)

// ErrEmptyResponse indicates the backend answered 2xx without a body
// where one is required.
var ErrEmptyResponse = errors.New("auth: empty response")

// SignInInput is the operator credential triple.
type SignInInput struct {
	MerchantShortCode string `json:"merchantShortCode"`
	OperatorCode      string `json:"operatorCode"`
	Password          string `json:"password"`
}

// SignInResult is the successful sign-in response.
type SignInResult struct {
	TokenDTO    session.AuthPayload `json:"tokenDTO"`
	OperatorDTO *session.Profile    `json:"operatorDTO"`
}

// OTPChallenge describes an issued one-time-passcode challenge.
type OTPChallenge struct {
	VerificationID string `json:"verificationId"`
	Phone          string `json:"phone,omitempty"`
	ExpiryTime     int64  `json:"expiryTime,omitempty"`
}

// TwoFactorToken is the credential minted after passcode validation.
type TwoFactorToken struct {
	Token     string `json:"token"`
	ValidFrom int64  `json:"validFrom"`
	ValidTo   int64  `json:"validTo"`
}

// Service drives the authentication lifecycle. All operations return a
// typed error on failure; presentation (notifications, redirects) happens
// elsewhere.
type Service struct {
	client      *apiclient.Client
	store       *session.Store
	broadcaster broadcast.Broadcaster
	instanceID  string
	now         func() time.Time
	log         logrus.FieldLogger
}

// ServiceOption customizes service construction.
type ServiceOption func(*Service)

// WithBroadcaster publishes logout events to sibling instances.
func WithBroadcaster(b broadcast.Broadcaster, instanceID string) ServiceOption {
	return func(s *Service) {
		s.broadcaster = b
		s.instanceID = instanceID
	}
}

// WithLogger enables auth flow logging.
func WithLogger(log logrus.FieldLogger) ServiceOption {
	return func(s *Service) { s.log = log }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService wires the auth flows to a client and store.
func NewService(client *apiclient.Client, store *session.Store, opts ...ServiceOption) *Service {
	s := &Service{client: client, store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignIn authenticates the operator and loads the session: token bundle,
// profile, then permissions and role. A failed permissions fetch does not
// roll back the sign-in; the follow-up error is returned for the caller
// to surface.
func (s *Service) SignIn(ctx context.Context, input SignInInput) (*SignInResult, error) {
	result := apiclient.Call[SignInResult](ctx, s.client, pathSignIn, apiclient.CallOptions{
		Method: http.MethodPost,
		Body:   input,
		NoAuth: true,
	})
	if !result.Ok() {
		return nil, result.Err
	}
	signIn := result.Data
	if signIn == nil {
		return nil, ErrEmptyResponse
	}

	s.store.SetAuth(signIn.TokenDTO)
	if signIn.OperatorDTO != nil {
		s.store.SetProfile(signIn.OperatorDTO)
	}
	if s.log != nil {
		s.log.WithField("operator", input.OperatorCode).Info("signed in")
	}

	if err := s.LoadAuthorities(ctx); err != nil {
		return signIn, err
	}
	return signIn, nil
}

// LoadAuthorities fetches the permission set and role for the signed-in
// operator.
func (s *Service) LoadAuthorities(ctx context.Context) error {
	perms := apiclient.Call[[]string](ctx, s.client, pathPermissionsMine, apiclient.CallOptions{})
	if !perms.Ok() {
		return perms.Err
	}
	if perms.Data != nil {
		s.store.SetPermissions(*perms.Data)
	}

	role := apiclient.Call[json.RawMessage](ctx, s.client, pathRoleMine, apiclient.CallOptions{})
	if !role.Ok() {
		return role.Err
	}
	if role.Data != nil {
		s.store.SetRole(*role.Data)
	}
	return nil
}

// Refresh performs the token refresh handshake. The expired access token
// is deliberately not sent. Implements session.Refresher.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (session.AuthPayload, error) {
	result := apiclient.Call[session.AuthPayload](ctx, s.client, pathRefreshToken, apiclient.CallOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"refreshToken": refreshToken},
		NoAuth: true,
	})
	if !result.Ok() {
		return session.AuthPayload{}, result.Err
	}
	if result.Data == nil {
		return session.AuthPayload{}, ErrEmptyResponse
	}
	return *result.Data, nil
}

// Logout resets the session and notifies sibling instances. The
// notification is best effort and never blocks the logout itself.
func (s *Service) Logout(ctx context.Context) {
	s.store.Reset()
	if s.broadcaster != nil {
		err := s.broadcaster.Publish(ctx, broadcast.Event{
			Kind:       broadcast.KindLogout,
			InstanceID: s.instanceID,
			At:         s.now().UTC(),
		})
		if err != nil && s.log != nil {
			s.log.WithError(err).Debug("logout broadcast failed")
		}
	}
}

// RequestTwoFactor asks the backend to issue a passcode challenge via the
// given delivery method and records the verification id.
func (s *Service) RequestTwoFactor(ctx context.Context, deliveryMethod string) (*OTPChallenge, error) {
	params := url.Values{}
	if deliveryMethod != "" {
		params.Set("deliveryMethod", deliveryMethod)
	}
	result := apiclient.Call[OTPChallenge](ctx, s.client, pathTwoFactorToken, apiclient.CallOptions{
		Method: http.MethodPost,
		Params: params,
	})
	if !result.Ok() {
		return nil, result.Err
	}
	challenge := result.Data
	if challenge != nil && challenge.VerificationID != "" {
		s.store.SetOTPContext(session.OTPContext{
			VerificationID: challenge.VerificationID,
			Phone:          challenge.Phone,
			Expiry:         session.ExpiryFromRaw(challenge.ExpiryTime, s.now()),
		})
	}
	return challenge, nil
}

// ValidateTwoFactor exchanges a passcode for the second-factor token that
// rides along on all subsequent authenticated calls.
func (s *Service) ValidateTwoFactor(ctx context.Context, otp string) (*TwoFactorToken, error) {
	result := apiclient.Call[TwoFactorToken](ctx, s.client, pathTwoFactorCheck, apiclient.CallOptions{
		Method: http.MethodPost,
		Body: map[string]string{
			"verificationId": s.store.OTP().VerificationID,
			"otp":            otp,
		},
	})
	if !result.Ok() {
		return nil, result.Err
	}
	token := result.Data
	if token != nil && token.Token != "" {
		s.store.SetTwoFactorToken(token.Token)
	}
	return token, nil
}

// Profile fetches the operator profile and stores it.
func (s *Service) Profile(ctx context.Context) (*session.Profile, error) {
	result := apiclient.Call[session.Profile](ctx, s.client, pathProfileMe, apiclient.CallOptions{})
	if !result.Ok() {
		return nil, result.Err
	}
	if result.Data != nil {
		s.store.SetProfile(result.Data)
	}
	return result.Data, nil
}

var _ session.Refresher = (*Service)(nil)
