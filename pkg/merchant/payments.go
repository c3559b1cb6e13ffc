package merchant

import (
	"context"
	"net/http"
	"net/url"

	"github.com/cexll/merchantops-go/pkg/apiclient"
)

// InitiatePaymentInput starts a QR- or OTP-based payment.
type InitiatePaymentInput struct {
	Amount           float64 `json:"amount"`
	PaymentReference string  `json:"paymentReference,omitempty"`
	CustomerPhone    string  `json:"customerPhone,omitempty"`
	SendOTP          bool    `json:"sendOtp"`
	SendPushUSSD     bool    `json:"sendPushUssd"`
}

// Payments drives the operator-initiated payment flows.
type Payments struct {
	client *apiclient.Client
}

// NewPayments binds the service to a client.
func NewPayments(client *apiclient.Client) *Payments {
	return &Payments{client: client}
}

// Initiate creates a transaction and returns it with the QR payload.
func (p *Payments) Initiate(ctx context.Context, input InitiatePaymentInput) (*Transaction, error) {
	result := apiclient.Call[Transaction](ctx, p.client, "/transactions/init", apiclient.CallOptions{
		Method: http.MethodPost,
		Body:   input,
	})
	if !result.Ok() {
		return nil, result.Err
	}
	return result.Data, nil
}

// SendPushUSSD prompts the customer's phone to approve the transaction.
func (p *Payments) SendPushUSSD(ctx context.Context, transactionID, customerPhone string) (*Transaction, error) {
	params := url.Values{}
	params.Set("customerPhone", customerPhone)
	result := apiclient.Call[Transaction](ctx, p.client, "/transactions/push-ussd/"+transactionID, apiclient.CallOptions{
		Method: http.MethodPost,
		Params: params,
	})
	if !result.Ok() {
		return nil, result.Err
	}
	return result.Data, nil
}

// SendOTP delivers a payment passcode to the customer.
func (p *Payments) SendOTP(ctx context.Context, transactionID, customerPhone string) (*Transaction, error) {
	params := url.Values{}
	params.Set("customerPhone", customerPhone)
	result := apiclient.Call[Transaction](ctx, p.client, "/transactions/push-otp/"+transactionID, apiclient.CallOptions{
		Method: http.MethodPost,
		Params: params,
	})
	if !result.Ok() {
		return nil, result.Err
	}
	return result.Data, nil
}

// CompleteOTP finishes an OTP payment with the customer's passcode.
func (p *Payments) CompleteOTP(ctx context.Context, transactionID, customerOTP string) (*Transaction, error) {
	result := apiclient.Call[Transaction](ctx, p.client, "/transactions/complete-push-otp/"+transactionID, apiclient.CallOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"customerOtp": customerOTP},
	})
	if !result.Ok() {
		return nil, result.Err
	}
	return result.Data, nil
}
