// Package realtime streams transaction status updates over a websocket.
//
// The dashboard polls lists through the query engine; realtime fills
// the gap for the payment-in-flight view, where the backend pushes a
// status event as soon as the customer confirms or the transaction
// expires.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second

	// eventBuffer bounds pending events per subscription; a consumer
	// that stops reading drops the oldest updates first.
	eventBuffer = 16
)

// StatusEvent is one pushed transaction update.
type StatusEvent struct {
	TransactionID string    `json:"transactionId"`
	PaymentStatus string    `json:"paymentStatus"`
	Timestamp     time.Time `json:"timestamp"`
}

// TokenSource supplies the bearer token for the websocket handshake.
// session.Store satisfies it.
type TokenSource interface {
	AccessToken() string
}

// Subscriber maintains websocket subscriptions to the status stream.
type Subscriber struct {
	url    string
	tokens TokenSource
	logger logrus.FieldLogger
	dialer *websocket.Dialer
}

// Option configures a Subscriber.
type Option func(*Subscriber)

// WithLogger sets the logger. The default discards nothing below warn.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Subscriber) { s.logger = logger }
}

// WithDialer overrides the websocket dialer, mainly for tests.
func WithDialer(d *websocket.Dialer) Option {
	return func(s *Subscriber) { s.dialer = d }
}

// New creates a Subscriber for the given websocket endpoint
// (ws:// or wss://).
func New(rawURL string, tokens TokenSource, opts ...Option) *Subscriber {
	s := &Subscriber{
		url:    rawURL,
		tokens: tokens,
		dialer: websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		base := logrus.New()
		base.SetLevel(logrus.WarnLevel)
		s.logger = base
	}
	return s
}

// Subscribe opens a stream of status events for one transaction. The
// returned channel closes when ctx ends. Connection drops are retried
// with exponential backoff; events published while disconnected are
// lost, so consumers should re-read the transaction after a gap.
func (s *Subscriber) Subscribe(ctx context.Context, transactionID string) (<-chan StatusEvent, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("realtime: transaction id is required")
	}
	target, err := url.Parse(s.url)
	if err != nil {
		return nil, fmt.Errorf("realtime: parse url: %w", err)
	}
	q := target.Query()
	q.Set("transactionId", transactionID)
	target.RawQuery = q.Encode()

	events := make(chan StatusEvent, eventBuffer)
	go s.run(ctx, target.String(), transactionID, events)
	return events, nil
}

func (s *Subscriber) run(ctx context.Context, target, transactionID string, events chan StatusEvent) {
	defer close(events)

	expo := backoff.NewExponentialBackOff()
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := s.dial(ctx, target)
		if err != nil {
			s.logger.WithError(err).WithField("transactionId", transactionID).
				Warn("realtime dial failed")
			wait := expo.NextBackOff()
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		expo.Reset()

		if done := s.readLoop(ctx, conn, transactionID, events); done {
			return
		}
	}
}

func (s *Subscriber) dial(ctx context.Context, target string) (*websocket.Conn, error) {
	header := http.Header{}
	if token := s.tokens.AccessToken(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := s.dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("realtime: handshake status %d: %w", resp.StatusCode, err)
		}
		return nil, err
	}
	return conn, nil
}

// readLoop pumps events until the connection drops. It reports true
// when the subscription should end for good (context done or a clean
// server close).
func (s *Subscriber) readLoop(ctx context.Context, conn *websocket.Conn, transactionID string, events chan StatusEvent) bool {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	// Close the socket when the context ends so ReadMessage unblocks.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return true
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return true
			}
			s.logger.WithError(err).WithField("transactionId", transactionID).
				Warn("realtime read error, reconnecting")
			return false
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var event StatusEvent
		if err := json.Unmarshal(data, &event); err != nil {
			s.logger.WithError(err).Warn("realtime: dropping malformed event")
			continue
		}
		if event.TransactionID == "" {
			event.TransactionID = transactionID
		}
		select {
		case events <- event:
		default:
			// Consumer is behind; drop the oldest to keep the latest.
			select {
			case <-events:
			default:
			}
			events <- event
		}
	}
}
