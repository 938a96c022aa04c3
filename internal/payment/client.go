// Package payment is the request/response facade over the payment
// service.
package payment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/microshop/orders-service/internal/domain"
)

const DefaultTimeout = 5 * time.Second

type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetRetryCount(0).
			SetTransport(otelhttp.NewTransport(http.DefaultTransport)),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     "payment",
			Interval: 15 * time.Second,
			Timeout:  30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 3 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
			},
		}),
	}
}

// CreateSession requests a checkout session for the order. One round
// trip, no retries; any transport or non-2xx failure surfaces as
// ErrPaymentUnavailable.
func (c *Client) CreateSession(ctx context.Context, req domain.PaymentSessionRequest) (*domain.PaymentSession, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		var session domain.PaymentSession
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(req).
			SetResult(&session).
			Post("/payments/sessions")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("payment service returned status %d: %s", resp.StatusCode(), resp.String())
		}
		return &session, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrPaymentUnavailable, err)
	}

	return result.(*domain.PaymentSession), nil
}
