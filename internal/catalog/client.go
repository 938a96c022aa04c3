// Package catalog is the request/response facade over the product
// catalog service.
package catalog

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
			Name:     "catalog",
			Interval: 15 * time.Second,
			Timeout:  30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 3 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
			},
		}),
	}
}

type validateRequest struct {
	IDs []string `json:"ids"`
}

// Validate asks the catalog which of the given product ids exist and
// returns exactly that subset with current names and prices. Detecting
// missing ids is the caller's job. One round trip, no retries; any
// transport or non-2xx failure surfaces as ErrCatalogUnavailable.
func (c *Client) Validate(ctx context.Context, ids []string) ([]domain.Product, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		var products []domain.Product
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(validateRequest{IDs: ids}).
			SetResult(&products).
			Post("/products/validate")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("catalog returned status %d: %s", resp.StatusCode(), resp.String())
		}
		return products, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCatalogUnavailable, err)
	}

	return result.([]domain.Product), nil
}
