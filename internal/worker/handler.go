// Package worker drives the PENDING -> PAID transition from
// payment-succeeded events. The orders service itself never flips an
// order to PAID as a side effect of creating a payment session.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/microshop/orders-service/internal/domain"
)

type PaymentConfirmationHandler struct {
	ordersServiceURL string
	httpClient       *http.Client
	logger           *slog.Logger
}

func NewPaymentConfirmationHandler(ordersServiceURL string, client *http.Client, logger *slog.Logger) *PaymentConfirmationHandler {
	return &PaymentConfirmationHandler{
		ordersServiceURL: ordersServiceURL,
		httpClient:       client,
		logger:           logger,
	}
}

// Handle marks the order referenced by a payment-succeeded event as
// PAID. An unknown order id is logged and skipped rather than retried
// forever; any other failure is returned so the message is not
// committed.
func (h *PaymentConfirmationHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.PaymentSucceededEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal payment succeeded event: %w", err)
	}

	h.logger.Info("processing payment succeeded event", "order_id", event.OrderID, "session_id", event.SessionID)

	status, err := h.updateOrderStatus(ctx, event.OrderID, domain.OrderStatusPaid)
	if err != nil {
		h.logger.Error("failed to mark order as paid", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("mark order %s as paid: %w", event.OrderID, err)
	}

	if status == http.StatusNotFound {
		h.logger.Error("payment confirmed for unknown order", "order_id", event.OrderID)
		return nil
	}

	if status != http.StatusOK {
		return fmt.Errorf("orders service returned status %d for order %s", status, event.OrderID)
	}

	h.logger.Info("order marked as paid", "order_id", event.OrderID)
	return nil
}

func (h *PaymentConfirmationHandler) updateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (int, error) {
	body := map[string]string{
		"status": string(status),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/orders/%s/status", h.ordersServiceURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode, nil
}
