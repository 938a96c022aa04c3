package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPaymentConfirmationHandler_Handle(t *testing.T) {
	t.Run("marks the order as paid", func(t *testing.T) {
		ordersServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPatch {
				t.Errorf("expected PATCH, got %s", r.Method)
			}
			if r.URL.Path != "/orders/order-1/status" {
				t.Errorf("expected /orders/order-1/status, got %s", r.URL.Path)
			}

			var req map[string]string
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			if req["status"] != "PAID" {
				t.Errorf("expected status PAID, got %s", req["status"])
			}

			w.WriteHeader(http.StatusOK)
		}))
		defer ordersServer.Close()

		handler := NewPaymentConfirmationHandler(ordersServer.URL, ordersServer.Client(), testLogger())
		payload := []byte(`{"order_id":"order-1","session_id":"sess-1"}`)

		if err := handler.Handle(context.Background(), payload); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("skips unknown orders instead of retrying forever", func(t *testing.T) {
		ordersServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer ordersServer.Close()

		handler := NewPaymentConfirmationHandler(ordersServer.URL, ordersServer.Client(), testLogger())
		payload := []byte(`{"order_id":"ghost","session_id":"sess-1"}`)

		if err := handler.Handle(context.Background(), payload); err != nil {
			t.Fatalf("expected unknown order to be skipped, got %v", err)
		}
	})

	t.Run("returns an error when the orders service fails", func(t *testing.T) {
		ordersServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer ordersServer.Close()

		handler := NewPaymentConfirmationHandler(ordersServer.URL, ordersServer.Client(), testLogger())
		payload := []byte(`{"order_id":"order-1","session_id":"sess-1"}`)

		if err := handler.Handle(context.Background(), payload); err == nil {
			t.Error("expected error for failing orders service")
		}
	})

	t.Run("returns an error for a malformed event", func(t *testing.T) {
		handler := NewPaymentConfirmationHandler("http://unused", http.DefaultClient, testLogger())

		if err := handler.Handle(context.Background(), []byte(`{not json`)); err == nil {
			t.Error("expected error for malformed payload")
		}
	})
}
