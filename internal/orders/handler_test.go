package orders

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/microshop/orders-service/internal/domain"
)

func newTestMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders", h.HandleList)
	mux.HandleFunc("POST /orders", h.HandleCreate)
	mux.HandleFunc("GET /orders/{id}", h.HandleGet)
	mux.HandleFunc("PATCH /orders/{id}/status", h.HandleChangeStatus)
	mux.HandleFunc("POST /orders/{id}/payment-session", h.HandleCreatePaymentSession)
	return mux
}

func TestHandler_HandleCreate(t *testing.T) {
	t.Run("creates an order", func(t *testing.T) {
		cat := &fakeCatalog{products: map[string]domain.Product{
			"A": {ID: "A", Name: "Widget", Price: 5},
		}}
		svc := NewService(&fakeStore{}, cat, &fakePayments{}, nil, testLogger())
		mux := newTestMux(NewHandler(svc, testLogger()))

		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"items":[{"product_id":"A","quantity":2}]}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var order domain.Order
		if err := json.NewDecoder(rec.Body).Decode(&order); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if order.TotalAmount != 10 {
			t.Errorf("expected total amount 10, got %d", order.TotalAmount)
		}
		if order.Items[0].ProductName != "Widget" {
			t.Errorf("expected enriched product name, got %q", order.Items[0].ProductName)
		}
	})

	t.Run("returns 400 for malformed body", func(t *testing.T) {
		svc := NewService(&fakeStore{}, &fakeCatalog{}, &fakePayments{}, nil, testLogger())
		mux := newTestMux(NewHandler(svc, testLogger()))

		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{not json`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 for empty items", func(t *testing.T) {
		svc := NewService(&fakeStore{}, &fakeCatalog{}, &fakePayments{}, nil, testLogger())
		mux := newTestMux(NewHandler(svc, testLogger()))

		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"items":[]}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("returns 422 when the catalog rejects a product", func(t *testing.T) {
		svc := NewService(&fakeStore{}, &fakeCatalog{products: map[string]domain.Product{}}, &fakePayments{}, nil, testLogger())
		mux := newTestMux(NewHandler(svc, testLogger()))

		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"items":[{"product_id":"Z","quantity":1}]}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected status 422, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleList(t *testing.T) {
	t.Run("returns pagination meta", func(t *testing.T) {
		store := &fakeStore{}
		for i := 0; i < 3; i++ {
			store.orders = append(store.orders, &domain.Order{ID: "o", Status: domain.OrderStatusPending})
		}
		svc := NewService(store, &fakeCatalog{}, &fakePayments{}, nil, testLogger())
		mux := newTestMux(NewHandler(svc, testLogger()))

		req := httptest.NewRequest(http.MethodGet, "/orders?page=1&limit=2", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var page domain.OrderPage
		if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(page.Data) != 2 {
			t.Errorf("expected 2 orders, got %d", len(page.Data))
		}
		if page.Meta.Total != 3 || page.Meta.LastPage != 2 {
			t.Errorf("unexpected meta: %+v", page.Meta)
		}
	})

	t.Run("returns 400 for bad query params", func(t *testing.T) {
		svc := NewService(&fakeStore{}, &fakeCatalog{}, &fakePayments{}, nil, testLogger())
		mux := newTestMux(NewHandler(svc, testLogger()))

		for _, target := range []string{"/orders?page=abc", "/orders?limit=-1", "/orders?status=SHIPPED"} {
			req := httptest.NewRequest(http.MethodGet, target, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected status 400, got %d", target, rec.Code)
			}
		}
	})
}

func TestHandler_HandleGet(t *testing.T) {
	t.Run("returns 404 for unknown order", func(t *testing.T) {
		svc := NewService(&fakeStore{}, &fakeCatalog{}, &fakePayments{}, nil, testLogger())
		mux := newTestMux(NewHandler(svc, testLogger()))

		req := httptest.NewRequest(http.MethodGet, "/orders/nope", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("returns 502 when the catalog is down", func(t *testing.T) {
		store := &fakeStore{orders: []*domain.Order{{
			ID:    "order-1",
			Items: []domain.OrderItem{{ProductID: "A", Quantity: 1, Price: 5}},
		}}}
		svc := NewService(store, &fakeCatalog{err: http.ErrHandlerTimeout}, &fakePayments{}, nil, testLogger())
		mux := newTestMux(NewHandler(svc, testLogger()))

		req := httptest.NewRequest(http.MethodGet, "/orders/order-1", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected status 502, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleChangeStatus(t *testing.T) {
	t.Run("updates the status", func(t *testing.T) {
		store := &fakeStore{orders: []*domain.Order{{
			ID:     "order-1",
			Status: domain.OrderStatusPending,
		}}}
		svc := NewService(store, &fakeCatalog{}, &fakePayments{}, nil, testLogger())
		mux := newTestMux(NewHandler(svc, testLogger()))

		req := httptest.NewRequest(http.MethodPatch, "/orders/order-1/status", strings.NewReader(`{"status":"PAID"}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var order domain.Order
		if err := json.NewDecoder(rec.Body).Decode(&order); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if order.Status != domain.OrderStatusPaid {
			t.Errorf("expected status PAID, got %s", order.Status)
		}
	})

	t.Run("returns 400 for an unknown status value", func(t *testing.T) {
		svc := NewService(&fakeStore{}, &fakeCatalog{}, &fakePayments{}, nil, testLogger())
		mux := newTestMux(NewHandler(svc, testLogger()))

		req := httptest.NewRequest(http.MethodPatch, "/orders/order-1/status", strings.NewReader(`{"status":"SHIPPED"}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 for unknown order", func(t *testing.T) {
		svc := NewService(&fakeStore{}, &fakeCatalog{}, &fakePayments{}, nil, testLogger())
		mux := newTestMux(NewHandler(svc, testLogger()))

		req := httptest.NewRequest(http.MethodPatch, "/orders/nope/status", strings.NewReader(`{"status":"PAID"}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleCreatePaymentSession(t *testing.T) {
	store := func() *fakeStore {
		return &fakeStore{orders: []*domain.Order{{
			ID:          "order-1",
			TotalAmount: 10,
			TotalItems:  2,
			Status:      domain.OrderStatusPending,
			Items:       []domain.OrderItem{{ProductID: "A", Quantity: 2, Price: 5}},
		}}}
	}
	cat := func() *fakeCatalog {
		return &fakeCatalog{products: map[string]domain.Product{
			"A": {ID: "A", Name: "Widget", Price: 5},
		}}
	}

	t.Run("creates a session for an existing order", func(t *testing.T) {
		payments := &fakePayments{session: &domain.PaymentSession{ID: "sess-1", URL: "https://pay.example/sess-1"}}
		svc := NewService(store(), cat(), payments, nil, testLogger())
		mux := newTestMux(NewHandler(svc, testLogger()))

		req := httptest.NewRequest(http.MethodPost, "/orders/order-1/payment-session", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if payments.lastReq.Items[0].Name != "Widget" {
			t.Errorf("expected enriched line item name, got %q", payments.lastReq.Items[0].Name)
		}
	})

	t.Run("returns 502 when the payment service fails", func(t *testing.T) {
		payments := &fakePayments{err: http.ErrHandlerTimeout}
		svc := NewService(store(), cat(), payments, nil, testLogger())
		mux := newTestMux(NewHandler(svc, testLogger()))

		req := httptest.NewRequest(http.MethodPost, "/orders/order-1/payment-session", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected status 502, got %d", rec.Code)
		}
	})
}
