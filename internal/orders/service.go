package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/microshop/orders-service/internal/domain"
)

// CatalogClient validates product ids against the catalog service and
// returns the subset that exists, enriched with name and price.
type CatalogClient interface {
	Validate(ctx context.Context, ids []string) ([]domain.Product, error)
}

// PaymentClient creates a checkout session with the payment service.
type PaymentClient interface {
	CreateSession(ctx context.Context, req domain.PaymentSessionRequest) (*domain.PaymentSession, error)
}

// EventPublisher emits domain events after durable writes. It may be
// nil, in which case events are skipped.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// CreateOrderItem is one requested line item: what the caller wants to
// buy and how many. Prices come from the catalog, never from the caller.
type CreateOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Service orchestrates the order lifecycle. It owns no state beyond
// what the store holds; each call is an independent unit of work.
type Service struct {
	store    OrderStore
	catalog  CatalogClient
	payments PaymentClient
	producer EventPublisher
	logger   *slog.Logger
}

func NewService(store OrderStore, catalog CatalogClient, payments PaymentClient, producer EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		catalog:  catalog,
		payments: payments,
		producer: producer,
		logger:   logger,
	}
}

// Create validates the requested items against the catalog, snapshots
// prices, and persists the order with its items in one transaction.
// Validation strictly precedes the write; a single unknown product id
// fails the whole call and nothing is persisted.
func (s *Service) Create(ctx context.Context, items []CreateOrderItem) (*domain.Order, error) {
	if err := validateCreateInput(items); err != nil {
		return nil, err
	}

	ids := distinctProductIDs(items)

	products, err := s.catalog.Validate(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidationFailed, err)
	}

	productsByID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}

	for _, id := range ids {
		if _, ok := productsByID[id]; !ok {
			return nil, fmt.Errorf("%w: product %q not recognized by catalog", domain.ErrValidationFailed, id)
		}
	}

	orderItems := make([]domain.OrderItem, 0, len(items))
	var totalAmount int64
	var totalItems int
	for _, item := range items {
		product, ok := productsByID[item.ProductID]
		if !ok {
			// Unreachable after the set-difference check above, but a
			// zero price silently corrupting an invoice is worse than
			// a failed request.
			return nil, fmt.Errorf("validated product %q missing from catalog reply", item.ProductID)
		}
		totalAmount += product.Price * int64(item.Quantity)
		totalItems += item.Quantity
		orderItems = append(orderItems, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     product.Price,
		})
	}

	now := time.Now().UTC()
	order := &domain.Order{
		Items:       orderItems,
		TotalAmount: totalAmount,
		TotalItems:  totalItems,
		Status:      domain.OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrPersistenceFailed, err)
	}

	if s.producer != nil {
		event := domain.OrderCreatedEvent{
			OrderID:     order.ID,
			Items:       order.Items,
			TotalAmount: order.TotalAmount,
			TotalItems:  order.TotalItems,
			Timestamp:   order.CreatedAt,
		}
		if err := s.producer.Publish(ctx, order.ID, event); err != nil {
			s.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}

	for i := range order.Items {
		order.Items[i].ProductName = productsByID[order.Items[i].ProductID].Name
	}

	s.logger.Info("order created", "order_id", order.ID, "total_amount", order.TotalAmount, "total_items", order.TotalItems)
	return order, nil
}

// FindAll returns one page of orders plus pagination metadata. An empty
// result is not an error: data is an empty slice and lastPage is 0.
func (s *Service) FindAll(ctx context.Context, status *domain.OrderStatus, page, limit int) (*domain.OrderPage, error) {
	if page <= 0 {
		return nil, fmt.Errorf("%w: page must be positive, got %d", domain.ErrInvalidInput, page)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", domain.ErrInvalidInput, limit)
	}
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, *status)
	}

	total, err := s.store.Count(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrPersistenceFailed, err)
	}

	data, err := s.store.List(ctx, status, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrPersistenceFailed, err)
	}

	return &domain.OrderPage{
		Data: data,
		Meta: domain.PageMeta{
			Total:    total,
			Page:     page,
			LastPage: (total + limit - 1) / limit,
		},
	}, nil
}

// FindOne fetches the order and resolves current product names from the
// catalog. Names are display-only; prices always come from the stored
// snapshot. A catalog outage fails the read.
func (s *Service) FindOne(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrPersistenceFailed, err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: id %q", domain.ErrOrderNotFound, id)
	}

	ids := make([]string, 0, len(order.Items))
	seen := make(map[string]bool, len(order.Items))
	for _, item := range order.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products, err := s.catalog.Validate(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCatalogUnavailable, err)
	}

	namesByID := make(map[string]string, len(products))
	for _, p := range products {
		namesByID[p.ID] = p.Name
	}

	for i := range order.Items {
		name, ok := namesByID[order.Items[i].ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %q no longer in catalog", domain.ErrValidationFailed, order.Items[i].ProductID)
		}
		order.Items[i].ProductName = name
	}

	return order, nil
}

// ChangeStatus transitions the order to status. Requesting the current
// status is an idempotent no-op: the unchanged order comes back and no
// row is written. Any valid status value is accepted; transitions are
// not restricted to a state machine.
func (s *Service) ChangeStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	order, changed, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrPersistenceFailed, err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: id %q", domain.ErrOrderNotFound, id)
	}

	if changed {
		s.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)
	}
	return order, nil
}

// InitiatePayment asks the payment service for a checkout session for
// an already-created order. It never retries and never touches order
// status; the transition to PAID is driven by the payment-succeeded
// event, not by this call.
func (s *Service) InitiatePayment(ctx context.Context, order *domain.Order) (*domain.PaymentSession, error) {
	lineItems := make([]domain.PaymentLineItem, 0, len(order.Items))
	for _, item := range order.Items {
		lineItems = append(lineItems, domain.PaymentLineItem{
			Name:     item.ProductName,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}

	session, err := s.payments.CreateSession(ctx, domain.PaymentSessionRequest{
		OrderID:  order.ID,
		Currency: "usd",
		Items:    lineItems,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrPaymentSessionFailed, err)
	}

	s.logger.Info("payment session created", "order_id", order.ID, "session_id", session.ID)
	return session, nil
}

func validateCreateInput(items []CreateOrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", domain.ErrInvalidInput)
	}
	for i, item := range items {
		if item.ProductID == "" {
			return fmt.Errorf("%w: item %d: product_id is required", domain.ErrInvalidInput, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d: quantity must be positive", domain.ErrInvalidInput, i)
		}
	}
	return nil
}

func distinctProductIDs(items []CreateOrderItem) []string {
	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}
