package domain

import "time"

type OrderCreatedEvent struct {
	OrderID     string      `json:"order_id"`
	Items       []OrderItem `json:"items"`
	TotalAmount int64       `json:"total_amount"`
	TotalItems  int         `json:"total_items"`
	Timestamp   time.Time   `json:"timestamp"`
}

type PaymentSucceededEvent struct {
	OrderID   string    `json:"order_id"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}
