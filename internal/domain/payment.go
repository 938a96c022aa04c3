package domain

type PaymentLineItem struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type PaymentSessionRequest struct {
	OrderID  string            `json:"order_id"`
	Currency string            `json:"currency"`
	Items    []PaymentLineItem `json:"items"`
}

// PaymentSession is the handle returned by the payment service. The
// session itself is opaque to the workflow; it is handed back to the
// caller untouched.
type PaymentSession struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	CancelURL string `json:"cancel_url,omitempty"`
}
