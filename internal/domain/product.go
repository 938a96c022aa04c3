package domain

// Product is the catalog's view of a sellable item. Prices are minor
// currency units. Products are fetched live on each validation call and
// never cached or persisted here.
type Product struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}
