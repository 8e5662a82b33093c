package types

// ListOrdersInput captures listing filters and pagination. Page starts at 1.
type ListOrdersInput struct {
	Status  string
	IDQuery string
	Page    int
	Limit   int
}

// OrderPage is one page of orders with their summaries; items are not embedded.
type OrderPage struct {
	Orders   []*OrderProjection
	Total    int64
	Page     int
	Limit    int
	LastPage int
}
