package domain

type OrderItem struct {
	ID    string  `json:"id"`
	Qty   int     `json:"qty"`
	Price float64 `json:"price"`
}

// OrderDraft is the validated request body of POST /v1/orders.
type OrderDraft struct {
	TelegramID string           `json:"telegram_id"`
	StoreID    string           `json:"store_id"`
	Items      []OrderItem      `json:"items"`
	Payment    PaymentSelection `json:"payment"`
	Note       string           `json:"note"`
}

func (d OrderDraft) Total() float64 {
	var total float64
	for _, item := range d.Items {
		total += item.Price * float64(item.Qty)
	}
	return total
}

// OrderResult carries the server-assigned order id. Clients only display it.
type OrderResult struct {
	OrderID string `json:"order_id"`
}
