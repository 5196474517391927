package domain

import (
	"encoding/json"
	"math"
)

// CartLine is one product in the cart. Price is captured when the product is
// added and never re-read from the catalog afterwards.
type CartLine struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	SKU   string  `json:"sku"`
	Price float64 `json:"price"`
	Qty   int     `json:"qty"`
}

// Resolved reports whether the line carries a product id.
func (l CartLine) Resolved() bool {
	return l.ID != ""
}

func (l CartLine) Subtotal() float64 {
	return l.Price * float64(l.Qty)
}

// Label names the line for operator-facing messages.
func (l CartLine) Label() string {
	switch {
	case l.SKU != "" && l.Title != "":
		return l.Title + " (" + l.SKU + ")"
	case l.Title != "":
		return l.Title
	default:
		return l.SKU
	}
}

// UnmarshalJSON accepts carts written by older clients: ids and SKUs may be
// numbers, prices and quantities may be numeric strings. A quantity that is
// not a whole number decodes as 0 so validation rejects it later.
func (l *CartLine) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID    Text   `json:"id"`
		Title Text   `json:"title"`
		SKU   Text   `json:"sku"`
		Price Number `json:"price"`
		Qty   Number `json:"qty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	qty := float64(aux.Qty)
	l.ID = string(aux.ID)
	l.Title = string(aux.Title)
	l.SKU = string(aux.SKU)
	l.Price = float64(aux.Price)
	l.Qty = 0
	if qty == math.Trunc(qty) && qty >= math.MinInt32 && qty <= math.MaxInt32 {
		l.Qty = int(qty)
	}
	return nil
}
