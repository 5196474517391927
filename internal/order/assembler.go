// Package order turns a cart into a backend order and submits it.
package order

import (
	"strings"

	"github.com/Platitedengi/idistr-mvp/internal/domain"
)

// Lookup is the part of the catalog Build checks the store and every line
// against.
type Lookup interface {
	StoreByID(id string) (domain.Store, bool)
	ProductByID(id string) (domain.Product, bool)
}

// Build validates the cart and assembles the order draft. Checks run in a
// fixed order and the first failure is returned. A line is unresolved when
// its id is empty or names no catalog product. cat may be nil, in which case
// any non-empty store and product id is accepted.
func Build(
	lines []domain.CartLine,
	storeID string,
	operatorID string,
	payment domain.PaymentSelection,
	note string,
	cat Lookup,
) (*domain.OrderDraft, error) {
	storeID = domain.CanonicalID(storeID)
	if storeID == "" {
		return nil, ErrMissingStore
	}
	if cat != nil {
		if _, ok := cat.StoreByID(storeID); !ok {
			return nil, ErrMissingStore
		}
	}

	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	for _, line := range lines {
		if !resolvable(cat, line.ID) {
			return nil, withLine(ErrUnresolvedLineItem, line.Label())
		}
	}

	operatorID = domain.CanonicalID(operatorID)
	if operatorID == "" {
		return nil, ErrMissingOperator
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Qty < 1 {
			return nil, withLine(ErrInvalidQuantity, line.Label())
		}
		items = append(items, domain.OrderItem{
			ID:    domain.CanonicalID(line.ID),
			Qty:   line.Qty,
			Price: line.Price,
		})
	}

	if !payment.Method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}

	return &domain.OrderDraft{
		TelegramID: operatorID,
		StoreID:    storeID,
		Items:      items,
		Payment: domain.PaymentSelection{
			Method: payment.Method,
			Txn:    strings.TrimSpace(payment.Txn),
		},
		Note: note,
	}, nil
}

func resolvable(cat Lookup, id string) bool {
	id = domain.CanonicalID(id)
	if id == "" {
		return false
	}
	if cat == nil {
		return true
	}
	_, ok := cat.ProductByID(id)
	return ok
}
