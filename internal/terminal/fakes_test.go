package terminal

import (
	"context"
	"sync"

	"github.com/Platitedengi/idistr-mvp/internal/domain"
	"github.com/Platitedengi/idistr-mvp/internal/gateway"
)

type fakeBackend struct {
	mu       sync.Mutex
	rep      *gateway.RepMe
	repErr   error
	orderID  string
	orderErr error
	repCalls int
	orders   []*domain.OrderDraft
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		rep: &gateway.RepMe{
			Rep: &domain.Rep{ID: "7", Name: "Aigerim", TelegramID: "U1"},
			Stores: []domain.Store{
				{ID: "S1", Name: "Corner shop", Address: "Abay 1", Phone: "+7 701"},
				{ID: "S2", Name: "Kiosk", Address: "Dostyk 5"},
			},
		},
		orderID: "501",
	}
}

func (f *fakeBackend) GetRepMe(_ context.Context, _ string) (*gateway.RepMe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repCalls++
	if f.repErr != nil {
		return nil, f.repErr
	}
	return f.rep, nil
}

func (f *fakeBackend) CreateOrder(_ context.Context, draft *domain.OrderDraft) (*domain.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, draft)
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return &domain.OrderResult{OrderID: f.orderID}, nil
}

func (f *fakeBackend) RepCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.repCalls
}

func (f *fakeBackend) Orders() []*domain.OrderDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.OrderDraft(nil), f.orders...)
}

type fakeLoader struct {
	products []domain.Product
	err      error
}

func (l *fakeLoader) Products(context.Context) ([]domain.Product, error) {
	if l.err != nil {
		return nil, l.err
	}
	return append([]domain.Product(nil), l.products...), nil
}

func testProducts() []domain.Product {
	return []domain.Product{
		{ID: "P1", Title: "Widget", SKU: "W1", Unit: "pc", Category: "Hardware", Price: 100, PackSize: 1},
		{ID: "P2", Title: "Bolt", SKU: "B1", Unit: "pc", Category: "Hardware", Price: 5, PackSize: 12},
		{ID: "P3", Title: "Tea", SKU: "T1", Unit: "box", Category: "Grocery", Price: 750, PackSize: 1},
	}
}
