package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Platitedengi/idistr-mvp/internal/domain"
	"github.com/Platitedengi/idistr-mvp/pkg/circuitbreaker"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	opts = append([]Option{WithHTTPClient(srv.Client())}, opts...)
	c, err := NewClient(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewClient("not a url")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGetRepMe(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/reps/me", r.URL.Path)
		assert.Equal(t, "U1", r.URL.Query().Get("telegram_id"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = io.WriteString(w, `{
			"rep": {"id": 7, "name": "Aigerim", "telegram_id": 123456},
			"stores": [
				{"id": 1, "name": "Corner shop", "address": "Abay 1", "bin_iin": 990101300123, "phone": null},
				{"id": "S2", "name": "Kiosk"}
			]
		}`)
	})

	got, err := c.GetRepMe(context.Background(), "U1")
	require.NoError(t, err)

	require.NotNil(t, got.Rep)
	assert.Equal(t, "7", got.Rep.ID)
	assert.Equal(t, "123456", got.Rep.TelegramID)
	require.Len(t, got.Stores, 2)
	assert.Equal(t, domain.Store{ID: "1", Name: "Corner shop", Address: "Abay 1", BinIIN: "990101300123"}, got.Stores[0])
	assert.Equal(t, "S2", got.Stores[1].ID)
}

func TestGetRepMe_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail": "Rep not found"}`)
	})

	_, err := c.GetRepMe(context.Background(), "U404")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, OpRepMe, apiErr.Op)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Rep not found", apiErr.Detail)
	assert.True(t, apiErr.ClientError())
	assert.Contains(t, apiErr.URL, "telegram_id=U404")
	assert.Contains(t, err.Error(), "reps/me failed")
}

func TestGetProducts_QueryAndDecoding(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.False(t, q.Has("search"), "empty search is omitted")
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "100", q.Get("limit"))
		_, _ = io.WriteString(w, `{"items": [
			{"id": 1, "title": "Widget", "sku": 1001, "unit": "pc", "price": "1 200", "pack_size": 0},
			{"id": "P2", "title": "Bolt", "sku": "B1", "price": 5.5, "pack_size": 12, "img": "http://img/b.png"}
		]}`)
	})

	_, err := c.GetProducts(context.Background(), "", 0, 0)
	// "1 200" is not a number.
	require.Error(t, err)

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bolt", r.URL.Query().Get("search"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		_, _ = io.WriteString(w, `{"items": [
			{"id": 1, "title": "Widget", "sku": 1001, "unit": "pc", "price": "1200,50", "pack_size": 0},
			{"id": "P2", "title": "Bolt", "sku": "B1", "price": 5.5, "pack_size": 12, "img": "http://img/b.png"}
		]}`)
	})

	got, err := c.GetProducts(context.Background(), "bolt", 2, 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "1001", got[0].SKU)
	assert.Equal(t, 1200.5, got[0].Price)
	assert.Equal(t, "http://img/b.png", got[1].ImageURL)
	assert.Equal(t, 12, got[1].PackSize)
}

func TestGetProducts_MissingItemsIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	got, err := c.GetProducts(context.Background(), "", 1, 100)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetProducts_ContractViolation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"items": "nope"}`)
	})

	_, err := c.GetProducts(context.Background(), "", 1, 100)

	assert.ErrorIs(t, err, ErrContract)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, OpProducts, apiErr.Op)
}

func TestCreateOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"telegram_id": "U1",
			"store_id": "S1",
			"items": [{"id": "P1", "qty": 2, "price": 100}],
			"payment": {"method": "Cash", "txn": ""},
			"note": ""
		}`, string(body))

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"order_id": 501}`)
	})

	res, err := c.CreateOrder(context.Background(), &domain.OrderDraft{
		TelegramID: "U1",
		StoreID:    "S1",
		Items:      []domain.OrderItem{{ID: "P1", Qty: 2, Price: 100}},
		Payment:    domain.PaymentSelection{Method: domain.PaymentCash},
	})
	require.NoError(t, err)
	assert.Equal(t, "501", res.OrderID)
}

func TestCreateOrder_RejectsInvalidDraftLocally(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.CreateOrder(context.Background(), &domain.OrderDraft{TelegramID: "U1", StoreID: "S1"})

	assert.ErrorIs(t, err, ErrContract)
	assert.False(t, called)
}

func TestCreateOrder_ServerValidationDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"detail": []map[string]any{{"loc": []string{"body", "store_id"}, "msg": "unknown store"}},
		})
	})

	_, err := c.CreateOrder(context.Background(), &domain.OrderDraft{
		TelegramID: "U1",
		StoreID:    "S1",
		Items:      []domain.OrderItem{{ID: "P1", Qty: 1, Price: 1}},
		Payment:    domain.PaymentSelection{Method: domain.PaymentKaspi},
	})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.JSONEq(t, `[{"loc":["body","store_id"],"msg":"unknown store"}]`, apiErr.Detail)
	assert.Contains(t, err.Error(), "order failed")
}

func TestExtractDetail(t *testing.T) {
	assert.Equal(t, "", extractDetail(nil))
	assert.Equal(t, "boom", extractDetail([]byte(`{"detail":"boom"}`)))
	assert.Equal(t, `{"error":"x"}`, extractDetail([]byte(`{"error": "x"}`)))
	assert.Equal(t, "Bad Gateway", extractDetail([]byte("Bad Gateway\n")))
}

func TestBreaker_OpensOnServerErrors(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithBreaker(circuitbreaker.Config{
		Name:                "test",
		MaxRequests:         1,
		Timeout:             time.Minute,
		ConsecutiveFailures: 2,
	}))

	for i := 0; i < 2; i++ {
		_, err := c.GetProducts(context.Background(), "", 1, 100)
		require.Error(t, err)
	}
	_, err := c.GetProducts(context.Background(), "", 1, 100)

	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, OpProducts, apiErr.Op)
	assert.Equal(t, 2, calls)
}

func TestBreaker_IgnoresClientErrors(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}, WithBreaker(circuitbreaker.Config{Name: "test", ConsecutiveFailures: 1, Timeout: time.Minute}))

	for i := 0; i < 3; i++ {
		_, err := c.GetRepMe(context.Background(), "U1")
		require.Error(t, err)
	}
	assert.Equal(t, 3, calls)
}
