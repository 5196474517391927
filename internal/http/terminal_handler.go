package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Platitedengi/idistr-mvp/internal/cart"
	"github.com/Platitedengi/idistr-mvp/internal/catalog"
	"github.com/Platitedengi/idistr-mvp/internal/domain"
	"github.com/Platitedengi/idistr-mvp/internal/operator"
	"github.com/Platitedengi/idistr-mvp/internal/receipt"
	"github.com/Platitedengi/idistr-mvp/internal/terminal"
	"github.com/go-chi/chi/v5"
)

// Sessions hands out the bootstrapped session of an operator.
type Sessions interface {
	Session(ctx context.Context, operatorID string) (*terminal.Terminal, error)
}

type TerminalHandler struct {
	sessions Sessions
	shelf    *receipt.Shelf
	timeout  time.Duration
}

func NewTerminalHandler(sessions Sessions, shelf *receipt.Shelf, timeout time.Duration) *TerminalHandler {
	return &TerminalHandler{
		sessions: sessions,
		shelf:    shelf,
		timeout:  timeout,
	}
}

type PaymentMethodDTO struct {
	Method domain.PaymentMethod `json:"method"`
	Label  string               `json:"label"`
}

type SessionResponseDTO struct {
	OperatorID       string                  `json:"operator_id"`
	Rep              *domain.Rep             `json:"rep"`
	Stores           []domain.Store          `json:"stores"`
	SelectedStore    *domain.Store           `json:"selected_store"`
	ProductCount     int                     `json:"product_count"`
	PaymentMethods   []PaymentMethodDTO      `json:"payment_methods"`
	SubmissionStatus domain.SubmissionStatus `json:"submission_status"`
}

type ProductDTO struct {
	domain.Product
	Image   string `json:"image"`
	HasPack bool   `json:"has_pack"`
}

type CartResponseDTO struct {
	Items []domain.CartLine `json:"items"`
	Total float64           `json:"total"`
	Note  string            `json:"note"`
}

type SelectStoreRequestDTO struct {
	StoreID domain.Text `json:"store_id"`
}

type AddItemRequestDTO struct {
	ProductID domain.Text     `json:"product_id"`
	Qty       json.RawMessage `json:"qty"`
}

type UpdateQuantityRequestDTO struct {
	Qty json.RawMessage `json:"qty"`
}

type NoteRequestDTO struct {
	Note string `json:"note"`
}

type CheckoutRequestDTO struct {
	Method domain.PaymentMethod `json:"method"`
	Txn    string               `json:"txn"`
}

type CheckoutResponseDTO struct {
	OrderID    string  `json:"order_id"`
	Total      float64 `json:"total"`
	ReceiptURL string  `json:"receipt_url,omitempty"`
}

// session resolves the caller's terminal, answering the request itself when
// that fails.
func (h *TerminalHandler) session(w http.ResponseWriter, r *http.Request) (*terminal.Terminal, context.Context, context.CancelFunc, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)

	operatorID, _ := operator.FromContext(r.Context())
	t, err := h.sessions.Session(ctx, operatorID)
	if err != nil {
		cancel()
		handleError(w, err)
		return nil, nil, nil, false
	}
	return t, ctx, cancel, true
}

func (h *TerminalHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	t, _, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	resp := SessionResponseDTO{
		OperatorID:       t.OperatorID(),
		Rep:              t.Rep(),
		Stores:           t.Catalog().Stores(),
		ProductCount:     len(t.Catalog().Products()),
		PaymentMethods:   make([]PaymentMethodDTO, 0, len(domain.PaymentMethods)),
		SubmissionStatus: t.SubmissionStatus(),
	}
	if s, ok := t.SelectedStore(); ok {
		resp.SelectedStore = &s
	}
	for _, m := range domain.PaymentMethods {
		resp.PaymentMethods = append(resp.PaymentMethods, PaymentMethodDTO{Method: m, Label: m.Label()})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *TerminalHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	t, _, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	respondJSON(w, http.StatusOK, t.Catalog().FilterStores(r.URL.Query().Get("q")))
}

func (h *TerminalHandler) SelectStore(w http.ResponseWriter, r *http.Request) {
	t, _, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req SelectStoreRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	s, err := t.SelectStore(string(req.StoreID))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *TerminalHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	t, _, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	category := r.URL.Query().Get("category")
	if category == "" {
		category = catalog.AllCategories
	}
	respondJSON(w, http.StatusOK, toProductDTOs(t.Catalog().FilterProducts(r.URL.Query().Get("q"), category)))
}

func (h *TerminalHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	t, _, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	respondJSON(w, http.StatusOK, t.Catalog().Categories())
}

func (h *TerminalHandler) ListRecents(w http.ResponseWriter, r *http.Request) {
	t, _, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	respondJSON(w, http.StatusOK, toProductDTOs(t.Recents()))
}

func (h *TerminalHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	t, _, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	respondJSON(w, http.StatusOK, cartResponse(t))
}

func (h *TerminalHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	t, _, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	qty, err := strictQuantity(req.Qty)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "qty must be a whole number")
		return
	}

	if err := t.AddItem(string(req.ProductID), qty); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, cartResponse(t))
}

func (h *TerminalHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	t, _, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	t.SetQuantity(chi.URLParam(r, "product_id"), lenientQuantity(req.Qty))
	respondJSON(w, http.StatusOK, cartResponse(t))
}

func (h *TerminalHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	t, _, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	t.RemoveItem(chi.URLParam(r, "product_id"))
	respondJSON(w, http.StatusOK, cartResponse(t))
}

// RemoveUnresolved drops lines without a catalog product, including lines
// that have no id to address them by.
func (h *TerminalHandler) RemoveUnresolved(w http.ResponseWriter, r *http.Request) {
	t, _, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	t.RemoveUnresolved()
	respondJSON(w, http.StatusOK, cartResponse(t))
}

func (h *TerminalHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	t, _, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	t.ClearCart()
	respondJSON(w, http.StatusOK, cartResponse(t))
}

func (h *TerminalHandler) SetNote(w http.ResponseWriter, r *http.Request) {
	t, _, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req NoteRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	t.SetNote(req.Note)
	respondJSON(w, http.StatusOK, cartResponse(t))
}

func (h *TerminalHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	t, ctx, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	res, err := t.Checkout(ctx, domain.PaymentSelection{Method: req.Method, Txn: req.Txn})
	if err != nil {
		handleError(w, err)
		return
	}

	resp := CheckoutResponseDTO{OrderID: res.OrderID, Total: res.Total}
	if res.Receipt != nil {
		resp.ReceiptURL = ReceiptPath(res.OrderID)
	}
	respondJSON(w, http.StatusCreated, resp)
}

func (h *TerminalHandler) Reset(w http.ResponseWriter, r *http.Request) {
	t, ctx, cancel, ok := h.session(w, r)
	if !ok {
		return
	}
	defer cancel()

	if err := t.Reset(ctx); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(t))
}

// GetReceipt serves a receipt from the shelf as a printable page.
func (h *TerminalHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.shelf.Get(chi.URLParam(r, "order_id"))
	if !ok {
		respondError(w, http.StatusNotFound, "receipt_not_found", "receipt not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.HTML)
}

func ReceiptPath(orderID string) string {
	return "/receipts/" + url.PathEscape(orderID)
}

func cartResponse(t *terminal.Terminal) CartResponseDTO {
	view := t.Cart()
	return CartResponseDTO{Items: view.Lines, Total: view.Total, Note: view.Note}
}

func toProductDTOs(products []domain.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, ProductDTO{Product: p, Image: p.Image(), HasPack: p.HasPack()})
	}
	return out
}

var errBadQuantity = errors.New("bad quantity")

// rawQuantity unwraps a JSON number or string. ok is false for a missing or
// null value.
func rawQuantity(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(raw), true
}

// strictQuantity is used when adding: a missing qty means 1, anything that is
// not an integer is rejected.
func strictQuantity(raw json.RawMessage) (int, error) {
	s, ok := rawQuantity(raw)
	if !ok {
		return 1, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errBadQuantity
	}
	return n, nil
}

// lenientQuantity is used for edits typed into the quantity field, where
// malformed input becomes 1.
func lenientQuantity(raw json.RawMessage) int {
	s, _ := rawQuantity(raw)
	return cart.ParseQuantity(s)
}
