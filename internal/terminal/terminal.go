// Package terminal holds the per-operator order-taking session: catalog,
// cart, selected store and the checkout flow that ties them together.
package terminal

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Platitedengi/idistr-mvp/internal/cart"
	"github.com/Platitedengi/idistr-mvp/internal/catalog"
	"github.com/Platitedengi/idistr-mvp/internal/domain"
	"github.com/Platitedengi/idistr-mvp/internal/field"
	"github.com/Platitedengi/idistr-mvp/internal/gateway"
	"github.com/Platitedengi/idistr-mvp/internal/order"
	"github.com/Platitedengi/idistr-mvp/internal/receipt"
	"github.com/Platitedengi/idistr-mvp/internal/storage"
	"github.com/Platitedengi/idistr-mvp/pkg/logger"
	"go.uber.org/zap"
)

const NamespacePrefix = "idistr."

// Namespace is the storage key prefix of one operator's persisted state.
func Namespace(operatorID string) string {
	return NamespacePrefix + operatorID
}

func StoreKey(namespace string) string { return namespace + ".store" }

// Backend is the subset of the gateway a session calls.
type Backend interface {
	GetRepMe(ctx context.Context, telegramID string) (*gateway.RepMe, error)
	CreateOrder(ctx context.Context, draft *domain.OrderDraft) (*domain.OrderResult, error)
}

// ProductLoader supplies the full product list.
type ProductLoader interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

// Deps are shared by every session of a Registry.
type Deps struct {
	Store   storage.Store
	Backend Backend
	Loader  ProductLoader
	Issuer  *receipt.Issuer
	Log     *zap.Logger
	Now     func() time.Time
}

type Terminal struct {
	mu         sync.Mutex
	operatorID string
	namespace  string
	deps       Deps
	log        *zap.Logger

	rep       *domain.Rep
	catalog   *catalog.Catalog
	ledger    *cart.Ledger
	selected  *field.Field[string]
	submitter *order.Submitter

	lastUsed atomic.Int64 // unix nanoseconds
}

// CheckoutResult is the outcome of a successful checkout. Receipt is nil for
// non-cash payments.
type CheckoutResult struct {
	OrderID string
	Total   float64
	Receipt *receipt.Document
}

// New creates a session and loads its persisted state. Call Bootstrap before
// using the catalog.
func New(ctx context.Context, operatorID string, deps Deps) *Terminal {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	log := logger.OrNop(deps.Log).With(zap.String("operator_id", operatorID))

	t := &Terminal{
		operatorID: operatorID,
		namespace:  Namespace(operatorID),
		deps:       deps,
		log:        log,
		catalog:    catalog.New(),
		submitter:  order.NewSubmitter(deps.Backend, log),
	}
	t.openFields(ctx)
	t.touch()
	return t
}

func (t *Terminal) touch() {
	t.lastUsed.Store(t.deps.Now().UnixNano())
}

// LastUsed is when the registry last handed this session out.
func (t *Terminal) LastUsed() time.Time {
	return time.Unix(0, t.lastUsed.Load())
}

func (t *Terminal) openFields(ctx context.Context) {
	t.ledger = cart.NewLedger(ctx, t.deps.Store, t.namespace, t.log)
	t.selected = field.New(ctx, t.deps.Store, StoreKey(t.namespace), "",
		field.WithLogger[string](t.log))
}

// Bootstrap loads the operator profile, stores and products, then repairs
// cart lines persisted without a usable product id. Nothing is published
// unless every fetch succeeds.
func (t *Terminal) Bootstrap(ctx context.Context) error {
	log := logger.WithTrace(ctx, t.log)

	me, err := t.deps.Backend.GetRepMe(ctx, t.operatorID)
	if err != nil {
		err = classifyRepError(err)
		log.Warn("operator lookup failed", zap.Error(err))
		return err
	}

	products, err := t.deps.Loader.Products(ctx)
	if err != nil {
		log.Warn("catalog load failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.rep = me.Rep
	t.catalog.Populate(me.Stores, products)
	repaired := t.ledger.Reconcile(t.catalog)

	log.Info("session ready",
		zap.Int("stores", len(me.Stores)),
		zap.Int("products", len(products)),
		zap.Int("cart_lines", t.ledger.Len()),
		zap.Int("repaired", repaired))
	return nil
}

func (t *Terminal) OperatorID() string {
	return t.operatorID
}

func (t *Terminal) Rep() *domain.Rep {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rep
}

// Catalog is read-only once bootstrapped.
func (t *Terminal) Catalog() *catalog.Catalog {
	return t.catalog
}

func (t *Terminal) SelectedStore() (domain.Store, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.catalog.StoreByID(t.selected.Get())
}

func (t *Terminal) SelectStore(id string) (domain.Store, error) {
	id = domain.CanonicalID(id)

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.catalog.StoreByID(id)
	if !ok {
		return domain.Store{}, fmt.Errorf("%w: %q", ErrUnknownStore, id)
	}
	t.selected.Set(s.ID)
	return s, nil
}

// AddItem adds qty units of a catalog product to the cart.
func (t *Terminal) AddItem(productID string, qty int) error {
	productID = domain.CanonicalID(productID)

	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.catalog.ProductByID(productID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProduct, productID)
	}
	return t.ledger.Add(p, qty)
}

func (t *Terminal) SetQuantity(productID string, qty int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ledger.SetQuantity(domain.CanonicalID(productID), qty)
}

func (t *Terminal) RemoveItem(productID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ledger.Remove(domain.CanonicalID(productID))
}

// RemoveUnresolved drops the cart lines checkout would reject as unresolved.
func (t *Terminal) RemoveUnresolved() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.RemoveUnresolved(t.catalog)
}

func (t *Terminal) ClearCart() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ledger.Clear()
}

func (t *Terminal) SetNote(note string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ledger.SetNote(note)
}

// CartView is a consistent snapshot of the cart.
type CartView struct {
	Lines []domain.CartLine
	Total float64
	Note  string
}

func (t *Terminal) Cart() CartView {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines := t.ledger.Lines()
	return CartView{Lines: lines, Total: cart.Total(lines), Note: t.ledger.Note()}
}

func (t *Terminal) Recents() []domain.Product {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.RecentProducts(t.catalog)
}

func (t *Terminal) SubmissionStatus() domain.SubmissionStatus {
	return t.submitter.Status()
}

// Checkout validates the cart, submits the order and, once the backend has
// assigned an order id, issues the receipt and clears the cart. On any
// failure the cart is left exactly as it was.
func (t *Terminal) Checkout(ctx context.Context, payment domain.PaymentSelection) (*CheckoutResult, error) {
	t.mu.Lock()
	lines := t.ledger.Lines()
	note := t.ledger.Note()
	storeID := t.selected.Get()
	store, _ := t.catalog.StoreByID(storeID)
	draft, err := order.Build(lines, storeID, t.operatorID, payment, note, t.catalog)
	t.mu.Unlock()
	if err != nil {
		return nil, err
	}

	// The cart stays editable while the request is in flight.
	res, err := t.submitter.Submit(ctx, draft)
	if err != nil {
		return nil, err
	}

	out := &CheckoutResult{OrderID: res.OrderID, Total: draft.Total()}
	if t.deps.Issuer != nil {
		out.Receipt = t.deps.Issuer.Issue(ctx, receipt.Input{
			OrderID:  res.OrderID,
			IssuedAt: t.deps.Now(),
			Store:    store,
			Lines:    lines,
			Payment:  draft.Payment,
			Note:     note,
		})
	}

	t.mu.Lock()
	t.ledger.Clear()
	t.mu.Unlock()
	return out, nil
}

// Reset wipes everything persisted for the operator and starts from an empty
// cart and no selected store. The catalog is kept.
func (t *Terminal) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, err := storage.DeletePrefix(ctx, t.deps.Store, t.namespace+".")
	if err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}
	t.openFields(ctx)
	t.log.Info("session reset", zap.Int("keys", n))
	return nil
}
