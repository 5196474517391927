package cart

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/Platitedengi/idistr-mvp/internal/domain"
	"github.com/Platitedengi/idistr-mvp/internal/field"
	"github.com/Platitedengi/idistr-mvp/internal/storage"
	"github.com/Platitedengi/idistr-mvp/pkg/logger"
	"go.uber.org/zap"
)

// MaxRecents bounds the recently added product list.
const MaxRecents = 10

var (
	ErrInvalidQuantity  = errors.New("quantity must be a positive integer")
	ErrMissingProductID = errors.New("product has no id")
)

// ProductIndex is the part of the catalog reconciliation needs.
type ProductIndex interface {
	ProductByID(id string) (domain.Product, bool)
	MatchLegacy(sku, title string) (domain.Product, bool)
}

// CartKey is the storage key of the cart lines under namespace.
func CartKey(namespace string) string { return namespace + ".cart" }

// RecentsKey is the storage key of the recently added product ids.
func RecentsKey(namespace string) string { return namespace + ".recents" }

// Ledger is the persisted cart of one operator. The note is kept in memory
// only and is dropped together with the lines on Clear.
type Ledger struct {
	mu      sync.Mutex
	lines   *field.Field[[]domain.CartLine]
	recents *field.Field[[]string]
	note    string
	log     *zap.Logger
}

func NewLedger(ctx context.Context, store storage.Store, namespace string, log *zap.Logger) *Ledger {
	log = logger.OrNop(log)
	return &Ledger{
		lines: field.New(ctx, store, CartKey(namespace), []domain.CartLine{},
			field.WithLogger[[]domain.CartLine](log)),
		recents: field.New(ctx, store, RecentsKey(namespace), []string{},
			field.WithLogger[[]string](log)),
		log: log,
	}
}

// Add puts qty units of product into the cart. An existing line for the same
// product accumulates; a new line snapshots the product's current price.
func (l *Ledger) Add(product domain.Product, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if product.ID == "" {
		return ErrMissingProductID
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pushRecent(product.ID)
	l.lines.Update(func(old []domain.CartLine) []domain.CartLine {
		out := cloneLines(old)
		for i := range out {
			if out[i].ID == product.ID {
				out[i].Qty += qty
				return out
			}
		}
		return append(out, domain.CartLine{
			ID:    product.ID,
			Title: product.Title,
			SKU:   product.SKU,
			Price: product.Price,
			Qty:   qty,
		})
	})
	return nil
}

func (l *Ledger) pushRecent(id string) {
	l.recents.Update(func(old []string) []string {
		out := make([]string, 0, MaxRecents)
		out = append(out, id)
		for _, x := range old {
			if x != id && len(out) < MaxRecents {
				out = append(out, x)
			}
		}
		return out
	})
}

// SetQuantity sets the quantity of the line with id, clamped to at least 1.
func (l *Ledger) SetQuantity(id string, qty int) {
	if id == "" {
		return
	}
	if qty < 1 {
		qty = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines.Update(func(old []domain.CartLine) []domain.CartLine {
		out := cloneLines(old)
		for i := range out {
			if out[i].ID == id {
				out[i].Qty = qty
			}
		}
		return out
	})
}

// ParseQuantity coerces raw quantity input from a form field. Anything that
// is not a positive whole number becomes 1.
func ParseQuantity(raw string) int {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return max(n, 1)
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64); err == nil && f >= 1 && f < 1e9 {
		return int(f)
	}
	return 1
}

// Remove deletes the line with id. An empty id removes the lines that have
// no id yet, which is how an operator drops an unresolvable legacy line.
func (l *Ledger) Remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines.Update(func(old []domain.CartLine) []domain.CartLine {
		out := make([]domain.CartLine, 0, len(old))
		for _, line := range old {
			if line.ID != id {
				out = append(out, line)
			}
		}
		return out
	})
}

// RemoveUnresolved drops every line whose id is empty or names no catalog
// product and returns how many were removed.
func (l *Ledger) RemoveUnresolved(idx ProductIndex) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	l.lines.Update(func(old []domain.CartLine) []domain.CartLine {
		out := make([]domain.CartLine, 0, len(old))
		for _, line := range old {
			if line.ID != "" {
				if _, ok := idx.ProductByID(line.ID); ok {
					out = append(out, line)
					continue
				}
			}
			removed++
		}
		return out
	})
	if removed > 0 {
		l.log.Info("unresolved cart lines removed", zap.Int("removed", removed))
	}
	return removed
}

// Clear empties the cart and the note.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines.Set([]domain.CartLine{})
	l.note = ""
}

func (l *Ledger) Lines() []domain.CartLine {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneLines(l.lines.Get())
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines.Get())
}

// Total is the sum of price times quantity over all lines.
func (l *Ledger) Total() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Total(l.lines.Get())
}

func Total(lines []domain.CartLine) float64 {
	var total float64
	for _, line := range lines {
		total += line.Subtotal()
	}
	return total
}

func (l *Ledger) Note() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.note
}

func (l *Ledger) SetNote(note string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.note = note
}

// Recents returns recently added product ids, most recent first.
func (l *Ledger) Recents() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.recents.Get()...)
}

// RecentProducts resolves Recents against the catalog, skipping ids it no
// longer has.
func (l *Ledger) RecentProducts(idx ProductIndex) []domain.Product {
	out := make([]domain.Product, 0)
	for _, id := range l.Recents() {
		if p, ok := idx.ProductByID(id); ok {
			out = append(out, p)
		}
	}
	return out
}

// Reconcile repairs lines whose id does not resolve in the catalog, matching
// by SKU and then title. Only the id is rewritten. A match that would collide
// with another line's id is skipped, so the line stays unresolved instead of
// duplicating a product. Returns the number of repaired lines.
func (l *Ledger) Reconcile(idx ProductIndex) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	repaired := 0
	l.lines.Update(func(old []domain.CartLine) []domain.CartLine {
		out := cloneLines(old)
		taken := make(map[string]struct{}, len(out))
		for _, line := range out {
			if _, ok := idx.ProductByID(line.ID); ok {
				taken[line.ID] = struct{}{}
			}
		}

		for i := range out {
			if _, ok := idx.ProductByID(out[i].ID); ok {
				continue
			}
			p, ok := idx.MatchLegacy(out[i].SKU, out[i].Title)
			if !ok {
				continue
			}
			if _, dup := taken[p.ID]; dup {
				l.log.Warn("legacy cart line matches a product already in the cart",
					zap.String("sku", out[i].SKU), zap.String("product_id", p.ID))
				continue
			}
			out[i].ID = p.ID
			taken[p.ID] = struct{}{}
			repaired++
		}
		return out
	})

	if repaired > 0 {
		l.log.Info("cart reconciled", zap.Int("repaired", repaired))
	}
	return repaired
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out
}
