package catalog

import (
	"context"
	"fmt"

	"github.com/Platitedengi/idistr-mvp/internal/domain"
	"github.com/Platitedengi/idistr-mvp/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultPageLimit = 100
	maxPages         = 50
)

// ProductSource is the backend product listing.
type ProductSource interface {
	GetProducts(ctx context.Context, search string, page, limit int) ([]domain.Product, error)
}

// Loader fetches the full product list. Concurrent callers share one fetch,
// which is not cancelled when the caller that started it goes away.
type Loader struct {
	src   ProductSource
	limit int
	log   *zap.Logger
	sfg   singleflight.Group
}

func NewLoader(src ProductSource, limit int, log *zap.Logger) *Loader {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return &Loader{src: src, limit: limit, log: logger.OrNop(log)}
}

func (l *Loader) Products(ctx context.Context) ([]domain.Product, error) {
	v, err, shared := l.sfg.Do("products", func() (interface{}, error) {
		return l.fetchAll(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	if shared {
		l.log.Debug("product fetch shared between sessions")
	}
	return append([]domain.Product(nil), v.([]domain.Product)...), nil
}

// fetchAll walks pages until a short page, or until a page adds nothing new
// (backends that ignore the page parameter keep returning page one).
func (l *Loader) fetchAll(ctx context.Context) ([]domain.Product, error) {
	var all []domain.Product
	seen := make(map[string]struct{})

	for page := 1; page <= maxPages; page++ {
		items, err := l.src.GetProducts(ctx, "", page, l.limit)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch products page %d: %w", page, err)
		}

		added := 0
		for _, p := range items {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			all = append(all, p)
			added++
		}

		if len(items) < l.limit || added == 0 {
			break
		}
	}

	l.log.Info("catalog loaded", zap.Int("products", len(all)))
	return all, nil
}
