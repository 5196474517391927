package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Platitedengi/idistr-mvp/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pagedSource struct {
	total      int
	ignorePage bool
	err        error
	delay      time.Duration
	calls      atomic.Int32
}

func (s *pagedSource) GetProducts(_ context.Context, _ string, page, limit int) ([]domain.Product, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.ignorePage {
		page = 1
	}

	var out []domain.Product
	for i := (page - 1) * limit; i < page*limit && i < s.total; i++ {
		out = append(out, domain.Product{ID: fmt.Sprintf("P%d", i), Title: fmt.Sprintf("Product %d", i)})
	}
	return out, nil
}

func TestLoader_SinglePage(t *testing.T) {
	src := &pagedSource{total: 3}
	products, err := NewLoader(src, 10, nil).Products(context.Background())

	require.NoError(t, err)
	assert.Len(t, products, 3)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestLoader_WalksPages(t *testing.T) {
	src := &pagedSource{total: 25}
	products, err := NewLoader(src, 10, nil).Products(context.Background())

	require.NoError(t, err)
	assert.Len(t, products, 25)
	assert.Equal(t, int32(3), src.calls.Load())
}

func TestLoader_StopsWhenBackendIgnoresPaging(t *testing.T) {
	src := &pagedSource{total: 30, ignorePage: true}
	products, err := NewLoader(src, 10, nil).Products(context.Background())

	require.NoError(t, err)
	assert.Len(t, products, 10)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestLoader_Error(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewLoader(&pagedSource{err: boom}, 10, nil).Products(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "page 1")
}

func TestLoader_ConcurrentCallersShareFetch(t *testing.T) {
	src := &pagedSource{total: 5, delay: 50 * time.Millisecond}
	loader := NewLoader(src, 10, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			products, err := loader.Products(context.Background())
			assert.NoError(t, err)
			assert.Len(t, products, 5)
		}()
	}
	wg.Wait()

	assert.Less(t, src.calls.Load(), int32(5))
}

func TestNewLoader_DefaultLimit(t *testing.T) {
	assert.Equal(t, DefaultPageLimit, NewLoader(&pagedSource{}, 0, nil).limit)
}

type ctxSource struct{}

func (ctxSource) GetProducts(ctx context.Context, _ string, _, _ int) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []domain.Product{{ID: "P1", Title: "Widget"}}, nil
}

func TestLoader_SharedFetchIgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	products, err := NewLoader(ctxSource{}, 10, nil).Products(ctx)

	require.NoError(t, err)
	assert.Len(t, products, 1)
}
