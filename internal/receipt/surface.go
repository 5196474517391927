package receipt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// Surface presents a rendered receipt to the operator.
type Surface interface {
	Open(ctx context.Context, doc *Document) error
}

// DefaultShelfSize bounds how many receipts a Shelf keeps.
const DefaultShelfSize = 256

// Shelf keeps the most recent receipts in memory so they can be served for
// printing. The oldest receipt is evicted once the shelf is full.
type Shelf struct {
	mu    sync.RWMutex
	size  int
	order []string
	docs  map[string]*Document
}

func NewShelf(size int) *Shelf {
	if size < 1 {
		size = DefaultShelfSize
	}
	return &Shelf{
		size: size,
		docs: make(map[string]*Document, size),
	}
}

func (s *Shelf) Open(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[doc.OrderID]; !ok {
		s.order = append(s.order, doc.OrderID)
	}
	s.docs[doc.OrderID] = doc

	for len(s.order) > s.size {
		delete(s.docs, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

func (s *Shelf) Get(orderID string) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[orderID]
	return doc, ok
}

func (s *Shelf) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DirSurface writes each receipt to <dir>/<order_id>.html.
type DirSurface struct {
	dir string
}

func NewDirSurface(dir string) *DirSurface {
	return &DirSurface{dir: dir}
}

func (d *DirSurface) Open(_ context.Context, doc *Document) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("create receipt dir: %w", err)
	}
	path := d.Path(doc.OrderID)
	if err := os.WriteFile(path, doc.HTML, 0o644); err != nil {
		return fmt.Errorf("write receipt %s: %w", path, err)
	}
	return nil
}

// Path is where the receipt of orderID is written.
func (d *DirSurface) Path(orderID string) string {
	name := unsafeFileChars.ReplaceAllString(orderID, "_")
	if name == "" || name == "." || name == ".." {
		name = "_"
	}
	return filepath.Join(d.dir, name+".html")
}
