package http

import (
	"net/http"
	"time"

	"github.com/Platitedengi/idistr-mvp/internal/operator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

func NewRouter(h *TerminalHandler, resolver *operator.Resolver, cfg RouterConfig, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(AccessLog(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/receipts/{order_id}", h.GetReceipt)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Use(OperatorMiddleware(resolver))

		r.Get("/session", h.GetSession)
		r.Post("/reset", h.Reset)

		r.Get("/stores", h.ListStores)
		r.Put("/store", h.SelectStore)

		r.Get("/products", h.ListProducts)
		r.Get("/categories", h.ListCategories)
		r.Get("/recents", h.ListRecents)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddItem)
			r.Delete("/items/unresolved", h.RemoveUnresolved)
			r.Put("/items/{product_id}", h.UpdateQuantity)
			r.Delete("/items/{product_id}", h.RemoveItem)
			r.Put("/note", h.SetNote)
		})

		r.Post("/checkout", h.Checkout)
	})

	return r
}
