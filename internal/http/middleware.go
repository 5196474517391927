package http

import (
	"net/http"
	"time"

	"github.com/Platitedengi/idistr-mvp/internal/operator"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// OperatorMiddleware resolves the operator of every request. Requests
// without one are answered with the instruction to open the app properly.
func OperatorMiddleware(resolver *operator.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := resolver.Resolve(r)
			if !ok {
				respondError(w, http.StatusUnauthorized, "identity_required", msgIdentityRequired)
				return
			}
			next.ServeHTTP(w, r.WithContext(operator.WithOperator(r.Context(), id)))
		})
	}
}

// AccessLog writes one zap line per request.
func AccessLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()

			next.ServeHTTP(ww, r)

			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(started)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
