// Package operator works out which sales rep is using the terminal.
package operator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/Platitedengi/idistr-mvp/internal/domain"
)

const (
	InitDataHeader   = "X-Telegram-Init-Data"
	InitDataQuery    = "tgWebAppData"
	TelegramIDHeader = "X-Telegram-Id"
	TelegramIDQuery  = "tid"
)

// Source is one place an operator id can come from. A Source that is not
// available on the request reports false.
type Source interface {
	Lookup(r *http.Request) (string, bool)
}

type SourceFunc func(r *http.Request) (string, bool)

func (f SourceFunc) Lookup(r *http.Request) (string, bool) { return f(r) }

// HostContext reads the user id from chat-platform init data, passed either
// as a header or the tgWebAppData query value. The signature is not checked.
func HostContext() Source {
	return SourceFunc(func(r *http.Request) (string, bool) {
		raw := r.Header.Get(InitDataHeader)
		if raw == "" {
			raw = r.URL.Query().Get(InitDataQuery)
		}
		if raw == "" {
			return "", false
		}
		return UserIDFromInitData(raw)
	})
}

// QueryParam reads the id from a plain query parameter.
func QueryParam(name string) Source {
	return SourceFunc(func(r *http.Request) (string, bool) {
		return nonEmpty(r.URL.Query().Get(name))
	})
}

func Header(name string) Source {
	return SourceFunc(func(r *http.Request) (string, bool) {
		return nonEmpty(r.Header.Get(name))
	})
}

// UserIDFromInitData extracts user.id from URL-encoded init data.
func UserIDFromInitData(raw string) (string, bool) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return "", false
	}
	userJSON := values.Get("user")
	if userJSON == "" {
		return "", false
	}

	var user struct {
		ID domain.Text `json:"id"`
	}
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return "", false
	}
	return nonEmpty(string(user.ID))
}

// Resolver asks each source in order and returns the first id found.
type Resolver struct {
	sources []Source
}

func NewResolver(sources ...Source) *Resolver {
	return &Resolver{sources: sources}
}

// DefaultResolver prefers host init data, then the tid query parameter, then
// the X-Telegram-Id header.
func DefaultResolver() *Resolver {
	return NewResolver(
		HostContext(),
		QueryParam(TelegramIDQuery),
		Header(TelegramIDHeader),
	)
}

func (res *Resolver) Resolve(r *http.Request) (string, bool) {
	for _, s := range res.sources {
		if id, ok := s.Lookup(r); ok {
			return id, true
		}
	}
	return "", false
}

func nonEmpty(s string) (string, bool) {
	s = domain.CanonicalID(strings.TrimSpace(s))
	return s, s != ""
}

type ctxKey struct{}

func WithOperator(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}
