package terminal

import (
	"context"
	"sync"
	"time"

	"github.com/Platitedengi/idistr-mvp/internal/domain"
	"github.com/Platitedengi/idistr-mvp/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Registry owns one Terminal per operator. A session is only registered once
// its bootstrap succeeded, so a failed load is retried on the next request.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Terminal
	sfg      singleflight.Group
	deps     Deps
	log      *zap.Logger
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{
		sessions: make(map[string]*Terminal),
		deps:     deps,
		log:      logger.OrNop(deps.Log),
	}
}

// Session returns the bootstrapped session of operatorID, creating it on
// first use.
func (r *Registry) Session(ctx context.Context, operatorID string) (*Terminal, error) {
	operatorID = domain.CanonicalID(operatorID)
	if operatorID == "" {
		return nil, ErrIdentityMissing
	}

	r.mu.RLock()
	t, ok := r.sessions[operatorID]
	r.mu.RUnlock()
	if ok {
		t.touch()
		return t, nil
	}

	v, err, _ := r.sfg.Do(operatorID, func() (interface{}, error) {
		// Waiters share this bootstrap, so it outlives the caller that started it.
		ctx := context.WithoutCancel(ctx)
		t := New(ctx, operatorID, r.deps)
		if err := t.Bootstrap(ctx); err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.sessions[operatorID] = t
		r.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Terminal), nil
}

// Forget drops a cached session so the next request bootstraps again.
func (r *Registry) Forget(operatorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, operatorID)
}

// EvictIdle drops sessions not used since before and returns their operator
// ids. Sessions with a submission in flight are kept. Persisted state stays in
// the store and is reloaded, with a fresh catalog, on the next request.
func (r *Registry) EvictIdle(before time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for id, t := range r.sessions {
		if !t.LastUsed().Before(before) {
			continue
		}
		if t.SubmissionStatus() == domain.SubmissionSubmitting {
			continue
		}
		delete(r.sessions, id)
		evicted = append(evicted, id)
	}
	return evicted
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
