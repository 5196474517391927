// Package field provides persistent values: a value bound to a durable key,
// rehydrated on construction and written back on every change.
//
// Storage faults never surface to callers. A missing or unreadable value falls
// back to the initial one, and a failed write is logged and dropped.
package field

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Platitedengi/idistr-mvp/internal/storage"
	"go.uber.org/zap"
)

const defaultWriteTimeout = 2 * time.Second

// Codec turns values into bytes and back.
type Codec[T any] struct {
	Encode func(T) ([]byte, error)
	Decode func([]byte) (T, error)
}

func JSONCodec[T any]() Codec[T] {
	return Codec[T]{
		Encode: func(v T) ([]byte, error) { return json.Marshal(v) },
		Decode: func(b []byte) (T, error) {
			var v T
			err := json.Unmarshal(b, &v)
			return v, err
		},
	}
}

type Option[T any] func(*Field[T])

func WithCodec[T any](c Codec[T]) Option[T] {
	return func(f *Field[T]) { f.codec = c }
}

func WithLogger[T any](l *zap.Logger) Option[T] {
	return func(f *Field[T]) {
		if l != nil {
			f.log = l
		}
	}
}

func WithWriteTimeout[T any](d time.Duration) Option[T] {
	return func(f *Field[T]) { f.writeTimeout = d }
}

type Field[T any] struct {
	mu           sync.RWMutex
	store        storage.Store
	key          string
	value        T
	codec        Codec[T]
	log          *zap.Logger
	writeTimeout time.Duration
}

// New binds a field to key and loads its last stored value.
func New[T any](ctx context.Context, store storage.Store, key string, initial T, opts ...Option[T]) *Field[T] {
	f := &Field[T]{
		store:        store,
		key:          key,
		value:        initial,
		codec:        JSONCodec[T](),
		log:          zap.NewNop(),
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.load(ctx)
	return f
}

func (f *Field[T]) load(ctx context.Context) {
	raw, err := f.store.Get(ctx, f.key)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			f.log.Warn("field read failed, using initial value", zap.String("key", f.key), zap.Error(err))
		}
		return
	}

	v, err := f.codec.Decode(raw)
	if err != nil {
		f.log.Warn("field value is corrupt, using initial value", zap.String("key", f.key), zap.Error(err))
		return
	}
	f.value = v
}

func (f *Field[T]) Key() string {
	return f.key
}

func (f *Field[T]) Get() T {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value
}

func (f *Field[T]) Set(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = v
	f.persist(v)
}

// Update replaces the value with fn(current) atomically with respect to other
// writers of this field.
func (f *Field[T]) Update(fn func(T) T) T {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = fn(f.value)
	f.persist(f.value)
	return f.value
}

func (f *Field[T]) persist(v T) {
	raw, err := f.codec.Encode(v)
	if err != nil {
		f.log.Warn("field encode failed", zap.String("key", f.key), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.writeTimeout)
	defer cancel()
	if err := f.store.Set(ctx, f.key, raw); err != nil {
		f.log.Warn("field write failed", zap.String("key", f.key), zap.Error(err))
	}
}
