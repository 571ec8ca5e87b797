package resource

import (
	"context"
	"sync"
)

// Keyed is a resource whose producer takes a key. The collaborator signals
// argument changes explicitly through SetKey; there is no implicit
// structural diffing of arguments.
type Keyed[K comparable, T any] struct {
	*Resource[T]

	keyMu sync.Mutex
	key   K
}

// NewKeyed creates a keyed resource. The producer receives the key current
// at the time each invocation starts.
func NewKeyed[K comparable, T any](key K, fetcher func(context.Context, K) (T, error), opts ...Option) *Keyed[K, T] {
	k := &Keyed[K, T]{key: key}
	k.Resource = New(func(ctx context.Context) (T, error) {
		return fetcher(ctx, k.Key())
	}, opts...)
	return k
}

// Key returns the current key.
func (k *Keyed[K, T]) Key() K {
	k.keyMu.Lock()
	defer k.keyMu.Unlock()
	return k.key
}

// SetKey changes the key. An unchanged key is a no-op: in-flight work
// continues undisturbed. A changed key aborts the outstanding invocation
// and starts a fresh one; the superseded result is discarded either way.
func (k *Keyed[K, T]) SetKey(next K) {
	k.keyMu.Lock()
	if k.key == next {
		k.keyMu.Unlock()
		return
	}
	k.key = next
	k.keyMu.Unlock()

	k.mu.Lock()
	ctrl := k.ctrl
	k.mu.Unlock()
	if ctrl != nil {
		ctrl.Abort()
	}

	k.Revalidate()
}
