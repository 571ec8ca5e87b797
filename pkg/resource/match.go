package resource

// Handler handles a specific resource state for Match.
type Handler[T, V any] interface {
	handle(snap Snapshot[T]) (V, bool)
}

// Match evaluates the handlers in order against the resource's current
// snapshot and returns the first match. ok is false when no handler
// matched the current state.
func Match[T, V any](r *Resource[T], handlers ...Handler[T, V]) (result V, ok bool) {
	snap := r.Snapshot()
	for _, h := range handlers {
		if v, matched := h.handle(snap); matched {
			return v, true
		}
	}
	return result, false
}

type pendingHandler[T, V any] struct {
	fn func() V
}

func (h pendingHandler[T, V]) handle(snap Snapshot[T]) (V, bool) {
	if snap.State == Pending {
		return h.fn(), true
	}
	var zero V
	return zero, false
}

type loadingHandler[T, V any] struct {
	fn func() V
}

func (h loadingHandler[T, V]) handle(snap Snapshot[T]) (V, bool) {
	if snap.State == Loading {
		return h.fn(), true
	}
	var zero V
	return zero, false
}

type errorHandler[T, V any] struct {
	fn func(error) V
}

func (h errorHandler[T, V]) handle(snap Snapshot[T]) (V, bool) {
	if snap.State == Error {
		return h.fn(snap.Err), true
	}
	var zero V
	return zero, false
}

type readyHandler[T, V any] struct {
	fn func(T) V
}

func (h readyHandler[T, V]) handle(snap Snapshot[T]) (V, bool) {
	if snap.State == Ready {
		return h.fn(snap.Data), true
	}
	var zero V
	return zero, false
}

type waitingHandler[T, V any] struct {
	fn func() V
}

func (h waitingHandler[T, V]) handle(snap Snapshot[T]) (V, bool) {
	if snap.State == Loading || snap.State == Pending {
		return h.fn(), true
	}
	var zero V
	return zero, false
}

// OnPending handles the Pending state.
func OnPending[T, V any](fn func() V) Handler[T, V] {
	return pendingHandler[T, V]{fn: fn}
}

// OnLoading handles the Loading state.
func OnLoading[T, V any](fn func() V) Handler[T, V] {
	return loadingHandler[T, V]{fn: fn}
}

// OnFailure handles the Error state.
func OnFailure[T, V any](fn func(error) V) Handler[T, V] {
	return errorHandler[T, V]{fn: fn}
}

// OnReady handles the Ready state.
func OnReady[T, V any](fn func(T) V) Handler[T, V] {
	return readyHandler[T, V]{fn: fn}
}

// OnWaiting handles both Loading and Pending.
func OnWaiting[T, V any](fn func() V) Handler[T, V] {
	return waitingHandler[T, V]{fn: fn}
}
