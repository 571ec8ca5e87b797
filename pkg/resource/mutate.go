package resource

import (
	"context"
	"fmt"
)

// MutateOptions is the configuration for a single Mutate call. The zero
// value runs the operation with no optimistic update and revalidates after
// success.
type MutateOptions[T any] struct {
	// Optimistic, if set, is applied to the displayed data synchronously
	// the instant Mutate is invoked, before the operation settles.
	Optimistic func(T) T

	// RollbackOnError, if set, produces the recovery value when the
	// operation fails after an optimistic update. It receives the
	// optimistic data, not the pre-mutation data, so rollback composes
	// onto the speculative value.
	RollbackOnError func(T) T

	// SkipRevalidate commits the operation's resolved value directly on
	// success. By default a successful mutation triggers a fresh
	// revalidation instead, treating the optimistic or returned value as
	// provisional until the producer confirms it.
	SkipRevalidate bool
}

// Mutate runs an arbitrary asynchronous side-effecting operation and lets
// the resource state reflect it. The mutation shares the generation
// counter with revalidations, so any in-flight fetch from before the
// mutate is superseded and its result discarded.
//
// Overlapping Mutate calls are not queued against each other: a second
// call applies its optimistic update on top of whatever state existed when
// it was invoked. Callers needing strict ordering must serialize.
//
// The returned handle settles with the mutation's own outcome, independent
// of any follow-up revalidation.
func (r *Resource[T]) Mutate(op func(context.Context) (T, error), opts ...MutateOptions[T]) *Handle[T] {
	var cfg MutateOptions[T]
	if len(opts) > 0 {
		cfg = opts[0]
	}

	h := newHandle[T]()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		var zero T
		h.settle(zero, ErrClosed)
		return h
	}
	r.gen++
	gen := r.gen
	r.mu.Unlock()

	optimistic := cfg.Optimistic != nil
	if optimistic {
		r.data.Update(cfg.Optimistic)
		r.logDebug("optimistic update applied", "gen", gen)
	}
	r.state.Set(Loading)

	go r.runMutate(gen, cfg, optimistic, op, h)
	return h
}

// runMutate executes the operation off the loop and commits its outcome
// under the generation discipline.
func (r *Resource[T]) runMutate(gen uint64, cfg MutateOptions[T], optimistic bool, op func(context.Context) (T, error), h *Handle[T]) {
	result, err := r.invokeMutation(op)

	if r.observer != nil {
		r.observer.MutationDone(err)
	}
	h.settle(result, err)

	r.dispatch(func() {
		if !r.isCurrent(gen) {
			r.logDebug("superseded mutation discarded", "gen", gen)
			return
		}

		if err != nil {
			if optimistic && cfg.RollbackOnError != nil {
				r.data.Update(cfg.RollbackOnError)
				r.err.Set(err)
				r.state.Set(Error)
				r.logDebug("mutation rolled back", "gen", gen, "error", err)
				if r.observer != nil {
					r.observer.RolledBack()
				}
				if fn := r.errorCallback(); fn != nil {
					fn(err)
				}
				return
			}
			// No rollback value: the optimistic data is cleared along
			// with the failure commit.
			r.commitError(err)
			return
		}

		if cfg.SkipRevalidate {
			r.commitData(result)
			return
		}

		// Resynchronize with the source of truth; the optimistic value
		// stays displayed while the revalidation is in flight.
		r.Revalidate()
	})
}

// invokeMutation runs the operation once, converting a panic into an error.
func (r *Resource[T]) invokeMutation(op func(context.Context) (T, error)) (result T, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("refetch: mutation panic: %v", v)
		}
	}()
	return op(r.stdContext())
}
