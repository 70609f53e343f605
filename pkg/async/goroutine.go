package async

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/platinummonkey/extensions/pkg/observability"
)

// SafeGo executes a function in a goroutine with:
// - Context cancellation support
// - Panic recovery
// - Optional timeout enforcement (timeout <= 0 means none)
// - Error logging
//
// Use this instead of bare `go func()` when running plugin-supplied code.
//
// Example:
//
//	SafeGo(ctx, logger, 0, "manifest watch", func(ctx context.Context) error {
//	    return watcher.Run(ctx)
//	})
func SafeGo(parentCtx context.Context, logger observability.Logger, timeout time.Duration, taskName string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := withOptionalTimeout(parentCtx, timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				logger.Error("PANIC in background task",
					"task", taskName,
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()),
				)
			}
		}()

		if err := fn(ctx); err != nil {
			logger.Error("Background task failed", "task", taskName, "error", err)
		}
	}()
}

// Settled is the outcome of one task started by Settle
type Settled[T any] struct {
	// Index is the task's position in the slice passed to Settle
	Index int
	Value T
	Err   error
}

// Settle starts every task at once and delivers each outcome on the returned
// channel as soon as that task returns, in settlement order. A panicking task
// settles with an error. The channel closes once every task has settled or ctx
// is done, whichever comes first; a task that never returns only delays the
// close, never the delivery of its siblings.
//
// Example:
//
//	for s := range async.Settle(ctx, tasks) {
//	    if s.Err != nil {
//	        continue
//	    }
//	    settled = append(settled, s.Value)
//	    emit(settled)
//	}
func Settle[T any](ctx context.Context, tasks []func(context.Context) (T, error)) <-chan Settled[T] {
	out := make(chan Settled[T], len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task func(context.Context) (T, error)) {
			defer wg.Done()

			s := Settled[T]{Index: i}
			func() {
				defer func() {
					if err := observability.MustRecover(recover()); err != nil {
						s.Err = err
					}
				}()
				s.Value, s.Err = task(ctx)
			}()

			select {
			case out <- s:
			case <-ctx.Done():
			}
		}(i, task)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	// The forwarding channel lets callers stop ranging when ctx ends even if a
	// task is stuck.
	result := make(chan Settled[T])
	go func() {
		defer close(result)
		for {
			select {
			case s := <-out:
				select {
				case result <- s:
				case <-ctx.Done():
					return
				}
			case <-done:
				for {
					select {
					case s := <-out:
						select {
						case result <- s:
						case <-ctx.Done():
							return
						}
					default:
						return
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return result
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
