// Package async provides safe concurrent execution primitives for plugin-supplied code.
//
// # Overview
//
// Plugin callbacks are untrusted: they may block forever, panic, or return errors.
// This package runs them off the caller's goroutine with panic recovery and context
// cancellation.
//
// # Key Functions
//
// SafeGo: Execute function in goroutine with safety features
//
//	async.SafeGo(ctx, logger, 0, "manifest watch", func(ctx context.Context) error {
//		return watcher.Run(ctx)
//	})
//
// Settle: start every task at once, receive each outcome as it settles
//
//	for s := range async.Settle(ctx, tasks) {
//		if s.Err != nil {
//			continue
//		}
//		emit(s.Value)
//	}
//
// # Related Packages
//
//   - pkg/resolver: Uses Settle for incremental configure results
//   - cmd/extensions-lint: Uses SafeGo for the manifest watcher
package async
