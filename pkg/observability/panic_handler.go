package observability

import (
	"fmt"
	"runtime/debug"
)

// RecoverPanic recovers from a panic and logs it with structured logging
//
// Usage in defer statements:
//
//	func runCallback() {
//	    defer observability.RecoverPanic(logger, "configure callback")
//	    // ... plugin code that might panic
//	}
//
// After logging, the panic is NOT re-raised.
func RecoverPanic(logger Logger, where string) {
	if r := recover(); r != nil {
		logger.Error("PANIC recovered",
			"panic", fmt.Sprint(r),
			"stack", string(debug.Stack()),
			"context", where,
		)
	}
}

// MustRecover converts a recovered panic value into an error
//
//	func callPlugin() (err error) {
//	    defer func() {
//	        if p := observability.MustRecover(recover()); p != nil {
//	            err = p
//	        }
//	    }()
//	    ...
//	}
//
// If r is nil, returns nil.
func MustRecover(r interface{}) error {
	if r == nil {
		return nil
	}
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
