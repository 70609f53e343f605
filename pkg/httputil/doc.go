// Package httputil provides the JSON response helpers and middleware used by
// the metrics and health server.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "not ready")
//	httputil.WriteMethodNotAllowed(w, http.MethodGet)
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.ReadOnlyMiddleware,
//	)(mux)
//
// LoggingMiddleware stores the logger in the request context, so handlers can
// use observability.FromContext to log with the request id attached.
package httputil
