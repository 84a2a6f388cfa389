// Package errors provides structured error types for the engine bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes context: argument path, expected Go type, the type found on
// the host side, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBinding, errors.KindTypeMismatch).
//		Path("setVolume", "value").
//		GoType("float32").
//		HostType("string").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Closed(errors.PhaseShared, "Engine has already been closed.")
//	err := errors.NotFound(errors.PhaseEngine, "audio track", 7)
//
// The bridge never retries or swallows domain errors; bindings render Message()
// and raise it in the host. All errors support errors.Is/As.
package errors
