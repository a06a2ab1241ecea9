// Package errors provides structured error types for the flutter-host library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: channel and method names, value path, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDispatch, errors.KindUnhandled).
//		Channel("flutter/textinput").
//		Method("TextInput.setClient").
//		Detail("no handler registered").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.DuplicateRegistration("channel", "flutter/platform")
//	err := errors.Overflow(errors.PhaseEncode, path, n, "uint32 size")
//
// Contract violations (platform thread affinity, double response) are raised
// as panics carrying an *Error so they surface loudly in development.
//
// Is matches on Phase and Kind. KindOf and HasKind inspect only the Kind,
// which is what most callers branch on:
//
//	if errors.HasKind(err, errors.KindClosed) {
//		return nil
//	}
package errors
