// Package errors provides structured error types for the wasi-http bindings.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). Every *Error that escapes a binding is fatal to the guest call:
// it signals a broken calling convention (bad pointer, invalid UTF-8, missing
// export) or an allocator or host failure. Conditions the guest is expected to
// handle, such as HTTP timeouts, never become an *Error; they are encoded into
// guest memory instead.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
//		Path("wasi:http/types", "new-fields").
//		Detail("record %d past end of memory", i).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.BufferTooSmall(errors.PhaseDecode, offset, length, size)
//	err := errors.MissingExport(errors.PhaseAlloc, "cabi_realloc")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
