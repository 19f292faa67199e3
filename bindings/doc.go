// Package bindings exposes a host.Host to guests as the flat-integer
// wasi-http imports.
//
// Each entry of the binding table reads its fixed positional arguments,
// decodes them from guest memory, calls the host, and writes the encoded
// result either as the function's single return value or to the out-pointer
// the guest passed as its last argument.
//
// Namespaces:
//
//	wasi:http/outgoing-handler  handle
//	wasi:http/types             requests, responses, futures, fields
//	wasi:io/streams             read, write, subscribe, drop
//	wasi:poll/poll              poll-oneoff, drop-pollable
//
// Errors the guest can act on (HTTP failures, stream failures) are encoded
// as data. Everything else (out-of-bounds pointers, invalid UTF-8, missing
// exports, failed allocations, host failures) aborts the guest call: the
// handler logs the error and panics with an *errors.Error whose path names
// the binding, which the engine surfaces as a trap.
//
// Guest memory and the allocator are resolved on every call. Nothing
// retains a reference to guest memory after a handler returns.
package bindings
