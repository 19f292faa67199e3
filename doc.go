// Package wasihttp exposes host HTTP and I/O capabilities to a sandboxed
// WebAssembly guest over the flat canonical ABI.
//
// The guest cannot share pointers, strings or lists with the host. Every
// call crosses the boundary as a fixed tuple of integers and every compound
// value is encoded into, or decoded out of, guest linear memory.
//
// # Architecture Overview
//
//	wasihttp/            Root package with the Memory and Allocator interfaces
//	├── memory/          Bounds-checked memory accessor and cabi_realloc bridge
//	├── codec/           Optional, enum, result, record-array and poll encodings
//	├── host/            Host capability surface interfaces and value types
//	├── bindings/        Binding table registered as wazero host modules
//	├── surface/         net/http backed implementation of the host surface
//	├── resource/        Handle table used by the surface
//	├── errors/          Structured error types
//	└── cmd/wasihttp-run CLI that runs a guest against the bindings
//
// # Quick Start
//
//	rt := wazero.NewRuntime(ctx)
//	defer rt.Close(ctx)
//
//	h := surface.New()
//	defer h.Close()
//
//	if err := bindings.Register(ctx, rt, h); err != nil {
//	    log.Fatal(err)
//	}
//
//	mod, err := rt.Instantiate(ctx, guestWasm)
//
// # Failure Model
//
// A guest that violates the calling convention (out-of-bounds pointer,
// invalid UTF-8, missing memory or cabi_realloc export) traps. Errors the
// host surface reports as data, such as an HTTP timeout, are encoded and
// returned to the guest.
//
// # Memory Model
//
// Linear memory is re-resolved on every call and never retained, since the
// guest may grow it between calls. Blocks obtained through cabi_realloc are
// owned by the guest allocator; the host never frees them.
package wasihttp
