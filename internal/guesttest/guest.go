// Package guesttest builds in-process stand-ins for a guest module: an
// exported linear memory plus a bump-allocating cabi_realloc, so bindings
// can be exercised without compiling WebAssembly.
package guesttest

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental/wazerotest"
)

// HeapBase is the first address handed out by the allocator. Addresses
// below it are free for tests to use as argument and out-pointer scratch.
const HeapBase = 4096

// Allocation records one cabi_realloc call.
type Allocation struct {
	Ptr   uint32
	Size  uint32
	Align uint32
}

// Guest is a fake guest instance.
type Guest struct {
	Module *wazerotest.Module
	Memory *wazerotest.Memory

	mu     sync.Mutex
	next   uint32
	allocs []Allocation
}

// Option customizes a Guest.
type Option func(*config)

type config struct {
	pages       int
	noMemory    bool
	noAlloc     bool
	allocName   string
	badAllocSig bool
	failAlloc   bool
}

// WithPages sets the fixed memory size in 64KiB pages.
func WithPages(n int) Option { return func(c *config) { c.pages = n } }

// WithoutMemory omits the "memory" export.
func WithoutMemory() Option { return func(c *config) { c.noMemory = true } }

// WithoutAllocator omits the allocator export.
func WithoutAllocator() Option { return func(c *config) { c.noAlloc = true } }

// WithAllocName exports the allocator under a different name.
func WithAllocName(name string) Option { return func(c *config) { c.allocName = name } }

// WithBadAllocSignature exports an allocator taking a single i32.
func WithBadAllocSignature() Option { return func(c *config) { c.badAllocSig = true } }

// WithFailingAllocator makes every allocation return out-of-range pointers
// past the end of memory.
func WithFailingAllocator() Option { return func(c *config) { c.failAlloc = true } }

// New returns a guest with one page of memory and a cabi_realloc export.
func New(opts ...Option) *Guest {
	cfg := config{pages: 1, allocName: "cabi_realloc"}
	for _, o := range opts {
		o(&cfg)
	}

	g := &Guest{next: HeapBase}
	var mem *wazerotest.Memory
	if !cfg.noMemory {
		mem = wazerotest.NewFixedMemory(cfg.pages * wazerotest.PageSize)
		g.Memory = mem
	}

	var fns []*wazerotest.Function
	if !cfg.noAlloc {
		var fn *wazerotest.Function
		if cfg.badAllocSig {
			fn = wazerotest.NewFunction(func(_ context.Context, _ api.Module, size uint32) uint32 {
				return g.bump(size, 4, false)
			})
		} else {
			fn = wazerotest.NewFunction(func(_ context.Context, _ api.Module, _, _, align, size uint32) uint32 {
				return g.bump(size, align, cfg.failAlloc)
			})
		}
		fn.FunctionName = cfg.allocName
		fn.ExportNames = []string{cfg.allocName}
		fns = append(fns, fn)
	}

	g.Module = wazerotest.NewModule(mem, fns...)
	g.Module.ModuleName = "guest"
	return g
}

func (g *Guest) bump(size, align uint32, fail bool) uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if fail {
		ptr := ^uint32(0) - 8
		g.allocs = append(g.allocs, Allocation{Ptr: ptr, Size: size, Align: align})
		return ptr
	}
	if align == 0 {
		align = 1
	}
	ptr := (g.next + align - 1) &^ (align - 1)
	g.next = ptr + size
	g.allocs = append(g.allocs, Allocation{Ptr: ptr, Size: size, Align: align})
	return ptr
}

// Allocations returns every allocation made so far, in call order.
func (g *Guest) Allocations() []Allocation {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Allocation(nil), g.allocs...)
}

// Put writes data at offset and returns offset for chaining.
func (g *Guest) Put(offset uint32, data []byte) uint32 {
	if !g.Memory.Write(offset, data) {
		panic("guesttest: write out of range")
	}
	return offset
}

// PutWords writes little-endian u32 words starting at offset.
func (g *Guest) PutWords(offset uint32, words ...uint32) uint32 {
	for i, w := range words {
		if !g.Memory.WriteUint32Le(offset+uint32(4*i), w) {
			panic("guesttest: write out of range")
		}
	}
	return offset
}

// Words reads n little-endian u32 words starting at offset.
func (g *Guest) Words(offset uint32, n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		v, ok := g.Memory.ReadUint32Le(offset + uint32(4*i))
		if !ok {
			panic("guesttest: read out of range")
		}
		out[i] = v
	}
	return out
}

// Bytes reads length bytes starting at offset. The result is never nil.
func (g *Guest) Bytes(offset, length uint32) []byte {
	out := make([]byte, length)
	if length == 0 {
		return out
	}
	b, ok := g.Memory.Read(offset, length)
	if !ok {
		panic("guesttest: read out of range")
	}
	copy(out, b)
	return out
}
