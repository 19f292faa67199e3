package bindings

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	wasihttp "github.com/wippyai/wasi-http-abi"
	"github.com/wippyai/wasi-http-abi/memory"
)

var _ wasihttp.Allocator = (*call)(nil)

// call is the state of one guest call. Memory and the allocator are looked
// up on first use and dropped when the handler returns.
type call struct {
	ctx   context.Context
	mod   api.Module
	stack []uint64
	cfg   *config

	mem   *memory.Accessor
	alloc *memory.GuestAllocator
}

func (c *call) u32(i int) uint32 {
	return api.DecodeU32(c.stack[i])
}

func (c *call) u64(i int) uint64 {
	return c.stack[i]
}

// ret sets the single flat result.
func (c *call) ret(v uint32) {
	c.stack[0] = api.EncodeU32(v)
}

func (c *call) memory() (*memory.Accessor, error) {
	if c.mem == nil {
		m, err := memory.FromModule(c.mod, c.cfg.MemoryExport)
		if err != nil {
			return nil, err
		}
		c.mem = m
	}
	return c.mem, nil
}

// Allocate resolves the guest allocator on first use.
func (c *call) Allocate(ctx context.Context, size uint32) (uint32, error) {
	if c.alloc == nil {
		a, err := memory.NewGuestAllocator(c.mod, c.cfg.AllocExport)
		if err != nil {
			return 0, err
		}
		c.alloc = a
	}
	return c.alloc.Allocate(ctx, size)
}

// out writes words to the guest-supplied out-pointer.
func (c *call) out(ptr uint32, words ...uint32) error {
	mem, err := c.memory()
	if err != nil {
		return err
	}
	return mem.WriteWords(ptr, words...)
}
