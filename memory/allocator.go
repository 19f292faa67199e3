package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero/api"

	wasihttp "github.com/wippyai/wasi-http-abi"
	"github.com/wippyai/wasi-http-abi/errors"
)

// DefaultAllocExport is the canonical ABI allocation export.
const DefaultAllocExport = "cabi_realloc"

// allocAlign is the alignment requested for every block.
const allocAlign = 4

const allocSignature = "func(i32, i32, i32, i32) i32"

var _ wasihttp.Allocator = (*GuestAllocator)(nil)

// GuestAllocator obtains guest memory by calling the guest's realloc export
// with (old_ptr=0, old_size=0, align=4, new_size=size).
type GuestAllocator struct {
	fn   api.Function
	name string
}

// NewGuestAllocator resolves and type-checks the named export of mod.
func NewGuestAllocator(mod api.Module, name string) (*GuestAllocator, error) {
	if mod == nil {
		return nil, errors.MissingExport(errors.PhaseAlloc, name)
	}
	fn := mod.ExportedFunction(name)
	if fn == nil {
		if _, isMem := mod.ExportedMemoryDefinitions()[name]; isMem {
			return nil, errors.ExportTypeMismatch(errors.PhaseAlloc, name, allocSignature, "memory")
		}
		return nil, errors.MissingExport(errors.PhaseAlloc, name)
	}
	def := fn.Definition()
	if !isAllocSignature(def.ParamTypes(), def.ResultTypes()) {
		return nil, errors.ExportTypeMismatch(errors.PhaseAlloc, name, allocSignature,
			formatSignature(def.ParamTypes(), def.ResultTypes()))
	}
	return &GuestAllocator{fn: fn, name: name}, nil
}

// Allocate returns the address of a fresh block of size bytes. The call
// re-enters the guest and uses ctx like any other host-suspending call.
func (g *GuestAllocator) Allocate(ctx context.Context, size uint32) (uint32, error) {
	results, err := g.fn.Call(ctx, 0, 0, allocAlign, uint64(size))
	if err != nil {
		return 0, errors.AllocationFailed(size, err)
	}
	if len(results) == 0 {
		return 0, errors.AllocationFailed(size, fmt.Errorf("%s returned no result", g.name))
	}
	return api.DecodeU32(results[0]), nil
}

func isAllocSignature(params, results []api.ValueType) bool {
	if len(params) != 4 || len(results) != 1 {
		return false
	}
	for _, p := range params {
		if p != api.ValueTypeI32 {
			return false
		}
	}
	return results[0] == api.ValueTypeI32
}

func formatSignature(params, results []api.ValueType) string {
	names := func(ts []api.ValueType) string {
		s := make([]string, len(ts))
		for i, t := range ts {
			s[i] = api.ValueTypeName(t)
		}
		return strings.Join(s, ", ")
	}
	sig := "func(" + names(params) + ")"
	if len(results) > 0 {
		sig += " " + names(results)
	}
	return sig
}
