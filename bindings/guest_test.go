package bindings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasi-http-abi/host"
	"github.com/wippyai/wasi-http-abi/internal/guesttest"
)

var (
	importRead = guesttest.Import{
		Namespace: NamespaceStreams,
		Name:      "read",
		Params:    []api.ValueType{api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeI32},
	}
	importFieldsEntries = guesttest.Import{
		Namespace: NamespaceTypes,
		Name:      "fields-entries",
		Params:    []api.ValueType{api.ValueTypeI32, api.ValueTypeI32},
	}
)

// instantiate registers h in a fresh runtime and instantiates a compiled
// guest importing imports.
func instantiate(t *testing.T, h host.Host, imports ...guesttest.Import) api.Module {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = rt.Close(ctx) })

	require.NoError(t, Register(ctx, rt, h))
	mod, err := rt.Instantiate(ctx, guesttest.Module(imports...))
	require.NoError(t, err)
	return mod
}

func words(t *testing.T, mem api.Memory, offset uint32, n int) []uint32 {
	t.Helper()
	out := make([]uint32, n)
	for i := range out {
		v, ok := mem.ReadUint32Le(offset + uint32(4*i))
		require.True(t, ok)
		out[i] = v
	}
	return out
}

func TestGuest_StreamRead(t *testing.T) {
	h := newFakeHost()
	h.readBody = []byte("abcd")
	h.readStatus = host.StreamEnded
	mod := instantiate(t, h, importRead)

	_, err := mod.ExportedFunction(guesttest.CallExport(importRead)).Call(context.Background(), 7, 10, 64)
	require.NoError(t, err)

	assert.Equal(t, uint64(10), h.readMaxLen)
	assert.Equal(t, []uint32{0, guesttest.HeapBase, 4, 1}, words(t, mod.Memory(), 64, 4))
	body, ok := mod.Memory().Read(guesttest.HeapBase, 4)
	require.True(t, ok)
	assert.Equal(t, "abcd", string(body))
}

func TestGuest_OutPointerOutOfBoundsFailsCall(t *testing.T) {
	h := newFakeHost()
	h.readBody = []byte("abcd")
	mod := instantiate(t, h, importRead)

	_, err := mod.ExportedFunction(guesttest.CallExport(importRead)).Call(context.Background(), 7, 10, 0xFFFFFFF0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out_of_bounds")
	assert.Contains(t, err.Error(), "wasi:io/streams#read")

	// The trap aborts one call only; the instance stays usable.
	_, err = mod.ExportedFunction(guesttest.CallExport(importRead)).Call(context.Background(), 7, 10, 64)
	require.NoError(t, err)
}

func TestGuest_FieldsEntriesAllocatesThroughGuest(t *testing.T) {
	h := newFakeHost()
	h.entries = []host.Field{
		{Name: "content-type", Value: []byte("text/plain")},
		{Name: "x-id", Value: []byte("7")},
	}
	mod := instantiate(t, h, importFieldsEntries)

	_, err := mod.ExportedFunction(guesttest.CallExport(importFieldsEntries)).Call(context.Background(), 3, 32)
	require.NoError(t, err)

	mem := mod.Memory()
	out := words(t, mem, 32, 2)
	assert.Equal(t, uint32(2), out[1])
	assert.GreaterOrEqual(t, out[0], uint32(guesttest.HeapBase))

	for i, want := range h.entries {
		rec := words(t, mem, out[0]+uint32(16*i), 4)
		n, ok := mem.Read(rec[0], rec[1])
		require.True(t, ok)
		v, ok := mem.Read(rec[2], rec[3])
		require.True(t, ok)
		assert.Equal(t, want.Name, string(n))
		assert.Equal(t, want.Value, v)
	}
}
