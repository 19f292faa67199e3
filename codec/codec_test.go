package codec

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasi-http-abi/errors"
	"github.com/wippyai/wasi-http-abi/host"
	"github.com/wippyai/wasi-http-abi/internal/guesttest"
	"github.com/wippyai/wasi-http-abi/memory"
)

type fixture struct {
	guest *guesttest.Guest
	mem   *memory.Accessor
	alloc *memory.GuestAllocator
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	g := guesttest.New()
	mem, err := memory.FromModule(g.Module, memory.DefaultExport)
	require.NoError(t, err)
	alloc, err := memory.NewGuestAllocator(g.Module, memory.DefaultAllocExport)
	require.NoError(t, err)
	return fixture{guest: g, mem: mem, alloc: alloc}
}

func TestReadMethod(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		tag  uint32
		want string
	}{
		{0, "GET"}, {1, "HEAD"}, {2, "POST"}, {3, "PUT"}, {4, "DELETE"},
		{5, "CONNECT"}, {6, "OPTIONS"}, {7, "TRACE"}, {8, "PATCH"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			// ptr/len are ignored for fixed tags, even when out of range
			m, err := ReadMethod(f.mem, tt.tag, 0xFFFFFFF0, 99)
			require.NoError(t, err)
			assert.Equal(t, host.MethodKind(tt.tag), m.Kind)
			assert.Equal(t, tt.want, m.String())
		})
	}

	t.Run("other", func(t *testing.T) {
		ptr := f.guest.Put(64, []byte("CUSTOM"))
		for _, tag := range []uint32{9, 10, 0xFFFFFFFF} {
			m, err := ReadMethod(f.mem, tag, ptr, 6)
			require.NoError(t, err)
			assert.Equal(t, host.OtherMethod("CUSTOM"), m)
		}
	})

	t.Run("other out of bounds", func(t *testing.T) {
		_, err := ReadMethod(f.mem, 9, f.mem.Size()-2, 6)
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindOutOfBounds}))
	})

	t.Run("other invalid utf8", func(t *testing.T) {
		ptr := f.guest.Put(128, []byte{0xff, 0xfe})
		_, err := ReadMethod(f.mem, 9, ptr, 2)
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindInvalidUTF8}))
	})
}

func TestReadScheme(t *testing.T) {
	f := newFixture(t)
	ptr := f.guest.Put(64, []byte("ftp"))

	tests := []struct {
		name   string
		isSome uint32
		tag    uint32
		want   host.Scheme
	}{
		{"absent defaults to https", 0, 0, host.Scheme{Kind: host.SchemeHTTPS}},
		{"malformed flag is absent", 2, 0, host.Scheme{Kind: host.SchemeHTTPS}},
		{"http", 1, 0, host.Scheme{Kind: host.SchemeHTTP}},
		{"https", 1, 1, host.Scheme{Kind: host.SchemeHTTPS}},
		{"other", 1, 2, host.OtherScheme("ftp")},
		{"other high tag", 1, 77, host.OtherScheme("ftp")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ReadScheme(f.mem, tt.isSome, tt.tag, ptr, 3)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestReadOptionalString(t *testing.T) {
	f := newFixture(t)
	ptr := f.guest.Put(64, []byte("/index.html"))

	s, err := ReadOptionalString(f.mem, 1, ptr, 11)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "/index.html", *s)

	s, err = ReadOptionalString(f.mem, 1, ptr, 0)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "", *s)

	for _, flag := range []uint32{0, 2, 0xFFFFFFFF} {
		// payload is never read when absent
		s, err = ReadOptionalString(f.mem, flag, 0xFFFFFFF0, 100)
		require.NoError(t, err)
		assert.Nil(t, s)
	}

	_, err = ReadOptionalString(f.mem, 1, f.mem.Size(), 1)
	require.Error(t, err)
}

func TestDecodeRequestOptions(t *testing.T) {
	assert.Nil(t, DecodeRequestOptions(0, 1, 10, 1, 20, 1, 30))

	opts := DecodeRequestOptions(1, 1, 1500, 0, 99, 2, 7)
	require.NotNil(t, opts)
	require.NotNil(t, opts.ConnectTimeout)
	assert.Equal(t, 1500*time.Millisecond, *opts.ConnectTimeout)
	assert.Nil(t, opts.FirstByteTimeout)
	assert.Nil(t, opts.BetweenBytesTimeout)
}

func TestWriteBytes_AllocatesExactLength(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, n := range []int{0, 1, 17, 300} {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i)
		}
		before := len(f.guest.Allocations())
		ptr, length, err := WriteBytes(ctx, f.mem, f.alloc, data)
		require.NoError(t, err)
		assert.Equal(t, uint32(n), length)

		allocs := f.guest.Allocations()
		require.Len(t, allocs, before+1)
		assert.Equal(t, guesttest.Allocation{Ptr: ptr, Size: uint32(n), Align: 4}, allocs[before])
		assert.Equal(t, data, f.guest.Bytes(ptr, length))
	}
}

func TestWriteBytes_AllocatorOutOfRange(t *testing.T) {
	g := guesttest.New(guesttest.WithFailingAllocator())
	mem, err := memory.FromModule(g.Module, memory.DefaultExport)
	require.NoError(t, err)
	alloc, err := memory.NewGuestAllocator(g.Module, memory.DefaultAllocExport)
	require.NoError(t, err)

	_, _, err = WriteBytes(context.Background(), mem, alloc, []byte("body"))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseEncode, Kind: errors.KindOutOfBounds}))
}

func TestEncodeFutureResponse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	words, err := EncodeFutureResponse(ctx, f.mem, f.alloc, host.FutureResponse{})
	require.NoError(t, err)
	assert.Equal(t, [5]uint32{0, 0, 0, 0, 0}, words)

	words, err = EncodeFutureResponse(ctx, f.mem, f.alloc, host.FutureResponse{Ready: true, Response: 42})
	require.NoError(t, err)
	assert.Equal(t, [5]uint32{1, 0, 42, 0, 0}, words)
	assert.Empty(t, f.guest.Allocations())

	msg := "connect timed out"
	words, err = EncodeFutureResponse(ctx, f.mem, f.alloc, host.FutureResponse{
		Ready: true,
		Err:   &host.Error{Kind: host.ErrorTimeout, Message: msg},
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), words[0])
	assert.Equal(t, uint32(1), words[1])
	assert.Equal(t, uint32(host.ErrorTimeout), words[2])
	assert.Equal(t, uint32(len(msg)), words[4])
	assert.Equal(t, msg, string(f.guest.Bytes(words[3], words[4])))
}

func TestEncodeFutureResponse_ErrorKinds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for kind, tag := range map[host.ErrorKind]uint32{
		host.ErrorInvalidURL: 0,
		host.ErrorTimeout:    1,
		host.ErrorProtocol:   2,
		host.ErrorUnexpected: 3,
	} {
		words, err := EncodeFutureResponse(ctx, f.mem, f.alloc, host.FutureResponse{
			Ready: true,
			Err:   &host.Error{Kind: kind, Message: kind.String()},
		})
		require.NoError(t, err)
		assert.Equal(t, tag, words[2], kind.String())
	}
}

func TestEncodeStreamRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	words, err := EncodeStreamRead(ctx, f.mem, f.alloc, []byte("abcd"), host.StreamEnded)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), words[0])
	assert.Equal(t, uint32(4), words[2])
	assert.Equal(t, uint32(1), words[3])
	assert.Equal(t, "abcd", string(f.guest.Bytes(words[1], 4)))

	before := len(f.guest.Allocations())
	words, err = EncodeStreamRead(ctx, f.mem, f.alloc, nil, host.StreamOpen)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), words[2])
	assert.Equal(t, uint32(0), words[3])
	assert.Len(t, f.guest.Allocations(), before+1)

	assert.Equal(t, [4]uint32{1, 0, 0, 0}, StreamReadError())
}

func TestEncodeStreamWrite(t *testing.T) {
	words := EncodeStreamWrite(0x1_0000_0005, host.StreamOpen)
	raw := memory.PackWords(words[:]...)
	require.Len(t, raw, 24)
	assert.Equal(t, []byte{0, 0, 0, 0}, raw[0:4])
	assert.Equal(t, []byte{5, 0, 0, 0, 1, 0, 0, 0}, raw[8:16])
	assert.Equal(t, []byte{0, 0, 0, 0}, raw[16:20])

	words = EncodeStreamWrite(3, host.StreamEnded)
	assert.Equal(t, uint32(1), words[4])
	assert.Equal(t, uint32(1), StreamWriteError()[0])
}

func TestEncodeResultHandle(t *testing.T) {
	assert.Equal(t, [2]uint32{0, 7}, EncodeResultHandle(7, true))
	assert.Equal(t, [2]uint32{1, 0}, EncodeResultHandle(7, false))
}

func TestFields_RoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 100} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)

			fields := make([]host.Field, n)
			for i := range fields {
				fields[i] = host.Field{
					Name:  fmt.Sprintf("x-header-%d", i),
					Value: []byte(fmt.Sprintf("value-%d", i*i)),
				}
			}

			ptr, count, err := WriteFields(ctx, f.mem, f.alloc, fields)
			require.NoError(t, err)
			require.Equal(t, uint32(n), count)

			allocs := f.guest.Allocations()
			require.Len(t, allocs, 1+2*n)
			assert.Equal(t, uint32(n*FieldStride), allocs[0].Size)

			got, err := ReadFields(f.mem, ptr, count)
			require.NoError(t, err)
			assert.Equal(t, fields, got)
		})
	}
}

func TestWriteFields_RecordLayout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ptr, _, err := WriteFields(ctx, f.mem, f.alloc, []host.Field{
		{Name: "content-type", Value: []byte("text/plain")},
		{Name: "x-empty", Value: nil},
	})
	require.NoError(t, err)

	allocs := f.guest.Allocations()
	require.Len(t, allocs, 5)
	assert.Equal(t, []uint32{
		allocs[1].Ptr, 12, allocs[2].Ptr, 10,
		allocs[3].Ptr, 7, allocs[4].Ptr, 0,
	}, f.guest.Words(ptr, 8))
	assert.Equal(t, uint32(0), allocs[4].Size)
}

func TestReadFields_OutOfBounds(t *testing.T) {
	f := newFixture(t)

	_, err := ReadFields(f.mem, f.mem.Size()-8, 1)
	require.Error(t, err)

	f.guest.PutWords(32, 0xFFFF0000, 4, 0, 0)
	_, err = ReadFields(f.mem, 32, 1)
	require.Error(t, err)

	_, err = ReadFields(f.mem, 0, 0x1000_0000)
	require.Error(t, err)
}

func TestPollables(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	base := f.guest.PutWords(16, 7, 3, 7)
	ids, err := ReadPollables(f.mem, base, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint32{7, 3, 7}, ids)

	ptr, count, err := WritePollResults(ctx, f.mem, f.alloc, []bool{true, false, true})
	require.NoError(t, err)
	assert.Equal(t, uint32(3), count)
	assert.Equal(t, []uint32{1, 0, 1}, f.guest.Words(ptr, 3))
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0}, f.guest.Bytes(ptr, 12))

	allocs := f.guest.Allocations()
	require.Len(t, allocs, 1)
	assert.Equal(t, uint32(12), allocs[0].Size)
}

func TestPollables_Empty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ids, err := ReadPollables(f.mem, f.mem.Size(), 0)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, count, err := WritePollResults(ctx, f.mem, f.alloc, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), count)
	assert.Len(t, f.guest.Allocations(), 1)
}
