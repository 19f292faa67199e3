package codec

import (
	"context"

	wasihttp "github.com/wippyai/wasi-http-abi"
	"github.com/wippyai/wasi-http-abi/host"
)

// WriteBytes copies data into a freshly allocated guest block of exactly
// len(data) bytes and returns its address and length.
func WriteBytes(ctx context.Context, mem wasihttp.Memory, alloc wasihttp.Allocator, data []byte) (ptr, length uint32, err error) {
	length = uint32(len(data))
	ptr, err = alloc.Allocate(ctx, length)
	if err != nil {
		return 0, 0, err
	}
	if err := mem.Write(ptr, data); err != nil {
		return 0, 0, err
	}
	return ptr, length, nil
}

// EncodeFutureResponse lays out option<result<incoming-response, error>>.
// Error messages are copied into fresh guest memory first.
func EncodeFutureResponse(ctx context.Context, mem wasihttp.Memory, alloc wasihttp.Allocator, r host.FutureResponse) ([5]uint32, error) {
	if !r.Ready {
		return [5]uint32{0, 0, 0, 0, 0}, nil
	}
	if r.Err == nil {
		return [5]uint32{1, 0, r.Response, 0, 0}, nil
	}
	ptr, length, err := WriteBytes(ctx, mem, alloc, []byte(r.Err.Message))
	if err != nil {
		return [5]uint32{}, err
	}
	return [5]uint32{1, 1, uint32(r.Err.Kind), ptr, length}, nil
}

// EncodeStreamRead lays out result<tuple<list<u8>, stream-status>, stream-error>.
// The body always gets a fresh block, even when empty.
func EncodeStreamRead(ctx context.Context, mem wasihttp.Memory, alloc wasihttp.Allocator, body []byte, status host.StreamStatus) ([4]uint32, error) {
	ptr, length, err := WriteBytes(ctx, mem, alloc, body)
	if err != nil {
		return [4]uint32{}, err
	}
	return [4]uint32{0, ptr, length, uint32(status)}, nil
}

// StreamReadError is the layout of a failed read.
func StreamReadError() [4]uint32 {
	return [4]uint32{1, 0, 0, 0}
}

// EncodeStreamWrite lays out result<tuple<u64, stream-status>, stream-error>.
// The u64 sits at offset 8, after the discriminant and its padding.
func EncodeStreamWrite(written uint64, status host.StreamStatus) [6]uint32 {
	return [6]uint32{0, 0, uint32(written), uint32(written >> 32), uint32(status), 0}
}

// StreamWriteError is the layout of a failed write.
func StreamWriteError() [6]uint32 {
	return [6]uint32{1, 0, 0, 0, 0, 0}
}

// EncodeResultHandle lays out result<handle>: discriminant 0 with the handle
// on success, 1 when the host has nothing to hand out.
func EncodeResultHandle(handle uint32, ok bool) [2]uint32 {
	if !ok {
		return [2]uint32{1, 0}
	}
	return [2]uint32{0, handle}
}
