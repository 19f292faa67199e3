package codec

import (
	"context"
	"encoding/binary"

	wasihttp "github.com/wippyai/wasi-http-abi"
	"github.com/wippyai/wasi-http-abi/errors"
	"github.com/wippyai/wasi-http-abi/host"
)

// FieldStride is the size of one name/value record.
const FieldStride = 16

// PollableStride is the size of one pollable id and one poll result word.
const PollableStride = 4

// arraySize returns count*stride, failing when it does not fit in u32.
func arraySize(phase errors.Phase, base, count, stride uint32) (uint32, error) {
	total := uint64(count) * uint64(stride)
	if total > uint64(^uint32(0)) {
		return 0, errors.BufferTooSmall(phase, base, ^uint32(0), 0)
	}
	return uint32(total), nil
}

// ReadFields decodes count 16-byte records starting at base.
func ReadFields(mem wasihttp.Memory, base, count uint32) ([]host.Field, error) {
	size, err := arraySize(errors.PhaseDecode, base, count, FieldStride)
	if err != nil {
		return nil, err
	}
	records, err := mem.Read(base, size)
	if err != nil {
		return nil, err
	}

	fields := make([]host.Field, 0, count)
	for i := uint32(0); i < count; i++ {
		rec := records[i*FieldStride:]
		namePtr := binary.LittleEndian.Uint32(rec[0:])
		nameLen := binary.LittleEndian.Uint32(rec[4:])
		valuePtr := binary.LittleEndian.Uint32(rec[8:])
		valueLen := binary.LittleEndian.Uint32(rec[12:])

		name, err := mem.ReadString(namePtr, nameLen)
		if err != nil {
			return nil, err
		}
		value, err := mem.ReadString(valuePtr, valueLen)
		if err != nil {
			return nil, err
		}
		fields = append(fields, host.Field{Name: name, Value: []byte(value)})
	}
	return fields, nil
}

// WriteFields allocates one record array plus fresh name and value buffers
// per entry, in the given order, and returns the array address and count.
func WriteFields(ctx context.Context, mem wasihttp.Memory, alloc wasihttp.Allocator, fields []host.Field) (ptr, count uint32, err error) {
	count = uint32(len(fields))
	size, err := arraySize(errors.PhaseEncode, 0, count, FieldStride)
	if err != nil {
		return 0, 0, err
	}
	base, err := alloc.Allocate(ctx, size)
	if err != nil {
		return 0, 0, err
	}

	for i, f := range fields {
		namePtr, nameLen, err := WriteBytes(ctx, mem, alloc, []byte(f.Name))
		if err != nil {
			return 0, 0, err
		}
		valuePtr, valueLen, err := WriteBytes(ctx, mem, alloc, f.Value)
		if err != nil {
			return 0, 0, err
		}
		if err := mem.WriteWords(base+uint32(i)*FieldStride, namePtr, nameLen, valuePtr, valueLen); err != nil {
			return 0, 0, err
		}
	}
	return base, count, nil
}

// ReadPollables decodes count u32 pollable handles starting at base.
func ReadPollables(mem wasihttp.Memory, base, count uint32) ([]uint32, error) {
	size, err := arraySize(errors.PhaseDecode, base, count, PollableStride)
	if err != nil {
		return nil, err
	}
	raw, err := mem.Read(base, size)
	if err != nil {
		return nil, err
	}
	ids := make([]uint32, count)
	for i := range ids {
		ids[i] = binary.LittleEndian.Uint32(raw[i*PollableStride:])
	}
	return ids, nil
}

// WritePollResults allocates one u32 word per flag, 1 for ready and 0
// otherwise, in input order.
func WritePollResults(ctx context.Context, mem wasihttp.Memory, alloc wasihttp.Allocator, ready []bool) (ptr, count uint32, err error) {
	count = uint32(len(ready))
	size, err := arraySize(errors.PhaseEncode, 0, count, PollableStride)
	if err != nil {
		return 0, 0, err
	}
	words := make([]uint32, count)
	for i, r := range ready {
		if r {
			words[i] = 1
		}
	}
	ptr, err = alloc.Allocate(ctx, size)
	if err != nil {
		return 0, 0, err
	}
	if err := mem.WriteWords(ptr, words...); err != nil {
		return 0, 0, err
	}
	return ptr, count, nil
}
