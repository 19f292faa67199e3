package memory

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/tetratelabs/wazero/api"

	wasihttp "github.com/wippyai/wasi-http-abi"
	"github.com/wippyai/wasi-http-abi/errors"
)

// DefaultExport is the name of the guest's exported linear memory.
const DefaultExport = "memory"

// Region is the raw byte address space an Accessor guards.
// wazero's api.Memory satisfies it.
type Region interface {
	Size() uint32
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, v []byte) bool
}

var _ wasihttp.Memory = (*Accessor)(nil)

// Accessor is bounds-checked access to a Region. Reads return copies, so
// nothing handed out aliases guest memory after the call returns.
type Accessor struct {
	region Region
}

// NewAccessor wraps region.
func NewAccessor(region Region) *Accessor {
	return &Accessor{region: region}
}

// FromModule resolves the named exported memory of mod.
func FromModule(mod api.Module, name string) (*Accessor, error) {
	if mod == nil {
		return nil, errors.MissingExport(errors.PhaseDecode, name)
	}
	mem := mod.ExportedMemory(name)
	if mem == nil {
		return nil, errors.MissingExport(errors.PhaseDecode, name)
	}
	return &Accessor{region: mem}, nil
}

// Size returns the current region size in bytes.
func (a *Accessor) Size() uint32 {
	return a.region.Size()
}

func (a *Accessor) check(phase errors.Phase, offset, length uint32) error {
	end := uint64(offset) + uint64(length)
	size := a.region.Size()
	if end > uint64(^uint32(0)) || end > uint64(size) {
		return errors.BufferTooSmall(phase, offset, length, size)
	}
	return nil
}

// Read returns exactly length bytes starting at offset.
func (a *Accessor) Read(offset uint32, length uint32) ([]byte, error) {
	if err := a.check(errors.PhaseDecode, offset, length); err != nil {
		return nil, err
	}
	if length == 0 {
		return []byte{}, nil
	}
	view, ok := a.region.Read(offset, length)
	if !ok {
		return nil, errors.BufferTooSmall(errors.PhaseDecode, offset, length, a.region.Size())
	}
	buf := make([]byte, length)
	copy(buf, view)
	return buf, nil
}

// ReadU32 reads a little-endian u32.
func (a *Accessor) ReadU32(offset uint32) (uint32, error) {
	b, err := a.Read(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadString reads length bytes and requires them to be valid UTF-8.
func (a *Accessor) ReadString(offset uint32, length uint32) (string, error) {
	b, err := a.Read(offset, length)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.InvalidUTF8(errors.PhaseDecode, b)
	}
	return string(b), nil
}

// Write copies data to offset. Nothing is written unless the whole range fits.
func (a *Accessor) Write(offset uint32, data []byte) error {
	if len(data) > int(^uint32(0)) {
		return errors.BufferTooSmall(errors.PhaseEncode, offset, ^uint32(0), a.region.Size())
	}
	length := uint32(len(data))
	if err := a.check(errors.PhaseEncode, offset, length); err != nil {
		return err
	}
	if length == 0 {
		return nil
	}
	if !a.region.Write(offset, data) {
		return errors.BufferTooSmall(errors.PhaseEncode, offset, length, a.region.Size())
	}
	return nil
}

// WriteU32 writes a little-endian u32.
func (a *Accessor) WriteU32(offset uint32, value uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], value)
	return a.Write(offset, b[:])
}

// WriteWords writes consecutive little-endian u32 words as one block.
func (a *Accessor) WriteWords(offset uint32, words ...uint32) error {
	return a.Write(offset, PackWords(words...))
}

// PackWords lays out words as consecutive little-endian u32 values.
func PackWords(words ...uint32) []byte {
	b := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[4*i:], w)
	}
	return b
}
