package wasihttp

import "context"

// Memory is bounds-checked access to a guest's linear memory for the
// duration of one host call.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	ReadU32(offset uint32) (uint32, error)
	ReadString(offset uint32, length uint32) (string, error)
	Write(offset uint32, data []byte) error
	WriteU32(offset uint32, value uint32) error
	WriteWords(offset uint32, words ...uint32) error
}

// Allocator obtains fresh blocks of guest memory. The guest owns the
// allocation policy; the host never frees what it receives.
type Allocator interface {
	Allocate(ctx context.Context, size uint32) (uint32, error)
}
