package codec

import (
	"time"

	wasihttp "github.com/wippyai/wasi-http-abi"
	"github.com/wippyai/wasi-http-abi/host"
)

// present reports whether an option flag marks a value as present. Only
// exactly 1 counts; any other value, including malformed ones, is absent.
func present(flag uint32) bool {
	return flag == 1
}

// ReadOptionalString decodes option<string>.
func ReadOptionalString(mem wasihttp.Memory, isSome, ptr, length uint32) (*string, error) {
	if !present(isSome) {
		return nil, nil
	}
	s, err := mem.ReadString(ptr, length)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// OptionalU32 decodes option<u32> passed as two flat values.
func OptionalU32(isSome, value uint32) *uint32 {
	if !present(isSome) {
		return nil
	}
	return &value
}

// DecodeRequestOptions decodes option<request-options>. Each timeout is an
// option<u32> of milliseconds.
func DecodeRequestOptions(hasOptions, hasConnect, connectMs, hasFirstByte, firstByteMs, hasBetween, betweenMs uint32) *host.RequestOptions {
	if !present(hasOptions) {
		return nil
	}
	return &host.RequestOptions{
		ConnectTimeout:      millis(OptionalU32(hasConnect, connectMs)),
		FirstByteTimeout:    millis(OptionalU32(hasFirstByte, firstByteMs)),
		BetweenBytesTimeout: millis(OptionalU32(hasBetween, betweenMs)),
	}
}

func millis(ms *uint32) *time.Duration {
	if ms == nil {
		return nil
	}
	d := time.Duration(*ms) * time.Millisecond
	return &d
}
