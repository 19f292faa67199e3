package surface

import (
	"context"
	"fmt"
	"sync"

	"github.com/wippyai/wasi-http-abi/host"
	"github.com/wippyai/wasi-http-abi/resource"
)

// inputStream reads from a fully buffered body.
type inputStream struct {
	mu   sync.Mutex
	data []byte
	off  int
}

func (in *inputStream) read(maxLen uint64) ([]byte, host.StreamStatus) {
	in.mu.Lock()
	defer in.mu.Unlock()

	remaining := uint64(len(in.data) - in.off)
	n := min(maxLen, remaining)
	chunk := append([]byte(nil), in.data[in.off:in.off+int(n)]...)
	in.off += int(n)
	if in.off == len(in.data) {
		return chunk, host.StreamEnded
	}
	return chunk, host.StreamOpen
}

// outputStream appends to an outgoing request's body until it is sent.
type outputStream struct {
	req *outgoingRequest
	max int64
}

func (out *outputStream) write(body []byte) (uint64, error) {
	r := out.req
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sent {
		return 0, &host.StreamError{Reason: "request already sent"}
	}
	if int64(r.body.Len())+int64(len(body)) > out.max {
		return 0, &host.StreamError{Reason: fmt.Sprintf("request body exceeds %d bytes", out.max)}
	}
	r.body.Write(body)
	return uint64(len(body)), nil
}

// Read returns up to maxLen bytes from input stream h. The status reports
// StreamEnded once the body is exhausted.
func (s *Surface) Read(_ context.Context, h uint32, maxLen uint64) ([]byte, host.StreamStatus, error) {
	in, err := resource.Lookup[*inputStream](s.table, resource.Handle(h), resource.KindInputStream)
	if err != nil {
		return nil, 0, err
	}
	body, status := in.read(maxLen)
	return body, status, nil
}

// Write appends body to the request body behind output stream h. Writes
// after the request is sent or past the body limit fail with a stream error.
func (s *Surface) Write(_ context.Context, h uint32, body []byte) (uint64, host.StreamStatus, error) {
	out, err := resource.Lookup[*outputStream](s.table, resource.Handle(h), resource.KindOutputStream)
	if err != nil {
		return 0, 0, err
	}
	n, err := out.write(body)
	if err != nil {
		return 0, 0, err
	}
	return n, host.StreamOpen, nil
}

// SubscribeToInputStream returns a pollable for input stream h. Buffered
// streams never block, so the pollable is ready at once.
func (s *Surface) SubscribeToInputStream(_ context.Context, h uint32) (uint32, error) {
	if _, err := s.table.Get(resource.Handle(h), resource.KindInputStream); err != nil {
		return 0, err
	}
	return s.insert(resource.KindPollable, &pollable{})
}

// SubscribeToOutputStream returns a pollable for output stream h. It is
// ready at once.
func (s *Surface) SubscribeToOutputStream(_ context.Context, h uint32) (uint32, error) {
	if _, err := s.table.Get(resource.Handle(h), resource.KindOutputStream); err != nil {
		return 0, err
	}
	return s.insert(resource.KindPollable, &pollable{})
}

// DropInputStream releases input stream h.
func (s *Surface) DropInputStream(_ context.Context, h uint32) error {
	return s.remove(resource.KindInputStream, h)
}

// DropOutputStream releases output stream h.
func (s *Surface) DropOutputStream(_ context.Context, h uint32) error {
	return s.remove(resource.KindOutputStream, h)
}
