package host

import "context"

// HTTP is the wasi:http surface: outgoing requests, responses and fields.
type HTTP interface {
	Handle(ctx context.Context, request uint32, opts *RequestOptions) (uint32, error)
	NewOutgoingRequest(ctx context.Context, method Method, pathWithQuery *string, scheme *Scheme, authority *string, headers uint32) (uint32, error)
	OutgoingRequestWrite(ctx context.Context, request uint32) (stream uint32, ok bool, err error)
	DropOutgoingRequest(ctx context.Context, request uint32) error

	FutureIncomingResponseGet(ctx context.Context, future uint32) (FutureResponse, error)
	ListenToFutureIncomingResponse(ctx context.Context, future uint32) (uint32, error)
	DropFutureIncomingResponse(ctx context.Context, future uint32) error

	IncomingResponseStatus(ctx context.Context, response uint32) (uint16, error)
	IncomingResponseHeaders(ctx context.Context, response uint32) (uint32, error)
	IncomingResponseConsume(ctx context.Context, response uint32) (stream uint32, ok bool, err error)
	DropIncomingResponse(ctx context.Context, response uint32) error

	NewFields(ctx context.Context, entries []Field) (uint32, error)
	FieldsEntries(ctx context.Context, fields uint32) ([]Field, error)
	DropFields(ctx context.Context, fields uint32) error
}

// Streams is the wasi:io/streams surface. Read and Write report recoverable
// failures as *StreamError.
type Streams interface {
	Read(ctx context.Context, stream uint32, maxLen uint64) ([]byte, StreamStatus, error)
	Write(ctx context.Context, stream uint32, body []byte) (uint64, StreamStatus, error)
	SubscribeToInputStream(ctx context.Context, stream uint32) (uint32, error)
	SubscribeToOutputStream(ctx context.Context, stream uint32) (uint32, error)
	DropInputStream(ctx context.Context, stream uint32) error
	DropOutputStream(ctx context.Context, stream uint32) error
}

// Poll is the wasi:poll surface.
type Poll interface {
	// PollOneoff returns one readiness flag per input, in input order.
	PollOneoff(ctx context.Context, pollables []uint32) ([]bool, error)
	DropPollable(ctx context.Context, pollable uint32) error
}

// Host is the full capability surface the binding table delegates to.
type Host interface {
	HTTP
	Streams
	Poll
}
