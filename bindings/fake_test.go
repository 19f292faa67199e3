package bindings

import (
	"context"
	"sync"

	"github.com/wippyai/wasi-http-abi/host"
)

type newRequestCall struct {
	Method    host.Method
	Path      *string
	Scheme    *host.Scheme
	Authority *string
	Headers   uint32
}

// fakeHost returns canned values and records what it was asked.
type fakeHost struct {
	mu sync.Mutex

	handleOpts  *host.RequestOptions
	newRequest  *newRequestCall
	newFields   []host.Field
	writtenBody []byte
	readMaxLen  uint64
	polled      []uint32
	dropped     []string
	nextHandle  uint32
	future      host.FutureResponse
	entries     []host.Field
	readBody    []byte
	readStatus  host.StreamStatus
	readErr     error
	writeErr    error
	writeStatus host.StreamStatus
	ready       []bool
	stream      uint32
	streamOK    bool
	status      uint16
	hostErr     error
}

var _ host.Host = (*fakeHost)(nil)

func newFakeHost() *fakeHost {
	return &fakeHost{nextHandle: 100}
}

func (f *fakeHost) mint() uint32 {
	f.nextHandle++
	return f.nextHandle
}

func (f *fakeHost) drop(kind string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropped = append(f.dropped, kind)
	return f.hostErr
}

func (f *fakeHost) Handle(_ context.Context, _ uint32, opts *host.RequestOptions) (uint32, error) {
	f.handleOpts = opts
	return f.mint(), f.hostErr
}

func (f *fakeHost) NewOutgoingRequest(_ context.Context, m host.Method, path *string, s *host.Scheme, authority *string, headers uint32) (uint32, error) {
	f.newRequest = &newRequestCall{Method: m, Path: path, Scheme: s, Authority: authority, Headers: headers}
	return f.mint(), f.hostErr
}

func (f *fakeHost) OutgoingRequestWrite(context.Context, uint32) (uint32, bool, error) {
	return f.stream, f.streamOK, f.hostErr
}

func (f *fakeHost) DropOutgoingRequest(context.Context, uint32) error {
	return f.drop("outgoing-request")
}

func (f *fakeHost) FutureIncomingResponseGet(context.Context, uint32) (host.FutureResponse, error) {
	return f.future, f.hostErr
}

func (f *fakeHost) ListenToFutureIncomingResponse(context.Context, uint32) (uint32, error) {
	return f.mint(), f.hostErr
}

func (f *fakeHost) DropFutureIncomingResponse(context.Context, uint32) error {
	return f.drop("future-incoming-response")
}

func (f *fakeHost) IncomingResponseStatus(context.Context, uint32) (uint16, error) {
	return f.status, f.hostErr
}

func (f *fakeHost) IncomingResponseHeaders(context.Context, uint32) (uint32, error) {
	return f.mint(), f.hostErr
}

func (f *fakeHost) IncomingResponseConsume(context.Context, uint32) (uint32, bool, error) {
	return f.stream, f.streamOK, f.hostErr
}

func (f *fakeHost) DropIncomingResponse(context.Context, uint32) error {
	return f.drop("incoming-response")
}

func (f *fakeHost) NewFields(_ context.Context, entries []host.Field) (uint32, error) {
	f.newFields = entries
	return f.mint(), f.hostErr
}

func (f *fakeHost) FieldsEntries(context.Context, uint32) ([]host.Field, error) {
	return f.entries, f.hostErr
}

func (f *fakeHost) DropFields(context.Context, uint32) error {
	return f.drop("fields")
}

func (f *fakeHost) Read(_ context.Context, _ uint32, maxLen uint64) ([]byte, host.StreamStatus, error) {
	f.readMaxLen = maxLen
	if f.readErr != nil {
		return nil, 0, f.readErr
	}
	return f.readBody, f.readStatus, nil
}

func (f *fakeHost) Write(_ context.Context, _ uint32, body []byte) (uint64, host.StreamStatus, error) {
	f.writtenBody = body
	if f.writeErr != nil {
		return 0, 0, f.writeErr
	}
	return uint64(len(body)), f.writeStatus, nil
}

func (f *fakeHost) SubscribeToInputStream(context.Context, uint32) (uint32, error) {
	return f.mint(), f.hostErr
}

func (f *fakeHost) SubscribeToOutputStream(context.Context, uint32) (uint32, error) {
	return f.mint(), f.hostErr
}

func (f *fakeHost) DropInputStream(context.Context, uint32) error {
	return f.drop("input-stream")
}

func (f *fakeHost) DropOutputStream(context.Context, uint32) error {
	return f.drop("output-stream")
}

func (f *fakeHost) PollOneoff(_ context.Context, pollables []uint32) ([]bool, error) {
	f.polled = pollables
	return f.ready, f.hostErr
}

func (f *fakeHost) DropPollable(context.Context, uint32) error {
	return f.drop("pollable")
}
