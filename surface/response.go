package surface

import (
	"context"
	"sync"

	"github.com/wippyai/wasi-http-abi/host"
	"github.com/wippyai/wasi-http-abi/resource"
)

type future struct {
	done   chan struct{}
	cancel context.CancelCauseFunc

	mu     sync.Mutex
	resp   *incomingResponse
	err    *host.Error
	handle uint32
	// taken is set once the response handle has been dropped. The response
	// is handed out only once.
	taken bool
}

func newFuture(cancel context.CancelCauseFunc) *future {
	return &future{done: make(chan struct{}), cancel: cancel}
}

func (f *future) resolve(resp *incomingResponse, err *host.Error) {
	f.mu.Lock()
	f.resp, f.err = resp, err
	f.mu.Unlock()
	close(f.done)
}

func (f *future) ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Drop cancels the request if it is still in flight.
func (f *future) Drop() {
	f.cancel(context.Canceled)
}

type incomingResponse struct {
	headers []host.Field
	body    []byte
	status  uint16
	owner   *future

	mu       sync.Mutex
	consumed bool
}

// Drop detaches the response from the future that minted it, so the future
// never returns the freed handle again.
func (r *incomingResponse) Drop() {
	f := r.owner
	if f == nil {
		return
	}
	f.mu.Lock()
	f.handle = 0
	f.taken = true
	f.mu.Unlock()
}

var errResponseTaken = &host.Error{Kind: host.ErrorUnexpected, Message: "response already taken"}

// FutureIncomingResponseGet reports the future's state. The first call
// after a successful send mints the response handle and later calls return
// the same handle while it is live. Once the guest drops the response, the
// future reports an unexpected error.
func (s *Surface) FutureIncomingResponseGet(_ context.Context, h uint32) (host.FutureResponse, error) {
	f, err := resource.Lookup[*future](s.table, resource.Handle(h), resource.KindFutureResponse)
	if err != nil {
		return host.FutureResponse{}, err
	}
	if !f.ready() {
		return host.FutureResponse{}, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return host.FutureResponse{Ready: true, Err: f.err}, nil
	}
	if f.taken {
		return host.FutureResponse{Ready: true, Err: errResponseTaken}, nil
	}
	if f.handle == 0 {
		f.resp.owner = f
		resp, err := s.insert(resource.KindIncomingResponse, f.resp)
		if err != nil {
			return host.FutureResponse{}, err
		}
		f.handle = resp
	}
	return host.FutureResponse{Ready: true, Response: f.handle}, nil
}

// ListenToFutureIncomingResponse returns a pollable that becomes ready once
// future h resolves.
func (s *Surface) ListenToFutureIncomingResponse(_ context.Context, h uint32) (uint32, error) {
	f, err := resource.Lookup[*future](s.table, resource.Handle(h), resource.KindFutureResponse)
	if err != nil {
		return 0, err
	}
	return s.insert(resource.KindPollable, &pollable{done: f.done})
}

// DropFutureIncomingResponse releases future h.
func (s *Surface) DropFutureIncomingResponse(_ context.Context, h uint32) error {
	return s.remove(resource.KindFutureResponse, h)
}

// IncomingResponseStatus returns the HTTP status code of response h.
func (s *Surface) IncomingResponseStatus(_ context.Context, h uint32) (uint16, error) {
	resp, err := resource.Lookup[*incomingResponse](s.table, resource.Handle(h), resource.KindIncomingResponse)
	if err != nil {
		return 0, err
	}
	return resp.status, nil
}

// IncomingResponseHeaders returns a new fields handle holding a copy of the
// response headers.
func (s *Surface) IncomingResponseHeaders(_ context.Context, h uint32) (uint32, error) {
	resp, err := resource.Lookup[*incomingResponse](s.table, resource.Handle(h), resource.KindIncomingResponse)
	if err != nil {
		return 0, err
	}
	return s.insert(resource.KindFields, &fields{entries: cloneFields(resp.headers)})
}

// IncomingResponseConsume hands out the body stream once.
func (s *Surface) IncomingResponseConsume(_ context.Context, h uint32) (uint32, bool, error) {
	resp, err := resource.Lookup[*incomingResponse](s.table, resource.Handle(h), resource.KindIncomingResponse)
	if err != nil {
		return 0, false, err
	}
	resp.mu.Lock()
	if resp.consumed {
		resp.mu.Unlock()
		return 0, false, nil
	}
	resp.consumed = true
	resp.mu.Unlock()

	stream, err := s.insert(resource.KindInputStream, &inputStream{data: resp.body})
	if err != nil {
		return 0, false, err
	}
	return stream, true, nil
}

// DropIncomingResponse releases response h.
func (s *Surface) DropIncomingResponse(_ context.Context, h uint32) error {
	return s.remove(resource.KindIncomingResponse, h)
}
