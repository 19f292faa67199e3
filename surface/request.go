package surface

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/wasi-http-abi/host"
	"github.com/wippyai/wasi-http-abi/resource"
)

var (
	errFirstByteTimeout    = timeoutError("first-byte timeout")
	errBetweenBytesTimeout = timeoutError("between-bytes timeout")

	errAlreadySent = &host.Error{Kind: host.ErrorUnexpected, Message: "request already sent"}
)

type outgoingRequest struct {
	method    host.Method
	scheme    host.Scheme
	path      *string
	authority *string
	headers   []host.Field

	mu       sync.Mutex
	body     bytes.Buffer
	bodyOpen bool
	sent     bool
}

// url assembles scheme://authority/path. Paths missing a leading slash get
// one.
func (r *outgoingRequest) url() (string, *host.Error) {
	if r.authority == nil || *r.authority == "" {
		return "", &host.Error{Kind: host.ErrorInvalidURL, Message: "request has no authority"}
	}
	path := ""
	if r.path != nil {
		path = *r.path
		if path != "" && !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
	}
	return r.scheme.String() + "://" + *r.authority + path, nil
}

// NewOutgoingRequest creates a request that snapshots the headers held by
// fields handle headers. A nil scheme defaults to HTTPS.
func (s *Surface) NewOutgoingRequest(_ context.Context, method host.Method, path *string, scheme *host.Scheme, authority *string, headers uint32) (uint32, error) {
	f, err := resource.Lookup[*fields](s.table, resource.Handle(headers), resource.KindFields)
	if err != nil {
		return 0, err
	}
	req := &outgoingRequest{
		method:    method,
		scheme:    host.Scheme{Kind: host.SchemeHTTPS},
		path:      path,
		authority: authority,
		headers:   f.clone(),
	}
	if scheme != nil {
		req.scheme = *scheme
	}
	return s.insert(resource.KindOutgoingRequest, req)
}

// OutgoingRequestWrite hands out the request's body stream. There is only
// one; later calls report no stream.
func (s *Surface) OutgoingRequestWrite(_ context.Context, h uint32) (uint32, bool, error) {
	req, err := resource.Lookup[*outgoingRequest](s.table, resource.Handle(h), resource.KindOutgoingRequest)
	if err != nil {
		return 0, false, err
	}
	req.mu.Lock()
	if req.bodyOpen || req.sent {
		req.mu.Unlock()
		return 0, false, nil
	}
	req.bodyOpen = true
	req.mu.Unlock()

	stream, err := s.insert(resource.KindOutputStream, &outputStream{req: req, max: s.maxBodySize})
	if err != nil {
		return 0, false, err
	}
	return stream, true, nil
}

// DropOutgoingRequest releases request h. A request already passed to
// Handle keeps sending.
func (s *Surface) DropOutgoingRequest(_ context.Context, h uint32) error {
	return s.remove(resource.KindOutgoingRequest, h)
}

// Handle sends the request in the background and returns a future for its
// response. Failures to build or send the request resolve the future with
// an error rather than failing the call.
func (s *Surface) Handle(_ context.Context, h uint32, opts *host.RequestOptions) (uint32, error) {
	req, err := resource.Lookup[*outgoingRequest](s.table, resource.Handle(h), resource.KindOutgoingRequest)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithCancelCause(s.ctx)
	f := newFuture(cancel)
	handle, err := s.insert(resource.KindFutureResponse, f)
	if err != nil {
		cancel(nil)
		return 0, err
	}

	httpReq, herr := s.buildRequest(ctx, req)
	if herr != nil {
		s.log.Debug("request rejected", zap.Uint32("future", handle), zap.Error(herr))
		f.resolve(nil, herr)
		cancel(nil)
		return handle, nil
	}

	s.log.Debug("sending request",
		zap.Uint32("future", handle),
		zap.String("method", httpReq.Method),
		zap.String("url", httpReq.URL.String()))
	go s.send(ctx, cancel, f, httpReq, opts)
	return handle, nil
}

func (s *Surface) buildRequest(ctx context.Context, req *outgoingRequest) (*http.Request, *host.Error) {
	req.mu.Lock()
	if req.sent {
		req.mu.Unlock()
		return nil, errAlreadySent
	}
	req.sent = true
	body := append([]byte(nil), req.body.Bytes()...)
	req.mu.Unlock()

	target, herr := req.url()
	if herr != nil {
		return nil, herr
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method.String(), target, bytes.NewReader(body))
	if err != nil {
		return nil, classify(ctx, err)
	}
	for _, f := range req.headers {
		if strings.EqualFold(f.Name, "host") {
			httpReq.Host = string(f.Value)
			continue
		}
		httpReq.Header.Add(f.Name, string(f.Value))
	}
	return httpReq, nil
}

func (s *Surface) send(ctx context.Context, cancel context.CancelCauseFunc, f *future, req *http.Request, opts *host.RequestOptions) {
	defer cancel(nil)

	if opts == nil || (opts.ConnectTimeout == nil && opts.FirstByteTimeout == nil && opts.BetweenBytesTimeout == nil) {
		if s.timeout > 0 {
			var stop context.CancelFunc
			ctx, stop = context.WithTimeout(ctx, s.timeout)
			defer stop()
			req = req.WithContext(ctx)
		}
		opts = &host.RequestOptions{}
	}

	client, release := s.clientFor(opts.ConnectTimeout)
	defer release()

	start := time.Now()
	var firstByte *firstByteTimer
	if opts.FirstByteTimeout != nil {
		firstByte = startFirstByteTimer(*opts.FirstByteTimeout, cancel)
	}
	resp, err := client.Do(req)
	if firstByte != nil {
		firstByte.headersReceived()
	}
	if err != nil {
		herr := classify(ctx, err)
		s.log.Debug("request failed", zap.Stringer("kind", herr.Kind), zap.Error(err))
		f.resolve(nil, herr)
		return
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if opts.BetweenBytesTimeout != nil {
		ir := newIdleReader(resp.Body, *opts.BetweenBytesTimeout, func() { cancel(errBetweenBytesTimeout) })
		defer ir.stop()
		body = ir
	}
	data, err := io.ReadAll(io.LimitReader(body, s.maxBodySize+1))
	if err != nil {
		f.resolve(nil, classify(ctx, err))
		return
	}
	if int64(len(data)) > s.maxBodySize {
		f.resolve(nil, &host.Error{Kind: host.ErrorProtocol, Message: "response body exceeds size limit"})
		return
	}

	s.log.Debug("response received",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("took", time.Since(start)))
	f.resolve(&incomingResponse{
		status:  uint16(resp.StatusCode),
		headers: fromHeader(resp.Header),
		body:    data,
	}, nil)
}

// clientFor returns a client honoring the connect timeout. The release func
// closes connections opened by a client made for this request only.
func (s *Surface) clientFor(connect *time.Duration) (*http.Client, func()) {
	if connect == nil {
		return s.client, func() {}
	}
	var base *http.Transport
	switch t := s.client.Transport.(type) {
	case nil:
		base = http.DefaultTransport.(*http.Transport)
	case *http.Transport:
		base = t
	default:
		s.log.Debug("connect timeout ignored for custom transport")
		return s.client, func() {}
	}
	t := base.Clone()
	t.DialContext = (&net.Dialer{Timeout: *connect, KeepAlive: 30 * time.Second}).DialContext
	c := *s.client
	c.Transport = t
	return &c, t.CloseIdleConnections
}

// firstByteTimer cancels the request unless headers arrive within its
// duration. Once headersReceived returns, the timer can no longer cancel,
// even if it fired concurrently.
type firstByteTimer struct {
	mu       sync.Mutex
	received bool
	cancel   context.CancelCauseFunc
	timer    *time.Timer
}

func startFirstByteTimer(d time.Duration, cancel context.CancelCauseFunc) *firstByteTimer {
	t := &firstByteTimer{cancel: cancel}
	t.timer = time.AfterFunc(d, t.expire)
	return t
}

func (t *firstByteTimer) expire() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.received {
		t.cancel(errFirstByteTimeout)
	}
}

func (t *firstByteTimer) headersReceived() {
	t.mu.Lock()
	t.received = true
	t.mu.Unlock()
	t.timer.Stop()
}

// idleReader calls onIdle when no Read completes within d.
type idleReader struct {
	r     io.Reader
	d     time.Duration
	timer *time.Timer
}

func newIdleReader(r io.Reader, d time.Duration, onIdle func()) *idleReader {
	return &idleReader{r: r, d: d, timer: time.AfterFunc(d, onIdle)}
}

func (ir *idleReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	ir.timer.Reset(ir.d)
	return n, err
}

func (ir *idleReader) stop() {
	ir.timer.Stop()
}

type timeoutError string

func (e timeoutError) Error() string   { return string(e) }
func (e timeoutError) Timeout() bool   { return true }
func (e timeoutError) Temporary() bool { return false }

func (e timeoutError) Is(target error) bool {
	return target == context.DeadlineExceeded
}
