package surface

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/wasi-http-abi/host"
	"github.com/wippyai/wasi-http-abi/resource"
)

const (
	// DefaultTimeout bounds a whole request when the guest sets no timeouts.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxBodySize bounds buffered request and response bodies.
	DefaultMaxBodySize = 16 << 20
)

var _ host.Host = (*Surface)(nil)

// Surface implements host.Host over an http.Client.
type Surface struct {
	ctx    context.Context
	cancel context.CancelFunc
	client *http.Client
	table  *resource.Table
	log    *zap.Logger

	timeout     time.Duration
	maxBodySize int64
}

// Option configures a Surface.
type Option func(*Surface)

// WithClient sets the HTTP client used to send requests.
func WithClient(c *http.Client) Option {
	return func(s *Surface) { s.client = c }
}

// WithDefaultTimeout bounds requests that carry no timeouts of their own.
// Zero disables the bound.
func WithDefaultTimeout(d time.Duration) Option {
	return func(s *Surface) { s.timeout = d }
}

// WithMaxBodySize bounds buffered request and response bodies.
func WithMaxBodySize(n int64) Option {
	return func(s *Surface) { s.maxBodySize = n }
}

// WithLogger sets the logger. Without it the package logger is used.
func WithLogger(l *zap.Logger) Option {
	return func(s *Surface) { s.log = l }
}

// WithTable stores handles in t instead of a private table.
func WithTable(t *resource.Table) Option {
	return func(s *Surface) { s.table = t }
}

// New creates a Surface.
func New(opts ...Option) *Surface {
	s := &Surface{
		client:      http.DefaultClient,
		timeout:     DefaultTimeout,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, o := range opts {
		o(s)
	}
	if s.table == nil {
		s.table = resource.NewTable()
	}
	if s.log == nil {
		s.log = Logger()
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Table returns the handle table.
func (s *Surface) Table() *resource.Table {
	return s.table
}

// Close cancels in-flight requests and drops every live handle.
func (s *Surface) Close() error {
	s.cancel()
	return s.table.Close()
}

func (s *Surface) insert(kind resource.Kind, v any) (uint32, error) {
	h, err := s.table.Insert(kind, v)
	return uint32(h), err
}

func (s *Surface) remove(kind resource.Kind, h uint32) error {
	_, err := s.table.Remove(resource.Handle(h), kind)
	return err
}
