package bindings

import (
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/wippyai/wasi-http-abi/errors"
	"github.com/wippyai/wasi-http-abi/memory"
)

var validate = validator.New()

// Trace describes one completed binding call.
type Trace struct {
	Err       error
	Namespace string
	Name      string
	Args      []uint64
	Duration  time.Duration
}

// Option configures a binding table.
type Option func(*config)

type config struct {
	logger       *zap.Logger
	tracer       func(Trace)
	MemoryExport string `validate:"required"`
	AllocExport  string `validate:"required"`
}

func defaultConfig() config {
	return config{
		MemoryExport: memory.DefaultExport,
		AllocExport:  memory.DefaultAllocExport,
	}
}

// WithLogger sets the logger used by the table's handlers. Without it the
// package logger is used.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMemoryExport sets the name of the guest memory export.
func WithMemoryExport(name string) Option {
	return func(c *config) { c.MemoryExport = name }
}

// WithAllocExport sets the name of the guest allocator export.
func WithAllocExport(name string) Option {
	return func(c *config) { c.AllocExport = name }
}

// WithTracer registers fn to be called after every binding call, including
// ones that trap. fn runs on the guest's goroutine.
func WithTracer(fn func(Trace)) Option {
	return func(c *config) { c.tracer = fn }
}

func buildConfig(opts []Option) (config, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if err := validate.Struct(cfg); err != nil {
		return config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "invalid binding options")
	}
	if cfg.logger == nil {
		cfg.logger = Logger()
	}
	return cfg, nil
}
