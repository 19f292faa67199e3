package bindings

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/wasi-http-abi/errors"
	"github.com/wippyai/wasi-http-abi/host"
	"github.com/wippyai/wasi-http-abi/internal/abi"
)

// Import module names.
const (
	NamespaceOutgoingHandler = "wasi:http/outgoing-handler"
	NamespaceTypes           = "wasi:http/types"
	NamespaceStreams         = "wasi:io/streams"
	NamespacePoll            = "wasi:poll/poll"
)

// FuncDef is one entry of the binding table.
type FuncDef struct {
	Handler   api.GoModuleFunc
	Namespace string
	Name      string
	Params    []api.ValueType
	Results   []api.ValueType
	Signature abi.Signature
	// Retptr is set when results are written to a trailing out-pointer
	// parameter instead of being returned.
	Retptr bool
}

type handlerFunc func(c *call) error

type binder struct {
	host host.Host
	cfg  config
	defs []FuncDef
}

// Table builds the binding table for h. Entries are grouped by namespace
// in a fixed order.
func Table(h host.Host, opts ...Option) ([]FuncDef, error) {
	if h == nil {
		return nil, errors.InvalidInput(errors.PhaseConfig, "host is nil")
	}
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	b := &binder{host: h, cfg: cfg}
	b.outgoingHandler()
	b.types()
	b.streams()
	b.poll()
	return b.defs, nil
}

// Register instantiates one host module per namespace in rt.
func Register(ctx context.Context, rt wazero.Runtime, h host.Host, opts ...Option) error {
	defs, err := Table(h, opts...)
	if err != nil {
		return err
	}

	byNamespace := make(map[string][]FuncDef)
	for _, d := range defs {
		byNamespace[d.Namespace] = append(byNamespace[d.Namespace], d)
	}
	namespaces := make([]string, 0, len(byNamespace))
	for ns := range byNamespace {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	log := Logger()
	for _, ns := range namespaces {
		builder := rt.NewHostModuleBuilder(ns)
		for _, d := range byNamespace[ns] {
			builder.NewFunctionBuilder().
				WithGoModuleFunction(d.Handler, d.Params, d.Results).
				WithName(d.Name).
				Export(d.Name)
		}
		if _, err := builder.Instantiate(ctx); err != nil {
			return errors.Registration(ns, "instantiate", err)
		}
		log.Debug("registered host module",
			zap.String("namespace", ns),
			zap.Int("functions", len(byNamespace[ns])))
	}
	return nil
}

// bind adds one entry. The core signature is derived from the WIT one.
func (b *binder) bind(ns, name string, params, results []wit.Type, fn handlerFunc) {
	sig := abi.Signature{Params: params, Results: results}
	coreParams, coreResults := abi.Lower(sig)
	b.defs = append(b.defs, FuncDef{
		Namespace: ns,
		Name:      name,
		Signature: sig,
		Params:    coreParams,
		Results:   coreResults,
		Retptr:    abi.UsesRetptr(sig),
		Handler:   b.wrap(ns, name, len(coreParams), fn),
	})
}

// wrap turns fn into an engine callback. Fatal errors are logged and
// raised as panics so the engine aborts the guest call.
func (b *binder) wrap(ns, name string, arity int, fn handlerFunc) api.GoModuleFunc {
	cfg := &b.cfg
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		var args []uint64
		if cfg.tracer != nil {
			args = append([]uint64(nil), stack[:arity]...)
		}
		start := time.Now()

		err := fn(&call{ctx: ctx, mod: mod, stack: stack, cfg: cfg})

		var failure *errors.Error
		if err != nil {
			failure = errors.At(err, ns, name)
		}
		if cfg.tracer != nil {
			t := Trace{Namespace: ns, Name: name, Args: args, Duration: time.Since(start)}
			if failure != nil {
				t.Err = failure
			}
			cfg.tracer(t)
		}
		if failure != nil {
			cfg.logger.Error("host call aborted",
				zap.String("namespace", ns),
				zap.String("func", name),
				zap.Error(failure))
			panic(failure)
		}
		if ce := cfg.logger.Check(zap.DebugLevel, "host call"); ce != nil {
			ce.Write(zap.String("namespace", ns), zap.String("func", name), zap.Duration("took", time.Since(start)))
		}
	}
}

// asStreamError reports whether err is a stream failure the guest should
// receive as data.
func asStreamError(err error) bool {
	var se *host.StreamError
	return stderrors.As(err, &se)
}
