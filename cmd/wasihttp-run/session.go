package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/wasi-http-abi/bindings"
	"github.com/wippyai/wasi-http-abi/surface"
)

// session is one runtime with the bindings registered and the guest
// instantiated.
type session struct {
	rt       wazero.Runtime
	surface  *surface.Surface
	compiled wazero.CompiledModule
	mod      api.Module
	handles  *handleTracker
	log      *zap.Logger

	mu     sync.Mutex
	traces []bindings.Trace
}

func newSession(ctx context.Context, cfg Config, log *zap.Logger, stdout, stderr io.Writer) (*session, error) {
	data, err := os.ReadFile(cfg.Wasm)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	s := &session{rt: wazero.NewRuntime(ctx), log: log}
	s.surface = surface.New(
		surface.WithDefaultTimeout(cfg.HTTP.Timeout),
		surface.WithMaxBodySize(cfg.HTTP.MaxBodySize),
		surface.WithLogger(log.Named("surface")),
	)
	s.handles = trackHandles(s.surface.Table())

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, s.rt); err != nil {
		s.close(ctx)
		return nil, fmt.Errorf("register WASI: %w", err)
	}
	err = bindings.Register(ctx, s.rt, s.surface,
		bindings.WithMemoryExport(cfg.MemoryExport),
		bindings.WithAllocExport(cfg.AllocExport),
		bindings.WithLogger(log.Named("bindings")),
		bindings.WithTracer(s.record),
	)
	if err != nil {
		s.close(ctx)
		return nil, fmt.Errorf("register bindings: %w", err)
	}

	s.compiled, err = s.rt.CompileModule(ctx, data)
	if err != nil {
		s.close(ctx)
		return nil, fmt.Errorf("compile: %w", err)
	}

	// Start functions are called explicitly so their exit can be reported.
	mc := wazero.NewModuleConfig().
		WithName("guest").
		WithStdout(stdout).
		WithStderr(stderr).
		WithStartFunctions()
	s.mod, err = s.rt.InstantiateModule(ctx, s.compiled, mc)
	if err != nil {
		s.close(ctx)
		return nil, fmt.Errorf("instantiate: %w", err)
	}
	return s, nil
}

func (s *session) record(t bindings.Trace) {
	s.mu.Lock()
	s.traces = append(s.traces, t)
	s.mu.Unlock()
}

// takeTraces returns and clears the recorded binding calls.
func (s *session) takeTraces() []bindings.Trace {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.traces
	s.traces = nil
	return out
}

// exports lists the guest's exported functions by name.
func (s *session) exports() []api.FunctionDefinition {
	defs := s.compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]api.FunctionDefinition, len(names))
	for i, name := range names {
		out[i] = defs[name]
	}
	return out
}

// entryPoint picks the export to call when none was named.
func (s *session) entryPoint() string {
	defs := s.compiled.ExportedFunctions()
	for _, name := range []string{"_start", "run", "main"} {
		if _, ok := defs[name]; ok {
			return name
		}
	}
	return ""
}

// call invokes an export. A clean proc_exit(0) counts as success.
func (s *session) call(ctx context.Context, name string, args []uint64) ([]uint64, error) {
	fn := s.mod.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("export %q not found", name)
	}
	results, err := fn.Call(ctx, args...)
	var exit *sys.ExitError
	if stderrors.As(err, &exit) && exit.ExitCode() == 0 {
		return nil, nil
	}
	return results, err
}

func (s *session) close(ctx context.Context) {
	if leaked := s.handles.leaked(); len(leaked) > 0 {
		s.log.Warn("guest left handles open",
			zap.Int("count", len(leaked)),
			zap.Strings("handles", leaked))
	}
	_ = s.surface.Close()
	_ = s.rt.Close(ctx)
}
