// Command wasihttp-run loads a core wasm module, registers the wasi-http
// bindings against a net/http capability surface, and calls one of the
// module's exports.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/wasi-http-abi/bindings"
	"github.com/wippyai/wasi-http-abi/surface"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to core wasm module")
		funcName    = flag.String("func", "", "Export to call (default _start, run or main)")
		args        = flag.String("args", "", "Arguments (comma-separated)")
		configPath  = flag.String("config", "", "YAML configuration file")
		timeout     = flag.Duration("timeout", 0, "Default outgoing request timeout (0 disables)")
		list        = flag.Bool("list", false, "List bindings and module exports and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Debug logging")
		schema      = flag.Bool("schema", false, "Print the configuration JSON Schema and exit")
	)
	flag.Parse()

	if *schema {
		out, err := configSchema()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	overlayFlags(&cfg, set, *wasmFile, *funcName, *timeout, *verbose)

	if err := cfg.validate(!*list); err != nil {
		fmt.Fprintln(os.Stderr, "Usage: wasihttp-run -wasm <module.wasm> [-func name] [-args 1,2] [-config file.yaml]")
		fmt.Fprintln(os.Stderr, "       wasihttp-run [-wasm <module.wasm>] -list")
		fmt.Fprintln(os.Stderr, "       wasihttp-run -wasm <module.wasm> -i  (interactive mode)")
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	bindings.SetLogger(log.Named("bindings"))
	surface.SetLogger(log.Named("surface"))

	if err := run(cfg, *args, *list, log); err != nil {
		log.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

// overlayFlags applies the flags named in set over the loaded
// configuration. An explicit -timeout 0 disables the default timeout.
func overlayFlags(cfg *Config, set map[string]bool, wasm, fn string, timeout time.Duration, verbose bool) {
	if set["wasm"] {
		cfg.Wasm = wasm
	}
	if set["func"] {
		cfg.Func = fn
	}
	if set["timeout"] {
		cfg.HTTP.Timeout = timeout
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
}

func run(cfg Config, argList string, listOnly bool, log *zap.Logger) error {
	ctx := context.Background()

	if listOnly {
		s := surface.New()
		defer s.Close()
		fmt.Println("Bindings:")
		if err := printBindings(os.Stdout, s); err != nil {
			return err
		}
		if cfg.Wasm == "" {
			return nil
		}
	}

	sess, err := newSession(ctx, cfg, log, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	defer sess.close(ctx)

	if listOnly {
		fmt.Printf("\nExports of %s:\n", cfg.Wasm)
		for _, def := range sess.exports() {
			fmt.Printf("  %s%s\n", def.ExportNames()[0], coreSig(def.ParamTypes(), def.ResultTypes()))
		}
		return nil
	}

	name := cfg.Func
	if name == "" {
		name = sess.entryPoint()
	}
	if name == "" {
		return fmt.Errorf("no entry point found, use -func to name an export")
	}
	def, ok := sess.compiled.ExportedFunctions()[name]
	if !ok {
		return fmt.Errorf("export %q not found", name)
	}

	params, err := parseArgs(argList, def.ParamTypes())
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	start := time.Now()
	results, err := sess.call(ctx, name, params)
	traces := sess.takeTraces()
	log.Debug("call finished",
		zap.String("func", name),
		zap.Int("bindingCalls", len(traces)),
		zap.Duration("duration", time.Since(start)))
	if err != nil {
		return fmt.Errorf("call %s: %w", name, err)
	}

	if len(results) > 0 {
		fmt.Printf("%s\n", formatResults(results, def.ResultTypes()))
	}
	return nil
}
