package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/loggerhead/zaw"
	"github.com/loggerhead/zaw/conduit"
	"github.com/loggerhead/zaw/config"
	"github.com/loggerhead/zaw/engine"
	"github.com/loggerhead/zaw/runtime"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to wasm module")
		configFile  = flag.String("config", "", "Path to runner config file")
		opName      = flag.String("op", "", "Exported operation to call (optional)")
		strArg      = flag.String("arg", "", "String argument, encoded into the input channel")
		list        = flag.Bool("list", false, "List exported operations and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	cfg, err := config.LoadRunnerConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		os.Exit(1)
	}
	if *wasmFile != "" {
		cfg.ModulePath = *wasmFile
	}

	if cfg.ModulePath == "" {
		fmt.Fprintln(os.Stderr, "Usage: zaw-run -wasm <file.wasm> [-op name] [-arg string]")
		fmt.Fprintln(os.Stderr, "       zaw-run -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       zaw-run -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, *opName, *strArg, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// listOps extracts callable operation names from the compiled module,
// hiding the boundary protocol exports.
func listOps(names []string) []string {
	protocol := map[string]bool{
		zaw.ExportGetLogPtr:             true,
		zaw.ExportGetErrorPtr:           true,
		zaw.ExportAllocateInputChannel:  true,
		zaw.ExportAllocateOutputChannel: true,
		"memory": true,
	}
	var ops []string
	for _, name := range names {
		if !protocol[name] {
			ops = append(ops, name)
		}
	}
	sort.Strings(ops)
	return ops
}

func run(cfg *config.RunnerConfig, opName, strArg string, listOnly bool) error {
	ctx := context.Background()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	data, err := os.ReadFile(cfg.ModulePath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	eng, err := engine.New(ctx, &engine.Config{
		MemoryLimitPages: cfg.Engine.MemoryLimitPages,
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	defer eng.Close(ctx)

	mod, err := eng.Load(ctx, data)
	if err != nil {
		return fmt.Errorf("load module: %w", err)
	}

	ops := listOps(mod.ExportNames())

	fmt.Printf("Module: %s\n", cfg.ModulePath)
	fmt.Printf("\nExported operations:\n")
	for _, name := range ops {
		fmt.Printf("  %s\n", name)
	}

	if listOnly {
		return nil
	}

	inst, err := mod.Instantiate(ctx, engine.InstanceConfig{})
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}
	defer inst.Close(ctx)

	rcfg := runtime.Config{
		InputSize:    cfg.Channel.InputSize,
		OutputSize:   cfg.Channel.OutputSize,
		MaxLogSize:   cfg.Channel.MaxLogSize,
		MaxErrorSize: cfg.Channel.MaxErrorSize,
		InitialPages: cfg.Channel.InitialPages,
		Logger:       logger,
		LogSink: func(msg string) {
			fmt.Printf("[module] %s\n", msg)
		},
	}

	fmt.Printf("\nBootstrapping...\n")
	boot, err := runtime.NewInstance(ctx, inst, rcfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	layout := boot.Layout()
	fmt.Printf("Memory layout:\n")
	fmt.Printf("  log buffer     %8d (%d bytes)\n", layout.LogPtr, cfg.Channel.MaxLogSize)
	fmt.Printf("  error buffer   %8d (%d bytes)\n", layout.ErrorPtr, cfg.Channel.MaxErrorSize)
	fmt.Printf("  input channel  %8d (%d bytes)\n", layout.InputPtr, layout.InputSize)
	fmt.Printf("  output channel %8d (%d bytes)\n", layout.OutputPtr, layout.OutputSize)
	fmt.Printf("  memory size    %8d bytes\n", inst.Memory().Size())

	if opName == "" {
		if len(ops) == 1 {
			opName = ops[0]
		} else {
			fmt.Printf("\nNo operation specified. Use -op to pick one.\n")
			return nil
		}
	}

	call := runtime.Bind(boot, opName,
		func(w *conduit.Writer, arg string) error {
			if arg == "" {
				return nil
			}
			return w.WriteString(arg)
		},
		func(r *conduit.Reader, _ string) (string, error) {
			return r.ReadString()
		})

	fmt.Printf("\nCalling %s(%q)...\n", opName, strArg)
	result, err := call(ctx, strArg)
	if err != nil {
		return fmt.Errorf("call %s: %w", opName, err)
	}

	fmt.Printf("Result: %q\n", result)
	return nil
}
