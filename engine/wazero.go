// Package engine loads WebAssembly modules with wazero and exposes each
// instance through the boundary interfaces the host runtime consumes.
//
// One Engine owns one wazero runtime. The "env" host module, which carries
// the log notification import, is instantiated once per engine; notification
// callbacks are dispatched per instance via the calling module's identity.
package engine

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/loggerhead/zaw"
	"github.com/loggerhead/zaw/errors"
)

// Config holds configuration for engine creation.
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages
	// (64KB each). 0 means the wazero default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// Logger defaults to the package nop logger.
	Logger *zap.Logger
}

// Engine wraps a wazero runtime shared by every module it loads.
type Engine struct {
	runtime wazero.Runtime
	logger  *zap.Logger

	// Log notification hooks, keyed by the calling guest module. The env
	// host module is runtime-scoped, so dispatch has to recover the
	// instance from the api.Module wazero hands the host function.
	hooksMu sync.RWMutex
	hooks   map[api.Module]func()
}

// New creates a wazero-backed engine and instantiates the env host module
// that serves the log notification import.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	log := Logger()

	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.Logger != nil {
			log = cfg.Logger
		}
	}

	e := &Engine{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		logger:  log,
		hooks:   make(map[api.Module]func()),
	}

	_, err := e.runtime.NewHostModuleBuilder(zaw.ImportModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(e.dispatchNotify), nil, nil).
		Export(zaw.ImportNotifyLog).
		Instantiate(ctx)
	if err != nil {
		_ = e.runtime.Close(ctx)
		return nil, errors.Instantiation(err)
	}

	return e, nil
}

// dispatchNotify routes a guest's notifyLog call to the hook registered for
// that guest instance. Unregistered callers are ignored.
func (e *Engine) dispatchNotify(_ context.Context, mod api.Module, _ []uint64) {
	e.hooksMu.RLock()
	fn := e.hooks[mod]
	e.hooksMu.RUnlock()

	if fn != nil {
		fn()
	}
}

func (e *Engine) setHook(mod api.Module, fn func()) {
	e.hooksMu.Lock()
	e.hooks[mod] = fn
	e.hooksMu.Unlock()
}

func (e *Engine) dropHook(mod api.Module) {
	e.hooksMu.Lock()
	delete(e.hooks, mod)
	e.hooksMu.Unlock()
}

// HostFunc defines one extra import binding.
type HostFunc struct {
	Name    string
	Fn      api.GoModuleFunc
	Params  []api.ValueType
	Results []api.ValueType
}

// RegisterHostModule instantiates an additional import namespace for modules
// that need bindings beyond the boundary protocol. The env namespace is owned
// by the engine and cannot be redefined.
func (e *Engine) RegisterHostModule(ctx context.Context, name string, funcs []HostFunc) error {
	if name == zaw.ImportModule {
		return errors.InvalidInput(errors.PhaseBootstrap, "the env namespace is reserved")
	}

	builder := e.runtime.NewHostModuleBuilder(name)
	for _, f := range funcs {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.Fn, f.Params, f.Results).
			Export(f.Name)
	}
	if _, err := builder.Instantiate(ctx); err != nil {
		return errors.Instantiation(err)
	}
	return nil
}

// Load compiles a module from its binary form.
func (e *Engine) Load(ctx context.Context, wasmBytes []byte) (*Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}
	return &Module{engine: e, compiled: compiled}, nil
}

// Close releases the runtime and every module and instance it owns.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Module is a compiled module, reusable across instantiations.
type Module struct {
	engine   *Engine
	compiled wazero.CompiledModule
}

// ExportNames lists the module's exported function names.
func (m *Module) ExportNames() []string {
	defs := m.compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	return names
}

// InstanceConfig holds configuration for module instantiation.
type InstanceConfig struct {
	// Name registers the instance under a name in the runtime. Empty means
	// anonymous, which permits parallel instantiation of the same module.
	Name string
}

// Instantiate creates a runnable instance. The module must export its linear
// memory; the boundary protocol reads and grows it from the host side.
func (m *Module) Instantiate(ctx context.Context, cfg InstanceConfig) (*Instance, error) {
	modConfig := wazero.NewModuleConfig().WithName(cfg.Name)

	mod, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, modConfig)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	apiMem := mod.Memory()
	if apiMem == nil {
		_ = mod.Close(ctx)
		return nil, errors.InvalidInput(errors.PhaseBootstrap, "module does not export its memory")
	}

	m.engine.logger.Debug("module instantiated",
		zap.String("name", cfg.Name),
		zap.Uint32("memory_bytes", apiMem.Size()),
	)

	return &Instance{
		engine:    m.engine,
		module:    mod,
		mem:       &Memory{mem: apiMem},
		funcCache: make(map[string]api.Function),
	}, nil
}

// Instance is one instantiation of a compiled module. It implements the
// boundary the host runtime bootstraps against.
type Instance struct {
	engine *Engine
	module api.Module
	mem    *Memory

	cacheMu   sync.RWMutex
	funcCache map[string]api.Function
}

// Call invokes an exported function by name. Export lookups are cached.
func (i *Instance) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	i.cacheMu.RLock()
	fn, ok := i.funcCache[name]
	i.cacheMu.RUnlock()

	if !ok {
		fn = i.module.ExportedFunction(name)
		if fn == nil {
			return nil, errors.NotFound(errors.PhaseCall, "export", name)
		}
		i.cacheMu.Lock()
		i.funcCache[name] = fn
		i.cacheMu.Unlock()
	}

	return fn.Call(ctx, params...)
}

// Memory returns the instance's exported linear memory.
func (i *Instance) Memory() zaw.Memory {
	return i.mem
}

// OnNotify registers the hook invoked when this instance calls the log
// notification import.
func (i *Instance) OnNotify(fn func()) {
	i.engine.setHook(i.module, fn)
}

// Close releases the instance and unregisters its notification hook.
func (i *Instance) Close(ctx context.Context) error {
	i.engine.dropHook(i.module)
	return i.module.Close(ctx)
}

// Memory adapts wazero's api.Memory to the boundary memory interface.
type Memory struct {
	mem api.Memory
}

func (m *Memory) Read(offset, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.Bounds(errors.PhaseCall, "memory read", offset, length, m.mem.Size())
	}
	return data, nil
}

func (m *Memory) Size() uint32 {
	return m.mem.Size()
}

func (m *Memory) Grow(deltaPages uint32) (uint32, error) {
	prev, ok := m.mem.Grow(deltaPages)
	if !ok {
		return 0, errors.AllocationFailed(errors.PhaseChannel, deltaPages*zaw.PageSize, nil)
	}
	return prev, nil
}

// Compile-time checks against the boundary interfaces.
var (
	_ zaw.Memory  = (*Memory)(nil)
	_ zaw.Exports = (*Instance)(nil)
)
