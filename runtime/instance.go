package runtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/loggerhead/zaw"
	"github.com/loggerhead/zaw/conduit"
	"github.com/loggerhead/zaw/errors"
)

// Boundary is what a loaded module looks like to the host: a callable export
// table, an observable linear memory, and a slot for the log notification
// hook. engine.Instance and loopback.Module both implement it.
type Boundary interface {
	zaw.Exports
	Memory() zaw.Memory
	OnNotify(fn func())
}

// Instance is a bootstrapped module. It is bound to one logical thread of
// control: calls are synchronous and must not be reentered from inside their
// own encode/decode functions.
type Instance struct {
	exports zaw.Exports
	mem     zaw.Memory
	logger  *zap.Logger
	logSink func(string)

	// The four protocol addresses, captured once at bootstrap and stable
	// for the instance's lifetime.
	logPtr    uint32
	errPtr    uint32
	inputPtr  uint32
	outputPtr uint32

	inputSize  uint32
	outputSize uint32
	maxLog     uint32
	maxErr     uint32

	// Buffer identity of the last full-memory view. Growth relocates the
	// backing buffer; a mismatch here triggers a lazy rebuild.
	viewBase *byte
	viewSize uint32
}

// NewInstance bootstraps a module: queries the four protocol addresses,
// allocates both channels at the configured sizes, grows memory to cover all
// four regions, and wires the log notification hook. Failure is fatal; there
// is no partial instance.
func NewInstance(ctx context.Context, b Boundary, cfg Config) (*Instance, error) {
	cfg.fillDefaults()

	if cfg.InputSize <= 0 || cfg.OutputSize <= 0 {
		return nil, errors.InvalidInput(errors.PhaseBootstrap, "channel sizes must be positive")
	}

	mem := cfg.Memory
	if mem == nil {
		mem = b.Memory()
	}

	inst := &Instance{
		exports: b,
		mem:     mem,
		logger:  cfg.Logger,
		logSink: cfg.LogSink,
		maxLog:  cfg.MaxLogSize,
		maxErr:  cfg.MaxErrorSize,
		// Module-side storage is rounded up to a multiple of 8; mirror it
		// so host views cover the full storage.
		inputSize:  (uint32(cfg.InputSize) + 7) &^ 7,
		outputSize: (uint32(cfg.OutputSize) + 7) &^ 7,
	}

	var err error
	if inst.logPtr, err = inst.callAddr(ctx, zaw.ExportGetLogPtr); err != nil {
		return nil, err
	}
	if inst.errPtr, err = inst.callAddr(ctx, zaw.ExportGetErrorPtr); err != nil {
		return nil, err
	}
	if inst.inputPtr, err = inst.callAddr(ctx, zaw.ExportAllocateInputChannel, uint64(uint32(cfg.InputSize))); err != nil {
		return nil, err
	}
	if inst.outputPtr, err = inst.callAddr(ctx, zaw.ExportAllocateOutputChannel, uint64(uint32(cfg.OutputSize))); err != nil {
		return nil, err
	}

	if err := inst.ensureCoverage(cfg.InitialPages); err != nil {
		return nil, err
	}

	b.OnNotify(inst.notifyLog)

	inst.logger.Info("instance bootstrapped",
		zap.Uint32("log_ptr", inst.logPtr),
		zap.Uint32("error_ptr", inst.errPtr),
		zap.Uint32("input_ptr", inst.inputPtr),
		zap.Uint32("input_size", inst.inputSize),
		zap.Uint32("output_ptr", inst.outputPtr),
		zap.Uint32("output_size", inst.outputSize),
		zap.Uint32("memory_bytes", inst.mem.Size()),
	)
	return inst, nil
}

// Layout reports the protocol addresses and sizes resolved at bootstrap.
type Layout struct {
	LogPtr     uint32
	ErrorPtr   uint32
	InputPtr   uint32
	OutputPtr  uint32
	InputSize  uint32
	OutputSize uint32
}

// Layout returns the instance's resolved memory layout. The addresses are
// stable for the instance's lifetime.
func (i *Instance) Layout() Layout {
	return Layout{
		LogPtr:     i.logPtr,
		ErrorPtr:   i.errPtr,
		InputPtr:   i.inputPtr,
		OutputPtr:  i.outputPtr,
		InputSize:  i.inputSize,
		OutputSize: i.outputSize,
	}
}

// callAddr invokes an address-returning protocol export during bootstrap.
func (i *Instance) callAddr(ctx context.Context, name string, params ...uint64) (uint32, error) {
	results, err := i.exports.Call(ctx, name, params...)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseBootstrap, errors.KindInstantiation, err, name)
	}
	if len(results) != 1 {
		return 0, errors.InvalidInput(errors.PhaseBootstrap, name+" did not return an address")
	}
	addr := uint32(results[0])
	if addr == 0 {
		return 0, errors.InvalidInput(errors.PhaseBootstrap, name+" returned address 0")
	}
	return addr, nil
}

// ensureCoverage grows memory until it covers all four protocol regions and
// the configured page floor.
func (i *Instance) ensureCoverage(minPages uint32) error {
	required := uint64(i.inputPtr) + uint64(i.inputSize)
	for _, end := range []uint64{
		uint64(i.outputPtr) + uint64(i.outputSize),
		uint64(i.logPtr) + uint64(i.maxLog),
		uint64(i.errPtr) + uint64(i.maxErr),
		uint64(minPages) * zaw.PageSize,
	} {
		if end > required {
			required = end
		}
	}

	current := uint64(i.mem.Size())
	if required <= current {
		return nil
	}

	pages := uint32((required - current + zaw.PageSize - 1) / zaw.PageSize)
	if _, err := i.mem.Grow(pages); err != nil {
		return errors.Wrap(errors.PhaseBootstrap, errors.KindAllocation, err, "grow memory to cover protocol regions")
	}

	i.logger.Debug("memory grown at bootstrap",
		zap.Uint64("required_bytes", required),
		zap.Uint32("grown_pages", pages),
	)
	return nil
}

// view returns the current full-memory view, tracking buffer identity so
// growth-induced relocation is observed exactly once per change.
func (i *Instance) view() ([]byte, error) {
	size := i.mem.Size()
	v, err := i.mem.Read(0, size)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCall, errors.KindOutOfBounds, err, "read memory view")
	}
	if len(v) == 0 {
		return nil, errors.InvalidInput(errors.PhaseCall, "memory is empty")
	}
	if i.viewBase != &v[0] || i.viewSize != size {
		if i.viewBase != nil {
			i.logger.Debug("memory view rebuilt",
				zap.Uint32("old_size", i.viewSize),
				zap.Uint32("new_size", size),
			)
		}
		i.viewBase = &v[0]
		i.viewSize = size
	}
	return v, nil
}

// region slices one protocol region out of the current view.
func (i *Instance) region(addr, size uint32, what string) ([]byte, error) {
	v, err := i.view()
	if err != nil {
		return nil, err
	}
	if uint64(addr)+uint64(size) > uint64(len(v)) {
		return nil, errors.Bounds(errors.PhaseCall, what, addr, size, uint32(len(v)))
	}
	return v[addr : addr+size], nil
}

// Input returns a Writer over the input channel with the cursor reset.
// Every retrieval starts a fresh message. The writer is valid for one
// message; do not retain it across calls that may grow memory.
func (i *Instance) Input() (*conduit.Writer, error) {
	buf, err := i.region(i.inputPtr, i.inputSize, "inputChannel")
	if err != nil {
		return nil, err
	}
	return conduit.NewWriter(buf), nil
}

// Output returns a Reader over the output channel with the cursor reset.
// Same lifetime contract as Input.
func (i *Instance) Output() (*conduit.Reader, error) {
	buf, err := i.region(i.outputPtr, i.outputSize, "outputChannel")
	if err != nil {
		return nil, err
	}
	return conduit.NewReader(buf), nil
}

// Call invokes a raw module export and applies the error side-channel
// protocol to its outcome.
func (i *Instance) Call(ctx context.Context, name string) error {
	results, callErr := i.exports.Call(ctx, name)

	var code int32
	if callErr == nil && len(results) > 0 {
		code = int32(uint32(results[0]))
	}
	return i.resolve(name, code, callErr)
}

// resolve maps every combination of {status code, error buffer, captured
// call fault} to exactly one outcome:
//
//  1. non-empty error buffer: the module's message, verbatim, superseding
//     any captured fault
//  2. captured fault (the call never produced a meaningful code): passed
//     through
//  3. non-zero code with an empty buffer: generic unknown error
//  4. otherwise success
func (i *Instance) resolve(op string, code int32, callErr error) error {
	msg, err := i.ReadError()
	if err != nil {
		return err
	}

	switch {
	case msg != "":
		return errors.Signaled(msg)
	case callErr != nil:
		return errors.Wrap(errors.PhaseCall, errors.KindCallFailed, callErr, op)
	case code != 0:
		return errors.Unknown(op)
	}
	return nil
}
