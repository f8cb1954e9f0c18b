package loopback

import (
	"context"
	"fmt"

	"github.com/loggerhead/zaw"
	"github.com/loggerhead/zaw/errors"
	"github.com/loggerhead/zaw/guest"
)

// Handler is one registered module operation. It runs inside the session's
// dispatch wrapper: a returned error (or panic) lands in the error buffer
// and surfaces to the host as status code 1.
type Handler func(s *guest.Session) error

// Config configures an in-process module.
type Config struct {
	// InitialPages is the starting memory size. Zero means 1 page.
	InitialPages uint32

	// LogSize and ErrorSize override the side-channel buffer capacities.
	LogSize   uint32
	ErrorSize uint32
}

// Module is an in-process implementation of zaw.Exports backed by a real
// guest.Session over a loopback Memory.
type Module struct {
	mem     *Memory
	session *guest.Session
	notify  func()
	ops     map[string]Handler
}

// New creates a module with the four protocol exports wired up.
func New(cfg Config) (*Module, error) {
	pages := cfg.InitialPages
	if pages == 0 {
		pages = 1
	}

	m := &Module{
		mem: NewMemory(pages),
		ops: make(map[string]Handler),
	}

	session, err := guest.NewSession(newArena(m.mem), guest.Config{
		LogSize:   cfg.LogSize,
		ErrorSize: cfg.ErrorSize,
		Notify: func() {
			if m.notify != nil {
				m.notify()
			}
		},
	})
	if err != nil {
		return nil, err
	}
	m.session = session
	return m, nil
}

// Memory returns the module's linear memory for the host to observe.
func (m *Module) Memory() zaw.Memory { return m.mem }

// Session exposes the guest session, the way a real module's handlers see it.
func (m *Module) Session() *guest.Session { return m.session }

// OnNotify installs the host's log notification hook.
func (m *Module) OnNotify(fn func()) { m.notify = fn }

// Register adds an exported operation.
func (m *Module) Register(name string, h Handler) {
	m.ops[name] = h
}

// Call implements zaw.Exports. Guest panics outside a handler (fatal
// allocation misuse) surface as call errors, matching a wasm trap.
func (m *Module) Call(ctx context.Context, name string, params ...uint64) (results []uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = errors.Wrap(errors.PhaseCall, errors.KindCallFailed,
				fmt.Errorf("%v", r), "module trap in "+name)
		}
	}()

	switch name {
	case zaw.ExportGetLogPtr:
		return []uint64{uint64(m.session.LogPtr())}, nil
	case zaw.ExportGetErrorPtr:
		return []uint64{uint64(m.session.ErrorPtr())}, nil
	case zaw.ExportAllocateInputChannel:
		size, err := singleI32(name, params)
		if err != nil {
			return nil, err
		}
		return []uint64{uint64(m.session.AllocateInput(size))}, nil
	case zaw.ExportAllocateOutputChannel:
		size, err := singleI32(name, params)
		if err != nil {
			return nil, err
		}
		return []uint64{uint64(m.session.AllocateOutput(size))}, nil
	}

	h, ok := m.ops[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseCall, "export", name)
	}

	code := m.session.Run(func() error { return h(m.session) })
	return []uint64{uint64(uint32(code))}, nil
}

func singleI32(name string, params []uint64) (int32, error) {
	if len(params) != 1 {
		return 0, errors.InvalidInput(errors.PhaseCall,
			fmt.Sprintf("%s expects 1 parameter, got %d", name, len(params)))
	}
	return int32(uint32(params[0])), nil
}
