package guest

import (
	"fmt"

	"github.com/loggerhead/zaw"
	"github.com/loggerhead/zaw/conduit"
	"github.com/loggerhead/zaw/errors"
)

// Config configures a module-side session.
type Config struct {
	// LogSize and ErrorSize are the side-channel buffer capacities in
	// bytes. Zero selects the protocol defaults.
	LogSize   uint32
	ErrorSize uint32

	// Notify is the host-provided hook invoked after the log buffer is
	// populated. May be nil (log writes become silent).
	Notify func()
}

// Session is the module's boundary state: channel storage, side-channel
// buffers and the dispatch wrapper. One Session lives for the module's
// lifetime.
type Session struct {
	alloc  Allocator
	notify func()

	logAddr uint32
	logSize uint32
	errAddr uint32
	errSize uint32

	input  channelStorage
	output channelStorage
}

// channelStorage records one channel's backing allocation. addr 0 means not
// yet allocated.
type channelStorage struct {
	addr uint32
	size uint32
}

// NewSession allocates the side-channel buffers and returns a ready session.
func NewSession(alloc Allocator, cfg Config) (*Session, error) {
	logSize := cfg.LogSize
	if logSize == 0 {
		logSize = zaw.DefaultLogSize
	}
	errSize := cfg.ErrorSize
	if errSize == 0 {
		errSize = zaw.DefaultErrorSize
	}

	s := &Session{
		alloc:   alloc,
		notify:  cfg.Notify,
		logSize: logSize,
		errSize: errSize,
	}

	var err error
	if s.logAddr, err = alloc.Alloc(logSize); err != nil {
		return nil, errors.AllocationFailed(errors.PhaseGuest, logSize, err)
	}
	if s.errAddr, err = alloc.Alloc(errSize); err != nil {
		return nil, errors.AllocationFailed(errors.PhaseGuest, errSize, err)
	}

	// Fresh allocations may be dirty; both buffers must start empty.
	s.clearBuffer(s.logAddr, s.logSize)
	s.clearBuffer(s.errAddr, s.errSize)
	return s, nil
}

func (s *Session) clearBuffer(addr, size uint32) {
	if b, err := s.alloc.Bytes(addr, size); err == nil {
		clear(b)
	}
}

// LogPtr returns the log buffer address for the host to record.
func (s *Session) LogPtr() uint32 { return s.logAddr }

// ErrorPtr returns the error buffer address for the host to record.
func (s *Session) ErrorPtr() uint32 { return s.errAddr }

// LogSize returns the log buffer capacity in bytes.
func (s *Session) LogSize() uint32 { return s.logSize }

// ErrorSize returns the error buffer capacity in bytes.
func (s *Session) ErrorSize() uint32 { return s.errSize }

// AllocateInput creates (or recreates) the input channel storage and returns
// its base address. A previous allocation is released first; its address is
// invalid afterwards and must not be cached across the call.
//
// size <= 0 is a programming error at the call site, not a recoverable
// condition: it panics, which traps the module-side call.
func (s *Session) AllocateInput(size int32) uint32 {
	return s.allocateChannel(&s.input, size)
}

// AllocateOutput creates (or recreates) the output channel storage and
// returns its base address. Same contract as AllocateInput.
func (s *Session) AllocateOutput(size int32) uint32 {
	return s.allocateChannel(&s.output, size)
}

func (s *Session) allocateChannel(cs *channelStorage, size int32) uint32 {
	if size <= 0 {
		panic(fmt.Sprintf("guest: channel size must be positive, got %d", size))
	}

	// Storage is sized to a multiple of 8 bytes.
	rounded := (uint32(size) + 7) &^ 7

	if cs.addr != 0 {
		s.alloc.Free(cs.addr, cs.size)
	}

	addr, err := s.alloc.Alloc(rounded)
	if err != nil {
		panic(fmt.Sprintf("guest: channel allocation of %d bytes failed: %v", rounded, err))
	}

	cs.addr = addr
	cs.size = rounded
	return addr
}

// Input returns a Reader over the input channel with the cursor at 0. Every
// retrieval starts a fresh message; anything unconsumed from the previous
// message is abandoned.
func (s *Session) Input() (*conduit.Reader, error) {
	buf, err := s.channelBytes(&s.input, "input")
	if err != nil {
		return nil, err
	}
	return conduit.NewReader(buf), nil
}

// Output returns a Writer over the output channel with the cursor at 0.
func (s *Session) Output() (*conduit.Writer, error) {
	buf, err := s.channelBytes(&s.output, "output")
	if err != nil {
		return nil, err
	}
	return conduit.NewWriter(buf), nil
}

func (s *Session) channelBytes(cs *channelStorage, role string) ([]byte, error) {
	if cs.addr == 0 {
		return nil, errors.NotFound(errors.PhaseChannel, "channel", role)
	}
	buf, err := s.alloc.Bytes(cs.addr, cs.size)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseChannel, errors.KindAllocation, err, role+" channel storage")
	}
	return buf, nil
}

// Log writes msg into the log buffer and invokes the host notification hook.
// Fire-and-forget: it never fails the surrounding call. Messages longer than
// the buffer are truncated; a message that exactly fills the buffer carries
// no terminator and the host reads the whole buffer.
func (s *Session) Log(msg string) {
	s.writeBuffer(s.logAddr, s.logSize, msg)
	if s.notify != nil {
		s.notify()
	}
}

// Fail writes msg into the error buffer for the host to pick up after the
// current call returns. Truncation behaves as in Log.
func (s *Session) Fail(msg string) {
	s.writeBuffer(s.errAddr, s.errSize, msg)
}

// ClearError empties the error buffer. Run does this on entry so a stale
// message from an earlier call can never be attributed to a later one.
func (s *Session) ClearError() {
	if b, err := s.alloc.Bytes(s.errAddr, 1); err == nil {
		b[0] = 0
	}
}

func (s *Session) writeBuffer(addr, size uint32, msg string) {
	buf, err := s.alloc.Bytes(addr, size)
	if err != nil {
		return
	}
	n := copy(buf, msg)
	if uint32(n) < size {
		buf[n] = 0
	}
}

// Run is the exported-operation wrapper: it clears the error buffer, invokes
// fn, and maps the outcome to the integer status code the host observes.
// An error (or panic) becomes code 1 with the message in the error buffer.
func (s *Session) Run(fn func() error) (code int32) {
	s.ClearError()

	defer func() {
		if r := recover(); r != nil {
			s.Fail(fmt.Sprint(r))
			code = 1
		}
	}()

	if err := fn(); err != nil {
		s.Fail(err.Error())
		return 1
	}
	return 0
}
