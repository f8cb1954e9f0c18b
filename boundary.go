package zaw

import "context"

// Export names every module must provide for the boundary protocol.
// getLogPtr and getErrorPtr return the fixed side-channel buffer addresses;
// the allocate exports create channel storage and return its base address.
const (
	ExportGetLogPtr             = "getLogPtr"
	ExportGetErrorPtr           = "getErrorPtr"
	ExportAllocateInputChannel  = "allocateInputChannel"
	ExportAllocateOutputChannel = "allocateOutputChannel"
)

// Host-provided import the module invokes after populating the log buffer.
const (
	ImportModule    = "env"
	ImportNotifyLog = "notifyLog"
)

// PageSize is the WebAssembly linear memory page size in bytes.
const PageSize = 65536

// Default side-channel buffer capacities in bytes. Messages are
// NUL-terminated inside the buffer; longer messages are truncated.
const (
	DefaultLogSize   = 2048
	DefaultErrorSize = 2048
)

// Memory is the shared linear memory as the host observes it.
// It only ever grows; growth may relocate the backing buffer, so any view
// previously returned by Read becomes stale and must be re-obtained.
type Memory interface {
	// Read returns a view over [offset, offset+length). The view aliases
	// the backing buffer and is valid only until the next Grow.
	Read(offset, length uint32) ([]byte, error)

	// Size returns the current memory size in bytes.
	Size() uint32

	// Grow adds deltaPages pages and returns the previous size in pages.
	Grow(deltaPages uint32) (uint32, error)
}

// Exports is the module's callable export table. Boundary operations take
// and return raw integers; everything structured travels through channels.
type Exports interface {
	Call(ctx context.Context, name string, params ...uint64) ([]uint64, error)
}
