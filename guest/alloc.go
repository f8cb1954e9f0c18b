package guest

// Allocator provides module-side storage addressed by linear-memory offsets.
//
// Bytes returns a view over previously allocated storage. The view is valid
// only until the next Alloc or memory growth; callers re-derive it per
// access instead of caching it.
type Allocator interface {
	Alloc(size uint32) (uint32, error)
	Free(addr, size uint32)
	Bytes(addr, size uint32) ([]byte, error)
}
