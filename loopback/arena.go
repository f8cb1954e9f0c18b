package loopback

import (
	"github.com/loggerhead/zaw"
	"github.com/loggerhead/zaw/errors"
)

// arena is a bump allocator handing out linear-memory offsets, the guest
// side's view of the loopback memory. Freed storage is not reclaimed; the
// session allocates channels once per lifetime, so the waste is bounded to
// explicit reallocations.
type arena struct {
	mem  *Memory
	next uint32
}

// newArena reserves offset 0 so that no valid allocation address is 0.
func newArena(mem *Memory) *arena {
	return &arena{mem: mem, next: 8}
}

func (a *arena) Alloc(size uint32) (uint32, error) {
	addr := (a.next + 7) &^ 7
	end := uint64(addr) + uint64(size)

	if end > uint64(a.mem.Size()) {
		needed := end - uint64(a.mem.Size())
		pages := uint32((needed + zaw.PageSize - 1) / zaw.PageSize)
		if _, err := a.mem.Grow(pages); err != nil {
			return 0, errors.AllocationFailed(errors.PhaseGuest, size, err)
		}
	}

	a.next = uint32(end)
	return addr, nil
}

func (a *arena) Free(addr, size uint32) {
	// Bump arena: no reclamation.
}

func (a *arena) Bytes(addr, size uint32) ([]byte, error) {
	return a.mem.Read(addr, size)
}
