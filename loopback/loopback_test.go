package loopback

import (
	"context"
	"testing"

	"github.com/loggerhead/zaw"
	"github.com/loggerhead/zaw/errors"
	"github.com/loggerhead/zaw/guest"
)

func TestMemoryGrowRelocates(t *testing.T) {
	mem := NewMemory(1)
	before, err := mem.Read(0, 16)
	if err != nil {
		t.Fatal(err)
	}
	before[0] = 0xAA

	prev, err := mem.Grow(2)
	if err != nil {
		t.Fatal(err)
	}
	if prev != 1 {
		t.Errorf("previous pages = %d, want 1", prev)
	}
	if mem.Size() != 3*zaw.PageSize {
		t.Errorf("size = %d, want %d", mem.Size(), 3*zaw.PageSize)
	}

	after, err := mem.Read(0, 16)
	if err != nil {
		t.Fatal(err)
	}
	// Contents survive, identity does not.
	if after[0] != 0xAA {
		t.Error("contents lost across growth")
	}
	if &before[0] == &after[0] {
		t.Error("backing buffer was not relocated on Grow")
	}
}

func TestMemoryReadBounds(t *testing.T) {
	mem := NewMemory(1)
	if _, err := mem.Read(zaw.PageSize-4, 8); !errors.IsBounds(err) {
		t.Errorf("out-of-range read: %v, want bounds error", err)
	}
}

func TestArenaGrowsMemory(t *testing.T) {
	mem := NewMemory(1)
	a := newArena(mem)

	// Allocate past the first page; arena must grow the memory to cover.
	addr, err := a.Alloc(3 * zaw.PageSize)
	if err != nil {
		t.Fatal(err)
	}
	if addr == 0 {
		t.Error("arena handed out address 0")
	}
	if mem.Size() < addr+3*zaw.PageSize {
		t.Errorf("memory size %d does not cover allocation end %d", mem.Size(), addr+3*zaw.PageSize)
	}
}

func TestProtocolExports(t *testing.T) {
	m, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	logPtr, err := m.Call(ctx, zaw.ExportGetLogPtr)
	if err != nil || len(logPtr) != 1 || logPtr[0] == 0 {
		t.Fatalf("getLogPtr = %v, %v", logPtr, err)
	}
	errPtr, err := m.Call(ctx, zaw.ExportGetErrorPtr)
	if err != nil || errPtr[0] == 0 || errPtr[0] == logPtr[0] {
		t.Fatalf("getErrorPtr = %v, %v", errPtr, err)
	}

	in, err := m.Call(ctx, zaw.ExportAllocateInputChannel, 1024)
	if err != nil || in[0] == 0 {
		t.Fatalf("allocateInputChannel = %v, %v", in, err)
	}
	out, err := m.Call(ctx, zaw.ExportAllocateOutputChannel, 1024)
	if err != nil || out[0] == 0 || out[0] == in[0] {
		t.Fatalf("allocateOutputChannel = %v, %v", out, err)
	}
}

func TestAllocateTrapSurfacesAsError(t *testing.T) {
	m, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}

	// Non-positive size is a fatal guest diagnostic; the host sees a failed
	// call, not a process crash.
	_, err = m.Call(context.Background(), zaw.ExportAllocateInputChannel, uint64(uint32(0)))
	if err == nil {
		t.Fatal("expected trap error for zero-size channel")
	}
}

func TestDispatch(t *testing.T) {
	m, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	m.Register("ok", func(s *guest.Session) error { return nil })

	res, err := m.Call(context.Background(), "ok")
	if err != nil {
		t.Fatal(err)
	}
	if res[0] != 0 {
		t.Errorf("status = %d, want 0", res[0])
	}

	if _, err := m.Call(context.Background(), "missing"); err == nil {
		t.Error("unknown export did not fail")
	}
}
