package engine

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero/api"

	"github.com/loggerhead/zaw"
	"github.com/loggerhead/zaw/runtime"
)

// protocolModule is a hand-assembled core module implementing the boundary
// protocol with fixed addresses: log buffer at 1024, error buffer at 3072,
// input channel at 5120, output channel at 6144. It exports its memory
// (1 page), the four protocol functions, and a "ping" export that calls the
// env.notifyLog import and returns nothing.
var protocolModule = []byte{
	// magic + version
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type section: () -> i32, (i32) -> i32, () -> ()
	0x01, 0x0d, 0x03,
	0x60, 0x00, 0x01, 0x7f,
	0x60, 0x01, 0x7f, 0x01, 0x7f,
	0x60, 0x00, 0x00,
	// import section: env.notifyLog : () -> ()
	0x02, 0x11, 0x01,
	0x03, 'e', 'n', 'v',
	0x09, 'n', 'o', 't', 'i', 'f', 'y', 'L', 'o', 'g',
	0x00, 0x02,
	// function section: five defined functions
	0x03, 0x06, 0x05, 0x00, 0x00, 0x01, 0x01, 0x02,
	// memory section: one memory, min 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// export section
	0x07, 0x5a, 0x06,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x09, 'g', 'e', 't', 'L', 'o', 'g', 'P', 't', 'r', 0x00, 0x01,
	0x0b, 'g', 'e', 't', 'E', 'r', 'r', 'o', 'r', 'P', 't', 'r', 0x00, 0x02,
	0x14, 'a', 'l', 'l', 'o', 'c', 'a', 't', 'e', 'I', 'n', 'p', 'u', 't',
	'C', 'h', 'a', 'n', 'n', 'e', 'l', 0x00, 0x03,
	0x15, 'a', 'l', 'l', 'o', 'c', 'a', 't', 'e', 'O', 'u', 't', 'p', 'u', 't',
	'C', 'h', 'a', 'n', 'n', 'e', 'l', 0x00, 0x04,
	0x04, 'p', 'i', 'n', 'g', 0x00, 0x05,
	// code section
	0x0a, 0x1e, 0x05,
	0x05, 0x00, 0x41, 0x80, 0x08, 0x0b, // i32.const 1024
	0x05, 0x00, 0x41, 0x80, 0x18, 0x0b, // i32.const 3072
	0x05, 0x00, 0x41, 0x80, 0x28, 0x0b, // i32.const 5120
	0x05, 0x00, 0x41, 0x80, 0x30, 0x0b, // i32.const 6144
	0x04, 0x00, 0x10, 0x00, 0x0b, // call $notifyLog
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(context.Background(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = e.Close(context.Background()) })
	return e
}

func TestLoadRejectsGarbage(t *testing.T) {
	e := newEngine(t)
	if _, err := e.Load(context.Background(), []byte("not wasm")); err == nil {
		t.Fatal("garbage bytes compiled")
	}
}

func TestInstantiateAndBootstrap(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	mod, err := e.Load(ctx, protocolModule)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	inst, err := mod.Instantiate(ctx, InstanceConfig{})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	defer inst.Close(ctx)

	var notified int
	cfg := runtime.DefaultConfig()
	cfg.InputSize = 256
	cfg.OutputSize = 256
	cfg.LogSink = func(string) { notified++ }

	boot, err := runtime.NewInstance(ctx, inst, cfg)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	w, err := boot.Input()
	if err != nil {
		t.Fatalf("Input: %v", err)
	}
	if err := w.WriteUint32(99); err != nil {
		t.Fatalf("write into input channel: %v", err)
	}

	// ping calls env.notifyLog; the hook must route back to this instance.
	if err := boot.Call(ctx, "ping"); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if notified != 1 {
		t.Errorf("notify count = %d, want 1", notified)
	}
}

func TestRegisterHostModule(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	if err := e.RegisterHostModule(ctx, "env", nil); err == nil {
		t.Error("redefining the env namespace succeeded")
	}

	err := e.RegisterHostModule(ctx, "host.extra", []HostFunc{{
		Name: "tick",
		Fn:   func(context.Context, api.Module, []uint64) {},
	}})
	if err != nil {
		t.Fatalf("RegisterHostModule: %v", err)
	}
}

func TestCallUnknownExport(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	mod, err := e.Load(ctx, protocolModule)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	inst, err := mod.Instantiate(ctx, InstanceConfig{})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	defer inst.Close(ctx)

	if _, err := inst.Call(ctx, "does-not-exist"); err == nil {
		t.Fatal("unknown export succeeded")
	}
}

func TestMemoryAdapter(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	mod, err := e.Load(ctx, protocolModule)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	inst, err := mod.Instantiate(ctx, InstanceConfig{})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	defer inst.Close(ctx)

	mem := inst.Memory()
	if mem.Size() != zaw.PageSize {
		t.Fatalf("initial size = %d, want one page", mem.Size())
	}

	if _, err := mem.Read(zaw.PageSize-4, 8); err == nil {
		t.Error("out-of-bounds read succeeded")
	}

	if _, err := mem.Grow(1); err != nil {
		t.Fatalf("Grow: %v", err)
	}
	if mem.Size() != 2*zaw.PageSize {
		t.Errorf("size after grow = %d, want two pages", mem.Size())
	}
	if _, err := mem.Read(zaw.PageSize-4, 8); err != nil {
		t.Errorf("read across old boundary after grow: %v", err)
	}
}
