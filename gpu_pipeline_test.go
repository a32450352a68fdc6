// gpu_pipeline_test.go - NEMA pipeline context tests

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/SlateEngine

License: GPLv3 or later
*/

package main

import "testing"

const pipelineTestAddr = SDRAM_BASE + 0x10000

func TestBindDestMapsGuestMemory(t *testing.T) {
	bus := NewMachineBus()
	ctx := &pipelineContext{}

	err := ctx.bindTexture(bus, BindTexOp{
		Slot: NEMA_TEX0, Addr: pipelineTestAddr,
		Width: 8, Height: 8, Stride: 32, Format: NEMA_RGBA8888,
	})
	if err != nil {
		t.Fatalf("bindTexture: %v", err)
	}
	if ctx.dest == nil || !ctx.dest.mapped {
		t.Fatal("destination not mapped")
	}

	// Writes through the binding land in guest memory.
	ctx.dest.data[0] = 0x5A
	if got := bus.Read8(pipelineTestAddr); got != 0x5A {
		t.Fatalf("dest write not visible to guest: %02X", got)
	}
}

func TestBindSourceCopiesGuestMemory(t *testing.T) {
	bus := NewMachineBus()
	bus.Write32(pipelineTestAddr, 0x11223344)
	ctx := &pipelineContext{}

	err := ctx.bindTexture(bus, BindTexOp{
		Slot: NEMA_TEX1, Addr: pipelineTestAddr,
		Width: 4, Height: 4, Stride: 16, Format: NEMA_RGBA8888,
	})
	if err != nil {
		t.Fatalf("bindTexture: %v", err)
	}
	if ctx.src == nil || ctx.src.mapped {
		t.Fatal("source should be a private copy")
	}
	if ctx.src.data[0] != 0x44 {
		t.Fatalf("source copy wrong: %02X", ctx.src.data[0])
	}

	// Guest changes after binding must not show through.
	bus.Write8(pipelineTestAddr, 0xFF)
	if ctx.src.data[0] != 0x44 {
		t.Fatal("source copy aliases guest memory")
	}
}

func TestBindSourceFromFlash(t *testing.T) {
	bus := NewMachineBus()
	asset := make([]byte, 64)
	for i := range asset {
		asset[i] = uint8(i)
	}
	if err := bus.LoadFlash(asset); err != nil {
		t.Fatalf("LoadFlash: %v", err)
	}

	ctx := &pipelineContext{}
	err := ctx.bindTexture(bus, BindTexOp{
		Slot: NEMA_TEX1, Addr: FLASH_BASE,
		Width: 4, Height: 4, Stride: 16, Format: NEMA_RGBA8888,
	})
	if err != nil {
		t.Fatalf("bindTexture from flash: %v", err)
	}
	if ctx.src.data[5] != 5 {
		t.Fatalf("flash source copy wrong: %02X", ctx.src.data[5])
	}
}

func TestBindMaskPadsStride(t *testing.T) {
	bus := NewMachineBus()
	// 6-wide A8 rows, packed: stride 6, not 4-byte aligned.
	for i := uint32(0); i < 12; i++ {
		bus.Write8(pipelineTestAddr+i, uint8(i+1))
	}

	ctx := &pipelineContext{}
	err := ctx.bindTexture(bus, BindTexOp{
		Slot: NEMA_TEX3, Addr: pipelineTestAddr,
		Width: 6, Height: 2, Stride: 6, Format: NEMA_A8,
	})
	if err != nil {
		t.Fatalf("bindTexture: %v", err)
	}
	mask := ctx.mask
	if mask.stride != 8 {
		t.Fatalf("mask stride = %d, want 8", mask.stride)
	}
	// Row contents preserved, padding zeroed.
	for x := 0; x < 6; x++ {
		if mask.data[x] != uint8(x+1) {
			t.Fatalf("row 0 byte %d = %02X", x, mask.data[x])
		}
		if mask.data[8+x] != uint8(x+7) {
			t.Fatalf("row 1 byte %d = %02X", x, mask.data[8+x])
		}
	}
	if mask.data[6] != 0 || mask.data[7] != 0 || mask.data[14] != 0 || mask.data[15] != 0 {
		t.Fatal("stride padding not zeroed")
	}
}

func TestBindMaskAlignedStrideKeptAsIs(t *testing.T) {
	bus := NewMachineBus()
	ctx := &pipelineContext{}
	err := ctx.bindTexture(bus, BindTexOp{
		Slot: NEMA_TEX3, Addr: pipelineTestAddr,
		Width: 8, Height: 2, Stride: 8, Format: NEMA_A8,
	})
	if err != nil {
		t.Fatalf("bindTexture: %v", err)
	}
	if ctx.mask.stride != 8 {
		t.Fatalf("aligned stride changed to %d", ctx.mask.stride)
	}
}

func TestBindRejectsBadFormats(t *testing.T) {
	bus := NewMachineBus()
	ctx := &pipelineContext{}

	cases := []BindTexOp{
		{Slot: NEMA_TEX0, Addr: pipelineTestAddr, Width: 4, Height: 4, Stride: 16, Format: NEMA_A8},
		{Slot: NEMA_TEX1, Addr: pipelineTestAddr, Width: 4, Height: 4, Stride: 16, Format: NEMA_A8},
		{Slot: NEMA_TEX3, Addr: pipelineTestAddr, Width: 4, Height: 4, Stride: 4, Format: NEMA_RGBA8888},
		{Slot: NEMA_TEX2, Addr: pipelineTestAddr, Width: 4, Height: 4, Stride: 16, Format: NEMA_RGBA8888},
		{Slot: NEMA_NOTEX, Addr: pipelineTestAddr, Width: 4, Height: 4, Stride: 16, Format: NEMA_RGBA8888},
	}
	for i, op := range cases {
		if err := ctx.bindTexture(bus, op); err == nil {
			t.Errorf("case %d: bind accepted", i)
		}
	}
}

func TestRebindReleasesPreviousBinding(t *testing.T) {
	bus := NewMachineBus()
	ctx := &pipelineContext{}

	op := BindTexOp{Slot: NEMA_TEX0, Addr: pipelineTestAddr, Width: 4, Height: 4, Stride: 16, Format: NEMA_RGBA8888}
	if err := ctx.bindTexture(bus, op); err != nil {
		t.Fatalf("first bind: %v", err)
	}
	first := ctx.dest

	op.Addr = pipelineTestAddr + 0x100
	if err := ctx.bindTexture(bus, op); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if ctx.dest == first {
		t.Fatal("rebind kept the old binding")
	}
	if first.data != nil {
		t.Fatal("previous binding not released")
	}

	// A failed rebind leaves the slot empty, not stale.
	op.Format = NEMA_A8
	if err := ctx.bindTexture(bus, op); err == nil {
		t.Fatal("bad rebind accepted")
	}
	if ctx.dest != nil {
		t.Fatal("failed rebind left a stale binding")
	}
}

func TestValidateRequirements(t *testing.T) {
	bus := NewMachineBus()
	clip := &clipState{}
	ctx := &pipelineContext{}
	bindDest := func() {
		if err := ctx.bindTexture(bus, BindTexOp{
			Slot: NEMA_TEX0, Addr: pipelineTestAddr,
			Width: 4, Height: 4, Stride: 16, Format: NEMA_RGBA8888,
		}); err != nil {
			t.Fatalf("bind dest: %v", err)
		}
	}

	// No clip.
	bindDest()
	if err := ctx.validate(clip, blendShapeFill); err == nil {
		t.Fatal("validated without clip")
	}

	clip.update(SetClipOp{W: 4, H: 4})

	// A zero blending mode is valid: no set-blend is needed before drawing,
	// and the recorded shape is bookkeeping only.
	if err := ctx.validate(clip, blendShapeFill); err != nil {
		t.Fatalf("blend-free fill context rejected: %v", err)
	}
	if err := ctx.validate(clip, blendShapeBlit); err != nil {
		t.Fatalf("blend-free blit context rejected: %v", err)
	}

	ctx.setBlend(SetBlendOp{Mode: NEMA_BL_SIMPLE, Shape: blendShapeFill})
	if err := ctx.validate(clip, blendShapeFill); err != nil {
		t.Fatalf("minimal fill context rejected: %v", err)
	}

	// Mask blending without a mask.
	ctx.setBlend(SetBlendOp{Mode: NEMA_BL_SIMPLE | NEMA_BL_MASK, Shape: blendShapeFill})
	if err := ctx.validate(clip, blendShapeFill); err == nil {
		t.Fatal("mask blend validated without mask")
	}

	// Mask bound but mask blending off.
	ctx.setBlend(SetBlendOp{Mode: NEMA_BL_SIMPLE, Shape: blendShapeFill})
	if err := ctx.bindTexture(bus, BindTexOp{
		Slot: NEMA_TEX3, Addr: pipelineTestAddr, Width: 4, Height: 4, Stride: 4, Format: NEMA_A8,
	}); err != nil {
		t.Fatalf("bind mask: %v", err)
	}
	if err := ctx.validate(clip, blendShapeFill); err == nil {
		t.Fatal("stray mask validated")
	}

	// Opacity blending without constant color.
	ctx.release(bus)
	bindDest()
	ctx.setBlend(SetBlendOp{Mode: NEMA_BL_SIMPLE | NEMA_BL_OPA, Shape: blendShapeFill})
	if err := ctx.validate(clip, blendShapeFill); err == nil {
		t.Fatal("opacity blend validated without const color")
	}
	ctx.setConstColor(SetConstColorOp{Color: 0x80000000})
	if err := ctx.validate(clip, blendShapeFill); err != nil {
		t.Fatalf("opacity context rejected: %v", err)
	}

	// Constant color with opacity blending off.
	ctx.setBlend(SetBlendOp{Mode: NEMA_BL_SIMPLE, Shape: blendShapeFill})
	if err := ctx.validate(clip, blendShapeFill); err == nil {
		t.Fatal("stray constant color validated")
	}
}

func TestBindRejectsWrappedByteExtent(t *testing.T) {
	bus := NewMachineBus()
	ctx := &pipelineContext{}

	// stride 16 x height 0x10000001 wraps a uint32 byte count to 16; the
	// bind must fault instead of mapping a 16-byte buffer under a huge
	// nominal height.
	cases := []BindTexOp{
		{Slot: NEMA_TEX0, Addr: pipelineTestAddr, Width: 4, Height: 0x10000001, Stride: 16, Format: NEMA_RGBA8888},
		{Slot: NEMA_TEX1, Addr: pipelineTestAddr, Width: 4, Height: 0x10000001, Stride: 16, Format: NEMA_RGBA8888},
		{Slot: NEMA_TEX3, Addr: pipelineTestAddr, Width: 4, Height: 0x10000001, Stride: 16, Format: NEMA_A8},
	}
	for i, op := range cases {
		if err := ctx.bindTexture(bus, op); err == nil {
			t.Errorf("case %d: oversized binding accepted", i)
		}
	}
	if ctx.dest != nil || ctx.src != nil || ctx.mask != nil {
		t.Fatal("oversized binding left state behind")
	}
}

func TestBlendOpacitySynthesizesMask(t *testing.T) {
	bus := NewMachineBus()
	ctx := &pipelineContext{}
	if err := ctx.bindTexture(bus, BindTexOp{
		Slot: NEMA_TEX0, Addr: pipelineTestAddr,
		Width: 6, Height: 2, Stride: 24, Format: NEMA_RGBA8888,
	}); err != nil {
		t.Fatalf("bind dest: %v", err)
	}
	ctx.setBlend(SetBlendOp{Mode: NEMA_BL_SIMPLE | NEMA_BL_OPA, Shape: blendShapeFill})
	ctx.setConstColor(SetConstColorOp{Color: 0x80FFFFFF})

	ctx.blendOpacity()
	if ctx.mask == nil {
		t.Fatal("no mask synthesized")
	}
	if ctx.mask.width != 6 || ctx.mask.height != 2 || ctx.mask.stride != 8 {
		t.Fatalf("mask geometry %dx%d stride %d", ctx.mask.width, ctx.mask.height, ctx.mask.stride)
	}
	if ctx.mask.data[0] != 0x80 || ctx.mask.data[5] != 0x80 {
		t.Fatalf("mask coverage %02X, want 80", ctx.mask.data[0])
	}
}

func TestBlendOpacityScalesExistingMask(t *testing.T) {
	bus := NewMachineBus()
	bus.Write8(pipelineTestAddr, 200)
	bus.Write8(pipelineTestAddr+1, 100)

	ctx := &pipelineContext{}
	if err := ctx.bindTexture(bus, BindTexOp{
		Slot: NEMA_TEX3, Addr: pipelineTestAddr, Width: 4, Height: 1, Stride: 4, Format: NEMA_A8,
	}); err != nil {
		t.Fatalf("bind mask: %v", err)
	}
	ctx.blendMode = NEMA_BL_SIMPLE | NEMA_BL_MASK | NEMA_BL_OPA
	ctx.setConstColor(SetConstColorOp{Color: 0x80000000})

	ctx.blendOpacity()
	if got := ctx.mask.data[0]; got != uint8((200*0x80)>>8) {
		t.Fatalf("mask[0] = %d, want %d", got, (200*0x80)>>8)
	}
	if got := ctx.mask.data[1]; got != uint8((100*0x80)>>8) {
		t.Fatalf("mask[1] = %d, want %d", got, (100*0x80)>>8)
	}
}

func TestBlendOpacityNoOpWithoutFlag(t *testing.T) {
	ctx := &pipelineContext{blendMode: NEMA_BL_SIMPLE}
	ctx.blendOpacity()
	if ctx.mask != nil {
		t.Fatal("mask synthesized without OPA flag")
	}
}

func TestReleaseClearsEverything(t *testing.T) {
	bus := NewMachineBus()
	ctx := &pipelineContext{}
	if err := ctx.bindTexture(bus, BindTexOp{
		Slot: NEMA_TEX0, Addr: pipelineTestAddr, Width: 4, Height: 4, Stride: 16, Format: NEMA_RGBA8888,
	}); err != nil {
		t.Fatalf("bind dest: %v", err)
	}
	ctx.setBlend(SetBlendOp{Mode: NEMA_BL_SIMPLE | NEMA_BL_OPA, Shape: blendShapeFill})
	ctx.setConstColor(SetConstColorOp{Color: 0x12345678})

	ctx.release(bus)
	if ctx.dest != nil || ctx.src != nil || ctx.mask != nil {
		t.Fatal("bindings survived release")
	}
	if ctx.blendMode != 0 || ctx.blendShape != blendShapeNone || ctx.constColorSet {
		t.Fatal("state survived release")
	}
}
