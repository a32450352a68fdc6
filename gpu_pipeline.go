// gpu_pipeline.go - NEMA GPU pipeline context and texture binding

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/SlateEngine

License: GPLv3 or later
*/

/*
gpu_pipeline.go - NEMA GPU Pipeline Context

The pipeline context accumulates state commands (bind texture, set blend,
set constant color) until a drawing command consumes them. Every drawing
command finalizes the context: after it executes, all bindings are released
and blend/color state is cleared, so each primitive starts from a clean
slate. The clip rectangle is deliberately NOT part of the context; it is
device-wide state that survives finalization and command list boundaries.

Binding rules:

    TEX0 (destination) - ARGB32, mapped read-write onto guest SDRAM so
                         rendering lands directly in guest-visible memory.
    TEX1 (source)      - ARGB32, copied out of guest memory. May live in
                         flash, where blit sources commonly reside.
    TEX3 (mask)        - A8 coverage, copied out of guest memory with the
                         stride rounded up to a 4-byte multiple and the
                         padding zeroed. The guest driver hands over packed
                         rows; the compositor wants aligned ones.

Binding an occupied slot releases the previous binding first, then binds
the new texture. A failed rebind therefore leaves the slot empty, never
pointing at a stale buffer.
*/

package main

import "fmt"

// blendShape records which class of drawing command a blend mode was
// configured for. The shape is bookkeeping carried alongside the mode;
// drawing commands name their own shape in fault diagnostics. A zero
// blending mode is valid, so drawing with no prior set-blend is allowed.
type blendShape uint8

const (
	blendShapeNone blendShape = iota
	blendShapeFill
	blendShapeBlit
)

func (s blendShape) String() string {
	switch s {
	case blendShapeFill:
		return "fill"
	case blendShapeBlit:
		return "blit"
	default:
		return "none"
	}
}

// pipelineContext is the accumulated state for the next drawing command.
type pipelineContext struct {
	dest *texImage
	src  *texImage
	mask *texImage

	blendMode  uint8
	blendShape blendShape

	constColor    uint32
	constColorSet bool
}

// bindTexture executes a bind command against the context. The destination
// maps guest SDRAM in place; source and mask are copied.
func (ctx *pipelineContext) bindTexture(mem AddressSpace, op BindTexOp) error {
	switch op.Slot {
	case NEMA_TEX0:
		return ctx.bindDest(mem, op)
	case NEMA_TEX1:
		return ctx.bindSource(mem, op)
	case NEMA_TEX3:
		return ctx.bindMask(mem, op)
	default:
		return fmt.Errorf("bind_tex: unsupported slot %d", op.Slot)
	}
}

// texByteLength computes a binding's byte extent without 32-bit wraparound.
// Nothing larger than SDRAM can ever bind, so oversized extents fault here
// before any allocation or mapping happens.
func texByteLength(stride int32, height uint32) (uint32, error) {
	length := uint64(stride) * uint64(height)
	if length > SDRAM_SIZE {
		return 0, fmt.Errorf("texture extent of %d bytes exceeds addressable memory", length)
	}
	return uint32(length), nil
}

func (ctx *pipelineContext) bindDest(mem AddressSpace, op BindTexOp) error {
	if ctx.dest != nil {
		ctx.dest.release(mem)
		ctx.dest = nil
	}
	if op.Format != NEMA_RGBA8888 {
		return fmt.Errorf("bind_tex: destination must be ARGB32, got format %d", op.Format)
	}
	if op.Stride < int32(op.Width)*4 {
		return fmt.Errorf("bind_tex: destination stride %d too small for width %d", op.Stride, op.Width)
	}
	length, err := texByteLength(op.Stride, op.Height)
	if err != nil {
		return fmt.Errorf("bind_tex: destination: %w", err)
	}
	data, err := mem.Map(op.Addr, length, true)
	if err != nil {
		return fmt.Errorf("bind_tex: destination at %08X: %w", op.Addr, err)
	}
	ctx.dest = &texImage{
		data:   data,
		width:  int(op.Width),
		height: int(op.Height),
		stride: int(op.Stride),
		format: op.Format,
		mapped: true,
	}
	return nil
}

func (ctx *pipelineContext) bindSource(mem AddressSpace, op BindTexOp) error {
	if ctx.src != nil {
		ctx.src.release(mem)
		ctx.src = nil
	}
	if op.Format != NEMA_RGBA8888 {
		return fmt.Errorf("bind_tex: source must be ARGB32, got format %d", op.Format)
	}
	if op.Stride < int32(op.Width)*4 {
		return fmt.Errorf("bind_tex: source stride %d too small for width %d", op.Stride, op.Width)
	}
	length, err := texByteLength(op.Stride, op.Height)
	if err != nil {
		return fmt.Errorf("bind_tex: source: %w", err)
	}
	buf := make([]byte, length)
	if err := mem.ReadBytes(op.Addr, buf); err != nil {
		return fmt.Errorf("bind_tex: source at %08X: %w", op.Addr, err)
	}
	ctx.src = &texImage{
		data:   buf,
		width:  int(op.Width),
		height: int(op.Height),
		stride: int(op.Stride),
		format: op.Format,
	}
	return nil
}

func (ctx *pipelineContext) bindMask(mem AddressSpace, op BindTexOp) error {
	if ctx.mask != nil {
		ctx.mask.release(mem)
		ctx.mask = nil
	}
	if op.Format != NEMA_A8 {
		return fmt.Errorf("bind_tex: mask must be A8, got format %d", op.Format)
	}
	if op.Stride < int32(op.Width) {
		return fmt.Errorf("bind_tex: mask stride %d too small for width %d", op.Stride, op.Width)
	}
	length, err := texByteLength(op.Stride, op.Height)
	if err != nil {
		return fmt.Errorf("bind_tex: mask: %w", err)
	}

	// The compositor wants 4-byte aligned rows; the guest hands over
	// whatever packing its allocator produced. Repack row by row, zeroing
	// the padding so stray bytes never read as coverage.
	guestStride := int(op.Stride)
	alignedStride := guestStride
	if alignedStride%4 != 0 {
		alignedStride = ((alignedStride >> 2) + 1) << 2
	}

	guest := make([]byte, length)
	if err := mem.ReadBytes(op.Addr, guest); err != nil {
		return fmt.Errorf("bind_tex: mask at %08X: %w", op.Addr, err)
	}

	data := guest
	if alignedStride != guestStride {
		data = make([]byte, alignedStride*int(op.Height))
		for y := 0; y < int(op.Height); y++ {
			copy(data[y*alignedStride:y*alignedStride+guestStride], guest[y*guestStride:])
		}
	}

	ctx.mask = &texImage{
		data:   data,
		width:  int(op.Width),
		height: int(op.Height),
		stride: alignedStride,
		format: op.Format,
	}
	return nil
}

// setBlend records the blend mode and which command class it applies to.
func (ctx *pipelineContext) setBlend(op SetBlendOp) {
	ctx.blendMode = op.Mode
	ctx.blendShape = op.Shape
}

func (ctx *pipelineContext) setConstColor(op SetConstColorOp) {
	ctx.constColor = op.Color
	ctx.constColorSet = true
}

// validate checks the context against the requirements of a drawing command
// of the given shape. Every drawing command calls this before touching a
// pixel; a violation faults the device without rendering anything.
func (ctx *pipelineContext) validate(clip *clipState, shape blendShape) error {
	if !clip.set {
		return fmt.Errorf("%s command with no clip rectangle set", shape)
	}
	if ctx.dest == nil {
		return fmt.Errorf("%s command with no destination bound", shape)
	}
	if ctx.blendMode&NEMA_BL_MASK != 0 && ctx.mask == nil {
		return fmt.Errorf("%s command requests mask blending with no mask bound", shape)
	}
	if ctx.blendMode&NEMA_BL_MASK == 0 && ctx.mask != nil {
		return fmt.Errorf("%s command has a mask bound but mask blending off", shape)
	}
	if ctx.blendMode&NEMA_BL_OPA != 0 && !ctx.constColorSet {
		return fmt.Errorf("%s command requests opacity blending with no constant color set", shape)
	}
	if ctx.blendMode&NEMA_BL_OPA == 0 && ctx.constColorSet {
		return fmt.Errorf("%s command has a constant color set but opacity blending off", shape)
	}
	return nil
}

// blendOpacity folds the constant color's alpha into the mask ahead of
// compositing. With no mask bound it synthesizes a full-coverage mask of
// the opacity value; with one bound it scales the existing coverage in
// place. After this the compositor needs no opacity special case.
func (ctx *pipelineContext) blendOpacity() {
	if ctx.blendMode&NEMA_BL_OPA == 0 {
		return
	}
	alpha := (ctx.constColor >> 24) & 0xFF

	if ctx.mask == nil {
		w := ctx.dest.width
		stride := w
		if stride%4 != 0 {
			stride = ((stride >> 2) + 1) << 2
		}
		data := make([]byte, stride*ctx.dest.height)
		for i := range data {
			data[i] = uint8(alpha)
		}
		ctx.mask = &texImage{
			data:   data,
			width:  w,
			height: ctx.dest.height,
			stride: stride,
			format: NEMA_A8,
		}
		return
	}

	for i, b := range ctx.mask.data {
		ctx.mask.data[i] = uint8((uint32(b) * alpha) >> 8)
	}
}

// release finalizes the context: unmaps or drops every binding and clears
// blend and color state. The clip rectangle lives outside the context and
// is untouched.
func (ctx *pipelineContext) release(mem AddressSpace) {
	if ctx.dest != nil {
		ctx.dest.release(mem)
		ctx.dest = nil
	}
	if ctx.src != nil {
		ctx.src.release(mem)
		ctx.src = nil
	}
	if ctx.mask != nil {
		ctx.mask.release(mem)
		ctx.mask = nil
	}
	ctx.blendMode = 0
	ctx.blendShape = blendShapeNone
	ctx.constColor = 0
	ctx.constColorSet = false
}
