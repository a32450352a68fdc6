// gpu_primitives.go - NEMA GPU drawing command execution

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/SlateEngine

License: GPLv3 or later
*/

/*
gpu_primitives.go - NEMA GPU Drawing Commands

Two rendering paths, matching the two halves of the opcode set:

    compositing path - fill-rect and blit. Premultiplied source-over with
                       A8 mask coverage, restricted to the clip rectangle.
                       Opacity blending is folded into the mask before
                       compositing (blendOpacity), so both commands share
                       one inner loop.
    vector path      - line, outline rect and the rounded rects. The
                       destination is lifted into a gg drawing context,
                       the shape is filled or stroked with antialiasing,
                       and the result is written back clip-restricted.

Every executor validates the pipeline context first and renders nothing on
a violation; the chip turns the returned error into a device fault. The
vector commands ignore a bound mask except draw-line, which rejects one
outright: there is no coverage-buffer plumbing in the path renderer and
silently dropping the mask would hide a guest bug.
*/

package main

import (
	"fmt"

	"github.com/gogpu/gg"
)

// Outline rects are stroked at a fixed pen width.
const GPU_STROKE_WIDTH = 2.0

// roundedRadius converts a rounded-rect corner radius to path units. The
// guest driver specifies the radius against a square rect; it is divided
// by the width/height aspect before the path is built.
func roundedRadius(radius int32, w, h uint32) float64 {
	if w == 0 || h == 0 {
		return float64(radius)
	}
	return float64(radius) / (float64(w) / float64(h))
}

func (gpu *GPUChip) executeFillRect(op FillRectOp) error {
	if err := gpu.ctx.validate(&gpu.clip, blendShapeFill); err != nil {
		return err
	}
	gpu.ctx.blendOpacity()
	compositeOver(gpu.ctx.dest, nil, op.Color, gpu.ctx.mask, gpu.clip.region,
		int(op.X), int(op.Y), int(op.W), int(op.H))
	return nil
}

func (gpu *GPUChip) executeBlit(op BlitOp) error {
	if err := gpu.ctx.validate(&gpu.clip, blendShapeBlit); err != nil {
		return err
	}
	if gpu.ctx.src == nil {
		return fmt.Errorf("blit with no source bound")
	}
	gpu.ctx.blendOpacity()
	// The blit extent is the whole destination; clip and source bounds
	// trim it down.
	dest := gpu.ctx.dest
	compositeOver(dest, gpu.ctx.src, 0, gpu.ctx.mask, gpu.clip.region,
		0, 0, dest.width, dest.height)
	return nil
}

func (gpu *GPUChip) executeDrawLine(op DrawLineOp) error {
	if err := gpu.ctx.validate(&gpu.clip, blendShapeFill); err != nil {
		return err
	}
	if gpu.ctx.mask != nil {
		return fmt.Errorf("draw_line does not support mask blending")
	}

	r, g, b, a := vectorColor(op.Color)
	if gpu.ctx.blendMode&NEMA_BL_OPA != 0 {
		a *= float64((gpu.ctx.constColor>>24)&0xFF) / 255.0
	}

	dc := gpu.ctx.dest.vectorContext()
	dc.SetRGBA(r, g, b, a)
	dc.SetLineWidth(float64(op.Width))
	dc.SetLineCap(gg.LineCapRound)
	dc.DrawLine(float64(op.X0), float64(op.Y0), float64(op.X1), float64(op.Y1))
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("draw_line: %w", err)
	}
	gpu.ctx.dest.flushVector(dc, gpu.clip.rect)
	return nil
}

func (gpu *GPUChip) executeDrawRect(op DrawRectOp) error {
	if err := gpu.ctx.validate(&gpu.clip, blendShapeFill); err != nil {
		return err
	}

	dc := gpu.ctx.dest.vectorContext()
	dc.SetRGBA(vectorColor(op.Color))
	dc.SetLineWidth(GPU_STROKE_WIDTH)
	dc.DrawRectangle(float64(op.X), float64(op.Y), float64(op.W), float64(op.H))
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("draw_rect: %w", err)
	}
	gpu.ctx.dest.flushVector(dc, gpu.clip.rect)
	return nil
}

func (gpu *GPUChip) executeFillRectRounded(op FillRectRoundedOp) error {
	if err := gpu.ctx.validate(&gpu.clip, blendShapeFill); err != nil {
		return err
	}

	dc := gpu.ctx.dest.vectorContext()
	dc.SetRGBA(vectorColor(op.Color))
	dc.DrawRoundedRectangle(float64(op.X), float64(op.Y),
		float64(op.W), float64(op.H), roundedRadius(op.Radius, op.W, op.H))
	if err := dc.Fill(); err != nil {
		return fmt.Errorf("fill_rect_rounded: %w", err)
	}
	gpu.ctx.dest.flushVector(dc, gpu.clip.rect)
	return nil
}

func (gpu *GPUChip) executeDrawRectRounded(op DrawRectRoundedOp) error {
	if err := gpu.ctx.validate(&gpu.clip, blendShapeFill); err != nil {
		return err
	}

	dc := gpu.ctx.dest.vectorContext()
	dc.SetRGBA(vectorColor(op.Color))
	dc.SetLineWidth(GPU_STROKE_WIDTH)
	dc.DrawRoundedRectangle(float64(op.X), float64(op.Y),
		float64(op.W), float64(op.H), roundedRadius(op.Radius, op.W, op.H))
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("draw_rect_rounded: %w", err)
	}
	gpu.ctx.dest.flushVector(dc, gpu.clip.rect)
	return nil
}
