// gpu_raster.go - Pixel surfaces and compositing for the NEMA GPU

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/SlateEngine

License: GPLv3 or later
*/

/*
gpu_raster.go - NEMA GPU Raster Layer

Pixel-level machinery shared by the primitive executors:

    texImage      - a rectangular pixel buffer, either mapped read-write
                    onto guest SDRAM (destination) or copied into a private
                    buffer (source/mask). ARGB32 or A8.
    compositing   - premultiplied source-over with optional A8 mask
                    coverage, restricted to a clip region. This is the rule
                    shared by fill-rect and blit.
    vector bridge - conversion between a destination texImage and a
                    gogpu/gg drawing context for the path-based opcodes.
                    The clip rectangle is enforced at flush time: the
                    scratch canvas is seeded from the destination and only
                    the clip-intersected region is written back.

The GPU keeps the clip in two representations, one per rendering path: an
image.Rectangle region consumed by the compositor and a GPURegion consumed
by the vector path. SetClip updates both.

ARGB32 here means packed 0xAARRGGBB words in guest byte order, i.e. B,G,R,A
bytes in memory. Channel values are premultiplied, matching what the guest
driver's software renderer produces.
*/

package main

import (
	"image"

	"github.com/gogpu/gg"
)

// GPURegion is a clip rectangle in the guest's coordinate space.
type GPURegion struct {
	X, Y int32
	W, H uint32
}

func (r GPURegion) toRect() image.Rectangle {
	return image.Rect(int(r.X), int(r.Y), int(r.X)+int(r.W), int(r.Y)+int(r.H))
}

// clipState is device-wide clip state: set once, persists across command
// lists until overwritten. Both representations always describe the same
// logical rectangle.
type clipState struct {
	set    bool
	region image.Rectangle // pixel-compositing path
	rect   GPURegion       // vector path
}

func (cs *clipState) update(op SetClipOp) {
	cs.rect = GPURegion{X: op.X, Y: op.Y, W: op.W, H: op.H}
	cs.region = cs.rect.toRect()
	cs.set = true
}

// texImage is a bound pixel buffer. data either aliases guest SDRAM
// (mapped == true, destination bindings) or is a private copy
// (source/mask bindings).
type texImage struct {
	data   []byte
	width  int
	height int
	stride int
	format uint32
	mapped bool
}

// release returns a mapped buffer to the address space. Private copies are
// simply dropped.
func (t *texImage) release(mem AddressSpace) {
	if t.mapped {
		mem.Unmap(t.data, true)
	}
	t.data = nil
}

func muldiv255(a, b uint32) uint32 {
	return (a*b + 127) / 255
}

// premultARGB splits a packed non-premultiplied ARGB word into
// premultiplied channels, the form the compositor works in.
func premultARGB(color uint32) (a, r, g, b uint32) {
	a = (color >> 24) & 0xFF
	r = muldiv255((color>>16)&0xFF, a)
	g = muldiv255((color>>8)&0xFF, a)
	b = muldiv255(color&0xFF, a)
	return
}

// maskCoverage returns the A8 coverage at (x, y), or full coverage when no
// mask is bound. Coordinates outside the mask contribute nothing.
func maskCoverage(mask *texImage, x, y int) uint32 {
	if mask == nil {
		return 255
	}
	if x < 0 || y < 0 || x >= mask.width || y >= mask.height {
		return 0
	}
	return uint32(mask.data[y*mask.stride+x])
}

// compositeOver blends a source over dst within the target rectangle
// (x, y, w, h), further restricted to clip and the destination bounds.
// src is sampled at destination coordinates; pass nil fetch for a solid
// color. The mask's origin is anchored at the target rectangle's origin,
// not the destination's. All channels are premultiplied.
func compositeOver(dst *texImage, src *texImage, solid uint32, mask *texImage, clip image.Rectangle, x, y, w, h int) {
	target := image.Rect(x, y, x+w, y+h).
		Intersect(clip).
		Intersect(image.Rect(0, 0, dst.width, dst.height))
	if target.Empty() {
		return
	}

	sa, sr, sg, sb := premultARGB(solid)

	for py := target.Min.Y; py < target.Max.Y; py++ {
		row := dst.data[py*dst.stride:]
		for px := target.Min.X; px < target.Max.X; px++ {
			a, r, g, b := sa, sr, sg, sb
			if src != nil {
				if px >= src.width || py >= src.height {
					continue
				}
				so := py*src.stride + px*4
				b = uint32(src.data[so])
				g = uint32(src.data[so+1])
				r = uint32(src.data[so+2])
				a = uint32(src.data[so+3])
			}

			m := maskCoverage(mask, px-x, py-y)
			if m == 0 {
				continue
			}
			a = muldiv255(a, m)
			r = muldiv255(r, m)
			g = muldiv255(g, m)
			b = muldiv255(b, m)

			do := px * 4
			inv := 255 - a
			row[do] = uint8(b + muldiv255(uint32(row[do]), inv))
			row[do+1] = uint8(g + muldiv255(uint32(row[do+1]), inv))
			row[do+2] = uint8(r + muldiv255(uint32(row[do+2]), inv))
			row[do+3] = uint8(a + muldiv255(uint32(row[do+3]), inv))
		}
	}
}

// =============================================================================
// Vector path bridge
// =============================================================================

// vectorColor converts a packed ARGB word to normalised channels for the
// path renderer.
func vectorColor(color uint32) (r, g, b, a float64) {
	const factor = 1.0 / 255.0
	a = float64((color>>24)&0xFF) * factor
	r = float64((color>>16)&0xFF) * factor
	g = float64((color>>8)&0xFF) * factor
	b = float64(color&0xFF) * factor
	return
}

// vectorContext seeds a gg drawing context with the destination's current
// contents.
func (t *texImage) vectorContext() *gg.Context {
	img := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	for y := 0; y < t.height; y++ {
		so := y * t.stride
		do := y * img.Stride
		for x := 0; x < t.width; x++ {
			img.Pix[do] = t.data[so+2]   // R
			img.Pix[do+1] = t.data[so+1] // G
			img.Pix[do+2] = t.data[so]   // B
			img.Pix[do+3] = t.data[so+3] // A
			so += 4
			do += 4
		}
	}
	return gg.NewContextForImage(img)
}

// flushVector writes a drawing context's canvas back into the destination,
// restricted to the clip rectangle. Pixels outside the clip keep their
// previous contents; this is where the vector path's clip semantics are
// enforced.
func (t *texImage) flushVector(dc *gg.Context, clip GPURegion) {
	img, ok := dc.Image().(*image.RGBA)
	if !ok {
		return
	}
	target := clip.toRect().Intersect(image.Rect(0, 0, t.width, t.height))
	for y := target.Min.Y; y < target.Max.Y; y++ {
		so := y*img.Stride + target.Min.X*4
		do := y*t.stride + target.Min.X*4
		for x := target.Min.X; x < target.Max.X; x++ {
			t.data[do] = img.Pix[so+2]   // B
			t.data[do+1] = img.Pix[so+1] // G
			t.data[do+2] = img.Pix[so]   // R
			t.data[do+3] = img.Pix[so+3] // A
			so += 4
			do += 4
		}
	}
}
