// video_display.go - RAM-backed display device for the Slate Engine

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/SlateEngine

License: GPLv3 or later
*/

/*
video_display.go - Slate Engine RAM Display

The board's display is a plain framebuffer in SDRAM plus a two-signal
handshake, mirroring the GPU's: the guest renders into the framebuffer at
RAM_DISPLAY_DATA_ADDRESS (usually with the GPU), writes
RAM_DISPLAY_WRITE_SIGNAL to publish the frame, and receives the
update-complete interrupt once the host display has taken the pixels. It
acknowledges with RAM_DISPLAY_READY_SIGNAL, which lowers the line.

Guest pixels are ARGB32 words (B,G,R,A in memory); the host backends want
RGBA bytes, so publishing swizzles each pixel on the way out.

A write signal that arrives while a publish is still in flight is dropped,
not queued. The guest is expected to wait for the interrupt before
publishing again; one that does not simply loses frames.
*/

package main

import (
	"fmt"
	"sync/atomic"
)

type RAMDisplay struct {
	mem  AddressSpace
	out  VideoOutput
	irq  InterruptLine
	size int

	frame      []byte
	publishing atomic.Bool
	frames     atomic.Uint64
}

// NewRAMDisplay creates the display device for a size x size framebuffer.
func NewRAMDisplay(mem AddressSpace, out VideoOutput, irq InterruptLine, size int) (*RAMDisplay, error) {
	if size <= 0 {
		return nil, fmt.Errorf("ram display: invalid screen size %d", size)
	}
	return &RAMDisplay{
		mem:   mem,
		out:   out,
		irq:   irq,
		size:  size,
		frame: make([]byte, size*size*4),
	}, nil
}

// HandleRead services reads in the display I/O window. The window is
// write-only; reads return zero.
func (vd *RAMDisplay) HandleRead(addr uint32) uint32 {
	return 0
}

// HandleWrite services writes in the display I/O window.
func (vd *RAMDisplay) HandleWrite(addr uint32, value uint32) {
	if addr-RAM_DISPLAY_IO_ADDRESS != RAM_DISPLAY_WRITE_OFFSET {
		return
	}
	switch value {
	case RAM_DISPLAY_WRITE_SIGNAL:
		vd.publish()
	case RAM_DISPLAY_READY_SIGNAL:
		vd.irq.Lower()
	}
}

// publish pushes the guest framebuffer to the host display and raises the
// update-complete interrupt.
func (vd *RAMDisplay) publish() {
	if !vd.publishing.CompareAndSwap(false, true) {
		return
	}
	defer vd.publishing.Store(false)

	guest := make([]byte, vd.size*vd.size*4)
	if err := vd.mem.ReadBytes(RAM_DISPLAY_DATA_ADDRESS, guest); err != nil {
		fmt.Printf("RAM display: framebuffer read failed: %v\n", err)
		return
	}

	// ARGB32 guest words to RGBA host bytes.
	for i := 0; i < len(guest); i += 4 {
		vd.frame[i] = guest[i+2]
		vd.frame[i+1] = guest[i+1]
		vd.frame[i+2] = guest[i]
		vd.frame[i+3] = guest[i+3]
	}

	if err := vd.out.UpdateFrame(vd.frame); err != nil {
		fmt.Printf("RAM display: frame update failed: %v\n", err)
		return
	}
	vd.frames.Add(1)
	vd.irq.Raise()
}

// FrameCount returns the number of frames published since reset.
func (vd *RAMDisplay) FrameCount() uint64 {
	return vd.frames.Load()
}

// Size returns the framebuffer edge length in pixels.
func (vd *RAMDisplay) Size() int {
	return vd.size
}

// Reset drops any pending frame state and lowers the interrupt line.
func (vd *RAMDisplay) Reset() {
	vd.frames.Store(0)
	vd.irq.Lower()
}
