// video_display_test.go - RAM display device tests

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/SlateEngine

License: GPLv3 or later
*/

package main

import "testing"

// recordingVideoOutput captures published frames without a real backend.
type recordingVideoOutput struct {
	started bool
	config  DisplayConfig
	frames  [][]byte
}

func (r *recordingVideoOutput) Start() error    { r.started = true; return nil }
func (r *recordingVideoOutput) Stop() error     { r.started = false; return nil }
func (r *recordingVideoOutput) Close() error    { return nil }
func (r *recordingVideoOutput) IsStarted() bool { return r.started }

func (r *recordingVideoOutput) SetDisplayConfig(config DisplayConfig) error {
	r.config = config
	return nil
}
func (r *recordingVideoOutput) GetDisplayConfig() DisplayConfig { return r.config }

func (r *recordingVideoOutput) UpdateFrame(buffer []byte) error {
	frame := make([]byte, len(buffer))
	copy(frame, buffer)
	r.frames = append(r.frames, frame)
	return nil
}

func (r *recordingVideoOutput) WaitForVSync() error   { return nil }
func (r *recordingVideoOutput) GetFrameCount() uint64 { return uint64(len(r.frames)) }
func (r *recordingVideoOutput) GetRefreshRate() int   { return 60 }

type displayTestRig struct {
	bus     *MachineBus
	out     *recordingVideoOutput
	irq     *IRQLine
	display *RAMDisplay
}

func newDisplayTestRig(t *testing.T, size int) *displayTestRig {
	t.Helper()
	bus := NewMachineBus()
	out := &recordingVideoOutput{}
	irq := NewIRQLine("display")
	display, err := NewRAMDisplay(bus, out, irq, size)
	if err != nil {
		t.Fatalf("NewRAMDisplay: %v", err)
	}
	bus.MapIO(RAM_DISPLAY_IO_ADDRESS, RAM_DISPLAY_IO_END, display.HandleRead, display.HandleWrite)
	return &displayTestRig{bus: bus, out: out, irq: irq, display: display}
}

func TestDisplayPublishSwizzlesAndInterrupts(t *testing.T) {
	rig := newDisplayTestRig(t, 4)

	// One blue-ish ARGB pixel at the framebuffer origin: 0xFF3366CC is
	// stored as B,G,R,A = CC,66,33,FF.
	rig.bus.Write32(RAM_DISPLAY_DATA_ADDRESS, 0xFF3366CC)

	rig.bus.Write8(RAM_DISPLAY_IO_ADDRESS+RAM_DISPLAY_WRITE_OFFSET, RAM_DISPLAY_WRITE_SIGNAL)

	if len(rig.out.frames) != 1 {
		t.Fatalf("published %d frames, want 1", len(rig.out.frames))
	}
	if !rig.irq.Asserted() {
		t.Fatal("update-complete interrupt not raised")
	}

	// The backend receives RGBA byte order.
	frame := rig.out.frames[0]
	if frame[0] != 0x33 || frame[1] != 0x66 || frame[2] != 0xCC || frame[3] != 0xFF {
		t.Fatalf("frame pixel = % X, want 33 66 CC FF", frame[:4])
	}
	if got := rig.display.FrameCount(); got != 1 {
		t.Fatalf("FrameCount = %d", got)
	}
}

func TestDisplayReadyLowersInterrupt(t *testing.T) {
	rig := newDisplayTestRig(t, 4)

	rig.bus.Write8(RAM_DISPLAY_IO_ADDRESS+RAM_DISPLAY_WRITE_OFFSET, RAM_DISPLAY_WRITE_SIGNAL)
	if !rig.irq.Asserted() {
		t.Fatal("interrupt not raised")
	}

	rig.bus.Write8(RAM_DISPLAY_IO_ADDRESS+RAM_DISPLAY_WRITE_OFFSET, RAM_DISPLAY_READY_SIGNAL)
	if rig.irq.Asserted() {
		t.Fatal("interrupt still asserted after ready signal")
	}
}

func TestDisplayIgnoresOtherOffsets(t *testing.T) {
	rig := newDisplayTestRig(t, 4)

	rig.bus.Write8(RAM_DISPLAY_IO_ADDRESS+0x10, RAM_DISPLAY_WRITE_SIGNAL)
	if len(rig.out.frames) != 0 {
		t.Fatal("write to unrelated offset published a frame")
	}
	if got := rig.bus.Read8(RAM_DISPLAY_IO_ADDRESS); got != 0 {
		t.Fatalf("display I/O read = %02X, want 0", got)
	}
}

func TestDisplayResetClearsFrameCount(t *testing.T) {
	rig := newDisplayTestRig(t, 4)
	rig.bus.Write8(RAM_DISPLAY_IO_ADDRESS+RAM_DISPLAY_WRITE_OFFSET, RAM_DISPLAY_WRITE_SIGNAL)
	rig.display.Reset()
	if rig.display.FrameCount() != 0 {
		t.Fatal("frame count survived reset")
	}
	if rig.irq.Asserted() {
		t.Fatal("interrupt survived reset")
	}
}
