// machine.go - Slate Engine board wiring

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/SlateEngine

License: GPLv3 or later
*/

/*
machine.go - Slate Engine Board

Assembles the board: machine bus, NEMA GPU, RAM display, host timer and the
video backend, with each device's I/O window registered on the bus per the
memory map in registers.go. Interrupt lines are plain level-triggered
latches the firmware polls; there is no interrupt controller on this board.
*/

package main

import (
	"fmt"
	"os"
	"sync/atomic"
)

// IRQLine is a level-triggered interrupt latch.
type IRQLine struct {
	name     string
	asserted atomic.Bool
}

func NewIRQLine(name string) *IRQLine {
	return &IRQLine{name: name}
}

func (l *IRQLine) Raise() {
	l.asserted.Store(true)
}

func (l *IRQLine) Lower() {
	l.asserted.Store(false)
}

func (l *IRQLine) Asserted() bool {
	return l.asserted.Load()
}

func (l *IRQLine) Name() string {
	return l.name
}

type MachineConfig struct {
	ScreenSize int // framebuffer edge length in pixels
	Scale      int
	Fullscreen bool
}

type Machine struct {
	Bus     *MachineBus
	GPU     *GPUChip
	Display *RAMDisplay
	Timer   *HostTimer
	Video   VideoOutput

	GPUIRQ     *IRQLine
	DisplayIRQ *IRQLine
}

func NewMachine(config MachineConfig) (*Machine, error) {
	if config.ScreenSize <= 0 {
		config.ScreenSize = 512
	}

	bus := NewMachineBus()

	video, err := NewVideoOutput(VIDEO_BACKEND_EBITEN)
	if err != nil {
		return nil, fmt.Errorf("machine: %w", err)
	}
	if err := video.SetDisplayConfig(DisplayConfig{
		Width:       config.ScreenSize,
		Height:      config.ScreenSize,
		Scale:       config.Scale,
		PixelFormat: PixelFormatRGBA,
		VSync:       true,
		Fullscreen:  config.Fullscreen,
	}); err != nil {
		return nil, fmt.Errorf("machine: %w", err)
	}

	gpuIRQ := NewIRQLine("gpu")
	displayIRQ := NewIRQLine("display")

	gpu := NewGPUChip(bus, gpuIRQ)
	display, err := NewRAMDisplay(bus, video, displayIRQ, config.ScreenSize)
	if err != nil {
		return nil, fmt.Errorf("machine: %w", err)
	}
	timer := NewHostTimer()

	bus.MapIO(NEMA_IO_BASE, NEMA_IO_END, gpu.HandleRead, gpu.HandleWrite)
	bus.MapIO(RAM_DISPLAY_IO_ADDRESS, RAM_DISPLAY_IO_END, display.HandleRead, display.HandleWrite)
	bus.MapIO(TIMER_IO_ADDRESS, TIMER_IO_END, timer.HandleRead, timer.HandleWrite)

	m := &Machine{
		Bus:        bus,
		GPU:        gpu,
		Display:    display,
		Timer:      timer,
		Video:      video,
		GPUIRQ:     gpuIRQ,
		DisplayIRQ: displayIRQ,
	}

	if h, ok := video.(interface{ SetHardResetHandler(func()) }); ok {
		h.SetHardResetHandler(m.HardReset)
	}
	if h, ok := video.(interface{ SetStopHandler(func()) }); ok {
		h.SetStopHandler(func() { _ = video.Stop() })
	}

	runtimeStatus.setDevices(gpu, display, timer)
	return m, nil
}

// LoadFlash loads a firmware/asset image file into the flash window.
func (m *Machine) LoadFlash(path string) error {
	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("machine: flash image: %w", err)
	}
	return m.Bus.LoadFlash(image)
}

// Start brings up the video backend.
func (m *Machine) Start() error {
	return m.Video.Start()
}

// Stop shuts down the video backend.
func (m *Machine) Stop() error {
	return m.Video.Stop()
}
